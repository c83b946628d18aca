package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet-dispatch-service/internal/platform/obs"
	"fleet-dispatch-service/internal/ports"
)

// RedisSkimCache caches per-(period, origin) skim rows in front of a slower
// evaluator, so repeated runs against the same scenario skip the cost solve.
// Cache failures degrade to the inner evaluator; they are never fatal.
type RedisSkimCache struct {
	Client *redis.Client
	Inner  ports.SkimEvaluator
	TTL    time.Duration
}

func NewRedisSkimCache(client *redis.Client, inner ports.SkimEvaluator, ttl time.Duration) *RedisSkimCache {
	return &RedisSkimCache{Client: client, Inner: inner, TTL: ttl}
}

func skimKey(period, origin int) string {
	return fmt.Sprintf("skims:p%d:o%d", period, origin)
}

// Solve returns the cached row when present, otherwise delegates to the
// inner evaluator and stores the result.
func (c *RedisSkimCache) Solve(ctx context.Context, period, origin int) (_ ports.SkimRow, err error) {
	defer obs.Time(ctx, "skims.cache.Solve")(&err)

	if c.Client == nil {
		return ports.SkimRow{}, errors.New("skim cache: redis client is nil")
	}

	key := skimKey(period, origin)
	payload, err := c.Client.Get(ctx, key).Bytes()
	if err == nil {
		var row ports.SkimRow
		if jsonErr := json.Unmarshal(payload, &row); jsonErr == nil {
			return row, nil
		}
		// A corrupt entry is replaced below.
		log.Printf("skim cache: discarding unreadable entry key=%s", key)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("skim cache: get failed key=%s err=%v", key, err)
	}

	row, err := c.Inner.Solve(ctx, period, origin)
	if err != nil {
		return ports.SkimRow{}, fmt.Errorf("skim cache: inner solve period=%d origin=%d: %w", period, origin, err)
	}

	encoded, err := json.Marshal(row)
	if err != nil {
		return ports.SkimRow{}, fmt.Errorf("skim cache: encode row: %w", err)
	}
	if err := c.Client.Set(ctx, key, encoded, c.TTL).Err(); err != nil {
		log.Printf("skim cache: set failed key=%s err=%v", key, err)
	}

	return row, nil
}
