package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

// RunIDKey carries the simulation run id through adapter calls.
const RunIDKey ctxKey = "run_id"

// Time logs the duration (and error, if any) of a named operation when the
// returned func is deferred. Intended for adapter hot paths: skim loads,
// trip-row flushes, cache round trips.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	runID, _ := ctx.Value(RunIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("run_id=%s op=%s dur=%dms err=%v", runID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("run_id=%s op=%s dur=%dms", runID, name, dur.Milliseconds())
	}
}
