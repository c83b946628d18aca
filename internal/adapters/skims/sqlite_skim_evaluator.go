package skims

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleet-dispatch-service/internal/platform/obs"
	"fleet-dispatch-service/internal/ports"
)

// SqliteSkimEvaluator reads zone-to-zone travel costs from the skims table.
// Pairs absent from the table read as zero (unconnected), matching the dense
// table semantics of the cost manager.
type SqliteSkimEvaluator struct {
	DB      *sql.DB
	MaxZone int
}

func NewSqliteSkimEvaluator(db *sql.DB, maxZone int) *SqliteSkimEvaluator {
	return &SqliteSkimEvaluator{DB: db, MaxZone: maxZone}
}

// Solve loads one origin row for one period.
func (s *SqliteSkimEvaluator) Solve(ctx context.Context, period, origin int) (_ ports.SkimRow, err error) {
	defer obs.Time(ctx, "skims.sqlite.Solve")(&err)

	if s.DB == nil {
		return ports.SkimRow{}, errors.New("sqlite skims: db is nil")
	}

	q := `
	SELECT destination, time_minutes, distance_miles
	FROM skims
	WHERE period = ? AND origin = ?;
	`
	rows, err := s.DB.QueryContext(ctx, q, period, origin)
	if err != nil {
		return ports.SkimRow{}, fmt.Errorf("sqlite skims: query period=%d origin=%d: %w", period, origin, err)
	}
	defer rows.Close()

	row := ports.SkimRow{
		TimeMinutes:   make([]float64, s.MaxZone+1),
		DistanceMiles: make([]float64, s.MaxZone+1),
	}
	for rows.Next() {
		var dest int
		var t, d float64
		if err := rows.Scan(&dest, &t, &d); err != nil {
			return ports.SkimRow{}, fmt.Errorf("sqlite skims: scan row: %w", err)
		}
		if dest < 1 || dest > s.MaxZone {
			return ports.SkimRow{}, fmt.Errorf("sqlite skims: destination %d outside 1..%d", dest, s.MaxZone)
		}
		row.TimeMinutes[dest] = t
		row.DistanceMiles[dest] = d
	}
	if err := rows.Err(); err != nil {
		return ports.SkimRow{}, fmt.Errorf("sqlite skims: row iteration: %w", err)
	}

	return row, nil
}
