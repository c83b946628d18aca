package ports

import "context"

// SkimRow holds zone-to-all-zones travel costs for one (period, origin) pair.
// Slices are indexed by destination zone number; index 0 is unused because
// there is no zone 0. Times are minutes, distances miles.
type SkimRow struct {
	TimeMinutes   []float64
	DistanceMiles []float64
}

// SkimEvaluator is the external zone-pair cost provider. Implementations
// resolve one origin row at a time so callers control memory layout.
type SkimEvaluator interface {
	// Solve returns travel time and distance from origin to every zone for
	// the given skim period. Both slices must have length maxZone+1.
	Solve(ctx context.Context, period int, origin int) (SkimRow, error)
}
