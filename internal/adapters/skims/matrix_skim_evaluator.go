package skims

import (
	"context"
	"fmt"

	"fleet-dispatch-service/internal/ports"
)

// MatrixCell seeds one zone pair for one period.
type MatrixCell struct {
	Period        int
	From, To      int
	TimeMinutes   float64
	DistanceMiles float64
}

// MatrixSkimEvaluator serves skims from an in-memory dense matrix. Used by
// tests and small scenarios; pairs not seeded read as zero (unconnected).
type MatrixSkimEvaluator struct {
	periods int
	maxZone int
	times   []float64
	dists   []float64
}

func NewMatrixSkimEvaluator(periods, maxZone int, cells []MatrixCell) (*MatrixSkimEvaluator, error) {
	n := maxZone + 1
	m := &MatrixSkimEvaluator{
		periods: periods,
		maxZone: maxZone,
		times:   make([]float64, periods*n*n),
		dists:   make([]float64, periods*n*n),
	}
	for _, c := range cells {
		if c.Period < 0 || c.Period >= periods || c.From < 1 || c.From > maxZone || c.To < 1 || c.To > maxZone {
			return nil, fmt.Errorf("matrix skims: cell out of range period=%d from=%d to=%d", c.Period, c.From, c.To)
		}
		i := c.Period*n*n + c.From*n + c.To
		m.times[i] = c.TimeMinutes
		m.dists[i] = c.DistanceMiles
	}
	return m, nil
}

func (m *MatrixSkimEvaluator) Solve(_ context.Context, period, origin int) (ports.SkimRow, error) {
	if period < 0 || period >= m.periods {
		return ports.SkimRow{}, fmt.Errorf("matrix skims: period %d out of range", period)
	}
	if origin < 1 || origin > m.maxZone {
		return ports.SkimRow{}, fmt.Errorf("matrix skims: origin %d out of range", origin)
	}
	n := m.maxZone + 1
	base := period*n*n + origin*n
	row := ports.SkimRow{
		TimeMinutes:   make([]float64, n),
		DistanceMiles: make([]float64, n),
	}
	copy(row.TimeMinutes, m.times[base:base+n])
	copy(row.DistanceMiles, m.dists[base:base+n])
	return row, nil
}
