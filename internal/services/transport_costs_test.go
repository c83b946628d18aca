package services

import (
	"context"
	"testing"

	"fleet-dispatch-service/internal/adapters/geography"
	"fleet-dispatch-service/internal/adapters/skims"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
)

// newTestCosts builds a one-period cost manager over the given cells with
// all derived indexes ready.
func newTestCosts(t *testing.T, maxZone int, maxDiversion, maxPickup float64, cells []skims.MatrixCell) *TransportCostManager {
	t.Helper()

	evaluator, err := skims.NewMatrixSkimEvaluator(1, maxZone, cells)
	if err != nil {
		t.Fatalf("build skims: %v", err)
	}
	costs, err := NewTransportCostManager(1, maxZone, maxDiversion, maxPickup)
	if err != nil {
		t.Fatalf("build cost manager: %v", err)
	}
	if err := costs.Initialize(context.Background(), evaluator); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	costs.BuildZonesByTimeFromOrigin()
	costs.BuildZonesWithinDiversionTime()
	return costs
}

// symmetricCells seeds both directions of a pair.
func symmetricCells(period, a, b int, minutes, miles float64) []skims.MatrixCell {
	return []skims.MatrixCell{
		{Period: period, From: a, To: b, TimeMinutes: minutes, DistanceMiles: miles},
		{Period: period, From: b, To: a, TimeMinutes: minutes, DistanceMiles: miles},
	}
}

func TestZonesSortedByTimeThreshold(t *testing.T) {
	// Zone 2 is 3 miles from zone 1, zone 3 is 8 miles: with a 5 mile
	// pickup threshold only zone 2 (and zone 1 itself) qualify.
	var cells []skims.MatrixCell
	cells = append(cells, symmetricCells(0, 1, 2, 6, 3)...)
	cells = append(cells, symmetricCells(0, 1, 3, 16, 8)...)
	cells = append(cells, symmetricCells(0, 2, 3, 10, 5)...)

	costs := newTestCosts(t, 3, 10, 5, cells)

	zones := costs.ZonesSortedByTime(0, 1)
	if len(zones) != 2 {
		t.Fatalf("zones within threshold = %v, want [1 2]", zones)
	}
	if zones[0] != 1 || zones[1] != 2 {
		t.Fatalf("zones = %v, want origin first then zone 2", zones)
	}
	for _, z := range zones {
		if z == 3 {
			t.Fatalf("zone 3 at 8 miles must be outside the 5 mile threshold")
		}
	}
}

func TestZonesSortedByTimeMonotone(t *testing.T) {
	cells := []skims.MatrixCell{
		{Period: 0, From: 1, To: 2, TimeMinutes: 9, DistanceMiles: 4},
		{Period: 0, From: 1, To: 3, TimeMinutes: 2, DistanceMiles: 1},
		{Period: 0, From: 1, To: 4, TimeMinutes: 5, DistanceMiles: 2},
	}
	costs := newTestCosts(t, 4, 10, 5, cells)

	zones := costs.ZonesSortedByTime(0, 1)
	for i := 1; i < len(zones); i++ {
		prev := costs.Time(0, 1, zones[i-1])
		cur := costs.Time(0, 1, zones[i])
		if cur < prev {
			t.Fatalf("zones %v not sorted by time: %v then %v", zones, prev, cur)
		}
	}
}

func TestZonesSortedByTimeTieBreak(t *testing.T) {
	// Zones 4 and 2 have identical times; the default policy orders
	// equal-time zones by zone id ascending.
	cells := []skims.MatrixCell{
		{Period: 0, From: 1, To: 4, TimeMinutes: 5, DistanceMiles: 2},
		{Period: 0, From: 1, To: 2, TimeMinutes: 5, DistanceMiles: 2},
		{Period: 0, From: 1, To: 3, TimeMinutes: 1, DistanceMiles: 1},
	}
	costs := newTestCosts(t, 4, 10, 5, cells)

	zones := costs.ZonesSortedByTime(0, 1)
	want := []domain.Zone{1, 3, 2, 4}
	if len(zones) != len(want) {
		t.Fatalf("zones = %v, want %v", zones, want)
	}
	for i := range want {
		if zones[i] != want[i] {
			t.Fatalf("zones = %v, want %v", zones, want)
		}
	}
}

func TestDiversionFilterCorrectness(t *testing.T) {
	// Direct 1->4 takes 10 minutes. Zone 2 adds 4 minutes of diversion,
	// zone 3 adds 12: with an 8 minute budget only zone 2 qualifies.
	cells := []skims.MatrixCell{
		{Period: 0, From: 1, To: 4, TimeMinutes: 10, DistanceMiles: 5},
		{Period: 0, From: 1, To: 2, TimeMinutes: 6, DistanceMiles: 3},
		{Period: 0, From: 2, To: 4, TimeMinutes: 8, DistanceMiles: 4},
		{Period: 0, From: 1, To: 3, TimeMinutes: 14, DistanceMiles: 7},
		{Period: 0, From: 3, To: 4, TimeMinutes: 8, DistanceMiles: 4},
	}
	costs := newTestCosts(t, 4, 8, 100, cells)

	candidates := costs.ZonesWithinDiversionTime(0, 1, 4)
	direct := costs.Time(0, 1, 4)

	inList := make(map[domain.Zone]bool)
	for _, k := range candidates {
		inList[k] = true
		divert := costs.Time(0, 1, k) + costs.Time(0, k, 4) - direct
		if divert >= 8 {
			t.Fatalf("zone %d in candidate list with diversion %v >= 8", k, divert)
		}
	}
	if !inList[2] {
		t.Fatalf("zone 2 (4 minute diversion) missing from candidates %v", candidates)
	}
	if inList[3] {
		t.Fatalf("zone 3 (12 minute diversion) must not be a candidate")
	}
}

func TestDiversionCandidatesOrderedByTimeFromOrigin(t *testing.T) {
	// Zone 3 adds less diversion than zone 2 but is reached later from the
	// origin; ordering must follow time from origin, not diversion time.
	cells := []skims.MatrixCell{
		{Period: 0, From: 1, To: 5, TimeMinutes: 20, DistanceMiles: 10},
		{Period: 0, From: 1, To: 2, TimeMinutes: 4, DistanceMiles: 2},
		{Period: 0, From: 2, To: 5, TimeMinutes: 22, DistanceMiles: 11},
		{Period: 0, From: 1, To: 3, TimeMinutes: 15, DistanceMiles: 8},
		{Period: 0, From: 3, To: 5, TimeMinutes: 6, DistanceMiles: 3},
	}
	costs := newTestCosts(t, 5, 10, 100, cells)

	candidates := costs.ZonesWithinDiversionTime(0, 1, 5)
	var intermediates []domain.Zone
	for _, k := range candidates {
		if k != 1 && k != 5 {
			intermediates = append(intermediates, k)
		}
	}
	if len(intermediates) != 2 || intermediates[0] != 2 || intermediates[1] != 3 {
		t.Fatalf("intermediates = %v, want [2 3] (time-from-origin order)", intermediates)
	}
}

func TestNearestRefuelZone(t *testing.T) {
	var cells []skims.MatrixCell
	cells = append(cells, symmetricCells(0, 1, 2, 4, 2)...)
	cells = append(cells, symmetricCells(0, 1, 3, 9, 4)...)
	cells = append(cells, symmetricCells(0, 2, 3, 5, 2)...)

	costs := newTestCosts(t, 3, 10, 5, cells)
	geo := geography.NewStaticGeography([]geography.ZoneRow{
		{Maz: 101, Zone: 1},
		{Maz: 201, Zone: 2},
		{Maz: 301, Zone: 3, RefuelStations: 2},
	})
	costs.BuildNearestRefuelZones(geo)

	if got := costs.NearestRefuelZone(0, 1); got != 3 {
		t.Fatalf("nearest refuel zone from 1 = %d, want 3", got)
	}
	if got := costs.NearestRefuelZone(0, 3); got != 3 {
		t.Fatalf("nearest refuel zone from 3 = %d, want 3 (itself)", got)
	}
}

func TestInitializeRejectsBadRow(t *testing.T) {
	costs, err := NewTransportCostManager(1, 3, 10, 5)
	if err != nil {
		t.Fatalf("build cost manager: %v", err)
	}
	err = costs.Initialize(context.Background(), shortRowEvaluator{})
	if err == nil {
		t.Fatal("expected configuration error for short skim row")
	}
}

type shortRowEvaluator struct{}

func (shortRowEvaluator) Solve(context.Context, int, int) (ports.SkimRow, error) {
	return ports.SkimRow{TimeMinutes: []float64{0}, DistanceMiles: []float64{0}}, nil
}
