package geography

import (
	"sort"

	"fleet-dispatch-service/internal/domain"
)

// StaticGeography is an immutable in-memory zone lookup table built once
// from the scenario's zone rows.
type StaticGeography struct {
	mazToZone map[domain.Maz]domain.Zone
	zoneMazs  map[domain.Zone][]domain.Maz
	stations  map[domain.Zone]int
}

// ZoneRow is one micro-zone record from the scenario zone table.
type ZoneRow struct {
	Maz            domain.Maz
	Zone           domain.Zone
	RefuelStations int
}

func NewStaticGeography(rows []ZoneRow) *StaticGeography {
	g := &StaticGeography{
		mazToZone: make(map[domain.Maz]domain.Zone, len(rows)),
		zoneMazs:  make(map[domain.Zone][]domain.Maz),
		stations:  make(map[domain.Zone]int),
	}
	for _, r := range rows {
		g.mazToZone[r.Maz] = r.Zone
		g.zoneMazs[r.Zone] = append(g.zoneMazs[r.Zone], r.Maz)
		g.stations[r.Zone] += r.RefuelStations
	}
	// Deterministic micro-zone order within each zone.
	for z := range g.zoneMazs {
		mazs := g.zoneMazs[z]
		sort.Slice(mazs, func(i, j int) bool { return mazs[i] < mazs[j] })
	}
	return g
}

func (g *StaticGeography) ZoneForMaz(maz domain.Maz) (domain.Zone, bool) {
	z, ok := g.mazToZone[maz]
	return z, ok
}

func (g *StaticGeography) MazsInZone(zone domain.Zone) []domain.Maz {
	return g.zoneMazs[zone]
}

func (g *StaticGeography) RefuelingStations(zone domain.Zone) int {
	return g.stations[zone]
}
