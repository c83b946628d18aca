package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
)

// TieBreak selects how zones with equal travel time are ordered in the
// precomputed candidate lists. The legacy model left this to iteration order;
// the policy is explicit here so runs are comparable across implementations.
type TieBreak int

const (
	// TieBreakZoneAscending orders equal-time zones by zone id. Default.
	TieBreakZoneAscending TieBreak = iota
	// TieBreakIterationOrder keeps the zone-scan order (stable sort only).
	TieBreakIterationOrder
)

// TransportCostManager precomputes, for every skim period, zone-to-zone
// travel time and distance plus two derived indexes used by the dispatcher:
//
//   - for each (period, origin): destination zones within the pickup
//     distance threshold, sorted ascending by travel time from the origin;
//   - for each (period, origin, destination): intermediate zones whose
//     added diversion time stays under the pooling threshold, sorted
//     ascending by travel time from the origin. Not by diversion time:
//     stops are ordered by how soon the vehicle reaches them.
//
// All tables are dense flattened arrays indexed row-major by
// period, origin, destination; zone 0 rows/columns are unused padding.
// The manager holds no simulation state and is read-only after setup.
type TransportCostManager struct {
	periods int
	maxZone int

	maxDiversionTime  float64
	maxPickupDistance float64
	tieBreak          TieBreak

	times     []float64
	distances []float64

	reachable     [][]domain.Zone
	diversion     [][]domain.Zone
	nearestRefuel []domain.Zone
}

// TransportCostOption customizes index construction.
type TransportCostOption func(*TransportCostManager)

// WithTieBreak overrides the equal-time ordering policy.
func WithTieBreak(tb TieBreak) TransportCostOption {
	return func(m *TransportCostManager) { m.tieBreak = tb }
}

// NewTransportCostManager sizes the dense tables for the given number of skim
// periods and zones. maxDiversionTime is in minutes, maxPickupDistance in miles.
func NewTransportCostManager(periods, maxZone int, maxDiversionTime, maxPickupDistance float64, opts ...TransportCostOption) (*TransportCostManager, error) {
	if periods < 1 || maxZone < 1 {
		return nil, fmt.Errorf("%w: transport costs: periods=%d maxZone=%d", ErrConfiguration, periods, maxZone)
	}
	if maxDiversionTime <= 0 || maxPickupDistance <= 0 {
		return nil, fmt.Errorf("%w: transport costs: maxDiversionTime=%v maxPickupDistance=%v must be positive",
			ErrConfiguration, maxDiversionTime, maxPickupDistance)
	}

	n := maxZone + 1
	m := &TransportCostManager{
		periods:           periods,
		maxZone:           maxZone,
		maxDiversionTime:  maxDiversionTime,
		maxPickupDistance: maxPickupDistance,
		tieBreak:          TieBreakZoneAscending,
		times:             make([]float64, periods*n*n),
		distances:         make([]float64, periods*n*n),
		reachable:         make([][]domain.Zone, periods*n),
		diversion:         make([][]domain.Zone, periods*n*n),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *TransportCostManager) cellIndex(period int, o, d domain.Zone) int {
	n := m.maxZone + 1
	return period*n*n + int(o)*n + int(d)
}

func (m *TransportCostManager) rowIndex(period int, o domain.Zone) int {
	return period*(m.maxZone+1) + int(o)
}

// Periods reports the number of skim periods the tables cover.
func (m *TransportCostManager) Periods() int { return m.periods }

// MaxZone reports the highest zone number.
func (m *TransportCostManager) MaxZone() int { return m.maxZone }

// Time is the precomputed travel time in minutes between two zones.
func (m *TransportCostManager) Time(period int, o, d domain.Zone) float64 {
	return m.times[m.cellIndex(period, o, d)]
}

// Distance is the precomputed travel distance in miles between two zones.
func (m *TransportCostManager) Distance(period int, o, d domain.Zone) float64 {
	return m.distances[m.cellIndex(period, o, d)]
}

// Initialize fills the dense time/distance tables from the external skim
// evaluator, one origin row at a time. Any evaluator failure is a fatal
// configuration error: the run cannot proceed on partial cost tables.
func (m *TransportCostManager) Initialize(ctx context.Context, skims ports.SkimEvaluator) error {
	n := m.maxZone + 1
	for p := 0; p < m.periods; p++ {
		for o := 1; o <= m.maxZone; o++ {
			row, err := skims.Solve(ctx, p, o)
			if err != nil {
				return fmt.Errorf("%w: solve skims period=%d origin=%d: %v", ErrConfiguration, p, o, err)
			}
			if len(row.TimeMinutes) != n || len(row.DistanceMiles) != n {
				return fmt.Errorf("%w: skim row period=%d origin=%d: got %d/%d entries, want %d",
					ErrConfiguration, p, o, len(row.TimeMinutes), len(row.DistanceMiles), n)
			}
			copy(m.times[m.cellIndex(p, domain.Zone(o), 0):], row.TimeMinutes)
			copy(m.distances[m.cellIndex(p, domain.Zone(o), 0):], row.DistanceMiles)
		}
	}
	return nil
}

// connected reports whether the skims give a usable path between two zones.
// A zero time between distinct zones marks a missing/external pair.
func (m *TransportCostManager) connected(period int, o, d domain.Zone) bool {
	return o == d || m.Time(period, o, d) > 0
}

// BuildZonesByTimeFromOrigin builds, for every (period, origin), the list of
// destination zones within the pickup distance threshold sorted ascending by
// travel time from the origin. The origin itself is always first (zero time).
func (m *TransportCostManager) BuildZonesByTimeFromOrigin() {
	for p := 0; p < m.periods; p++ {
		for o := 1; o <= m.maxZone; o++ {
			origin := domain.Zone(o)
			zones := make([]domain.Zone, 0, 16)
			for d := 1; d <= m.maxZone; d++ {
				dest := domain.Zone(d)
				if !m.connected(p, origin, dest) {
					continue
				}
				if m.Distance(p, origin, dest) < m.maxPickupDistance {
					zones = append(zones, dest)
				}
			}
			m.sortByTimeFrom(p, origin, zones)
			m.reachable[m.rowIndex(p, origin)] = zones
		}
	}
}

// BuildZonesWithinDiversionTime builds the pooling candidate index: for every
// (period, origin, destination), the intermediate zones k whose diversion
// time(o,k)+time(k,d)-time(o,d) stays under the threshold, sorted ascending
// by time(o,k). This is the dominant setup cost (periods x zones cubed); the
// inner scan touches dense rows sequentially to stay cache-friendly.
func (m *TransportCostManager) BuildZonesWithinDiversionTime() {
	n := m.maxZone + 1
	for p := 0; p < m.periods; p++ {
		for o := 1; o <= m.maxZone; o++ {
			origin := domain.Zone(o)
			fromOrigin := m.times[m.cellIndex(p, origin, 0) : m.cellIndex(p, origin, 0)+n]
			for d := 1; d <= m.maxZone; d++ {
				dest := domain.Zone(d)
				if !m.connected(p, origin, dest) {
					continue
				}
				direct := fromOrigin[d]
				var zones []domain.Zone
				for k := 1; k <= m.maxZone; k++ {
					mid := domain.Zone(k)
					if !m.connected(p, origin, mid) || !m.connected(p, mid, dest) {
						continue
					}
					divert := fromOrigin[k] + m.Time(p, mid, dest) - direct
					if divert < m.maxDiversionTime {
						zones = append(zones, mid)
					}
				}
				if len(zones) > 0 {
					m.sortByTimeFrom(p, origin, zones)
					m.diversion[m.cellIndex(p, origin, dest)] = zones
				}
			}
		}
	}
}

// BuildNearestRefuelZones precomputes, for every (period, origin), the
// closest zone hosting at least one refueling station. Zones beyond the
// pickup threshold are considered as a fallback so every origin resolves to
// a station somewhere in the modeled area.
func (m *TransportCostManager) BuildNearestRefuelZones(geo ports.ZoneGeography) {
	m.nearestRefuel = make([]domain.Zone, m.periods*(m.maxZone+1))
	for p := 0; p < m.periods; p++ {
		for o := 1; o <= m.maxZone; o++ {
			origin := domain.Zone(o)
			m.nearestRefuel[m.rowIndex(p, origin)] = m.findNearestRefuelZone(p, origin, geo)
		}
	}
}

func (m *TransportCostManager) findNearestRefuelZone(period int, origin domain.Zone, geo ports.ZoneGeography) domain.Zone {
	for _, z := range m.ZonesSortedByTime(period, origin) {
		if geo.RefuelingStations(z) > 0 {
			return z
		}
	}

	// Nothing within the pickup threshold: take the time-nearest station
	// anywhere, breaking ties per the configured policy.
	best := domain.NoZone
	bestTime := 0.0
	for d := 1; d <= m.maxZone; d++ {
		dest := domain.Zone(d)
		if geo.RefuelingStations(dest) == 0 || !m.connected(period, origin, dest) {
			continue
		}
		t := m.Time(period, origin, dest)
		if best == domain.NoZone || t < bestTime {
			best, bestTime = dest, t
		}
	}
	if best == domain.NoZone {
		log.Printf("transport costs: no refueling station reachable period=%d origin=%d", period, origin)
	}
	return best
}

// sortByTimeFrom orders zones ascending by travel time from origin. The sort
// is stable; under the default policy equal times additionally break by zone
// id ascending so the ordering is independent of the incoming sequence.
func (m *TransportCostManager) sortByTimeFrom(period int, origin domain.Zone, zones []domain.Zone) {
	base := m.cellIndex(period, origin, 0)
	sort.SliceStable(zones, func(i, j int) bool {
		ti := m.times[base+int(zones[i])]
		tj := m.times[base+int(zones[j])]
		if ti != tj {
			return ti < tj
		}
		if m.tieBreak == TieBreakZoneAscending {
			return zones[i] < zones[j]
		}
		return false
	})
}

// ZonesSortedByTime returns the destination zones within the pickup distance
// threshold for an origin, nearest (by time) first. The slice is shared;
// callers must not modify it. Empty when nothing is within the threshold.
func (m *TransportCostManager) ZonesSortedByTime(period int, origin domain.Zone) []domain.Zone {
	return m.reachable[m.rowIndex(period, origin)]
}

// ZonesWithinDiversionTime returns the intermediate stop candidates for an
// origin/destination pair, nearest (by time from origin) first. The slice is
// shared; callers must not modify it. Empty when no zone qualifies.
func (m *TransportCostManager) ZonesWithinDiversionTime(period int, origin, destination domain.Zone) []domain.Zone {
	return m.diversion[m.cellIndex(period, origin, destination)]
}

// NearestRefuelZone returns the precomputed closest refueling zone, or
// NoZone when no station is reachable from the origin.
func (m *TransportCostManager) NearestRefuelZone(period int, origin domain.Zone) domain.Zone {
	if m.nearestRefuel == nil {
		return domain.NoZone
	}
	return m.nearestRefuel[m.rowIndex(period, origin)]
}
