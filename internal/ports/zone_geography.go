package ports

import "fleet-dispatch-service/internal/domain"

// ZoneGeography is the zone lookup boundary: micro-zone to zone mapping and
// per-zone attributes the dispatcher needs. Implementations are read-only
// after construction.
type ZoneGeography interface {
	// ZoneForMaz maps a micro-zone to its containing zone; ok is false for
	// micro-zones outside the modeled area.
	ZoneForMaz(maz domain.Maz) (domain.Zone, bool)
	// MazsInZone lists the micro-zones nested in a zone. An empty list marks
	// an external zone that cannot host pickups or dropoffs.
	MazsInZone(zone domain.Zone) []domain.Maz
	// RefuelingStations returns the number of refueling stations in a zone.
	RefuelingStations(zone domain.Zone) int
}
