package domain

// Zone is a traffic analysis zone (TAZ) number. Zones are numbered 1..maxZone;
// zone 0 is never a valid zone and is used as the "no zone" sentinel.
type Zone int

// Maz is a micro-zone (MGRA) number nested within a Zone.
type Maz int

// NoZone marks an unresolved or unmapped zone.
const NoZone Zone = 0

// Location pairs a zone with a micro-zone inside it.
type Location struct {
	Zone Zone
	Maz  Maz
}
