package domain

// Purpose classifies one end of a vehicle trip by the stop activity there.
// It is always derived from the pickup/dropoff lists rather than stored
// independently, so it cannot drift out of sync with them.
type Purpose int

const (
	PurposeHome Purpose = iota
	PurposePickupOnly
	PurposeDropoffOnly
	PurposePickupAndDropoff
	PurposeRefuel
)

func (p Purpose) String() string {
	switch p {
	case PurposeHome:
		return "home"
	case PurposePickupOnly:
		return "pickup"
	case PurposeDropoffOnly:
		return "dropoff"
	case PurposePickupAndDropoff:
		return "pickup_dropoff"
	case PurposeRefuel:
		return "refuel"
	}
	return "unknown"
}

// PurposeForStops computes the purpose of a trip end from the number of
// pickups and dropoffs occurring there. An end with no stop activity is a
// plain repositioning/home end.
func PurposeForStops(pickups, dropoffs int) Purpose {
	switch {
	case pickups > 0 && dropoffs > 0:
		return PurposePickupAndDropoff
	case pickups > 0:
		return PurposePickupOnly
	case dropoffs > 0:
		return PurposeDropoffOnly
	}
	return PurposeHome
}
