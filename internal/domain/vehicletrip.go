package domain

// VehicleTrip is one leg of a vehicle's itinerary: a movement from an origin
// to a destination within a span of simulation periods, together with the
// passenger boardings and alightings at each end.
//
// Pickup and dropoff lists hold trip-request ids. Lists on the most recent
// leg may still be extended while the leg is "current"; once a later leg has
// been appended the earlier leg is treated as immutable.
type VehicleTrip struct {
	VehicleID int

	Origin      Location
	Destination Location

	StartPeriod int
	EndPeriod   int

	// Passengers is the occupancy while traveling this leg:
	// previous leg's occupancy plus pickups minus dropoffs at this origin.
	Passengers int

	OriginPickups       []int
	OriginDropoffs      []int
	DestinationPickups  []int
	DestinationDropoffs []int

	DistanceMiles float64

	// Refuel marks a leg synthesized to move the vehicle to a refueling
	// station; both ends of such a leg report PurposeRefuel.
	Refuel bool
}

// OriginPurpose derives the purpose of the origin end from stop activity.
func (t *VehicleTrip) OriginPurpose() Purpose {
	if t.Refuel {
		return PurposeRefuel
	}
	return PurposeForStops(len(t.OriginPickups), len(t.OriginDropoffs))
}

// DestinationPurpose derives the purpose of the destination end from stop activity.
func (t *VehicleTrip) DestinationPurpose() Purpose {
	if t.Refuel {
		return PurposeRefuel
	}
	return PurposeForStops(len(t.DestinationPickups), len(t.DestinationDropoffs))
}

// ArrivalOccupancy is the occupancy after the destination stops are served.
func (t *VehicleTrip) ArrivalOccupancy() int {
	return t.Passengers + len(t.DestinationPickups) - len(t.DestinationDropoffs)
}
