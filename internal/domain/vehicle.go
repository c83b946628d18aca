package domain

// Vehicle is a single fleet vehicle. Ids are assigned sequentially by the
// fleet registry and never reused. The itinerary is append-only for the
// duration of a simulation run; vehicles are never destroyed mid-run.
type Vehicle struct {
	ID            int
	Location      Location
	MaxPassengers int

	// DistanceSinceRefuel is the odometer accumulated since the vehicle
	// last completed a refuel, in miles.
	DistanceSinceRefuel float64
	// RefuelPeriodsWaited counts completed waiting periods at the station
	// while the vehicle sits in the refueling set.
	RefuelPeriodsWaited int

	// Where and when the vehicle first materialized.
	GenerationPeriod int
	GenerationZone   Zone

	Trips []*VehicleTrip

	// Requests are trip requests assigned to this vehicle and awaiting
	// routing. Cleared once the vehicle's itinerary has been built.
	Requests []*TripRequest
}

// LastTrip returns the most recent itinerary leg, or nil for a fresh vehicle.
func (v *Vehicle) LastTrip() *VehicleTrip {
	if len(v.Trips) == 0 {
		return nil
	}
	return v.Trips[len(v.Trips)-1]
}

// ArrivalOccupancy is the occupancy after the last leg's destination stops.
// A vehicle with no itinerary is empty.
func (v *Vehicle) ArrivalOccupancy() int {
	last := v.LastTrip()
	if last == nil {
		return 0
	}
	return last.ArrivalOccupancy()
}

// AssignedSeats is the number of seats claimed by requests awaiting routing.
func (v *Vehicle) AssignedSeats() int {
	n := 0
	for _, r := range v.Requests {
		n += r.Occupants
	}
	return n
}

// AppendTrip adds a leg to the itinerary and moves the vehicle to its end.
func (v *Vehicle) AppendTrip(t *VehicleTrip) {
	t.VehicleID = v.ID
	v.Trips = append(v.Trips, t)
	v.Location = t.Destination
}
