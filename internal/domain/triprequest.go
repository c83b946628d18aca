package domain

// TripRequest is a person trip waiting to be served by a fleet vehicle.
// A request is created once from the input trip records and consumed exactly
// once when the dispatcher matches it to a vehicle; unmatched requests remain
// in their departure-period bucket until explicitly dropped.
type TripRequest struct {
	ID int

	Origin      Location
	Destination Location

	// DeparturePeriod is the requested departure bucket; DepartureMinute is
	// the exact time sampled uniformly within that period's window.
	DeparturePeriod int
	DepartureMinute float64

	// Occupants is the party size (>1 for joint trips); all occupants board
	// and alight together.
	Occupants int
}
