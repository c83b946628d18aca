package dto

type SimulationRequest struct {
	Seed                    *int64   `json:"seed"`
	MinutesPerPeriod        int      `json:"minutes_per_period"`
	MaxPickupDistance       *float64 `json:"max_pickup_distance"`
	MaxDiversionTime        *float64 `json:"max_diversion_time"`
	VehicleCapacity         int      `json:"vehicle_capacity"`
	MaxDistanceBeforeRefuel *float64 `json:"max_distance_before_refuel"`
	RefuelMinutes           int      `json:"refuel_minutes"`
	MaxFleet                int      `json:"max_fleet"`
	TraceVehicleID          int      `json:"trace_vehicle_id"`
}

type SimulationResponse struct {
	Periods           int     `json:"periods"`
	Requests          int     `json:"requests"`
	RoutedRequests    int     `json:"routed_requests"`
	UnmatchedRequests int     `json:"unmatched_requests"`
	FleetSize         int     `json:"fleet_size"`
	TripsWritten      int     `json:"trips_written"`
	RevenueMiles      float64 `json:"revenue_miles"`
	DeadheadMiles     float64 `json:"deadhead_miles"`
}
