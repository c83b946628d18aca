package dto

type TripRequestResponse struct {
	RequestID       int `json:"request_id"`
	OriginMaz       int `json:"origin_maz"`
	DestinationMaz  int `json:"destination_maz"`
	DeparturePeriod int `json:"departure_period"`
	Occupants       int `json:"occupants"`
}

type ListTripRequestsResponse struct {
	Requests []TripRequestResponse `json:"requests"`
}
