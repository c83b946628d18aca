package handlers

import (
	"log"
	"net/http"

	"fleet-dispatch-service/internal/api/dto"
	"fleet-dispatch-service/internal/ports"
)

// RequestHandler exposes read-only trip-request retrieval endpoints.
type RequestHandler struct {
	Source ports.RequestSource
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	requests, err := h.Source.ListRequests(r.Context())
	if err != nil {
		log.Printf("list trip requests failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListTripRequestsResponse{
		Requests: make([]dto.TripRequestResponse, 0, len(requests)),
	}
	for _, q := range requests {
		res.Requests = append(res.Requests, dto.TripRequestResponse{
			RequestID:       q.ID,
			OriginMaz:       int(q.Origin.Maz),
			DestinationMaz:  int(q.Destination.Maz),
			DeparturePeriod: q.DeparturePeriod,
			Occupants:       q.Occupants,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
