package ports

import (
	"context"

	"fleet-dispatch-service/internal/domain"
)

// RequestSource is the boundary for retrieving trip requests to simulate.
type RequestSource interface {
	// ListRequests returns every trip request for the simulated day.
	ListRequests(ctx context.Context) ([]*domain.TripRequest, error)
}
