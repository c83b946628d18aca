package ports

import (
	"context"

	"fleet-dispatch-service/internal/domain"
)

// TripWriter is the output sink for simulated vehicle trips. Rows are flat
// per-leg records; implementations also maintain the zone-to-zone trip-count
// aggregation used by downstream assignment.
type TripWriter interface {
	// WriteTrips persists a batch of itinerary legs.
	WriteTrips(ctx context.Context, trips []*domain.VehicleTrip) error
}
