package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/platform/obs"
)

// SqliteTripWriter persists simulated vehicle trips as flat rows and keeps
// the zone-to-zone trip-count matrix current for downstream assignment.
type SqliteTripWriter struct{ DB *sql.DB }

func NewSqliteTripWriter(db *sql.DB) *SqliteTripWriter {
	return &SqliteTripWriter{DB: db}
}

// occupancyBucket groups leg occupancy for the assignment matrices:
// 0 empty, 1 single, 2 double, 3 for three or more.
func occupancyBucket(passengers int) int {
	if passengers >= 3 {
		return 3
	}
	return passengers
}

func joinIDs(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

// WriteTrips inserts one row per itinerary leg and increments the matching
// trip-matrix cells, all in one transaction.
func (s *SqliteTripWriter) WriteTrips(ctx context.Context, trips []*domain.VehicleTrip) (err error) {
	defer obs.Time(ctx, "trips.sqlite.WriteTrips")(&err)

	if s.DB == nil {
		return errors.New("sqlite trip writer: DB is nil")
	}
	if len(trips) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write trips: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	tripStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO vehicle_trips (
		vehicle_id, origin_taz, origin_maz, destination_taz, destination_maz,
		start_period, end_period, passengers, pickup_ids, dropoff_ids,
		origin_purpose, destination_purpose, distance_miles
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("write trips: prepare trip insert: %w", err)
	}
	defer tripStmt.Close()

	matrixStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO trip_matrix (period, origin_taz, destination_taz, occupancy_bucket, trips)
	VALUES (?, ?, ?, ?, 1)
	ON CONFLICT (period, origin_taz, destination_taz, occupancy_bucket)
	DO UPDATE SET trips = trips + 1;
	`)
	if err != nil {
		return fmt.Errorf("write trips: prepare matrix upsert: %w", err)
	}
	defer matrixStmt.Close()

	for _, t := range trips {
		pickups := append(append([]int(nil), t.OriginPickups...), t.DestinationPickups...)
		dropoffs := append(append([]int(nil), t.OriginDropoffs...), t.DestinationDropoffs...)

		if _, err := tripStmt.ExecContext(ctx,
			t.VehicleID,
			int(t.Origin.Zone), int(t.Origin.Maz),
			int(t.Destination.Zone), int(t.Destination.Maz),
			t.StartPeriod, t.EndPeriod,
			t.Passengers,
			joinIDs(pickups), joinIDs(dropoffs),
			int(t.OriginPurpose()), int(t.DestinationPurpose()),
			t.DistanceMiles,
		); err != nil {
			return fmt.Errorf("write trips: insert vehicle_id=%d leg: %w", t.VehicleID, err)
		}

		if _, err := matrixStmt.ExecContext(ctx,
			t.StartPeriod, int(t.Origin.Zone), int(t.Destination.Zone), occupancyBucket(t.Passengers),
		); err != nil {
			return fmt.Errorf("write trips: matrix upsert vehicle_id=%d: %w", t.VehicleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write trips: commit tx: %w", err)
	}

	return nil
}
