package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleet-dispatch-service/internal/adapters/geography"
	"fleet-dispatch-service/internal/domain"
)

// SQLite-backed implementation of the RequestSource port.
type SqliteRequestRepository struct{ DB *sql.DB }

func NewSqliteRequestRepository(db *sql.DB) *SqliteRequestRepository {
	return &SqliteRequestRepository{DB: db}
}

// ListRequests returns every seeded trip request, ordered by id.
func (s *SqliteRequestRepository) ListRequests(ctx context.Context) ([]*domain.TripRequest, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite request repository: DB is nil")
	}

	query := `
	SELECT request_id, origin_maz, destination_maz, departure_period, occupants
	FROM trip_requests
	ORDER BY request_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list requests: query trip_requests table: %w", err)
	}
	defer rows.Close()

	requests := make([]*domain.TripRequest, 0, 64)
	for rows.Next() {
		var id, originMaz, destMaz, period, occupants int
		if err := rows.Scan(&id, &originMaz, &destMaz, &period, &occupants); err != nil {
			return nil, fmt.Errorf("list requests: scan row: %w", err)
		}
		requests = append(requests, &domain.TripRequest{
			ID:              id,
			Origin:          domain.Location{Maz: domain.Maz(originMaz)},
			Destination:     domain.Location{Maz: domain.Maz(destMaz)},
			DeparturePeriod: period,
			Occupants:       occupants,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requests: row iteration: %w", err)
	}

	return requests, nil
}

// LoadGeography reads the zone table into an in-memory lookup.
func LoadGeography(db *sql.DB) (*geography.StaticGeography, error) {
	if db == nil {
		return nil, errors.New("load geography: DB is nil")
	}

	rows, err := db.Query(`SELECT maz, taz, refuel_stations FROM zones ORDER BY maz;`)
	if err != nil {
		return nil, fmt.Errorf("load geography: query zones table: %w", err)
	}
	defer rows.Close()

	zoneRows := make([]geography.ZoneRow, 0, 128)
	for rows.Next() {
		var maz, taz, stations int
		if err := rows.Scan(&maz, &taz, &stations); err != nil {
			return nil, fmt.Errorf("load geography: scan row: %w", err)
		}
		zoneRows = append(zoneRows, geography.ZoneRow{
			Maz:            domain.Maz(maz),
			Zone:           domain.Zone(taz),
			RefuelStations: stations,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load geography: row iteration: %w", err)
	}

	return geography.NewStaticGeography(zoneRows), nil
}

// MaxZone returns the highest zone number in the zone table.
func MaxZone(db *sql.DB) (int, error) {
	var maxZone sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(taz) FROM zones;`).Scan(&maxZone); err != nil {
		return 0, fmt.Errorf("max zone: query zones table: %w", err)
	}
	if !maxZone.Valid || maxZone.Int64 < 1 {
		return 0, errors.New("max zone: zones table is empty")
	}
	return int(maxZone.Int64), nil
}
