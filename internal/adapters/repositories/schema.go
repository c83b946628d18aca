package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Dialect selects the SQL flavor for schema and seed statements. The
// simulation service itself runs on SQLite; dbtool can also target a shared
// Postgres instance, whose driver wants $n placeholders and has no
// AUTOINCREMENT keyword.
type Dialect int

const (
	DialectSqlite Dialect = iota
	DialectPostgres
)

// bind rewrites ? placeholders to the $n form the pgx driver expects.
// SQLite statements pass through untouched.
func (d Dialect) bind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// autoKey renders an auto-assigned integer primary key column.
func (d Dialect) autoKey(column string) string {
	if d == DialectPostgres {
		return column + " BIGSERIAL PRIMARY KEY"
	}
	return column + " INTEGER PRIMARY KEY AUTOINCREMENT"
}

// schemaStatements returns the scenario and output table DDL in creation
// order. Everything except the vehicle_trips surrogate key is shared SQL.
func schemaStatements(d Dialect) []string {
	createZonesQuery := `
	CREATE TABLE IF NOT EXISTS zones (
		maz INTEGER PRIMARY KEY,
		taz INTEGER NOT NULL,
		refuel_stations INTEGER NOT NULL DEFAULT 0
	);
	`

	createSkimsQuery := `
	CREATE TABLE IF NOT EXISTS skims (
		period INTEGER NOT NULL,
		origin INTEGER NOT NULL,
		destination INTEGER NOT NULL,
		time_minutes REAL NOT NULL,
		distance_miles REAL NOT NULL,
		PRIMARY KEY (period, origin, destination)
	);
	`

	createRequestsQuery := `
	CREATE TABLE IF NOT EXISTS trip_requests (
		request_id INTEGER PRIMARY KEY,
		origin_maz INTEGER NOT NULL,
		destination_maz INTEGER NOT NULL,
		departure_period INTEGER NOT NULL,
		occupants INTEGER NOT NULL DEFAULT 1
	);
	`

	createVehicleTripsQuery := `
	CREATE TABLE IF NOT EXISTS vehicle_trips (
		` + d.autoKey("trip_id") + `,
		vehicle_id INTEGER NOT NULL,
		origin_taz INTEGER NOT NULL,
		origin_maz INTEGER NOT NULL,
		destination_taz INTEGER NOT NULL,
		destination_maz INTEGER NOT NULL,
		start_period INTEGER NOT NULL,
		end_period INTEGER NOT NULL,
		passengers INTEGER NOT NULL,
		pickup_ids TEXT NOT NULL,
		dropoff_ids TEXT NOT NULL,
		origin_purpose INTEGER NOT NULL,
		destination_purpose INTEGER NOT NULL,
		distance_miles REAL NOT NULL
	);
	`

	createTripMatrixQuery := `
	CREATE TABLE IF NOT EXISTS trip_matrix (
		period INTEGER NOT NULL,
		origin_taz INTEGER NOT NULL,
		destination_taz INTEGER NOT NULL,
		occupancy_bucket INTEGER NOT NULL,
		trips INTEGER NOT NULL,
		PRIMARY KEY (period, origin_taz, destination_taz, occupancy_bucket)
	);
	`

	createSkimIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_skims_period_origin
	ON skims(period, origin);
	`

	return []string{
		createZonesQuery,
		createSkimsQuery,
		createRequestsQuery,
		createVehicleTripsQuery,
		createTripMatrixQuery,
		createSkimIndexQuery,
	}
}

// InitSchema creates the scenario and output tables.
func InitSchema(db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements(dialect) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Seed upserts. ON CONFLICT DO UPDATE is the portable spelling understood by
// both engines; re-seeding a scenario overwrites matching rows in place.
const (
	upsertZoneQuery = `
	INSERT INTO zones (maz, taz, refuel_stations)
	VALUES (?, ?, ?)
	ON CONFLICT (maz) DO UPDATE SET
		taz = excluded.taz,
		refuel_stations = excluded.refuel_stations;
	`

	upsertSkimQuery = `
	INSERT INTO skims (period, origin, destination, time_minutes, distance_miles)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (period, origin, destination) DO UPDATE SET
		time_minutes = excluded.time_minutes,
		distance_miles = excluded.distance_miles;
	`

	upsertRequestQuery = `
	INSERT INTO trip_requests (request_id, origin_maz, destination_maz, departure_period, occupants)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (request_id) DO UPDATE SET
		origin_maz = excluded.origin_maz,
		destination_maz = excluded.destination_maz,
		departure_period = excluded.departure_period,
		occupants = excluded.occupants;
	`
)

type ScenarioSeed struct {
	Zones []struct {
		Maz            int `json:"maz"`
		Taz            int `json:"taz"`
		RefuelStations int `json:"refuel_stations"`
	} `json:"zones"`
	Skims []struct {
		Period        int     `json:"period"`
		Origin        int     `json:"origin"`
		Destination   int     `json:"destination"`
		TimeMinutes   float64 `json:"time_minutes"`
		DistanceMiles float64 `json:"distance_miles"`
	} `json:"skims"`
	Requests []struct {
		RequestID       int `json:"request_id"`
		OriginMaz       int `json:"origin_maz"`
		DestinationMaz  int `json:"destination_maz"`
		DeparturePeriod int `json:"departure_period"`
		Occupants       int `json:"occupants"`
	} `json:"requests"`
}

// SeedFromJSON populates the scenario tables from a JSON file.
func SeedFromJSON(db *sql.DB, dialect Dialect, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed scenario: read %q: %w", jsonPath, err)
	}

	var seed ScenarioSeed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("seed scenario: parse json: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed scenario: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	zoneStmt, err := tx.Prepare(dialect.bind(upsertZoneQuery))
	if err != nil {
		return fmt.Errorf("seed scenario: prepare zones insert: %w", err)
	}
	defer zoneStmt.Close()
	for i, z := range seed.Zones {
		if z.Maz <= 0 || z.Taz <= 0 {
			return fmt.Errorf("seed scenario: zone row %d: maz=%d taz=%d must be positive", i+1, z.Maz, z.Taz)
		}
		if _, err := zoneStmt.Exec(z.Maz, z.Taz, z.RefuelStations); err != nil {
			return fmt.Errorf("seed scenario: insert zone maz=%d: %w", z.Maz, err)
		}
	}

	skimStmt, err := tx.Prepare(dialect.bind(upsertSkimQuery))
	if err != nil {
		return fmt.Errorf("seed scenario: prepare skims insert: %w", err)
	}
	defer skimStmt.Close()
	for _, s := range seed.Skims {
		if _, err := skimStmt.Exec(s.Period, s.Origin, s.Destination, s.TimeMinutes, s.DistanceMiles); err != nil {
			return fmt.Errorf("seed scenario: insert skim %d->%d period=%d: %w", s.Origin, s.Destination, s.Period, err)
		}
	}

	reqStmt, err := tx.Prepare(dialect.bind(upsertRequestQuery))
	if err != nil {
		return fmt.Errorf("seed scenario: prepare requests insert: %w", err)
	}
	defer reqStmt.Close()
	for i, r := range seed.Requests {
		if r.RequestID <= 0 {
			return fmt.Errorf("seed scenario: request row %d: invalid request_id %d", i+1, r.RequestID)
		}
		occupants := r.Occupants
		if occupants == 0 {
			occupants = 1
		}
		if _, err := reqStmt.Exec(r.RequestID, r.OriginMaz, r.DestinationMaz, r.DeparturePeriod, occupants); err != nil {
			return fmt.Errorf("seed scenario: insert request_id=%d: %w", r.RequestID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed scenario: commit tx: %w", err)
	}

	return nil
}
