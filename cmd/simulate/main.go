package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"fleet-dispatch-service/internal/adapters/repositories"
	"fleet-dispatch-service/internal/adapters/skims"
	"fleet-dispatch-service/internal/config"
	"fleet-dispatch-service/internal/platform/db"
	"fleet-dispatch-service/internal/services"
)

// simulate runs one full-day fleet simulation against the seeded scenario
// and writes vehicle trips back to the database.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	sqlDB, err := db.OpenSqlite(config.Get("DB_PATH", "data/fleet.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	maxZone, err := repositories.MaxZone(sqlDB)
	if err != nil {
		log.Fatal(err)
	}
	geo, err := repositories.LoadGeography(sqlDB)
	if err != nil {
		log.Fatal(err)
	}

	cfg := services.RunConfig{
		MaxZone:                 maxZone,
		SkimPeriods:             config.GetInt("SKIM_PERIODS", 5),
		MinutesPerPeriod:        config.GetInt("MINUTES_PER_PERIOD", 5),
		MaxPickupDistance:       config.GetFloat("MAX_PICKUP_DISTANCE", 5),
		MaxDiversionTime:        config.GetFloat("MAX_DIVERSION_TIME", 10),
		VehicleCapacity:         config.GetInt("VEHICLE_CAPACITY", 6),
		MaxDistanceBeforeRefuel: config.GetFloat("MAX_DISTANCE_BEFORE_REFUEL", 250),
		RefuelMinutes:           config.GetInt("REFUEL_MINUTES", 15),
		Seed:                    config.GetInt64("RANDOM_SEED", 1),
		TraceVehicleID:          config.GetInt("TRACE_VEHICLE_ID", 0),
		MaxFleet:                config.GetInt("MAX_FLEET", 0),
	}

	evaluator := skims.NewSqliteSkimEvaluator(sqlDB, maxZone)
	source := repositories.NewSqliteRequestRepository(sqlDB)
	writer := repositories.NewSqliteTripWriter(sqlDB)

	summary, err := services.RunSimulation(context.Background(), cfg, evaluator, geo, source, writer)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("done fleet_size=%d trips=%d routed=%d unmatched=%d revenue_miles=%.1f deadhead_miles=%.1f",
		summary.FleetSize, summary.TripsWritten, summary.RoutedRequests, summary.UnmatchedRequests,
		summary.RevenueMiles, summary.DeadheadMiles)
}
