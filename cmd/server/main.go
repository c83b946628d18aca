package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"fleet-dispatch-service/internal/adapters/cache"
	"fleet-dispatch-service/internal/adapters/repositories"
	"fleet-dispatch-service/internal/adapters/skims"
	"fleet-dispatch-service/internal/api"
	"fleet-dispatch-service/internal/config"
	"fleet-dispatch-service/internal/platform/db"
	"fleet-dispatch-service/internal/ports"
	"fleet-dispatch-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, Redis) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dbPath := config.Get("DB_PATH", "data/fleet.db")
	seedPath := config.Get("SEED_PATH", "")
	port := config.Get("PORT", "8080")

	sqlDB, err := db.OpenSqlite(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	if err := repositories.InitSchema(sqlDB, repositories.DialectSqlite); err != nil {
		log.Fatal(err)
	}
	if seedPath != "" {
		if err := repositories.SeedFromJSON(sqlDB, repositories.DialectSqlite, seedPath); err != nil {
			log.Fatal(err)
		}
	}

	maxZone, err := repositories.MaxZone(sqlDB)
	if err != nil {
		log.Fatal(err)
	}
	geo, err := repositories.LoadGeography(sqlDB)
	if err != nil {
		log.Fatal(err)
	}

	// Skim rows come from SQLite; an optional Redis layer caches them
	// across runs against the same scenario.
	var evaluator ports.SkimEvaluator = skims.NewSqliteSkimEvaluator(sqlDB, maxZone)
	if addr := config.Get("REDIS_ADDR", ""); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		evaluator = cache.NewRedisSkimCache(client, evaluator, 24*time.Hour)
		log.Printf("skim cache enabled addr=%s", addr)
	}

	source := repositories.NewSqliteRequestRepository(sqlDB)
	writer := repositories.NewSqliteTripWriter(sqlDB)

	defaults := services.RunConfig{
		MaxZone:                 maxZone,
		SkimPeriods:             config.GetInt("SKIM_PERIODS", 5),
		MinutesPerPeriod:        config.GetInt("MINUTES_PER_PERIOD", 5),
		MaxPickupDistance:       config.GetFloat("MAX_PICKUP_DISTANCE", 5),
		MaxDiversionTime:        config.GetFloat("MAX_DIVERSION_TIME", 10),
		VehicleCapacity:         config.GetInt("VEHICLE_CAPACITY", 6),
		MaxDistanceBeforeRefuel: config.GetFloat("MAX_DISTANCE_BEFORE_REFUEL", 250),
		RefuelMinutes:           config.GetInt("REFUEL_MINUTES", 15),
		Seed:                    config.GetInt64("RANDOM_SEED", 1),
	}

	router := api.NewRouter(evaluator, geo, source, writer, defaults)

	// Write timeout covers a whole simulation run on large scenarios.
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      300 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}
