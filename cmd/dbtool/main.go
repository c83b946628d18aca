package main

import (
	"database/sql"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"fleet-dispatch-service/internal/adapters/repositories"
	"fleet-dispatch-service/internal/config"
	"fleet-dispatch-service/internal/platform/db"
)

// dbtool initializes the scenario schema and seeds zone, skim and
// trip-request data. It targets the local SQLite file by default, or a
// shared Postgres instance when DATABASE_URL is set.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	var (
		conn    *sql.DB
		dialect repositories.Dialect
		err     error
	)
	if databaseURL := os.Getenv("DATABASE_URL"); strings.TrimSpace(databaseURL) != "" {
		conn, err = db.OpenPostgres(databaseURL)
		dialect = repositories.DialectPostgres
	} else {
		conn, err = db.OpenSqlite(config.Get("DB_PATH", "data/fleet.db"))
		dialect = repositories.DialectSqlite
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("Initializing scenario schema...")
	if err := repositories.InitSchema(conn, dialect); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	seedPath := config.Get("SEED_PATH", "data/seeds/scenario.json")
	log.Println("Seeding scenario...")
	if err := repositories.SeedFromJSON(conn, dialect, seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")
}
