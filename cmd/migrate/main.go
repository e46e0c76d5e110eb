package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"bustracker-backend/internal/database"
)

// Standalone migration runner for environments where the server shouldn't
// touch the schema on boot.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if os.Getenv("SEED_USERS") == "true" {
		if err := database.SeedUsers(db); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	log.Println("Migration completed successfully!")
}
