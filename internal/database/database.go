package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("🔌 DATABASE CONNECTION ATTEMPT")
	log.Printf("   📍 Database URL length: %d characters", len(dbURL))
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Printf("❌ sqlx.Connect() failed: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Printf("❌ Ping() failed: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ DATABASE CONNECTION SUCCESSFUL")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('driver', 'admin')),
			bus_id TEXT UNIQUE,
			bus_name TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create bus_locations table (stores only latest position per bus)
		// Exactly 1 row per bus, updated via UPSERT on bus_id
		`CREATE TABLE IF NOT EXISTS bus_locations (
			bus_id TEXT PRIMARY KEY,
			bus_name TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'stopped', 'offline')),
			accuracy DOUBLE PRECISION,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			last_heartbeat BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create bus_location_history table (append-only, one row per report)
		`CREATE TABLE IF NOT EXISTS bus_location_history (
			id SERIAL PRIMARY KEY,
			bus_id TEXT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			recorded_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create admin_bus_relationships table (opt-out exception rows).
		// Absence of a row means the bus IS tracked; is_tracking=false is
		// the only explicit-untracked marker.
		`CREATE TABLE IF NOT EXISTS admin_bus_relationships (
			admin_id TEXT NOT NULL,
			bus_id TEXT NOT NULL,
			is_tracking BOOLEAN NOT NULL DEFAULT TRUE,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			PRIMARY KEY (admin_id, bus_id),
			FOREIGN KEY (admin_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create bus_admin_access table (admins a driver granted visibility)
		`CREATE TABLE IF NOT EXISTS bus_admin_access (
			bus_id TEXT NOT NULL,
			admin_id TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			PRIMARY KEY (bus_id, admin_id),
			FOREIGN KEY (admin_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create FCM tokens table
		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_bus_locations_updated_at ON bus_locations(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_bus_locations_last_heartbeat ON bus_locations(last_heartbeat)`,
		`CREATE INDEX IF NOT EXISTS idx_bus_location_history_bus_id ON bus_location_history(bus_id, recorded_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_admin_bus_relationships_admin ON admin_bus_relationships(admin_id) WHERE is_tracking = FALSE`,
		`CREATE INDEX IF NOT EXISTS idx_bus_admin_access_admin ON bus_admin_access(admin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fcm_tokens_user_id ON fcm_tokens(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}
