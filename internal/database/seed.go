package database

import (
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

func SeedUsers(db *sqlx.DB) error {
	// Check if users already exist
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Users already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding test users...")

	// Hash passwords
	driverPassword, err := bcrypt.GenerateFromPassword([]byte("driver123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []map[string]interface{}{
		{
			"id":       uuid.New().String(),
			"email":    "driver@bustracker.com",
			"password": string(driverPassword),
			"name":     "John Driver",
			"role":     "driver",
			"bus_id":   "bus-101",
			"bus_name": "Bus 101",
		},
		{
			"id":       uuid.New().String(),
			"email":    "driver2@bustracker.com",
			"password": string(driverPassword),
			"name":     "Jane Driver",
			"role":     "driver",
			"bus_id":   "bus-102",
			"bus_name": "Bus 102",
		},
		{
			"id":       uuid.New().String(),
			"email":    "admin@bustracker.com",
			"password": string(adminPassword),
			"name":     "Admin User",
			"role":     "admin",
			"bus_id":   nil,
			"bus_name": nil,
		},
	}

	for _, user := range users {
		query := `
			INSERT INTO users (id, email, password, name, role, bus_id, bus_name)
			VALUES (:id, :email, :password, :name, :role, :bus_id, :bus_name)
		`
		if _, err := db.NamedExec(query, user); err != nil {
			return err
		}
		log.Printf("  ✓ Created user: %s (%s)", user["email"], user["role"])
	}

	log.Println("✓ Successfully seeded test users")
	log.Println("  📧 Driver: driver@bustracker.com / driver123")
	log.Println("  📧 Admin:  admin@bustracker.com / admin123")
	return nil
}
