package database

import (
	"time"

	"github.com/jmoiron/sqlx"

	"bustracker-backend/internal/models"
)

// UpsertBusLocation writes the current-location row for a bus
// (last-writer-wins on bus_id) and appends the matching history row in one
// transaction, so the trail never drifts from the current position.
func UpsertBusLocation(db *sqlx.DB, loc models.BusLocation) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO bus_locations (bus_id, bus_name, latitude, longitude, status, accuracy, updated_at, last_heartbeat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (bus_id) DO UPDATE SET
			bus_name = EXCLUDED.bus_name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			status = EXCLUDED.status,
			accuracy = EXCLUDED.accuracy,
			updated_at = EXCLUDED.updated_at,
			last_heartbeat = EXCLUDED.last_heartbeat
	`, loc.BusID, loc.BusName, loc.Latitude, loc.Longitude, loc.Status, loc.Accuracy, loc.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO bus_location_history (bus_id, latitude, longitude, recorded_at)
		VALUES ($1, $2, $3, $4)
	`, loc.BusID, loc.Latitude, loc.Longitude, loc.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// TouchHeartbeat refreshes last_heartbeat without writing a position.
func TouchHeartbeat(db *sqlx.DB, busID string, at int64) error {
	_, err := db.Exec(`UPDATE bus_locations SET last_heartbeat = $1 WHERE bus_id = $2`, at, busID)
	return err
}

// CurrentLocation returns the current-location row for one bus, or nil when
// the bus has never reported.
func CurrentLocation(db *sqlx.DB, busID string) (*models.BusLocation, error) {
	var loc models.BusLocation
	err := db.Get(&loc, `SELECT * FROM bus_locations WHERE bus_id = $1`, busID)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// CurrentLocations returns every current-location row, most recent first.
func CurrentLocations(db *sqlx.DB) ([]models.BusLocation, error) {
	locations := []models.BusLocation{}
	err := db.Select(&locations, `SELECT * FROM bus_locations ORDER BY updated_at DESC`)
	return locations, err
}

// HistoryForBus returns up to limit history points for a bus, newest first.
func HistoryForBus(db *sqlx.DB, busID string, limit int) ([]models.HistoryPoint, error) {
	points := []models.HistoryPoint{}
	err := db.Select(&points, `
		SELECT id, bus_id, latitude, longitude, recorded_at
		FROM bus_location_history
		WHERE bus_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`, busID, limit)
	return points, err
}

// DeleteStaleBusLocations removes current-location rows whose heartbeat is
// older than cutoff and returns the deleted rows for the cleanup summary.
func DeleteStaleBusLocations(db *sqlx.DB, cutoff time.Time) ([]models.BusLocation, error) {
	deleted := []models.BusLocation{}
	err := db.Select(&deleted, `
		DELETE FROM bus_locations
		WHERE last_heartbeat < $1
		RETURNING *
	`, cutoff.Unix())
	return deleted, err
}
