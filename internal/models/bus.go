package models

// BusLocation is the single current-position row for a bus.
// Exactly one row per bus, updated via UPSERT on bus_id (last writer wins).
type BusLocation struct {
	BusID         string   `json:"bus_id" db:"bus_id"`
	BusName       string   `json:"bus_name" db:"bus_name"`
	Latitude      float64  `json:"latitude" db:"latitude"`
	Longitude     float64  `json:"longitude" db:"longitude"`
	Status        string   `json:"status" db:"status"` // "active", "stopped" or "offline"
	UpdatedAt     int64    `json:"updated_at" db:"updated_at"`
	LastHeartbeat int64    `json:"last_heartbeat" db:"last_heartbeat"`
	Accuracy      *float64 `json:"accuracy,omitempty" db:"accuracy"` // GPS accuracy in meters
}

// Bus is the admin-facing view of a bus: the current location row joined
// with the driver identity and the per-admin tracking flag.
type Bus struct {
	ID         string  `json:"id" db:"bus_id"`
	Name       string  `json:"name" db:"bus_name"`
	DriverName string  `json:"driver_name" db:"driver_name"`
	Status     string  `json:"status" db:"status"`
	Latitude   float64 `json:"latitude" db:"latitude"`
	Longitude  float64 `json:"longitude" db:"longitude"`
	LastUpdate int64   `json:"last_update" db:"updated_at"`
	IsTracked  bool    `json:"is_tracked" db:"-"`
}

// HistoryPoint is one append-only position sample for a bus.
type HistoryPoint struct {
	ID         int     `json:"id" db:"id"`
	BusID      string  `json:"bus_id" db:"bus_id"`
	Latitude   float64 `json:"latitude" db:"latitude"`
	Longitude  float64 `json:"longitude" db:"longitude"`
	RecordedAt int64   `json:"recorded_at" db:"recorded_at"`
}
