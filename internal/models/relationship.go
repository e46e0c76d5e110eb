package models

// AdminBusRelationship is the explicit-exception row for the opt-out
// tracking model. A bus with no row for an admin is tracked; only a row with
// is_tracking=false marks it as explicitly untracked.
type AdminBusRelationship struct {
	AdminID    string `json:"admin_id" db:"admin_id"`
	BusID      string `json:"bus_id" db:"bus_id"`
	IsTracking bool   `json:"is_tracking" db:"is_tracking"`
	CreatedAt  int64  `json:"created_at" db:"created_at"`
	UpdatedAt  int64  `json:"updated_at" db:"updated_at"`
}

// BusAdmin is an admin a driver has granted visibility into their bus.
type BusAdmin struct {
	ID    string `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`
}
