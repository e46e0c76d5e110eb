package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"bustracker-backend/internal/models"
)

// ErrAdminNotFound distinguishes "no such admin account" from a database
// failure so callers can render a specific remediation message.
var ErrAdminNotFound = errors.New("admin not found")

// ErrNotAnAdmin means the email resolved to an account without the admin
// role. Drivers can only grant visibility to admins.
var ErrNotAnAdmin = errors.New("user is not an admin")

// RelationshipStore is the Postgres-backed store behind the tracked-set
// reconciler. It implements tracking.RelationshipStore.
type RelationshipStore struct {
	db *sqlx.DB
}

func NewRelationshipStore(db *sqlx.DB) *RelationshipStore {
	return &RelationshipStore{db: db}
}

// UntrackedBusIDs returns the admin's explicit exception list (rows with
// is_tracking=false). No rows means everything is tracked.
func (s *RelationshipStore) UntrackedBusIDs(ctx context.Context, adminID string) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids, `
		SELECT bus_id FROM admin_bus_relationships
		WHERE admin_id = $1 AND is_tracking = FALSE
	`, adminID)
	return ids, err
}

// SetTracking upserts the exception row. Last write wins on the composite
// key, which serializes concurrent toggles on the same pair.
func (s *RelationshipStore) SetTracking(ctx context.Context, adminID, busID string, isTracking bool) error {
	now := time.Now().Unix()
	rel := models.AdminBusRelationship{
		AdminID:    adminID,
		BusID:      busID,
		IsTracking: isTracking,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO admin_bus_relationships (admin_id, bus_id, is_tracking, created_at, updated_at)
		VALUES (:admin_id, :bus_id, :is_tracking, :created_at, :updated_at)
		ON CONFLICT (admin_id, bus_id) DO UPDATE SET
			is_tracking = EXCLUDED.is_tracking,
			updated_at = EXCLUDED.updated_at
	`, rel)
	return err
}

// AuthorizedBusIDs returns the buses whose drivers granted this admin
// visibility.
func AuthorizedBusIDs(db *sqlx.DB, adminID string) ([]string, error) {
	ids := []string{}
	err := db.Select(&ids, `SELECT bus_id FROM bus_admin_access WHERE admin_id = $1`, adminID)
	return ids, err
}

// AdminsForBus lists the admins with access to a bus.
func AdminsForBus(db *sqlx.DB, busID string) ([]models.BusAdmin, error) {
	admins := []models.BusAdmin{}
	err := db.Select(&admins, `
		SELECT u.id, u.email, u.name
		FROM bus_admin_access a
		JOIN users u ON u.id = a.admin_id
		WHERE a.bus_id = $1
		ORDER BY a.created_at
	`, busID)
	return admins, err
}

// GrantAccess authorizes the admin with the given email for a bus. Returns
// ErrAdminNotFound when no account has that email and ErrNotAnAdmin when the
// account exists but isn't an admin.
func GrantAccess(db *sqlx.DB, busID, email string) (*models.BusAdmin, error) {
	var row struct {
		models.BusAdmin
		Role string `db:"role"`
	}
	err := db.Get(&row, `SELECT id, email, name, role FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	if row.Role != "admin" {
		return nil, ErrNotAnAdmin
	}
	admin := row.BusAdmin

	_, err = db.Exec(`
		INSERT INTO bus_admin_access (bus_id, admin_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (bus_id, admin_id) DO NOTHING
	`, busID, admin.ID, time.Now().Unix())
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// RevokeAccess removes an admin's visibility into a bus.
func RevokeAccess(db *sqlx.DB, busID, adminID string) error {
	_, err := db.Exec(`DELETE FROM bus_admin_access WHERE bus_id = $1 AND admin_id = $2`, busID, adminID)
	return err
}
