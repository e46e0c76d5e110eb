package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"bustracker-backend/internal/cache"
	"bustracker-backend/internal/database"
	"bustracker-backend/internal/middleware"
	"bustracker-backend/internal/models"
	"bustracker-backend/internal/tracking"
	"bustracker-backend/internal/websocket"
	"bustracker-backend/pkg/utils"
)

type LocationUpdateRequest struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Timestamp int64    `json:"timestamp"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// resolveDriverBus maps the authenticated driver to their bus assignment.
func resolveDriverBus(db *sqlx.DB, userID string) (busID, busName string, err error) {
	var row struct {
		BusID   *string `db:"bus_id"`
		BusName *string `db:"bus_name"`
	}
	if err := db.Get(&row, `SELECT bus_id, bus_name FROM users WHERE id = $1`, userID); err != nil {
		return "", "", err
	}
	if row.BusID == nil {
		return "", "", sql.ErrNoRows
	}
	busID = *row.BusID
	busName = busID
	if row.BusName != nil {
		busName = *row.BusName
	}
	return busID, busName, nil
}

// writeLocation is the shared write path behind the primary endpoint and the
// RPC fallback: upsert the current row, append history, refresh the cache,
// broadcast to admins.
func writeLocation(db *sqlx.DB, hub *websocket.Hub, locCache *cache.LocationCache, w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req LocationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		utils.RespondError(w, http.StatusBadRequest, "Coordinates out of range")
		return
	}

	busID, busName, err := resolveDriverBus(db, claims.UserID)
	if err != nil {
		log.Printf("❌ Driver %s has no bus assigned", claims.UserID)
		utils.RespondError(w, http.StatusBadRequest, "No bus assigned to this driver")
		return
	}

	status := req.Status
	if status != "active" && status != "stopped" {
		status = "active"
	}

	reportedAt := req.Timestamp
	if reportedAt == 0 {
		reportedAt = time.Now().Unix()
	}

	loc := models.BusLocation{
		BusID:         busID,
		BusName:       busName,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Status:        status,
		UpdatedAt:     reportedAt,
		LastHeartbeat: reportedAt,
		Accuracy:      req.Accuracy,
	}

	if err := database.UpsertBusLocation(db, loc); err != nil {
		log.Printf("❌ Failed to save location for bus %s: %v", busID, err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to save location")
		return
	}

	if locCache != nil {
		if err := locCache.Set(r.Context(), loc); err != nil {
			// Cache is an accelerator, not the source of truth
			log.Printf("⚠️ Failed to cache location for bus %s: %v", busID, err)
		}
	}

	hub.BroadcastToRole("admin", map[string]interface{}{
		"type": "bus_location_update",
		"data": loc,
	})

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"bus_id":  busID,
	})
}

// UpdateBusLocation is the primary driver reporting endpoint.
func UpdateBusLocation(db *sqlx.DB, hub *websocket.Hub, locCache *cache.LocationCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeLocation(db, hub, locCache, w, r)
	}
}

// UpdateBusLocationRPC is the fallback write path drivers retry against when
// the primary endpoint fails. Same semantics, separate route.
func UpdateBusLocationRPC(db *sqlx.DB, hub *websocket.Hub, locCache *cache.LocationCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Println("↩️ Location report arrived via RPC fallback")
		writeLocation(db, hub, locCache, w, r)
	}
}

// Heartbeat refreshes last_heartbeat for the driver's bus without moving it.
func Heartbeat(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		busID, _, err := resolveDriverBus(db, claims.UserID)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "No bus assigned to this driver")
			return
		}

		if err := database.TouchHeartbeat(db, busID, time.Now().Unix()); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to record heartbeat")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}

// GetDriverBus returns the driver's own current-location row, read through
// the cache when one is configured.
func GetDriverBus(db *sqlx.DB, locCache *cache.LocationCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		busID, _, err := resolveDriverBus(db, claims.UserID)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "No bus assigned to this driver")
			return
		}

		if locCache != nil {
			if loc, err := locCache.Get(r.Context(), busID); err == nil {
				loc.Status = tracking.EffectiveStatus(loc.Status, time.Unix(loc.UpdatedAt, 0), time.Now())
				utils.RespondJSON(w, http.StatusOK, loc)
				return
			} else if !errors.Is(err, cache.ErrCacheMiss) {
				log.Printf("⚠️ Cache read failed for bus %s: %v", busID, err)
			}
		}

		loc, err := database.CurrentLocation(db, busID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				utils.RespondError(w, http.StatusNotFound, "Bus has not reported yet")
				return
			}
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch bus")
			return
		}

		loc.Status = tracking.EffectiveStatus(loc.Status, time.Unix(loc.UpdatedAt, 0), time.Now())
		utils.RespondJSON(w, http.StatusOK, loc)
	}
}
