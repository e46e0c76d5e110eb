package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"bustracker-backend/internal/database"
	"bustracker-backend/internal/middleware"
	"bustracker-backend/internal/models"
	"bustracker-backend/internal/tracking"
	"bustracker-backend/pkg/utils"
)

// History responses are capped at the most recent 24 points.
const maxHistoryPoints = 24

// GetBuses returns the buses visible to the authenticated admin: every bus
// whose driver granted this admin access, joined with the current location
// and the per-admin tracking flag.
func GetBuses(db *sqlx.DB, reconciler *tracking.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		authorized, err := database.AuthorizedBusIDs(db, claims.UserID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch bus access")
			return
		}

		untracked, err := reconciler.UntrackedFor(r.Context(), claims.UserID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch tracking preferences")
			return
		}
		untrackedSet := make(map[string]bool, len(untracked))
		for _, id := range untracked {
			untrackedSet[id] = true
		}

		locations, err := database.CurrentLocations(db)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch bus locations")
			return
		}

		// Driver display names keyed by bus
		type driverRow struct {
			BusID string `db:"bus_id"`
			Name  string `db:"name"`
		}
		drivers := []driverRow{}
		if err := db.Select(&drivers, `SELECT bus_id, name FROM users WHERE role = 'driver' AND bus_id IS NOT NULL`); err != nil {
			log.Printf("⚠️ Failed to fetch driver names: %v", err)
		}
		driverNames := make(map[string]string, len(drivers))
		for _, d := range drivers {
			driverNames[d.BusID] = d.Name
		}

		authorizedSet := make(map[string]bool, len(authorized))
		for _, id := range authorized {
			authorizedSet[id] = true
		}

		now := time.Now()
		buses := []models.Bus{}
		for _, loc := range locations {
			if !authorizedSet[loc.BusID] {
				continue
			}
			buses = append(buses, models.Bus{
				ID:         loc.BusID,
				Name:       loc.BusName,
				DriverName: driverNames[loc.BusID],
				Status:     tracking.EffectiveStatus(loc.Status, time.Unix(loc.UpdatedAt, 0), now),
				Latitude:   loc.Latitude,
				Longitude:  loc.Longitude,
				LastUpdate: loc.UpdatedAt,
				IsTracked:  !untrackedSet[loc.BusID],
			})
		}

		utils.RespondJSON(w, http.StatusOK, buses)
	}
}

// GetBusHistory returns the recent position trail for one bus, newest first.
func GetBusHistory(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		busID := chi.URLParam(r, "busID")
		if busID == "" {
			utils.RespondError(w, http.StatusBadRequest, "Missing bus id")
			return
		}

		authorized, err := database.AuthorizedBusIDs(db, claims.UserID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch bus access")
			return
		}
		allowed := false
		for _, id := range authorized {
			if id == busID {
				allowed = true
				break
			}
		}
		if !allowed {
			utils.RespondError(w, http.StatusForbidden, "No access to this bus")
			return
		}

		limit := maxHistoryPoints
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				utils.RespondError(w, http.StatusBadRequest, "Invalid limit")
				return
			}
			if parsed < limit {
				limit = parsed
			}
		}

		points, err := database.HistoryForBus(db, busID, limit)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch history")
			return
		}

		utils.RespondJSON(w, http.StatusOK, points)
	}
}
