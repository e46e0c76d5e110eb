package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"bustracker-backend/internal/database"
	"bustracker-backend/internal/middleware"
	"bustracker-backend/internal/tracking"
	"bustracker-backend/pkg/utils"
)

type SetTrackingRequest struct {
	IsTracking bool `json:"is_tracking"`
}

// SetBusTracking flips the per-admin tracking flag for one bus. Untracking
// writes an explicit exception row; re-tracking clears it. Idempotent.
func SetBusTracking(db *sqlx.DB, reconciler *tracking.Reconciler) http.HandlerFunc {
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

		var req SetTrackingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
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

		if err := reconciler.Toggle(r.Context(), claims.UserID, busID, req.IsTracking); err != nil {
			log.Printf("❌ Failed to toggle tracking for bus %s: %v", busID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update tracking")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"bus_id":      busID,
			"is_tracking": req.IsTracking,
		})
	}
}

// GetUntrackedBuses returns the admin's explicit exception list.
func GetUntrackedBuses(reconciler *tracking.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		untracked, err := reconciler.UntrackedFor(r.Context(), claims.UserID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch tracking preferences")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"untracked_bus_ids": untracked,
		})
	}
}
