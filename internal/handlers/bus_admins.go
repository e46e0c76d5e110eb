package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"bustracker-backend/internal/database"
	"bustracker-backend/internal/middleware"
	"bustracker-backend/pkg/utils"
)

type AddBusAdminRequest struct {
	Email string `json:"email"`
}

// AddBusAdmin lets a driver grant an admin visibility into their bus, looked
// up by email. A missing admin account is a 404, not a server error.
func AddBusAdmin(db *sqlx.DB) http.HandlerFunc {
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

		var req AddBusAdminRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		email := strings.TrimSpace(strings.ToLower(req.Email))
		if email == "" {
			utils.RespondError(w, http.StatusBadRequest, "Email is required")
			return
		}

		admin, err := database.GrantAccess(db, busID, email)
		if err != nil {
			if errors.Is(err, database.ErrAdminNotFound) {
				utils.RespondError(w, http.StatusNotFound, "No account with that email")
				return
			}
			if errors.Is(err, database.ErrNotAnAdmin) {
				utils.RespondError(w, http.StatusBadRequest, "That account is not an admin")
				return
			}
			log.Printf("❌ Failed to grant access on bus %s: %v", busID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to add admin")
			return
		}

		log.Printf("✅ Admin %s granted access to bus %s", admin.Email, busID)
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"admin":   admin,
		})
	}
}

// ListBusAdmins returns the admins the driver has granted access to.
func ListBusAdmins(db *sqlx.DB) http.HandlerFunc {
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

		admins, err := database.AdminsForBus(db, busID)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch admins")
			return
		}

		utils.RespondJSON(w, http.StatusOK, admins)
	}
}

// RemoveBusAdmin revokes an admin's visibility into the driver's bus.
func RemoveBusAdmin(db *sqlx.DB) http.HandlerFunc {
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

		adminID := chi.URLParam(r, "adminID")
		if adminID == "" {
			utils.RespondError(w, http.StatusBadRequest, "Missing admin id")
			return
		}

		if err := database.RevokeAccess(db, busID, adminID); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "Failed to remove admin")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
