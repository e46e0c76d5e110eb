package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"bustracker-backend/internal/middleware"
	"bustracker-backend/pkg/utils"
)

type RegisterFCMTokenRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

// RegisterFCMToken stores a device push token for the authenticated user.
func RegisterFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req RegisterFCMTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Token == "" {
			utils.RespondError(w, http.StatusBadRequest, "Token is required")
			return
		}
		if req.DeviceType != "ios" && req.DeviceType != "android" {
			utils.RespondError(w, http.StatusBadRequest, "Invalid device type")
			return
		}

		now := time.Now().Unix()
		_, err := db.Exec(`
			INSERT INTO fcm_tokens (user_id, token, device_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (token) DO UPDATE SET
				user_id = EXCLUDED.user_id,
				device_type = EXCLUDED.device_type,
				updated_at = EXCLUDED.updated_at
		`, claims.UserID, req.Token, req.DeviceType, now)
		if err != nil {
			log.Printf("❌ Failed to register FCM token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to register token")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
