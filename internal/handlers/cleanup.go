package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"bustracker-backend/internal/cache"
	"bustracker-backend/internal/database"
	"bustracker-backend/internal/services"
	"bustracker-backend/pkg/utils"
)

// CleanupInactiveBuses removes buses whose last heartbeat is more than a
// month old, drops their cache entries, and notifies admin devices.
func CleanupInactiveBuses(db *sqlx.DB, locCache *cache.LocationCache, fcm *services.FCMService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cutoff := time.Now().AddDate(0, -1, 0)

		deleted, err := database.DeleteStaleBusLocations(db, cutoff)
		if err != nil {
			log.Printf("❌ Cleanup failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Cleanup failed")
			return
		}

		if len(deleted) > 0 {
			ids := make([]string, len(deleted))
			for i, loc := range deleted {
				ids[i] = loc.BusID
			}

			if locCache != nil {
				if err := locCache.Delete(r.Context(), ids...); err != nil {
					log.Printf("⚠️ Failed to drop cache entries for cleaned buses: %v", err)
				}
			}

			if fcm != nil {
				notifyAdminsOfCleanup(db, fcm, len(deleted))
			}
		}

		log.Printf("🧹 Cleanup removed %d inactive buses", len(deleted))
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": fmt.Sprintf("Removed %d inactive buses", len(deleted)),
			"deleted": len(deleted),
		})
	}
}

func notifyAdminsOfCleanup(db *sqlx.DB, fcm *services.FCMService, deleted int) {
	tokens := []string{}
	err := db.Select(&tokens, `
		SELECT t.token
		FROM fcm_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE u.role = 'admin'
	`)
	if err != nil {
		log.Printf("⚠️ Failed to fetch admin FCM tokens: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	err = fcm.SendMulticast(tokens,
		"Inactive buses removed",
		fmt.Sprintf("%d buses with no heartbeat for over a month were removed from the map.", deleted),
		map[string]string{
			"type":    "buses_cleaned_up",
			"deleted": fmt.Sprintf("%d", deleted),
		})
	if err != nil {
		log.Printf("⚠️ Failed to send cleanup notification: %v", err)
	}
}
