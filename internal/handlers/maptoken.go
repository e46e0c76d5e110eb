package handlers

import (
	"log"
	"net/http"
	"os"

	"bustracker-backend/pkg/utils"
)

// GetMapToken hands the public Mapbox token to clients so it never ships in
// a frontend bundle. Missing configuration is a server error, not an empty
// token.
func GetMapToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := os.Getenv("MAPBOX_PUBLIC_TOKEN")
		if token == "" {
			log.Println("❌ MAPBOX_PUBLIC_TOKEN not configured")
			utils.RespondError(w, http.StatusInternalServerError, "Map token not configured")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
