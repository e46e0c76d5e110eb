package websocket

import (
	"log"
	"net/http"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"

	"bustracker-backend/internal/cache"
	"bustracker-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Restrict in production
		return true
	},
}

// HandleWebSocket upgrades HTTP connection to WebSocket
func HandleWebSocket(hub *Hub, db *sqlx.DB, locCache *cache.LocationCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Browsers can't set headers on WebSocket upgrades, so the token
		// arrives as a query parameter
		tokenString := r.URL.Query().Get("token")

		var userClaims middleware.UserClaims

		if tokenString != "" {
			jwtSecret := os.Getenv("APP_JWT_SECRET")
			if jwtSecret == "" {
				log.Println("❌ JWT secret not configured")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid {
				log.Printf("❌ Invalid token in query parameter: %v", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				log.Println("❌ Failed to parse claims")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, _ := claims["user_id"].(string)
			email, _ := claims["email"].(string)
			role, _ := claims["role"].(string)
			if userID == "" || role == "" {
				log.Println("❌ Token claims missing user identity")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userClaims = middleware.UserClaims{
				UserID: userID,
				Email:  email,
				Role:   role,
			}
		} else {
			// Fallback: user set in context by Auth middleware
			var ok bool
			userClaims, ok = middleware.GetUserFromContext(r)
			if !ok {
				log.Println("❌ No user in context for WebSocket connection")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(userClaims.UserID, userClaims.Role, conn, hub, db, locCache)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()

		log.Printf("✅ WebSocket connection established for user: %s (%s)", userClaims.Email, userClaims.Role)
	}
}
