package main

import (
	"log"
	"net/http"
	"os"

	"bustracker-backend/internal/cache"
	"bustracker-backend/internal/database"
	"bustracker-backend/internal/handlers"
	"bustracker-backend/internal/middleware"
	"bustracker-backend/internal/services"
	"bustracker-backend/internal/tracking"
	"bustracker-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚌 BUSTRACKER BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Connect to database
	db, err := database.Connect(dbURL)
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database connection failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ Database migrations failed: %v", err)
	}

	// Seed database
	if err := database.SeedUsers(db); err != nil {
		log.Fatalf("❌ User seeding failed: %v", err)
	}

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials (for Railway/cloud deployments)
	var fcmService *services.FCMService
	fcmCredsBase64 := os.Getenv("FIREBASE_CREDENTIALS_BASE64")

	if fcmCredsBase64 != "" {
		fcmService, err = services.NewFCMServiceFromBase64(fcmCredsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		}
	} else {
		fcmCredentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
		if fcmCredentialsFile == "" {
			fcmCredentialsFile = "./firebase-service-account.json"
		}

		fcmService, err = services.NewFCMService(fcmCredentialsFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from file")
		}
	}

	// Initialize Redis location cache (optional)
	var locCache *cache.LocationCache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		locCache, err = cache.NewLocationCache(redisAddr)
		if err != nil {
			log.Printf("⚠️  Failed to connect to Redis: %v (location cache disabled)", err)
			locCache = nil
		}
	} else {
		log.Println("⚠️  REDIS_ADDR not set, location cache disabled")
	}

	// Tracked-set reconciler over the relationship store
	reconciler := tracking.NewReconciler(database.NewRelationshipStore(db))

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Authentication routes (no auth required)
	r.Post("/api/auth/login", handlers.Login(db))

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(wsHub, db, locCache))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Map token for frontend clients (no auth required)
		r.Get("/map-token", handlers.GetMapToken())

		// Driver endpoints (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)

			// Location reporting (primary endpoint + RPC fallback)
			r.Post("/driver/location", handlers.UpdateBusLocation(db, wsHub, locCache))
			r.Post("/rpc/update-bus-location", handlers.UpdateBusLocationRPC(db, wsHub, locCache))

			// Heartbeat keeps the bus out of the cleanup window
			r.Post("/driver/heartbeat", handlers.Heartbeat(db))

			// Driver's own bus state
			r.Get("/driver/bus", handlers.GetDriverBus(db, locCache))

			// Admin access management for the driver's bus
			r.Post("/driver/admins", handlers.AddBusAdmin(db))
			r.Get("/driver/admins", handlers.ListBusAdmins(db))
			r.Delete("/driver/admins/{adminID}", handlers.RemoveBusAdmin(db))

			// FCM token registration
			r.Post("/fcm-token", handlers.RegisterFCMToken(db))
		})

		// Admin endpoints (require authentication + admin role)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)
			r.Use(middleware.RequireRole("admin"))

			r.Get("/admin/buses", handlers.GetBuses(db, reconciler))
			r.Get("/admin/buses/untracked", handlers.GetUntrackedBuses(reconciler))
			r.Put("/admin/buses/{busID}/tracking", handlers.SetBusTracking(db, reconciler))
			r.Get("/admin/buses/{busID}/history", handlers.GetBusHistory(db))

			r.Post("/admin/cleanup-inactive", handlers.CleanupInactiveBuses(db, locCache, fcmService))
		})
	})

	// Get port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("⚠️  PORT not set, using default: %s", port)
	}

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", port)
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Start server
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
