package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bustracker-backend/internal/tracking"
)

// driver-agent runs on the driver's device: it logs in, then reports the
// bus position to the backend on a fixed cadence until interrupted.

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	serverURL := flag.String("server", envOr("SERVER_URL", "http://localhost:8080"), "backend base URL")
	bridgeURL := flag.String("bridge", envOr("BRIDGE_URL", "http://localhost:9090"), "device bridge base URL")
	email := flag.String("email", os.Getenv("DRIVER_EMAIL"), "driver account email")
	password := flag.String("password", os.Getenv("DRIVER_PASSWORD"), "driver account password")
	intervalSec := flag.Int("interval", 30, "seconds between reports (10, 30, 60, 120 or 300)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("driver credentials required (-email/-password or DRIVER_EMAIL/DRIVER_PASSWORD)")
	}
	interval, err := tracking.ParseInterval(*intervalSec)
	if err != nil {
		log.Fatalf("unsupported interval %ds (allowed: 10, 30, 60, 120, 300)", *intervalSec)
	}

	token, err := login(*serverURL, *email, *password)
	if err != nil {
		log.Fatalf("❌ Login failed: %v", err)
	}
	log.Printf("✅ Logged in as %s", *email)

	session := tracking.NewSession(tracking.SessionConfig{
		Source:   tracking.NewDeviceBridgeSource(*bridgeURL, tracking.DefaultFetchTimeout),
		Reporter: tracking.NewLocationReporter(*serverURL, token),
		Gate:     tracking.NewDeviceBridgeGate(*bridgeURL),
		Interval: interval,
		OnError: func(err error) {
			log.Printf("⚠️  Tracking error: %v", err)
		},
	})

	if snap := session.Snapshot(); snap.Permission == tracking.PermissionDenied {
		log.Fatal("❌ Location permission denied on this device")
	}

	ctx, cancel := context.WithTimeout(context.Background(), tracking.DefaultFetchTimeout)
	err = session.Start(ctx)
	cancel()
	if err != nil {
		log.Fatalf("❌ Could not start tracking: %v", err)
	}
	log.Printf("🚌 Tracking started, reporting every %ds", *intervalSec)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	session.Stop()
	log.Println("🛑 Tracking stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func login(serverURL, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	resp, err := http.Post(serverURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var out struct {
		OK    bool   `json:"ok"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if !out.OK || out.Token == "" {
		return "", fmt.Errorf("login rejected")
	}
	return out.Token, nil
}
