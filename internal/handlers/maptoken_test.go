package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetMapToken(t *testing.T) {
	t.Setenv("MAPBOX_PUBLIC_TOKEN", "pk.test-token")

	req := httptest.NewRequest(http.MethodGet, "/api/map-token", nil)
	rr := httptest.NewRecorder()
	GetMapToken().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["token"] != "pk.test-token" {
		t.Fatalf("expected token %q, got %q", "pk.test-token", body["token"])
	}
}

func TestGetMapTokenNotConfigured(t *testing.T) {
	t.Setenv("MAPBOX_PUBLIC_TOKEN", "")

	req := httptest.NewRequest(http.MethodGet, "/api/map-token", nil)
	rr := httptest.NewRecorder()
	GetMapToken().ServeHTTP(rr, req)

	// Missing configuration is a server error, never an empty token
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
}
