package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDeviceBridgeSourcePosition(t *testing.T) {
	accuracy := 12.5
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/position" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		// Every fetch must demand a fresh high-accuracy fix
		if got := r.URL.Query().Get("accuracy"); got != "high" {
			t.Errorf("accuracy query = %q, want high", got)
		}
		if got := r.URL.Query().Get("maximumAge"); got != "0" {
			t.Errorf("maximumAge query = %q, want 0", got)
		}
		json.NewEncoder(w).Encode(Fix{Latitude: 40.7, Longitude: -74.0, Accuracy: &accuracy})
	}))
	defer server.Close()

	source := NewDeviceBridgeSource(server.URL, time.Second)
	fix, err := source.Position(context.Background())
	if err != nil {
		t.Fatalf("Position failed: %v", err)
	}
	if fix.Latitude != 40.7 || fix.Longitude != -74.0 {
		t.Fatalf("unexpected fix: %+v", fix)
	}
	if fix.Accuracy == nil || *fix.Accuracy != 12.5 {
		t.Fatalf("accuracy not carried through: %+v", fix.Accuracy)
	}
	if fix.At.IsZero() {
		t.Fatal("fix timestamp not set")
	}
}

func TestDeviceBridgeSourcePermissionDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	source := NewDeviceBridgeSource(server.URL, time.Second)
	_, err := source.Position(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestDeviceBridgeSourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	source := NewDeviceBridgeSource(server.URL, time.Second)
	_, err := source.Position(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestDeviceBridgeSourceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := NewDeviceBridgeSource(server.URL, time.Second)
	_, err := source.Position(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable for a 500, got %v", err)
	}
}

func TestDeviceBridgeGate(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    PermissionState
	}{
		{
			name: "granted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"state": "granted"})
			},
			want: PermissionGranted,
		},
		{
			name: "prompt",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"state": "prompt"})
			},
			want: PermissionPrompt,
		},
		{
			name: "forbidden maps to denied",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			want: PermissionDenied,
		},
		{
			name: "garbage state maps to unknown",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"state": "whatever"})
			},
			want: PermissionUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			gate := NewDeviceBridgeGate(server.URL)
			if got := gate.Permission(context.Background()); got != tt.want {
				t.Fatalf("Permission() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceBridgeGateUnreachableIsUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	gate := NewDeviceBridgeGate(server.URL)
	if got := gate.Permission(context.Background()); got != PermissionUnknown {
		t.Fatalf("unreachable bridge should read unknown, got %q", got)
	}
}
