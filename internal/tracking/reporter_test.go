package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type reportRecorder struct {
	mu       sync.Mutex
	primary  int
	fallback int
	failMain bool
	failBoth bool
	lastBody map[string]interface{}
	lastAuth string
}

func (rec *reportRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()

		rec.lastAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&rec.lastBody)

		switch r.URL.Path {
		case "/api/driver/location":
			rec.primary++
			if rec.failMain || rec.failBoth {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		case "/api/rpc/update-bus-location":
			rec.fallback++
			if rec.failBoth {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"success":true}`))
	}
}

func TestReporterPrimaryPath(t *testing.T) {
	rec := &reportRecorder{}
	server := httptest.NewServer(rec.handler())
	defer server.Close()

	accuracy := 8.0
	reporter := NewLocationReporter(server.URL, "test-token")
	fix := Fix{Latitude: 40.7, Longitude: -74.0, Accuracy: &accuracy, At: time.Unix(1_700_000_000, 0)}

	if err := reporter.Report(context.Background(), fix); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.primary != 1 || rec.fallback != 0 {
		t.Fatalf("expected 1 primary / 0 fallback, got %d / %d", rec.primary, rec.fallback)
	}
	if rec.lastAuth != "Bearer test-token" {
		t.Fatalf("missing bearer token, got %q", rec.lastAuth)
	}
	if rec.lastBody["latitude"] != 40.7 || rec.lastBody["accuracy"] != 8.0 {
		t.Fatalf("unexpected payload: %v", rec.lastBody)
	}
	if rec.lastBody["timestamp"] != float64(1_700_000_000) {
		t.Fatalf("unexpected timestamp: %v", rec.lastBody["timestamp"])
	}
}

func TestReporterFallsBackOnce(t *testing.T) {
	rec := &reportRecorder{failMain: true}
	server := httptest.NewServer(rec.handler())
	defer server.Close()

	reporter := NewLocationReporter(server.URL, "test-token")
	if err := reporter.Report(context.Background(), Fix{At: time.Now()}); err != nil {
		t.Fatalf("Report should succeed via fallback: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.primary != 1 || rec.fallback != 1 {
		t.Fatalf("expected 1 primary / 1 fallback, got %d / %d", rec.primary, rec.fallback)
	}
}

func TestReporterBothPathsFail(t *testing.T) {
	rec := &reportRecorder{failBoth: true}
	server := httptest.NewServer(rec.handler())
	defer server.Close()

	reporter := NewLocationReporter(server.URL, "test-token")
	err := reporter.Report(context.Background(), Fix{At: time.Now()})
	if !errors.Is(err, ErrReportFailed) {
		t.Fatalf("expected ErrReportFailed, got %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.primary != 1 || rec.fallback != 1 {
		t.Fatalf("expected exactly one attempt per path, got %d / %d", rec.primary, rec.fallback)
	}
}

func TestReporterOmitsAccuracyWhenUnknown(t *testing.T) {
	rec := &reportRecorder{}
	server := httptest.NewServer(rec.handler())
	defer server.Close()

	reporter := NewLocationReporter(server.URL, "test-token")
	if err := reporter.Report(context.Background(), Fix{Latitude: 1, Longitude: 2, At: time.Now()}); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if _, present := rec.lastBody["accuracy"]; present {
		t.Fatal("accuracy should be omitted when the fix has none")
	}
}
