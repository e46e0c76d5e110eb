package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// Reporter persists one position fix for the session's bus.
type Reporter interface {
	Report(ctx context.Context, fix Fix) error
}

// LocationReporter pushes fixes to the backend. The primary path is the
// location upsert endpoint; when it fails the reporter retries exactly once
// through the fallback RPC endpoint, which performs the same upsert
// server-side. Writes are idempotent per tick, so there is no retry queue;
// the next tick tries again.
type LocationReporter struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewLocationReporter creates a reporter that authenticates with the given
// bearer token.
func NewLocationReporter(baseURL, token string) *LocationReporter {
	return &LocationReporter{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: DefaultFetchTimeout},
	}
}

// Report writes the fix via the primary path, then the fallback. Returns
// ErrReportFailed when both fail.
func (r *LocationReporter) Report(ctx context.Context, fix Fix) error {
	payload := map[string]interface{}{
		"latitude":  fix.Latitude,
		"longitude": fix.Longitude,
		"timestamp": fix.At.Unix(),
	}
	if fix.Accuracy != nil {
		payload["accuracy"] = *fix.Accuracy
	}

	if err := r.post(ctx, "/api/driver/location", payload); err != nil {
		log.Printf("⚠️  Primary location write failed, trying fallback: %v", err)
		if err := r.post(ctx, "/api/rpc/update-bus-location", payload); err != nil {
			log.Printf("❌ Fallback location write failed: %v", err)
			return ErrReportFailed
		}
	}
	return nil
}

func (r *LocationReporter) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
