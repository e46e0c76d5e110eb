package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Fix is a single position sample.
type Fix struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	At        time.Time
}

// PositionSource produces one-shot position fixes. Each call is an
// independent request; sources must not hand back cached fixes.
type PositionSource interface {
	Position(ctx context.Context) (Fix, error)
}

// DefaultFetchTimeout bounds a single position request.
const DefaultFetchTimeout = 10 * time.Second

// DeviceBridgeSource reads fixes from a local device bridge over HTTP (the
// process on the driver's device that fronts the GPS hardware). Every fetch
// requests a fresh high-accuracy fix.
type DeviceBridgeSource struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewDeviceBridgeSource creates a source for the bridge at baseURL. A
// non-positive timeout falls back to DefaultFetchTimeout.
func NewDeviceBridgeSource(baseURL string, timeout time.Duration) *DeviceBridgeSource {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &DeviceBridgeSource{
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Position fetches one fresh fix. A 403 from the bridge maps to
// ErrPermissionDenied, a deadline to ErrPositionTimeout, and connection
// failures to ErrSourceUnavailable.
func (s *DeviceBridgeSource) Position(ctx context.Context) (Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url := s.baseURL + "/position?accuracy=high&maximumAge=0"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Fix{}, fmt.Errorf("building position request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Fix{}, ErrPositionTimeout
		}
		return Fix{}, ErrSourceUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return Fix{}, ErrPermissionDenied
	case resp.StatusCode != http.StatusOK:
		return Fix{}, fmt.Errorf("device bridge returned status %d: %w", resp.StatusCode, ErrSourceUnavailable)
	}

	var fix Fix
	if err := json.NewDecoder(resp.Body).Decode(&fix); err != nil {
		return Fix{}, fmt.Errorf("decoding position: %w", err)
	}
	fix.At = time.Now()
	return fix, nil
}
