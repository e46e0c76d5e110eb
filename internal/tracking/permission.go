package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// PermissionState mirrors the platform permission model for location access.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
	PermissionUnknown PermissionState = "unknown"
)

// PermissionGate queries the location permission state. It never requests
// permission itself; a position request triggers the platform prompt.
type PermissionGate interface {
	Permission(ctx context.Context) PermissionState
}

// DeviceBridgeGate asks the device bridge for its permission state.
type DeviceBridgeGate struct {
	baseURL string
	client  *http.Client
}

func NewDeviceBridgeGate(baseURL string) *DeviceBridgeGate {
	return &DeviceBridgeGate{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Permission probes the bridge. A 403 means denied; probe failures map to
// unknown rather than denied so a flaky bridge doesn't lock the UI into a
// permission error.
func (g *DeviceBridgeGate) Permission(ctx context.Context) PermissionState {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/permission", nil)
	if err != nil {
		return PermissionUnknown
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return PermissionUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return PermissionDenied
	}
	if resp.StatusCode != http.StatusOK {
		return PermissionUnknown
	}

	var body struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return PermissionUnknown
	}

	switch PermissionState(body.State) {
	case PermissionGranted, PermissionDenied, PermissionPrompt:
		return PermissionState(body.State)
	default:
		return PermissionUnknown
	}
}
