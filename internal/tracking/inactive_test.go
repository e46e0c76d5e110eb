package tracking

import (
	"testing"
	"time"
)

func TestIsInactive(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just reported", 0, false},
		{"one minute old", time.Minute, false},
		{"exactly at the threshold", InactivityThreshold, false},
		{"one second past the threshold", InactivityThreshold + time.Second, true},
		{"hours old", 3 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInactive(now.Add(-tt.age), now); got != tt.want {
				t.Fatalf("IsInactive(age=%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fresh := now.Add(-time.Minute)
	stale := now.Add(-InactivityThreshold - time.Second)

	if got := EffectiveStatus("active", fresh, now); got != "active" {
		t.Fatalf("fresh active bus reported as %q", got)
	}
	if got := EffectiveStatus("stopped", fresh, now); got != "stopped" {
		t.Fatalf("fresh stopped bus reported as %q", got)
	}
	if got := EffectiveStatus("active", stale, now); got != "offline" {
		t.Fatalf("stale active bus reported as %q, want offline", got)
	}
	if got := EffectiveStatus("stopped", stale, now); got != "offline" {
		t.Fatalf("stale stopped bus reported as %q, want offline", got)
	}
	// Exactly 15 minutes is still live
	if got := EffectiveStatus("active", now.Add(-InactivityThreshold), now); got != "active" {
		t.Fatalf("bus at the threshold reported as %q, want active", got)
	}
}
