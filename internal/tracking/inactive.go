package tracking

import "time"

// InactivityThreshold is how long a bus can go without a location update
// before it is treated as inactive everywhere liveness is rendered.
const InactivityThreshold = 15 * time.Minute

// IsInactive reports whether a bus whose last update happened at lastUpdate
// should be treated as inactive at time now. The comparison is strictly
// greater-than: a bus updated exactly 15 minutes ago is still active.
func IsInactive(lastUpdate, now time.Time) bool {
	return now.Sub(lastUpdate) > InactivityThreshold
}

// EffectiveStatus is the display status for a bus: the stored status,
// overridden to "offline" once the last update crosses the inactivity
// threshold. The override is computed at read time and never persisted.
func EffectiveStatus(status string, lastUpdate, now time.Time) string {
	if IsInactive(lastUpdate, now) {
		return "offline"
	}
	return status
}
