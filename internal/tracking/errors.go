package tracking

import "errors"

var (
	// ErrPermissionDenied means the position source refused access. Start()
	// returns it and leaves the session idle.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrPositionTimeout means a single position fetch exceeded its bound.
	// Non-fatal for a running session.
	ErrPositionTimeout = errors.New("position request timed out")

	// ErrSourceUnavailable means the position source could not be reached at
	// all (no device bridge, connection refused).
	ErrSourceUnavailable = errors.New("position source unavailable")

	// ErrReportFailed means both the primary and fallback write paths failed
	// for one position report. The next tick retries naturally.
	ErrReportFailed = errors.New("location report failed")

	// ErrAlreadyTracking is returned by Start() on a session that is already
	// tracking. The existing timer keeps running.
	ErrAlreadyTracking = errors.New("session is already tracking")

	// ErrInvalidInterval is returned for update intervals outside the
	// supported set.
	ErrInvalidInterval = errors.New("invalid update interval")
)
