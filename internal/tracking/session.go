package tracking

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the session lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
)

// Update intervals the driver UI offers, in seconds.
var allowedIntervals = map[int]bool{10: true, 30: true, 60: true, 120: true, 300: true}

// ValidInterval reports whether seconds is one of the supported update
// cadences (10s, 30s, 1m, 2m, 5m).
func ValidInterval(seconds int) bool {
	return allowedIntervals[seconds]
}

// ParseInterval converts a seconds value from config or the UI into a
// duration, rejecting unsupported cadences with ErrInvalidInterval.
func ParseInterval(seconds int) (time.Duration, error) {
	if !ValidInterval(seconds) {
		return 0, ErrInvalidInterval
	}
	return time.Duration(seconds) * time.Second, nil
}

// SessionConfig configures a tracking session.
type SessionConfig struct {
	Source   PositionSource
	Reporter Reporter
	Gate     PermissionGate // optional; probed once at construction

	// Interval between position reports. The driver agent validates it
	// against ValidInterval; tests may use shorter periods.
	Interval time.Duration

	// OnError receives non-fatal tick errors (timeouts, report failures).
	// Optional.
	OnError func(error)
}

// Session is the driver-side location-reporting state machine. It owns its
// timer: at most one recurring timer is armed at any instant, and both
// Stop() and SetInterval() tear down the previous timer before anything new
// is armed. An in-flight position request started before Stop() is allowed
// to finish, but its result is discarded.
type Session struct {
	source   PositionSource
	reporter Reporter
	onError  func(error)

	mu         sync.Mutex
	state      State
	interval   time.Duration
	generation uint64 // bumped on every stop/rearm; stale ticks check it
	quit       chan struct{}
	lastFix    *Fix
	lastUpdate time.Time
	permission PermissionState
}

// Snapshot is a read-only view of the session for display.
type Snapshot struct {
	State      State
	Interval   time.Duration
	LastFix    *Fix
	LastUpdate time.Time
	Permission PermissionState
}

// NewSession creates an idle session. The permission state is observed once
// here; position fetches update it when they are refused.
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		source:     cfg.Source,
		reporter:   cfg.Reporter,
		onError:    cfg.OnError,
		state:      StateIdle,
		interval:   cfg.Interval,
		permission: PermissionUnknown,
	}
	if cfg.Gate != nil {
		s.permission = cfg.Gate.Permission(context.Background())
	}
	return s
}

// Start transitions Idle → Tracking. It acquires one position synchronously
// first: the state only flips after that initial fetch resolves. On failure
// (permission denied, timeout, source missing) the session stays idle and
// the error is returned.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateTracking {
		s.mu.Unlock()
		return ErrAlreadyTracking
	}
	startGen := s.generation
	s.mu.Unlock()

	fix, err := s.source.Position(ctx)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			s.mu.Lock()
			s.permission = PermissionDenied
			s.mu.Unlock()
		}
		return err
	}

	s.mu.Lock()
	// Another Start won the race, or Stop was called while the initial
	// fetch was in flight; discard this result.
	if s.state == StateTracking {
		s.mu.Unlock()
		return ErrAlreadyTracking
	}
	if s.generation != startGen {
		s.mu.Unlock()
		return nil
	}
	s.lastFix = &fix
	s.lastUpdate = fix.At
	s.permission = PermissionGranted
	s.state = StateTracking
	s.generation++
	gen := s.generation
	interval := s.interval
	quit := make(chan struct{})
	s.quit = quit
	s.mu.Unlock()

	if s.reporter != nil {
		if err := s.reporter.Report(ctx, fix); err != nil {
			s.fail(err)
		}
	}

	go s.run(gen, interval, quit)
	return nil
}

// Stop transitions Tracking → Idle and cancels the timer. Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTracking {
		return
	}
	close(s.quit)
	s.quit = nil
	s.state = StateIdle
	s.generation++ // invalidate any tick still in flight
}

// SetInterval changes the update cadence. While tracking this is an atomic
// stop-then-start: the old timer is cancelled before the new one is armed,
// so the next tick fires within the new interval of this call. While idle it
// only stores the preference.
func (s *Session) SetInterval(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = interval
	if s.state != StateTracking {
		return
	}
	close(s.quit)
	s.generation++
	gen := s.generation
	quit := make(chan struct{})
	s.quit = quit
	go s.run(gen, interval, quit)
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:      s.state,
		Interval:   s.interval,
		LastFix:    s.lastFix,
		LastUpdate: s.lastUpdate,
		Permission: s.permission,
	}
}

func (s *Session) run(gen uint64, interval time.Duration, quit chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			s.tick(gen)
		}
	}
}

// tick fetches one fresh position and reports it. Failures are surfaced
// through OnError and never stop the session; only Stop() does that.
func (s *Session) tick(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultFetchTimeout)
	defer cancel()

	fix, err := s.source.Position(ctx)

	s.mu.Lock()
	if s.generation != gen || s.state != StateTracking {
		// Session was stopped or rearmed while this fetch was in flight.
		s.mu.Unlock()
		return
	}
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			s.permission = PermissionDenied
		}
		s.mu.Unlock()
		s.fail(err)
		return
	}
	s.lastFix = &fix
	s.lastUpdate = fix.At
	s.mu.Unlock()

	if s.reporter != nil {
		if err := s.reporter.Report(ctx, fix); err != nil {
			s.fail(err)
		}
	}
}

func (s *Session) fail(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
