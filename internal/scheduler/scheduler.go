// Package scheduler drives the background refresh cadence. It owns the poll
// loop, backs off exponentially while the counter is unreachable, and folds
// debounced manual refresh requests into the same loop so a keyboard-happy
// barista cannot stampede the server.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fruithappens/Coffeecue-sub002/internal/store"
)

const (
	// manualDebounce is the minimum spacing between accepted manual refresh
	// requests. A request inside the window is dropped, not queued.
	manualDebounce = 5 * time.Second

	// maxBackoff caps the poll interval growth while the server is down.
	maxBackoff = 5 * time.Minute
)

// Target is the slice of the order store the scheduler drives.
type Target interface {
	Refresh(ctx context.Context)
	Snapshot() store.Snapshot
}

// Scheduler runs the refresh loop. Create with New, start with Run.
type Scheduler struct {
	target   Target
	interval time.Duration
	log      zerolog.Logger

	// wake holds at most one pending prompt-refresh request.
	wake chan struct{}

	mu         sync.Mutex
	lastManual time.Time

	now func() time.Time
}

func New(target Target, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		target:   target,
		interval: interval,
		log:      log,
		wake:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// RequestRefresh asks for a prompt refresh on the next loop iteration. It
// reports whether the request was accepted; requests landing inside the
// debounce window are dropped.
func (s *Scheduler) RequestRefresh() bool {
	s.mu.Lock()
	now := s.now()
	if now.Sub(s.lastManual) < manualDebounce {
		s.mu.Unlock()
		s.log.Debug().Msg("manual refresh dropped by debounce")
		return false
	}
	s.lastManual = now
	s.mu.Unlock()

	s.Wake()
	return true
}

// Wake triggers a prompt refresh without the manual debounce. Station
// switches use it: their fetch is mandated, not optional, so it must never
// be dropped because someone pressed refresh moments earlier.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run refreshes immediately and then loops until ctx is cancelled. Each
// failed cycle doubles the wait up to maxBackoff; a successful cycle snaps
// back to the configured interval. A wake request cuts the current wait
// short.
func (s *Scheduler) Run(ctx context.Context) {
	failures := 0
	for {
		s.target.Refresh(ctx)
		if cycleFailed(s.target.Snapshot()) {
			failures++
		} else {
			failures = 0
		}

		wait := calculateBackoff(failures, s.interval)
		if failures > 0 {
			s.log.Warn().Int("failures", failures).Dur("next_poll", wait).
				Msg("refresh cycle offline, backing off")
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		case <-s.wake:
			timer.Stop()
		}
	}
}

// cycleFailed reports whether a refresh cycle counts toward backoff. Only
// cycles that actually hit a fetch error do; a store serving local data by
// choice (offline mode, tripped auth) is not online but also generates no
// network pressure worth backing off from.
func cycleFailed(snap store.Snapshot) bool {
	return snap.LastError != nil
}

// calculateBackoff returns the wait before the next poll: the base interval
// after a clean cycle, doubling per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
