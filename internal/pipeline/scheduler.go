// File: internal/pipeline/scheduler.go
package pipeline

import (
	"sync"
	"time"
)

// Scheduler defers a callback by a delay, with single-shot cancellation.
// The controller's auto-advance is a chain of these deferred continuations
// rather than a busy loop, and reset cancels whichever one is pending.
type Scheduler interface {
	// Schedule arranges for fn to run after d, replacing any previously
	// scheduled callback that has not fired yet.
	Schedule(d time.Duration, fn func())
	// Cancel stops the pending callback, if any, from ever firing.
	Cancel()
}

// TimerScheduler is the production Scheduler backed by time.AfterFunc.
type TimerScheduler struct {
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewTimerScheduler creates an idle scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

// Schedule implements Scheduler. A callback superseded or cancelled before
// its timer fires never runs; a callback whose timer already fired runs to
// completion regardless.
func (s *TimerScheduler) Schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.seq++
	seq := s.seq
	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		stale := seq != s.seq
		s.mu.Unlock()
		if !stale {
			fn()
		}
	})
}

// Cancel implements Scheduler.
func (s *TimerScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
}
