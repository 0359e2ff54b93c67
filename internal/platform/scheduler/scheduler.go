// Package scheduler provides named one-shot timers for room engines.
//
// Every timer is registered under a name; re-arming a name cancels the
// previous timer, and cancellation bumps an epoch counter so a callback
// that already left the runtime's timer heap becomes a no-op. This keeps
// the "check you still own the phase" discipline in one place instead of
// inside every callback.
package scheduler

import (
	"sync"
	"time"
)

type entry struct {
	epoch int64
	timer *time.Timer
}

// Scheduler owns a set of named one-shot timers. Safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{entries: make(map[string]*entry)}
}

// Arm schedules fn to run after d under the given name. Any timer already
// armed under the same name is cancelled first. fn runs on the timer
// goroutine; callers serialize their own state.
func (s *Scheduler) Arm(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if ok {
		e.timer.Stop()
		e.epoch++
	} else {
		e = &entry{}
		s.entries[name] = e
	}

	epoch := e.epoch
	e.timer = time.AfterFunc(d, func() {
		if !s.claim(name, epoch) {
			return
		}
		fn()
	})
}

// claim removes the entry if the firing callback still owns its name.
func (s *Scheduler) claim(name string, epoch int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok || e.epoch != epoch {
		return false
	}
	delete(s.entries, name)
	return true
}

// Cancel stops the named timer if armed. Idempotent.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		e.timer.Stop()
		e.epoch++
		delete(s.entries, name)
	}
}

// CancelAll stops every armed timer. Used on room shutdown.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, e := range s.entries {
		e.timer.Stop()
		e.epoch++
		delete(s.entries, name)
	}
}

// CancelPrefix stops every armed timer whose name starts with prefix.
// Bot timer arrays are registered as "bot:<id>:<seq>" and evicted together.
func (s *Scheduler) CancelPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, e := range s.entries {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			e.timer.Stop()
			e.epoch++
			delete(s.entries, name)
		}
	}
}

// Active reports whether a timer is currently armed under name.
func (s *Scheduler) Active(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[name]
	return ok
}

// Len returns the number of armed timers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
