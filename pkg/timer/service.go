// Package timer provides TimerService implementations: a wall-clock service
// for production and a manually advanced one for deterministic tests.
package timer

import (
	"sync"
	"time"

	"github.com/Veraticus/idlewatch/pkg/interfaces"
)

// Service is the wall-clock TimerService.
type Service struct{}

// NewService creates a wall-clock timer service.
func NewService() *Service {
	return &Service{}
}

// ScheduleRepeating invokes fn every interval on its own goroutine until the
// handle is stopped.
func (s *Service) ScheduleRepeating(interval time.Duration, fn func()) interfaces.TimerHandle {
	t := &wallTimer{interval: interval, fn: fn}
	t.mu.Lock()
	t.timer = time.AfterFunc(interval, t.fire)
	t.mu.Unlock()
	return t
}

// Cancel stops the timer for h. Safe with nil and already-stopped handles.
func (s *Service) Cancel(h interfaces.TimerHandle) {
	if h != nil {
		h.Stop()
	}
}

// wallTimer reschedules a time.Timer after each fire.
type wallTimer struct {
	mu       sync.Mutex
	timer    *time.Timer
	interval time.Duration
	fn       func()
	stopped  bool
}

func (t *wallTimer) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.fn()

	t.mu.Lock()
	if !t.stopped {
		t.timer.Reset(t.interval)
	}
	t.mu.Unlock()
}

// Stop implements interfaces.TimerHandle.
func (t *wallTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
	return true
}
