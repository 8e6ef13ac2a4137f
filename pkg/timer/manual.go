package timer

import (
	"sync"
	"time"

	"github.com/Veraticus/idlewatch/pkg/interfaces"
)

// Manual is a TimerService driven by explicit Advance calls instead of the
// wall clock. Advance fires due callbacks synchronously on the calling
// goroutine, in chronological order, with ties broken by scheduling order.
// Callbacks may schedule and cancel timers.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

// NewManual creates a manual timer service starting at an arbitrary fixed
// instant.
func NewManual() *Manual {
	return &Manual{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the service's current virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// ScheduleRepeating implements interfaces.TimerService.
func (m *Manual) ScheduleRepeating(interval time.Duration, fn func()) interfaces.TimerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTimer{
		next:     m.now.Add(interval),
		interval: interval,
		fn:       fn,
		seq:      m.seq,
	}
	m.seq++
	m.timers = append(m.timers, t)
	return t
}

// Cancel implements interfaces.TimerService.
func (m *Manual) Cancel(h interfaces.TimerHandle) {
	if h != nil {
		h.Stop()
	}
}

// Advance moves virtual time forward by d, invoking every callback that
// comes due along the way. Callbacks run without the service lock held.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)

	for {
		t := m.nextDueLocked(target)
		if t == nil {
			break
		}

		// Move time to the fire instant and reschedule before invoking
		// so the callback sees a consistent clock and may stop the
		// timer itself.
		m.now = t.next
		t.next = t.next.Add(t.interval)
		fn := t.fn

		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}

	m.now = target
	m.compactLocked()
	m.mu.Unlock()
}

// nextDueLocked returns the earliest non-stopped timer due at or before
// target, or nil.
func (m *Manual) nextDueLocked(target time.Time) *manualTimer {
	var due *manualTimer
	for _, t := range m.timers {
		if t.isStopped() || t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.seq < due.seq) {
			due = t
		}
	}
	return due
}

func (m *Manual) compactLocked() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.isStopped() {
			live = append(live, t)
		}
	}
	m.timers = live
}

// Pending returns the number of scheduled, not-yet-stopped timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.timers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

type manualTimer struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration
	fn       func()
	seq      int
	stopped  bool
}

// Stop implements interfaces.TimerHandle.
func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (t *manualTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
