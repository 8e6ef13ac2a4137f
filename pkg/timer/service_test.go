package timer

import (
	"sync"
	"testing"
	"time"
)

func TestServiceFiresRepeatedly(t *testing.T) {
	s := NewService()

	var mu sync.Mutex
	fires := 0
	h := s.ScheduleRepeating(20*time.Millisecond, func() {
		mu.Lock()
		fires++
		mu.Unlock()
	})
	defer s.Cancel(h)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := fires
		mu.Unlock()
		if n >= 2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timer did not fire at least twice")
}

func TestServiceCancelStopsFiring(t *testing.T) {
	s := NewService()

	var mu sync.Mutex
	fires := 0
	h := s.ScheduleRepeating(10*time.Millisecond, func() {
		mu.Lock()
		fires++
		mu.Unlock()
	})

	time.Sleep(35 * time.Millisecond)
	s.Cancel(h)

	mu.Lock()
	atCancel := fires
	mu.Unlock()

	// Allow one in-flight callback, then require silence.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	after := fires
	mu.Unlock()
	if after > atCancel+1 {
		t.Errorf("timer fired %d times after Cancel", after-atCancel)
	}
}

func TestServiceCancelIsIdempotent(t *testing.T) {
	s := NewService()

	h := s.ScheduleRepeating(time.Hour, func() {})
	s.Cancel(h)
	s.Cancel(h)
	s.Cancel(nil)

	if h.Stop() {
		t.Error("expected Stop to report false on an already-cancelled timer")
	}
}
