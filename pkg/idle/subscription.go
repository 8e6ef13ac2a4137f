package idle

import (
	"fmt"
	"sync"

	"github.com/Veraticus/idlewatch/pkg/interfaces"
	"github.com/Veraticus/idlewatch/pkg/types"
)

// Subscription couples one interrupt source to a signal handler. It owns the
// source's attach/detach pairing relative to its own paused/active state and
// gates signal forwarding: while paused, signals the source still emits are
// dropped here rather than delivered.
type Subscription struct {
	mu           sync.Mutex
	source       interfaces.InterruptSource
	handler      func(types.Signal)
	active       bool
	unsubscribed bool

	quit     chan struct{}
	quitOnce sync.Once
}

// newSubscription starts the forwarding goroutine. The subscription begins
// paused; call Resume to attach the source.
func newSubscription(src interfaces.InterruptSource, handler func(types.Signal)) *Subscription {
	s := &Subscription{
		source:  src,
		handler: handler,
		quit:    make(chan struct{}),
	}
	go s.forward()
	return s
}

// NewSubscription wraps a source for embedders that manage subscriptions
// directly instead of through Controller.SetInterruptSources.
func NewSubscription(src interfaces.InterruptSource, handler func(types.Signal)) *Subscription {
	return newSubscription(src, handler)
}

// Source returns the wrapped interrupt source.
func (s *Subscription) Source() interfaces.InterruptSource {
	return s.source
}

// Active reports whether the subscription is currently attached and
// forwarding.
func (s *Subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Resume attaches the source and enables forwarding. Already-active and
// unsubscribed subscriptions are left unchanged.
func (s *Subscription) Resume() error {
	s.mu.Lock()
	if s.active || s.unsubscribed {
		s.mu.Unlock()
		return nil
	}
	s.active = true
	s.mu.Unlock()

	if err := s.source.Attach(); err != nil {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
		return fmt.Errorf("failed to attach interrupt source: %w", err)
	}
	return nil
}

// Pause detaches the source and disables forwarding. Already-paused
// subscriptions are left unchanged, so attach/detach calls stay balanced.
func (s *Subscription) Pause() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	s.mu.Unlock()

	if err := s.source.Detach(); err != nil {
		return fmt.Errorf("failed to detach interrupt source: %w", err)
	}
	return nil
}

// Unsubscribe permanently disconnects the handler and stops the forwarding
// goroutine. It does not detach the source; pair it with Pause.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	s.unsubscribed = true
	s.mu.Unlock()

	s.quitOnce.Do(func() { close(s.quit) })
}

// forward delivers source signals to the handler while active. The active
// check happens at delivery time so a source that keeps firing while the
// subscription is paused never reaches the handler.
func (s *Subscription) forward() {
	for {
		select {
		case <-s.quit:
			return
		case sig, ok := <-s.source.Signals():
			if !ok {
				return
			}
			if s.Active() {
				s.handler(sig)
			}
		}
	}
}
