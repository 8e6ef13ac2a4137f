package source

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/Veraticus/idlewatch/pkg/types"
)

// SessionActivity listens on the system bus for login1 signals that imply
// the user is back: a session Unlock and the resume edge of
// PrepareForSleep. Both emit forcing interrupts, since a returning user
// should end the idle state regardless of the auto-resume policy.
type SessionActivity struct {
	mu        sync.Mutex
	conn      *dbus.Conn
	sigCh     chan *dbus.Signal
	done      chan struct{}
	ch        chan types.Signal
	wg        sync.WaitGroup
	connectFn func() (*dbus.Conn, error)
}

// NewSessionActivity creates a session activity source.
func NewSessionActivity() *SessionActivity {
	return &SessionActivity{
		ch:        make(chan types.Signal, signalBuffer),
		connectFn: func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() },
	}
}

// Attach connects to the system bus and subscribes to login1 signals.
func (s *SessionActivity) Attach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	conn, err := s.connectFn()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.login1.Session"),
		dbus.WithMatchSender("org.freedesktop.login1"),
		dbus.WithMatchMember("Unlock"),
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to register Unlock signal match: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.login1.Manager"),
		dbus.WithMatchSender("org.freedesktop.login1"),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to register PrepareForSleep signal match: %w", err)
	}

	sigCh := make(chan *dbus.Signal, signalBuffer)
	conn.Signal(sigCh)

	s.conn = conn
	s.sigCh = sigCh
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.run(sigCh, s.done)
	return nil
}

// Detach unsubscribes and closes the bus connection.
func (s *SessionActivity) Detach() error {
	s.mu.Lock()
	conn := s.conn
	sigCh := s.sigCh
	done := s.done
	s.conn = nil
	s.sigCh = nil
	s.done = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	close(done)
	conn.RemoveSignal(sigCh)
	err := conn.Close()
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close system bus connection: %w", err)
	}
	return nil
}

// Signals implements interfaces.InterruptSource.
func (s *SessionActivity) Signals() <-chan types.Signal {
	return s.ch
}

func (s *SessionActivity) run(sigCh chan *dbus.Signal, done chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-done:
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}
			s.handleSignal(sig)
		}
	}
}

// handleSignal translates a bus signal into an interrupt. PrepareForSleep
// carries a bool: true on the way down, false on resume; only the resume
// edge counts as activity.
func (s *SessionActivity) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case "org.freedesktop.login1.Session.Unlock":
		s.emit(sig.Name)
	case "org.freedesktop.login1.Manager.PrepareForSleep":
		if len(sig.Body) == 1 {
			if sleeping, ok := sig.Body[0].(bool); ok && !sleeping {
				s.emit(sig.Name)
			}
		}
	}
}

func (s *SessionActivity) emit(name string) {
	select {
	case s.ch <- types.Signal{Force: true, Payload: name}:
	default:
	}
}
