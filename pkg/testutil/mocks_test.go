package testutil

import (
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/idlewatch/pkg/notification"
)

func TestMockNotifierTracksAttempts(t *testing.T) {
	m := NewMockNotifier()

	if err := m.Send(notification.Notification{Title: "ok"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	m.SetError(errors.New("boom"))
	if err := m.Send(notification.Notification{Title: "fails"}); err == nil {
		t.Fatal("expected error after SetError")
	}

	if got := len(m.GetNotifications()); got != 1 {
		t.Errorf("successful notifications = %d, want 1", got)
	}
	if got := len(m.GetAttempts()); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestMockInterruptSourceCounts(t *testing.T) {
	m := NewMockInterruptSource()

	if err := m.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := m.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}

	if m.AttachCount() != 1 || m.DetachCount() != 1 {
		t.Errorf("counts = %d/%d, want 1/1", m.AttachCount(), m.DetachCount())
	}

	m.SetAttachError(errors.New("no bus"))
	if err := m.Attach(); err == nil {
		t.Error("expected attach error")
	}
}

func TestMockInterruptSourceEmit(t *testing.T) {
	m := NewMockInterruptSource()
	m.Emit(true, "payload")

	select {
	case sig := <-m.Signals():
		if !sig.Force || sig.Payload != "payload" {
			t.Errorf("signal = %+v, want forced with payload", sig)
		}
	case <-time.After(time.Second):
		t.Fatal("no signal emitted")
	}
}
