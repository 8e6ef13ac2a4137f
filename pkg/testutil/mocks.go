// Package testutil provides shared mocks for tests.
package testutil

import (
	"sync"
	"time"

	"github.com/Veraticus/idlewatch/pkg/notification"
	"github.com/Veraticus/idlewatch/pkg/types"
)

// MockNotifier is a thread-safe mock implementation of notification.Notifier for testing
type MockNotifier struct {
	mu            sync.Mutex
	notifications []notification.Notification
	attempts      []notification.Notification // Track all send attempts
	sendErr       error
	sendDelay     time.Duration
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		notifications: []notification.Notification{},
		attempts:      []notification.Notification{},
	}
}

// Send implements the Notifier interface
func (m *MockNotifier) Send(n notification.Notification) error {
	if m.sendDelay > 0 {
		time.Sleep(m.sendDelay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Always track the attempt
	m.attempts = append(m.attempts, n)

	if m.sendErr != nil {
		return m.sendErr
	}

	m.notifications = append(m.notifications, n)
	return nil
}

// GetNotifications returns a copy of successfully sent notifications
func (m *MockNotifier) GetNotifications() []notification.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]notification.Notification, len(m.notifications))
	copy(result, m.notifications)
	return result
}

// GetAttempts returns a copy of all attempted sends (including failures)
func (m *MockNotifier) GetAttempts() []notification.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]notification.Notification, len(m.attempts))
	copy(result, m.attempts)
	return result
}

// SetError sets the error to return on Send calls
func (m *MockNotifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// SetDelay sets a delay before each Send call
func (m *MockNotifier) SetDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendDelay = delay
}

// MockInterruptSource is a scriptable interrupt source for testing
type MockInterruptSource struct {
	mu          sync.Mutex
	attachCount int
	detachCount int
	attachErr   error
	detachErr   error
	ch          chan types.Signal
}

// NewMockInterruptSource creates a new mock interrupt source
func NewMockInterruptSource() *MockInterruptSource {
	return &MockInterruptSource{ch: make(chan types.Signal, 16)}
}

// Attach implements the InterruptSource interface
func (m *MockInterruptSource) Attach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachCount++
	return m.attachErr
}

// Detach implements the InterruptSource interface
func (m *MockInterruptSource) Detach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detachCount++
	return m.detachErr
}

// Signals implements the InterruptSource interface
func (m *MockInterruptSource) Signals() <-chan types.Signal {
	return m.ch
}

// Emit queues a signal for delivery
func (m *MockInterruptSource) Emit(force bool, payload any) {
	m.ch <- types.Signal{Force: force, Payload: payload}
}

// AttachCount returns how many times Attach was called
func (m *MockInterruptSource) AttachCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attachCount
}

// DetachCount returns how many times Detach was called
func (m *MockInterruptSource) DetachCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detachCount
}

// SetAttachError sets the error returned by Attach
func (m *MockInterruptSource) SetAttachError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachErr = err
}

// SetDetachError sets the error returned by Detach
func (m *MockInterruptSource) SetDetachError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detachErr = err
}
