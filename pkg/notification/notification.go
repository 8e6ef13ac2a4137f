// Package notification turns controller events into user-facing messages.
package notification

import "time"

// Notification represents a notification to be sent.
type Notification struct {
	Title   string
	Message string
	Time    time.Time
	Kind    string
}

// Notifier sends notifications.
type Notifier interface {
	Send(notification Notification) error
}
