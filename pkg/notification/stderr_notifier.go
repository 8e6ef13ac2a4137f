package notification

import (
	"fmt"
	"io"
	"os"
)

// StderrNotifier writes notifications to stderr. It is the fallback when no
// ntfy topic is configured, and keeps stdout clean for the wrapped command.
type StderrNotifier struct {
	w io.Writer
}

// NewStderrNotifier creates a new stderr notifier.
func NewStderrNotifier() *StderrNotifier {
	return &StderrNotifier{w: os.Stderr}
}

// Send writes the notification as a single line.
func (n *StderrNotifier) Send(notification Notification) error {
	_, err := fmt.Fprintf(n.w, "idlewatch: %s: %s\n", notification.Title, notification.Message)
	return err
}
