// Package interfaces defines the core interfaces used throughout the application.
package interfaces

import (
	"time"

	"github.com/Veraticus/idlewatch/pkg/types"
)

// TimerHandle is a pending repeating timer.
type TimerHandle interface {
	// Stop prevents further callbacks. Returns true if the timer was
	// still running, false if it had already been stopped.
	Stop() bool
}

// TimerService provides scheduled repeating callbacks and cancellation.
type TimerService interface {
	// ScheduleRepeating invokes fn every interval until the returned
	// handle is stopped or cancelled.
	ScheduleRepeating(interval time.Duration, fn func()) TimerHandle

	// Cancel stops the timer for h. Safe to call with a nil or
	// already-cancelled handle.
	Cancel(h TimerHandle)
}

// InterruptSource is one origin of activity signals.
//
// Signals must return the same channel before and after Attach so that a
// subscription can keep reading across attach/detach cycles. Sources that
// need no attach or detach work implement the hooks as no-ops.
type InterruptSource interface {
	// Attach starts signal emission.
	Attach() error

	// Detach stops signal emission.
	Detach() error

	// Signals is the channel the source emits on.
	Signals() <-chan types.Signal
}
