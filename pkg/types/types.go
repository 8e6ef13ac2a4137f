// Package types contains shared data structures used across the application.
package types

import "fmt"

// Signal is a single activity report emitted by an interrupt source.
type Signal struct {
	// Force requests a resume regardless of the auto-resume policy.
	Force bool

	// Payload describes the originating event. It is passed through to
	// listeners untouched.
	Payload any
}

// EventKind identifies a controller lifecycle event.
type EventKind int

const (
	// EventIdleStart is emitted on the transition into idling.
	EventIdleStart EventKind = iota
	// EventIdleEnd is emitted on the transition out of idling.
	EventIdleEnd
	// EventTimeoutWarning is emitted on each countdown tick while idling.
	EventTimeoutWarning
	// EventTimeout is emitted when the hard timeout is reached, whether by
	// countdown exhaustion or an explicit Timeout call.
	EventTimeout
	// EventInterrupt is emitted for every interrupt observed while running.
	EventInterrupt
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventIdleStart:
		return "idle-start"
	case EventIdleEnd:
		return "idle-end"
	case EventTimeoutWarning:
		return "timeout-warning"
	case EventTimeout:
		return "timeout"
	case EventInterrupt:
		return "interrupt-observed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one controller lifecycle notification.
type Event struct {
	Kind EventKind

	// Remaining is the seconds left before hard timeout. Only set for
	// EventTimeoutWarning.
	Remaining int

	// Payload is the original signal payload. Only set for EventInterrupt.
	Payload any
}

// AutoResumePolicy governs whether an observed interrupt automatically
// restarts the idle window.
type AutoResumePolicy int

const (
	// ResumeDisabled never resumes automatically; only forced interrupts
	// restart the idle window.
	ResumeDisabled AutoResumePolicy = iota
	// ResumeAlways resumes on every interrupt.
	ResumeAlways
	// ResumeNotIdle resumes only while not already idling.
	ResumeNotIdle
)

// String returns the policy's configuration name.
func (p AutoResumePolicy) String() string {
	switch p {
	case ResumeDisabled:
		return "disabled"
	case ResumeAlways:
		return "resume-always"
	case ResumeNotIdle:
		return "resume-only-if-not-idle"
	default:
		return fmt.Sprintf("AutoResumePolicy(%d)", int(p))
	}
}

// ParseAutoResumePolicy parses a configuration name into a policy.
func ParseAutoResumePolicy(s string) (AutoResumePolicy, error) {
	switch s {
	case "disabled":
		return ResumeDisabled, nil
	case "resume-always":
		return ResumeAlways, nil
	case "resume-only-if-not-idle":
		return ResumeNotIdle, nil
	default:
		return ResumeDisabled, fmt.Errorf("unknown auto-resume policy %q (use disabled, resume-always or resume-only-if-not-idle)", s)
	}
}
