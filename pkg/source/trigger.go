// Package source provides concrete interrupt sources: embedder-fired
// triggers, filesystem activity, pty-wrapped command output, D-Bus session
// signals, and pollers over last-activity probes.
package source

import (
	"sync"

	"github.com/Veraticus/idlewatch/pkg/types"
)

// signalBuffer is the channel depth shared by the sources in this package.
// Emission never blocks; signals past the buffer are dropped, which is
// harmless for idle detection since any one delivered signal resets the
// window.
const signalBuffer = 16

// Trigger is an interrupt source fired manually by the embedder.
type Trigger struct {
	mu       sync.Mutex
	attached bool
	ch       chan types.Signal
}

// NewTrigger creates a new trigger source.
func NewTrigger() *Trigger {
	return &Trigger{ch: make(chan types.Signal, signalBuffer)}
}

// Attach implements interfaces.InterruptSource.
func (t *Trigger) Attach() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attached = true
	return nil
}

// Detach implements interfaces.InterruptSource.
func (t *Trigger) Detach() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attached = false
	return nil
}

// Signals implements interfaces.InterruptSource.
func (t *Trigger) Signals() <-chan types.Signal {
	return t.ch
}

// Attached reports whether the source is currently attached.
func (t *Trigger) Attached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attached
}

// Fire emits one signal. Detached triggers stay silent. Fire never blocks;
// the signal is dropped if the buffer is full.
func (t *Trigger) Fire(force bool, payload any) {
	t.mu.Lock()
	attached := t.attached
	t.mu.Unlock()
	if !attached {
		return
	}

	select {
	case t.ch <- types.Signal{Force: force, Payload: payload}:
	default:
	}
}
