package notification

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Veraticus/idlewatch/pkg/types"
)

// RateLimiter gates how often notifications go out.
type RateLimiter interface {
	Allow() bool
}

// DefaultWarnThreshold is the countdown remaining at which the bridge sends
// its heads-up warning.
const DefaultWarnThreshold = 10

// Bridge turns controller events into notifications. Delivery is
// asynchronous so slow notifiers never stall the controller; events past
// the queue depth are dropped.
type Bridge struct {
	notifier      Notifier
	limiter       RateLimiter
	warnThreshold int

	mu     sync.Mutex
	closed bool
	queue  chan Notification
	wg     sync.WaitGroup
}

// NewBridge creates a bridge delivering to notifier. A nil limiter means no
// rate limiting. A non-positive warnThreshold selects DefaultWarnThreshold.
func NewBridge(notifier Notifier, limiter RateLimiter, warnThreshold int) *Bridge {
	if warnThreshold <= 0 {
		warnThreshold = DefaultWarnThreshold
	}

	b := &Bridge{
		notifier:      notifier,
		limiter:       limiter,
		warnThreshold: warnThreshold,
		queue:         make(chan Notification, 16),
	}
	b.wg.Add(1)
	go b.worker()
	return b
}

// HandleEvent enqueues a notification for the event if it is one worth
// telling the user about. It has the controller's listener signature.
func (b *Bridge) HandleEvent(event types.Event) {
	n, ok := b.translate(event)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	select {
	case b.queue <- n:
	default:
	}
}

// Close stops the worker after draining queued notifications.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	b.wg.Wait()
}

// translate maps an event to a notification. Interrupts and most warning
// ticks are noise; only the threshold heads-up and the final tick notify.
func (b *Bridge) translate(event types.Event) (Notification, bool) {
	now := time.Now()

	switch event.Kind {
	case types.EventIdleStart:
		return Notification{
			Title:   "Idle",
			Message: "No activity detected",
			Time:    now,
			Kind:    event.Kind.String(),
		}, true
	case types.EventTimeoutWarning:
		if event.Remaining != b.warnThreshold && event.Remaining != 0 {
			return Notification{}, false
		}
		return Notification{
			Title:   "Timeout approaching",
			Message: fmt.Sprintf("Timing out in %ds", event.Remaining),
			Time:    now,
			Kind:    event.Kind.String(),
		}, true
	case types.EventTimeout:
		return Notification{
			Title:   "Timed out",
			Message: "Idle countdown expired",
			Time:    now,
			Kind:    event.Kind.String(),
		}, true
	default:
		return Notification{}, false
	}
}

func (b *Bridge) worker() {
	defer b.wg.Done()

	for n := range b.queue {
		if b.limiter != nil && !b.limiter.Allow() {
			continue
		}
		if err := b.notifier.Send(n); err != nil {
			if os.Getenv("IDLEWATCH_DEBUG") == "1" {
				fmt.Fprintf(os.Stderr, "idlewatch: notification failed: %v\n", err)
			}
		}
	}
}
