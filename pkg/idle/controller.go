// Package idle implements the idle-detection controller: a state machine
// that watches for absence of activity over a configurable window, runs an
// optional countdown toward a hard timeout, and resumes on interrupt signals
// according to an auto-resume policy.
package idle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/idlewatch/pkg/interfaces"
	"github.com/Veraticus/idlewatch/pkg/timer"
	"github.com/Veraticus/idlewatch/pkg/types"
)

// ErrInvalidArgument reports a rejected configuration value.
var ErrInvalidArgument = errors.New("invalid argument")

// TimeoutDisabled disables the countdown entirely when passed to
// SetTimeoutDuration.
const TimeoutDisabled = 0

// DefaultIdleDuration is the idle window used until SetIdleDuration is
// called.
const DefaultIdleDuration = 60

// Listener receives controller events. Listeners are invoked synchronously
// in registration order while the controller lock is held; they must not
// call back into the controller on the delivering goroutine.
type Listener func(types.Event)

// Controller owns the idle/timeout configuration, the set of interrupt
// subscriptions, and the state machine. All methods are safe for concurrent
// use; methods and timer callbacks serialize on one mutex, so no two run at
// the same time.
type Controller struct {
	mu sync.Mutex

	timers interfaces.TimerService

	idleSeconds    int
	timeoutSeconds int
	policy         types.AutoResumePolicy

	running   bool
	idling    bool
	countdown int

	idleTimer      interfaces.TimerHandle
	countdownTimer interfaces.TimerHandle

	subs      []*Subscription
	listeners []Listener
}

// NewController creates a controller driven by the given timer service. A
// nil service selects the wall clock.
func NewController(timers interfaces.TimerService) *Controller {
	if timers == nil {
		timers = timer.NewService()
	}
	return &Controller{
		timers:      timers,
		idleSeconds: DefaultIdleDuration,
	}
}

// SetIdleDuration sets the seconds of inactivity before the controller goes
// idle. Returns the stored value. Fails for non-positive values.
func (c *Controller) SetIdleDuration(seconds int) (int, error) {
	if seconds <= 0 {
		return 0, fmt.Errorf("%w: idle duration must be positive, got %d", ErrInvalidArgument, seconds)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.idleSeconds = seconds
	return seconds, nil
}

// IdleDuration returns the configured idle window in seconds.
func (c *Controller) IdleDuration() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idleSeconds
}

// SetTimeoutDuration sets the countdown length in seconds. TimeoutDisabled
// (zero) turns the countdown off. Returns the stored value. Fails for
// negative values.
func (c *Controller) SetTimeoutDuration(seconds int) (int, error) {
	if seconds < 0 {
		return 0, fmt.Errorf("%w: timeout duration must not be negative, got %d", ErrInvalidArgument, seconds)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeoutSeconds = seconds
	return seconds, nil
}

// TimeoutDuration returns the configured countdown length in seconds; zero
// means disabled.
func (c *Controller) TimeoutDuration() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeoutSeconds
}

// SetAutoResumePolicy sets the auto-resume policy.
func (c *Controller) SetAutoResumePolicy(p types.AutoResumePolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = p
}

// AutoResumePolicy returns the current auto-resume policy.
func (c *Controller) AutoResumePolicy() types.AutoResumePolicy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policy
}

// IsRunning reports whether the controller is actively monitoring.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// IsIdling reports whether the controller is currently in the idle state.
func (c *Controller) IsIdling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idling
}

// CountdownRemaining returns the seconds left before hard timeout. Only
// meaningful while idling with the timeout enabled.
func (c *Controller) CountdownRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countdown < 0 {
		return 0
	}
	return c.countdown
}

// Notify registers a listener for controller events. Delivery is
// synchronous, in registration order.
func (c *Controller) Notify(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// SetInterruptSources replaces the controller's interrupt sources. Existing
// subscriptions are paused and unsubscribed before any new source is
// attached, so old and new sources are never attached at the same time.
// Attach errors are joined, and the affected subscriptions are still
// recorded (inactive).
func (c *Controller) SetInterruptSources(sources []interfaces.InterruptSource) ([]*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs := []error{c.clearSourcesLocked()}
	for _, src := range sources {
		sub := newSubscription(src, c.dispatch)
		if err := sub.Resume(); err != nil {
			errs = append(errs, err)
		}
		c.subs = append(c.subs, sub)
	}

	subs := make([]*Subscription, len(c.subs))
	copy(subs, c.subs)
	return subs, errors.Join(errs...)
}

// ClearInterruptSources pauses, detaches and removes every subscription.
// Idempotent.
func (c *Controller) ClearInterruptSources() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearSourcesLocked()
}

func (c *Controller) clearSourcesLocked() error {
	var errs []error
	for _, sub := range c.subs {
		if err := sub.Pause(); err != nil {
			errs = append(errs, err)
		}
		sub.Unsubscribe()
	}
	c.subs = nil
	return errors.Join(errs...)
}

// Subscriptions returns the current subscription set.
func (c *Controller) Subscriptions() []*Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := make([]*Subscription, len(c.subs))
	copy(subs, c.subs)
	return subs
}

// dispatch is the signal handler registered with every subscription.
func (c *Controller) dispatch(sig types.Signal) {
	c.Interrupt(sig.Force, sig.Payload)
}

// Watch starts (or restarts) monitoring: pending timers are cancelled, an
// idle state is left with an idle-end event, and a fresh idle window begins.
func (c *Controller) Watch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchLocked()
}

func (c *Controller) watchLocked() {
	c.cancelTimersLocked()

	if c.idling {
		c.idling = false
		c.emitLocked(types.Event{Kind: types.EventIdleEnd})
	}

	c.running = true
	c.idleTimer = c.timers.ScheduleRepeating(
		time.Duration(c.idleSeconds)*time.Second,
		c.onIdleBoundary,
	)
}

// Stop halts monitoring. Pending timers are cancelled and both the running
// and idling flags are cleared. No event is emitted. Idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelTimersLocked()
	c.idling = false
	c.running = false
}

// Timeout forces the hard timeout from any state: timers are cancelled,
// the controller ends up idling and not running with the countdown at zero,
// and a timeout event is emitted.
func (c *Controller) Timeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeoutLocked()
}

func (c *Controller) timeoutLocked() {
	c.cancelTimersLocked()
	c.idling = true
	c.running = false
	c.countdown = 0
	c.emitLocked(types.Event{Kind: types.EventTimeout})
}

// Interrupt records one activity signal. While not running it is a complete
// no-op. Otherwise an interrupt-observed event carrying payload is emitted,
// and the idle window restarts when force is set, the policy is
// ResumeAlways, or the policy is ResumeNotIdle and the controller is not
// currently idling.
func (c *Controller) Interrupt(force bool, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}

	c.emitLocked(types.Event{Kind: types.EventInterrupt, Payload: payload})

	resume := force ||
		c.policy == types.ResumeAlways ||
		(c.policy == types.ResumeNotIdle && !c.idling)
	if resume {
		c.watchLocked()
	}
}

// Close stops monitoring and detaches every source. The controller must not
// be used afterwards.
func (c *Controller) Close() error {
	c.Stop()
	return c.ClearInterruptSources()
}

// onIdleBoundary fires when the idle window elapses without an interrupt.
func (c *Controller) onIdleBoundary() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggleLocked()
}

// toggleLocked flips the idling state. Entering idle emits idle-start and,
// with the timeout enabled, runs the first countdown step immediately before
// scheduling the per-second ticks. The idle-boundary timer is one-shot in
// effect: it is always cancelled afterwards.
func (c *Controller) toggleLocked() {
	c.idling = !c.idling

	if c.idling {
		c.emitLocked(types.Event{Kind: types.EventIdleStart})
		if c.timeoutSeconds > 0 {
			c.countdown = c.timeoutSeconds
			c.stepLocked()
			c.countdownTimer = c.timers.ScheduleRepeating(time.Second, c.onCountdownTick)
		}
	} else {
		c.emitLocked(types.Event{Kind: types.EventIdleEnd})
	}

	c.timers.Cancel(c.idleTimer)
	c.idleTimer = nil
}

// onCountdownTick fires once per second while idling with the timeout
// enabled.
func (c *Controller) onCountdownTick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepLocked()
}

// stepLocked advances the countdown. Stale ticks after the idle state ended
// are ignored. The tick after the zero warning triggers the hard timeout, so
// a countdown of n produces n+1 warnings (n down to 0) before timing out.
func (c *Controller) stepLocked() {
	if !c.idling {
		return
	}

	if c.countdown < 0 {
		c.timeoutLocked()
		return
	}

	c.emitLocked(types.Event{Kind: types.EventTimeoutWarning, Remaining: c.countdown})
	c.countdown--
}

func (c *Controller) cancelTimersLocked() {
	c.timers.Cancel(c.idleTimer)
	c.idleTimer = nil
	c.timers.Cancel(c.countdownTimer)
	c.countdownTimer = nil
}

func (c *Controller) emitLocked(ev types.Event) {
	for _, fn := range c.listeners {
		fn(ev)
	}
}
