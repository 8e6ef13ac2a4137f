package source

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/idlewatch/pkg/types"
)

// Prober reports the last time activity was observed by some external
// mechanism.
type Prober interface {
	LastActivity() (time.Time, error)
}

// DefaultPollInterval is the probe interval used when none is configured.
const DefaultPollInterval = time.Second

// Poll wraps a Prober and emits an interrupt whenever a probe reports
// activity newer than the previous one. Probe errors are skipped; a flaky
// prober just means missed interrupts, never false ones.
type Poll struct {
	prober   Prober
	interval time.Duration

	mu   sync.Mutex
	done chan struct{}
	last time.Time
	ch   chan types.Signal
	wg   sync.WaitGroup
}

// NewPoll creates a polling source. A non-positive interval selects
// DefaultPollInterval.
func NewPoll(prober Prober, interval time.Duration) *Poll {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poll{
		prober:   prober,
		interval: interval,
		ch:       make(chan types.Signal, signalBuffer),
	}
}

// Attach starts the poll loop. The first probe establishes the baseline so
// pre-existing activity does not fire an interrupt.
func (p *Poll) Attach() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return nil
	}

	if t, err := p.prober.LastActivity(); err == nil {
		p.last = t
	}

	p.done = make(chan struct{})
	p.wg.Add(1)
	go p.run(p.done)
	return nil
}

// Detach stops the poll loop.
func (p *Poll) Detach() error {
	p.mu.Lock()
	done := p.done
	p.done = nil
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	close(done)
	p.wg.Wait()
	return nil
}

// Signals implements interfaces.InterruptSource.
func (p *Poll) Signals() <-chan types.Signal {
	return p.ch
}

func (p *Poll) run(done chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p.probe()
		}
	}
}

func (p *Poll) probe() {
	t, err := p.prober.LastActivity()
	if err != nil {
		if os.Getenv("IDLEWATCH_DEBUG") == "1" {
			fmt.Fprintf(os.Stderr, "idlewatch: activity probe failed: %v\n", err)
		}
		return
	}

	p.mu.Lock()
	fresh := t.After(p.last)
	if fresh {
		p.last = t
	}
	p.mu.Unlock()

	if fresh {
		select {
		case p.ch <- types.Signal{Payload: t}:
		default:
		}
	}
}

// TmuxProber probes tmux client activity for a session.
type TmuxProber struct {
	sessionName string
	cmdExecutor func(name string, args ...string) ([]byte, error)
}

// NewTmuxProber creates a tmux prober. If sessionName is empty, the current
// session is probed.
func NewTmuxProber(sessionName string) *TmuxProber {
	return &TmuxProber{
		sessionName: sessionName,
		cmdExecutor: defaultCmdExecutor,
	}
}

func defaultCmdExecutor(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	return cmd.Output()
}

// IsAvailable checks if tmux is available and we're in a tmux session.
func (p *TmuxProber) IsAvailable() bool {
	if os.Getenv("TMUX") == "" && p.sessionName == "" {
		return false
	}

	_, err := p.cmdExecutor("tmux", "-V")
	return err == nil
}

// LastActivity returns the most recent client activity across the session.
func (p *TmuxProber) LastActivity() (time.Time, error) {
	sessionName := p.sessionName
	if sessionName == "" {
		name, err := p.currentSessionName()
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to get current session name: %w", err)
		}
		sessionName = name
	}

	output, err := p.cmdExecutor("tmux", "list-clients", "-t", sessionName, "-F", "#{client_activity}")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to list clients for session %s: %w", sessionName, err)
	}

	var mostRecent time.Time
	for _, line := range bytes.Split(bytes.TrimSpace(output), []byte("\n")) {
		if len(line) == 0 {
			continue
		}

		// client_activity is seconds since epoch
		activitySecs, err := strconv.ParseInt(string(line), 10, 64)
		if err != nil {
			continue
		}

		activityTime := time.Unix(activitySecs, 0)
		if activityTime.After(mostRecent) {
			mostRecent = activityTime
		}
	}

	if mostRecent.IsZero() {
		return time.Time{}, fmt.Errorf("no client activity found for session %s", sessionName)
	}
	return mostRecent, nil
}

func (p *TmuxProber) currentSessionName() (string, error) {
	output, err := p.cmdExecutor("tmux", "display-message", "-p", "#{session_name}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
