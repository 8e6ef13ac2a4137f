package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/idlewatch/pkg/config"
	"github.com/Veraticus/idlewatch/pkg/idle"
	"github.com/Veraticus/idlewatch/pkg/interfaces"
	"github.com/Veraticus/idlewatch/pkg/notification"
	"github.com/Veraticus/idlewatch/pkg/source"
	"github.com/Veraticus/idlewatch/pkg/timer"
	"github.com/Veraticus/idlewatch/pkg/types"
)

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config      *config.Config
	Timers      interfaces.TimerService
	Controller  *idle.Controller
	Sources     []interfaces.InterruptSource
	Notifier    notification.Notifier
	RateLimiter *notification.TokenBucketRateLimiter
	Bridge      *notification.Bridge
}

// NewDependencies creates all dependencies with the given configuration
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Timers: timer.NewService(),
	}

	deps.Controller = idle.NewController(deps.Timers)
	if _, err := deps.Controller.SetIdleDuration(cfg.IdleDurationSeconds); err != nil {
		return nil, fmt.Errorf("invalid idle duration: %w", err)
	}
	if _, err := deps.Controller.SetTimeoutDuration(cfg.TimeoutDurationSeconds); err != nil {
		return nil, fmt.Errorf("invalid timeout duration: %w", err)
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	deps.Controller.SetAutoResumePolicy(policy)

	if !cfg.Quiet {
		if cfg.NtfyTopic != "" {
			deps.Notifier = notification.NewNtfyClient(cfg.NtfyServer, cfg.NtfyTopic)
		} else {
			deps.Notifier = notification.NewStderrNotifier()
		}
		deps.RateLimiter = notification.NewTokenBucketRateLimiter(
			cfg.RateLimit.MaxMessages,
			time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		)
		deps.Bridge = notification.NewBridge(deps.Notifier, deps.RateLimiter, 0)
		deps.Controller.Notify(deps.Bridge.HandleEvent)
	}

	if os.Getenv("IDLEWATCH_DEBUG") == "1" {
		deps.Controller.Notify(logEvent)
	}

	deps.Sources = buildSources(cfg)
	if _, err := deps.Controller.SetInterruptSources(deps.Sources); err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to attach interrupt sources: %w", err)
	}

	return deps, nil
}

// Close cleans up all dependencies
func (d *Dependencies) Close() {
	if d.Controller != nil {
		_ = d.Controller.Close()
	}
	if d.Bridge != nil {
		d.Bridge.Close()
	}
}

// buildSources constructs the interrupt sources the config asks for.
// Config validation has already rejected malformed source entries.
func buildSources(cfg *config.Config) []interfaces.InterruptSource {
	sources := make([]interfaces.InterruptSource, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		switch sc.Type {
		case "file":
			sources = append(sources, source.NewFileActivity(sc.Paths))
		case "command":
			sources = append(sources, source.NewCommandActivity(sc.Command, sc.Args, sc.Patterns))
		case "dbus":
			sources = append(sources, source.NewSessionActivity())
		case "tmux":
			prober := source.NewTmuxProber(sc.Session)
			interval := time.Duration(sc.PollSeconds) * time.Second
			sources = append(sources, source.NewPoll(prober, interval))
		}
	}
	return sources
}

func logEvent(event types.Event) {
	switch event.Kind {
	case types.EventTimeoutWarning:
		fmt.Fprintf(os.Stderr, "idlewatch: %s remaining=%d\n", event.Kind, event.Remaining)
	default:
		fmt.Fprintf(os.Stderr, "idlewatch: %s\n", event.Kind)
	}
}
