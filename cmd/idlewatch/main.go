package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/Veraticus/idlewatch/pkg/config"
)

func main() {
	var (
		configPath string
		idleSecs   int
		timeout    int
		policy     string
		quiet      bool
		help       bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.IntVar(&idleSecs, "idle", 0, "Idle window in seconds (overrides config)")
	flag.IntVar(&timeout, "timeout", -1, "Timeout countdown in seconds, 0 disables (overrides config)")
	flag.StringVar(&policy, "policy", "", "Auto-resume policy: disabled, resume-always, resume-only-if-not-idle")
	flag.BoolVar(&quiet, "quiet", false, "Disable all notifications")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.Parse()

	if help {
		printUsage()
		os.Exit(0)
	}

	if configPath != "" {
		if err := os.Setenv("IDLEWATCH_CONFIG", configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting config path: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Override config with command line flags
	if idleSecs > 0 {
		cfg.IdleDurationSeconds = idleSecs
	}
	if timeout >= 0 {
		cfg.TimeoutDurationSeconds = timeout
	}
	if policy != "" {
		cfg.AutoResumePolicy = policy
	}
	if quiet {
		cfg.Quiet = true
	}

	deps, err := NewDependencies(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	deps.Controller.Watch()

	if os.Getenv("IDLEWATCH_DEBUG") == "1" {
		fmt.Fprintf(os.Stderr, "idlewatch: watching, idle=%ds timeout=%ds policy=%s sources=%d\n",
			cfg.IdleDurationSeconds, cfg.TimeoutDurationSeconds, cfg.AutoResumePolicy, len(deps.Sources))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)

	for sig := range sigChan {
		if sig == syscall.SIGUSR1 {
			// Operator-forced timeout; keep running so the state is
			// observable until the process is told to exit.
			deps.Controller.Timeout()
			continue
		}

		deps.Close()
		os.Exit(130)
	}
}

func printUsage() {
	fmt.Println("idlewatch - inactivity watcher with countdown and auto-resume")
	fmt.Println()
	fmt.Println("Usage: idlewatch [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  IDLEWATCH_IDLE_SECONDS     Idle window in seconds")
	fmt.Println("  IDLEWATCH_TIMEOUT_SECONDS  Timeout countdown in seconds (0 disables)")
	fmt.Println("  IDLEWATCH_POLICY           Auto-resume policy")
	fmt.Println("  IDLEWATCH_NTFY_TOPIC       Ntfy topic for notifications")
	fmt.Println("  IDLEWATCH_NTFY_SERVER      Ntfy server URL (default: https://ntfy.sh)")
	fmt.Println("  IDLEWATCH_QUIET            Disable notifications (true/false)")
	fmt.Println("  IDLEWATCH_CONFIG           Path to config file")
	fmt.Println("  IDLEWATCH_DEBUG            Set to 1 for debug output")
	fmt.Println()
	fmt.Println("Signals:")
	fmt.Println("  SIGUSR1                    Force an immediate timeout")
	fmt.Println("  SIGINT, SIGTERM            Detach sources and exit")
	fmt.Println()
	fmt.Println("Configuration file: ~/.config/idlewatch/config.yaml")
}
