package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/idlewatch/pkg/types"
)

// Config holds all configuration for idlewatch
type Config struct {
	// Idle detection settings
	IdleDurationSeconds    int    `yaml:"idle_duration_seconds" env:"IDLEWATCH_IDLE_SECONDS"`
	TimeoutDurationSeconds int    `yaml:"timeout_duration_seconds" env:"IDLEWATCH_TIMEOUT_SECONDS"`
	AutoResumePolicy       string `yaml:"auto_resume_policy" env:"IDLEWATCH_POLICY"`

	// Interrupt sources
	Sources []SourceConfig `yaml:"sources"`

	// Outbound notifications
	NtfyTopic  string `yaml:"ntfy_topic" env:"IDLEWATCH_NTFY_TOPIC"`
	NtfyServer string `yaml:"ntfy_server" env:"IDLEWATCH_NTFY_SERVER"`

	// Behavior flags
	Quiet bool `yaml:"quiet" env:"IDLEWATCH_QUIET"`

	// Rate limiting for outbound notifications
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// SourceConfig describes one interrupt source to construct.
type SourceConfig struct {
	// Type selects the source kind: file, command, dbus or tmux.
	Type string `yaml:"type"`

	// Paths are the filesystem paths a file source watches.
	Paths []string `yaml:"paths"`

	// Command and Args configure a command source.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// Patterns gate which command output counts as activity. Empty means
	// all output counts.
	Patterns []Pattern `yaml:"patterns"`

	// PollSeconds is the probe interval for tmux sources.
	PollSeconds int `yaml:"poll_seconds"`

	// Session is the tmux session to probe; empty means the current one.
	Session string `yaml:"session"`
}

// Pattern represents a configurable pattern.
type Pattern struct {
	Name    string `yaml:"name"`
	Regex   string `yaml:"regex"`
	Enabled bool   `yaml:"enabled"`

	// Force marks matches as forcing signals: they resume the idle
	// window regardless of the auto-resume policy.
	Force bool `yaml:"force"`

	compiled *regexp.Regexp `yaml:"-"`
}

// CompiledRegex returns the compiled regular expression
func (p *Pattern) CompiledRegex() *regexp.Regexp {
	return p.compiled
}

// SetCompiledRegex sets the compiled regular expression
func (p *Pattern) SetCompiledRegex(re *regexp.Regexp) {
	p.compiled = re
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	WindowSeconds int `yaml:"window_seconds"`
	MaxMessages   int `yaml:"max_messages"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		IdleDurationSeconds:    300,
		TimeoutDurationSeconds: 0,
		AutoResumePolicy:       types.ResumeAlways.String(),
		NtfyServer:             "https://ntfy.sh",
		RateLimit: RateLimitConfig{
			WindowSeconds: 60,
			MaxMessages:   5,
		},
	}
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	// Compile regex patterns
	if err := compilePatterns(cfg); err != nil {
		return nil, fmt.Errorf("failed to compile patterns: %w", err)
	}

	// Validate configuration
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Policy returns the parsed auto-resume policy.
func (c *Config) Policy() (types.AutoResumePolicy, error) {
	return types.ParseAutoResumePolicy(c.AutoResumePolicy)
}

// getConfigPath returns the config file path
func getConfigPath() string {
	// Check for explicit config path
	if path := os.Getenv("IDLEWATCH_CONFIG"); path != "" {
		return path
	}

	// Check XDG config directory
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "idlewatch", "config.yaml")
	}

	// Fall back to home directory
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "idlewatch", "config.yaml")
	}

	return ""
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	if idle := os.Getenv("IDLEWATCH_IDLE_SECONDS"); idle != "" {
		n, err := strconv.Atoi(idle)
		if err != nil {
			return fmt.Errorf("invalid IDLEWATCH_IDLE_SECONDS: %w", err)
		}
		cfg.IdleDurationSeconds = n
	}

	if timeout := os.Getenv("IDLEWATCH_TIMEOUT_SECONDS"); timeout != "" {
		n, err := strconv.Atoi(timeout)
		if err != nil {
			return fmt.Errorf("invalid IDLEWATCH_TIMEOUT_SECONDS: %w", err)
		}
		cfg.TimeoutDurationSeconds = n
	}

	if policy := os.Getenv("IDLEWATCH_POLICY"); policy != "" {
		cfg.AutoResumePolicy = policy
	}

	if topic := os.Getenv("IDLEWATCH_NTFY_TOPIC"); topic != "" {
		cfg.NtfyTopic = topic
	}

	if server := os.Getenv("IDLEWATCH_NTFY_SERVER"); server != "" {
		cfg.NtfyServer = server
	}

	if quiet := os.Getenv("IDLEWATCH_QUIET"); quiet != "" {
		switch quiet {
		case "true", "1", "yes":
			cfg.Quiet = true
		case "false", "0", "no":
			cfg.Quiet = false
		default:
			return fmt.Errorf("invalid IDLEWATCH_QUIET value: %q (use true/false)", quiet)
		}
	}

	return nil
}

// compilePatterns compiles all regex patterns
func compilePatterns(cfg *Config) error {
	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		for j := range src.Patterns {
			pattern := &src.Patterns[j]
			if pattern.Enabled && pattern.Regex != "" {
				re, err := regexp.Compile(pattern.Regex)
				if err != nil {
					return fmt.Errorf("failed to compile pattern %q: %w", pattern.Name, err)
				}
				pattern.SetCompiledRegex(re)
			}
		}
	}
	return nil
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.IdleDurationSeconds <= 0 {
		return fmt.Errorf("idle_duration_seconds must be positive")
	}

	if cfg.TimeoutDurationSeconds < 0 {
		return fmt.Errorf("timeout_duration_seconds must be non-negative")
	}

	if _, err := types.ParseAutoResumePolicy(cfg.AutoResumePolicy); err != nil {
		return err
	}

	for i := range cfg.Sources {
		if err := validateSource(&cfg.Sources[i]); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
	}

	if cfg.RateLimit.MaxMessages < 0 {
		return fmt.Errorf("rate_limit.max_messages must be non-negative")
	}

	if cfg.RateLimit.WindowSeconds < 0 {
		return fmt.Errorf("rate_limit.window_seconds must be non-negative")
	}

	return nil
}

func validateSource(src *SourceConfig) error {
	switch src.Type {
	case "file":
		if len(src.Paths) == 0 {
			return fmt.Errorf("file source requires at least one path")
		}
	case "command":
		if src.Command == "" {
			return fmt.Errorf("command source requires a command")
		}
	case "dbus":
		// No required options.
	case "tmux":
		if src.PollSeconds < 0 {
			return fmt.Errorf("tmux source poll_seconds must be non-negative")
		}
	default:
		return fmt.Errorf("unknown source type %q (use file, command, dbus or tmux)", src.Type)
	}
	return nil
}
