package source

import (
	"regexp"
	"testing"
	"time"

	"github.com/Veraticus/idlewatch/pkg/config"
)

func compiledPattern(t *testing.T, name, expr string, force bool) config.Pattern {
	t.Helper()
	p := config.Pattern{Name: name, Regex: expr, Enabled: true, Force: force}
	p.SetCompiledRegex(regexp.MustCompile(expr))
	return p
}

func TestMatchLine(t *testing.T) {
	tests := []struct {
		name        string
		patterns    []config.Pattern
		line        string
		wantOK      bool
		wantForce   bool
		wantPattern string
	}{
		{
			name:   "no patterns counts everything",
			line:   "anything at all",
			wantOK: true,
		},
		{
			name: "matching pattern",
			patterns: []config.Pattern{
				compiledPattern(t, "prompt", `\?\s*$`, false),
			},
			line:        "continue? ",
			wantOK:      true,
			wantPattern: "prompt",
		},
		{
			name: "force pattern forces",
			patterns: []config.Pattern{
				compiledPattern(t, "done", `^finished`, true),
			},
			line:        "finished in 3s",
			wantOK:      true,
			wantForce:   true,
			wantPattern: "done",
		},
		{
			name: "non-matching line ignored",
			patterns: []config.Pattern{
				compiledPattern(t, "prompt", `\?\s*$`, false),
			},
			line:   "plain output",
			wantOK: false,
		},
		{
			name: "first matching pattern wins",
			patterns: []config.Pattern{
				compiledPattern(t, "first", `output`, false),
				compiledPattern(t, "second", `output`, true),
			},
			line:        "some output",
			wantOK:      true,
			wantPattern: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCommandActivity("true", nil, tt.patterns)
			force, pattern, ok := c.matchLine(tt.line)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if force != tt.wantForce {
				t.Errorf("force = %v, want %v", force, tt.wantForce)
			}
			if pattern != tt.wantPattern {
				t.Errorf("pattern = %q, want %q", pattern, tt.wantPattern)
			}
		})
	}
}

func TestNewCommandActivitySkipsDisabledPatterns(t *testing.T) {
	disabled := config.Pattern{Name: "off", Regex: `x`, Enabled: false}
	disabled.SetCompiledRegex(regexp.MustCompile(`x`))
	uncompiled := config.Pattern{Name: "raw", Regex: `y`, Enabled: true}

	c := NewCommandActivity("true", nil, []config.Pattern{
		disabled,
		uncompiled,
		compiledPattern(t, "on", `z`, false),
	})

	if len(c.patterns) != 1 || c.patterns[0].Name != "on" {
		t.Errorf("kept patterns = %+v, want only %q", c.patterns, "on")
	}
}

func TestDrainLines(t *testing.T) {
	c := NewCommandActivity("true", nil, nil)

	rest := c.drainLines([]byte("one\ntwo\npartial"))
	if string(rest) != "partial" {
		t.Errorf("remainder = %q, want %q", rest, "partial")
	}

	lines := collectLines(t, c, 2)
	if lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %v, want [one two]", lines)
	}
}

func TestCommandActivityEmitsOutputLines(t *testing.T) {
	c := NewCommandActivity("echo", []string{"ready"}, nil)
	if err := c.Attach(); err != nil {
		t.Skipf("cannot start pty: %v", err)
	}
	defer func() { _ = c.Detach() }()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case sig := <-c.Signals():
			match, ok := sig.Payload.(LineMatch)
			if !ok {
				t.Fatalf("payload type = %T, want LineMatch", sig.Payload)
			}
			// The pty echoes control sequences too; wait for the real line.
			if len(match.Line) > 0 && match.Line[0] == 'r' {
				return
			}
		case <-deadline:
			t.Fatal("no output signal from command")
		}
	}
}

func collectLines(t *testing.T, c *CommandActivity, n int) []string {
	t.Helper()
	lines := make([]string, 0, n)
	deadline := time.After(time.Second)
	for len(lines) < n {
		select {
		case sig := <-c.Signals():
			match, ok := sig.Payload.(LineMatch)
			if !ok {
				t.Fatalf("payload type = %T, want LineMatch", sig.Payload)
			}
			lines = append(lines, match.Line)
		case <-deadline:
			t.Fatalf("got %d lines, want %d", len(lines), n)
		}
	}
	return lines
}
