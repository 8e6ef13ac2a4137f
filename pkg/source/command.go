package source

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"github.com/Veraticus/idlewatch/pkg/config"
	"github.com/Veraticus/idlewatch/pkg/types"
)

// CommandActivity runs a command under a pseudo-terminal and treats its
// output as activity. With no patterns configured, any output line emits a
// signal. With patterns, only matching lines count, and lines matching a
// pattern marked force emit forcing signals.
type CommandActivity struct {
	command  string
	args     []string
	patterns []config.Pattern

	mu   sync.Mutex
	cmd  *exec.Cmd
	ptmx *os.File
	ch   chan types.Signal
	wg   sync.WaitGroup
}

// LineMatch is the payload attached to signals from a CommandActivity.
type LineMatch struct {
	// Line is the output line that counted as activity.
	Line string

	// Pattern is the name of the matching pattern, empty when no
	// patterns are configured.
	Pattern string
}

// NewCommandActivity creates a command source. Only enabled patterns with a
// compiled regex participate in matching.
func NewCommandActivity(command string, args []string, patterns []config.Pattern) *CommandActivity {
	enabled := make([]config.Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.Enabled && p.CompiledRegex() != nil {
			enabled = append(enabled, p)
		}
	}

	return &CommandActivity{
		command:  command,
		args:     args,
		patterns: enabled,
		ch:       make(chan types.Signal, signalBuffer),
	}
}

// Attach starts the command under a pty and begins scanning its output.
func (c *CommandActivity) Attach() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil {
		return nil
	}

	cmd := exec.Command(c.command, c.args...)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start %s under pty: %w", c.command, err)
	}

	c.cmd = cmd
	c.ptmx = ptmx
	c.wg.Add(1)
	go c.scan(ptmx)
	return nil
}

// Detach kills the command and closes the pty.
func (c *CommandActivity) Detach() error {
	c.mu.Lock()
	cmd := c.cmd
	ptmx := c.ptmx
	c.cmd = nil
	c.ptmx = nil
	c.mu.Unlock()

	if cmd == nil {
		return nil
	}

	_ = ptmx.Close()
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	_ = cmd.Wait()
	c.wg.Wait()
	return nil
}

// Signals implements interfaces.InterruptSource.
func (c *CommandActivity) Signals() <-chan types.Signal {
	return c.ch
}

// scan reads pty output, splits it into lines and emits signals for lines
// that count as activity. The read loop ends when the pty closes.
func (c *CommandActivity) scan(ptmx *os.File) {
	defer c.wg.Done()

	var pending []byte
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = c.drainLines(pending)
		}
		if err != nil {
			// Treat a trailing unterminated line as complete.
			if len(pending) > 0 {
				c.emitLine(string(pending))
			}
			return
		}
	}
}

// drainLines emits every complete line in buf and returns the unterminated
// remainder.
func (c *CommandActivity) drainLines(buf []byte) []byte {
	start := 0
	for i := 0; i < len(buf); i++ {
		if buf[i] == '\n' {
			c.emitLine(string(buf[start:i]))
			start = i + 1
		}
	}
	return append([]byte(nil), buf[start:]...)
}

func (c *CommandActivity) emitLine(line string) {
	force, pattern, ok := c.matchLine(line)
	if !ok {
		return
	}

	select {
	case c.ch <- types.Signal{Force: force, Payload: LineMatch{Line: line, Pattern: pattern}}:
	default:
	}
}

// matchLine decides whether a line counts as activity and whether it forces
// a resume.
func (c *CommandActivity) matchLine(line string) (force bool, pattern string, ok bool) {
	if len(c.patterns) == 0 {
		return false, "", true
	}

	for _, p := range c.patterns {
		if p.CompiledRegex().MatchString(line) {
			return p.Force, p.Name, true
		}
	}
	return false, "", false
}
