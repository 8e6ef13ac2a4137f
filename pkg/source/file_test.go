package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestFileActivityEmitsOnWrite(t *testing.T) {
	dir := t.TempDir()

	source := NewFileActivity([]string{dir})
	if err := source.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	defer func() { _ = source.Detach() }()

	path := filepath.Join(dir, "activity.txt")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case sig := <-source.Signals():
		event, ok := sig.Payload.(fsnotify.Event)
		if !ok {
			t.Fatalf("payload type = %T, want fsnotify.Event", sig.Payload)
		}
		if event.Name != path {
			t.Errorf("event path = %s, want %s", event.Name, path)
		}
		if sig.Force {
			t.Error("file activity should not force resume")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no signal after file write")
	}
}

func TestFileActivityAttachMissingPath(t *testing.T) {
	source := NewFileActivity([]string{filepath.Join(t.TempDir(), "does-not-exist")})

	if err := source.Attach(); err == nil {
		_ = source.Detach()
		t.Fatal("expected error attaching to a missing path")
	}
}

func TestFileActivityDetachIdempotent(t *testing.T) {
	source := NewFileActivity([]string{t.TempDir()})
	if err := source.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	if err := source.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if err := source.Detach(); err != nil {
		t.Fatalf("second Detach() error = %v", err)
	}
}

func TestFileActivitySilentAfterDetach(t *testing.T) {
	dir := t.TempDir()

	source := NewFileActivity([]string{dir})
	if err := source.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := source.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "late.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case sig := <-source.Signals():
		t.Fatalf("unexpected signal %+v after detach", sig)
	case <-time.After(100 * time.Millisecond):
	}
}
