package source

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Veraticus/idlewatch/pkg/types"
)

// FileActivity treats filesystem changes under the configured paths as
// activity. Every fsnotify event becomes one interrupt signal carrying the
// event as payload.
type FileActivity struct {
	paths []string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	ch      chan types.Signal
	wg      sync.WaitGroup
}

// NewFileActivity creates a file activity source watching the given paths.
func NewFileActivity(paths []string) *FileActivity {
	return &FileActivity{
		paths: paths,
		ch:    make(chan types.Signal, signalBuffer),
	}
}

// Attach starts the watcher.
func (f *FileActivity) Attach() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	for _, path := range f.paths {
		if err := watcher.Add(path); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	f.watcher = watcher
	f.wg.Add(1)
	go f.run(watcher)
	return nil
}

// Detach stops the watcher and waits for the event loop to exit.
func (f *FileActivity) Detach() error {
	f.mu.Lock()
	watcher := f.watcher
	f.watcher = nil
	f.mu.Unlock()

	if watcher == nil {
		return nil
	}

	err := watcher.Close()
	f.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close fsnotify watcher: %w", err)
	}
	return nil
}

// Signals implements interfaces.InterruptSource.
func (f *FileActivity) Signals() <-chan types.Signal {
	return f.ch
}

// run forwards watcher events until the watcher is closed.
func (f *FileActivity) run(watcher *fsnotify.Watcher) {
	defer f.wg.Done()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			select {
			case f.ch <- types.Signal{Payload: event}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if os.Getenv("IDLEWATCH_DEBUG") == "1" {
				fmt.Fprintf(os.Stderr, "idlewatch: file watcher error: %v\n", err)
			}
		}
	}
}
