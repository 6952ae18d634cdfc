package server

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"atscore/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of filesystem events produced when a
// certificate pair is rotated.
const reloadDebounce = 500 * time.Millisecond

// CertWatcher watches certificate files and invokes a callback when they
// change. Parent directories are watched too, since certificate rotation
// tools typically replace files via rename.
type CertWatcher struct {
	files    []string
	onChange func()
	logger   *errors.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	running bool
}

// NewCertWatcher creates a watcher for the given files.
func NewCertWatcher(files []string, logger *errors.Logger, onChange func()) (*CertWatcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no certificate files to watch")
	}

	abs := make([]string, 0, len(files))
	for _, f := range files {
		path, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", f, err)
		}
		abs = append(abs, path)
	}

	return &CertWatcher{
		files:    abs,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Start begins watching. Safe to call once; returns an error if already
// running.
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	dirs := make(map[string]bool)
	for _, file := range cw.files {
		dirs[filepath.Dir(file)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	cw.watcher = watcher
	cw.done = make(chan struct{})
	cw.running = true

	go cw.watchLoop()

	cw.logger.Info("Certificate watcher started", "files", cw.files)
	return nil
}

func (cw *CertWatcher) watchLoop() {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.isWatchedFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			cw.logger.Debug("Certificate file changed",
				"file", event.Name,
				"op", event.Op.String())

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, cw.onChange)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.LogError(err, "Certificate watcher error")

		case <-cw.done:
			return
		}
	}
}

func (cw *CertWatcher) isWatchedFile(name string) bool {
	path, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	for _, f := range cw.files {
		if path == f {
			return true
		}
	}
	return false
}

// Stop shuts down the watcher. Safe to call when not running.
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.done)
	err := cw.watcher.Close()
	cw.watcher = nil
	cw.running = false

	cw.logger.Info("Certificate watcher stopped")
	return err
}

// IsRunning reports whether the watcher is active.
func (cw *CertWatcher) IsRunning() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.running
}

// GetWatchedFiles returns the absolute paths being watched.
func (cw *CertWatcher) GetWatchedFiles() []string {
	out := make([]string, len(cw.files))
	copy(out, cw.files)
	return out
}
