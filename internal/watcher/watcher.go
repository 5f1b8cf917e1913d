// Package watcher re-runs the fix pipeline for source files as they
// change on disk.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/mvp-joe/stepdown/internal/syntax"
)

const debounceTime = 500 * time.Millisecond

// Watcher watches directories recursively and invokes a callback with
// batches of changed source files after a quiet period. Writes performed
// by the fixer itself do not re-trigger: content hashes are compared
// before a file is queued again.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dirs     []string
	callback func(files []string)

	cancel context.CancelFunc
	doneCh chan struct{}

	mu          sync.Mutex
	accumulated map[string]bool
	timer       *time.Timer
	lastHash    map[string]uint64

	stopOnce sync.Once
}

// New creates a watcher over the given directories.
func New(dirs []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:         fsw,
		dirs:        dirs,
		accumulated: map[string]bool{},
		lastHash:    map[string]uint64{},
		doneCh:      make(chan struct{}),
	}

	for _, dir := range dirs {
		if err := w.addRecursively(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Start begins watching and invokes the callback with changed files.
func (w *Watcher) Start(ctx context.Context, callback func(files []string)) {
	w.callback = callback
	ctx, w.cancel = context.WithCancel(ctx)
	go w.watch(ctx)
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.fsw.Close()
	})
	return err
}

// MarkWritten records the content the fixer just wrote, so the resulting
// filesystem event is recognized and dropped.
func (w *Watcher) MarkWritten(path string, content []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastHash[path] = xxhash.Sum64(content)
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("Watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	// new directories join the watch set
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			_ = w.addRecursively(event.Name)
		}
		return
	}

	if !syntax.IsSourceFile(event.Name) {
		return
	}
	if w.selfInflicted(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.accumulated[event.Name] = true

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceTime, w.flush)
}

// selfInflicted reports whether the file's current content matches what
// the fixer last wrote.
func (w *Watcher) selfInflicted(path string) bool {
	w.mu.Lock()
	expected, ok := w.lastHash[path]
	w.mu.Unlock()
	if !ok {
		return false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return xxhash.Sum64(content) == expected
}

func (w *Watcher) flush() {
	w.mu.Lock()
	files := make([]string, 0, len(w.accumulated))
	for f := range w.accumulated {
		files = append(files, f)
	}
	w.accumulated = map[string]bool{}
	w.mu.Unlock()

	if len(files) > 0 && w.callback != nil {
		w.callback(files)
	}
}

func (w *Watcher) addRecursively(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if name == "node_modules" || name == ".git" || name == "dist" || name == "build" {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}
