// Package watch unpacks recordings as they land in the raw directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handler is called once per settled raw file, from the Run goroutine.
type Handler func(ctx context.Context, date, file string) error

// Watcher watches raw/ and raw/<date>/ for new recordings. A file is
// handed over once it has seen no writes for the debounce interval.
type Watcher struct {
	dir      string
	debounce time.Duration
	accept   func(ext string) bool
	handle   Handler
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}
}

// New returns a watcher over rawDir. accept filters by lower-case
// extension; nil accepts every file.
func New(rawDir string, debounce time.Duration, accept func(ext string) bool, h Handler, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		dir:      rawDir,
		debounce: debounce,
		accept:   accept,
		handle:   h,
		log:      log,
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string, 64),
		done:     make(chan struct{}),
	}
}

// Run blocks until ctx is done or the watcher fails. A Watcher runs once.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.done)
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read raw dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			if err := fw.Add(filepath.Join(w.dir, e.Name())); err != nil {
				w.log.Warn("watch date dir", zap.String("dir", e.Name()), zap.Error(err))
			}
		}
	}
	w.log.Info("watching", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.event(fw, ev)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case path := <-w.ready:
			date := filepath.Base(filepath.Dir(path))
			file := filepath.Base(path)
			if err := w.handle(ctx, date, file); err != nil {
				w.log.Warn("auto-unpack failed",
					zap.String("recording", date+"/"+file),
					zap.Error(err))
				continue
			}
			w.log.Info("auto-unpacked", zap.String("recording", date+"/"+file))
		}
	}
}

func (w *Watcher) event(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return
	}
	parent := filepath.Dir(ev.Name)

	if parent == filepath.Clean(w.dir) {
		info, err := os.Stat(ev.Name)
		if err != nil || !info.IsDir() {
			return
		}
		if err := fw.Add(ev.Name); err != nil {
			w.log.Warn("watch date dir", zap.String("dir", name), zap.Error(err))
			return
		}
		// Files written before the watch was added produce no events.
		files, _ := os.ReadDir(ev.Name)
		for _, f := range files {
			if !f.IsDir() {
				w.schedule(filepath.Join(ev.Name, f.Name()))
			}
		}
		return
	}
	if filepath.Dir(parent) == filepath.Clean(w.dir) {
		w.schedule(ev.Name)
	}
}

func (w *Watcher) schedule(path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return
	}
	if w.accept != nil && !w.accept(strings.ToLower(filepath.Ext(name))) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
