// Package watch keeps the library index in step with the library
// directories by reacting to filesystem events.
package watch

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a batch
// is applied.
const DefaultDebounce = 250 * time.Millisecond

// Indexer is the part of the engine the watcher drives.
type Indexer interface {
	Indexable(path string) bool
	IndexFiles(ctx context.Context, paths []string) error
	RemoveFiles(paths []string) error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLogger routes watcher warnings. Defaults to discarding them.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithOnBatch registers a callback run after each applied batch with the
// paths that were re-indexed and removed.
func WithOnBatch(fn func(indexed, removed []string)) Option {
	return func(w *Watcher) {
		w.onBatch = fn
	}
}

// Watcher watches library directories (not their subdirectories) and
// forwards debounced changes to an Indexer.
type Watcher struct {
	fsw      *fsnotify.Watcher
	indexer  Indexer
	debounce time.Duration
	logger   *log.Logger
	onBatch  func(indexed, removed []string)

	pendingMu sync.Mutex
	pending   map[string]bool

	timerMu sync.Mutex
	timer   *time.Timer

	cancel   context.CancelFunc
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Watcher over dirs. Directories that cannot be watched are
// logged and skipped; New fails only if none can be watched.
func New(dirs []string, indexer Indexer, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		indexer:  indexer,
		debounce: DefaultDebounce,
		pending:  make(map[string]bool),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard, "", 0)
	}

	var errs []error
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			w.logger.Printf("warning: watch %s: %v", dir, err)
			errs = append(errs, err)
		}
	}
	if len(dirs) > 0 && len(errs) == len(dirs) {
		fsw.Close()
		return nil, errors.Join(errs...)
	}
	return w, nil
}

// Dirs returns the directories currently watched.
func (w *Watcher) Dirs() []string {
	return w.fsw.WatchList()
}

// Start runs the event loop until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.loop(ctx)
}

// Stop ends the event loop and releases the underlying watcher. Pending
// changes that have not been applied yet are dropped.
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

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	flushCh := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.pendingMu.Lock()
			w.pending[event.Name] = true
			w.pendingMu.Unlock()
			w.resetTimer(flushCh)

		case <-flushCh:
			w.flush(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("warning: watcher: %v", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.indexer.Indexable(event.Name)
}

// flush applies the pending batch: paths that still exist are re-indexed,
// the rest are removed from the index.
func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()
	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	var indexed, removed []string
	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case err == nil && !info.IsDir():
			indexed = append(indexed, p)
		case errors.Is(err, fs.ErrNotExist):
			removed = append(removed, p)
		case err != nil:
			w.logger.Printf("warning: stat %s: %v", p, err)
		}
	}

	if len(indexed) > 0 {
		if err := w.indexer.IndexFiles(ctx, indexed); err != nil {
			w.logger.Printf("warning: reindex: %v", err)
		}
	}
	if len(removed) > 0 {
		if err := w.indexer.RemoveFiles(removed); err != nil {
			w.logger.Printf("warning: remove: %v", err)
		}
	}
	if w.onBatch != nil {
		w.onBatch(indexed, removed)
	}
}

func (w *Watcher) resetTimer(flushCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case flushCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
