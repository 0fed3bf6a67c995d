package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// maxAttempts bounds how often the watcher tries a file whose ingest fails.
const maxAttempts = 3

// Watcher ingests files as they appear under a directory. A file is
// ingested once no event has touched it for the debounce interval, so a
// file still being written is picked up after its last write.
type Watcher struct {
	ingester *Ingester
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	pending  map[string]time.Time
	seen     map[string]bool
	attempts map[string]int

	// OnAdded, when set, is called for every ingested file.
	OnAdded func(path string, dataItemID int64)
}

// NewWatcher creates a watcher for root. Files already present are not
// ingested; run Ingester.Dir first for that.
func NewWatcher(ingester *Ingester, root string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		ingester: ingester,
		root:     root,
		debounce: debounce,
		fsw:      fsw,
		pending:  make(map[string]time.Time),
		seen:     make(map[string]bool),
		attempts: make(map[string]int),
	}, nil
}

// Run watches until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.ingester.logger.Info().Str("root", w.root).Dur("debounce", w.debounce).Msg("watching for new files")

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.ingester.logger.Error().Err(err).Msg("watcher error")

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.ingester.logger.Warn().Err(err).Str("path", path).Msg("failed to watch directory")
		}
		return nil
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if hidden(filepath.Base(event.Name)) {
		return
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addRecursive(event.Name); err != nil {
				w.ingester.logger.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new directory")
			}
		}
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || !w.ingester.filter.Match(rel) {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush ingests every pending file that has been quiet for the debounce
// interval. Each path is ingested at most once. A failed file goes back to
// pending until it has been tried maxAttempts times.
func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()
	w.mu.Lock()
	var batch []string
	for p, last := range w.pending {
		if now.Sub(last) < w.debounce {
			continue
		}
		delete(w.pending, p)
		if !w.seen[p] {
			batch = append(batch, p)
		}
	}
	w.mu.Unlock()

	for _, path := range batch {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		id, err := w.ingester.File(ctx, path)
		if err != nil {
			w.retry(path, err)
			continue
		}
		w.mu.Lock()
		w.seen[path] = true
		delete(w.attempts, path)
		w.mu.Unlock()
		if w.OnAdded != nil {
			w.OnAdded(path, id)
		}
	}
}

func (w *Watcher) retry(path string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.attempts[path]++
	n := w.attempts[path]
	if n >= maxAttempts {
		delete(w.attempts, path)
		w.ingester.logger.Warn().Err(err).Str("path", path).Int("attempts", n).Msg("giving up on file")
		return
	}
	// A newer event for the path keeps its own timestamp.
	if _, ok := w.pending[path]; !ok {
		w.pending[path] = time.Now()
	}
	w.ingester.logger.Warn().Err(err).Str("path", path).Int("attempt", n).Msg("ingest failed, will retry")
}
