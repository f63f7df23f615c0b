// Package watch ingests files dropped into a folder. Created and modified
// files are routed by extension to document or video ingestion once they
// have been quiet for the debounce interval.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before it is ingested.
const DefaultDebounce = 2 * time.Second

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("watcher closed")

var documentExts = map[string]bool{
	".pdf": true, ".docx": true, ".pptx": true,
	".txt": true, ".md": true, ".markdown": true,
	".html": true, ".htm": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true, ".webm": true,
	".m4v": true, ".mp3": true, ".wav": true, ".m4a": true,
}

// Route returns the pipeline for path, or false when the extension is not
// ingestible.
func Route(path string) (domain.IngestVia, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case documentExts[ext]:
		return domain.ViaDocument, true
	case videoExts[ext]:
		return domain.ViaVideo, true
	default:
		return "", false
	}
}

// Config holds watcher configuration.
type Config struct {
	// Debounce is the quiet period per path. Zero uses DefaultDebounce.
	Debounce time.Duration

	// ScanExisting ingests files already in the folder at start.
	ScanExisting bool

	// OnOutcome is called after each ingestion.
	OnOutcome func(*domain.IngestOutcome)
}

// Watcher watches a folder tree and ingests what lands in it.
type Watcher struct {
	root   string
	ingest driving.IngestionService
	cfg    Config

	pending chan string
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// New creates a watcher over root.
func New(root string, ingest driving.IngestionService, cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{
		root:    root,
		ingest:  ingest,
		cfg:     cfg,
		pending: make(chan string, 64),
		done:    make(chan struct{}),
		timers:  make(map[string]*time.Timer),
	}
}

// Run watches until ctx is cancelled. Ingestions run one at a time on the
// calling goroutine. A watcher runs once; it is closed when Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root: %s is not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()
	defer w.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}
	logger.Info("watching %s", w.root)

	if w.cfg.ScanExisting {
		w.scan(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		case path := <-w.pending:
			w.ingestPath(ctx, path)
		}
	}
}

// Close stops pending timers and prevents further runs. It is idempotent.
func (w *Watcher) Close() error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.done)
		w.stopTimers()
	})
	return nil
}

// addTree watches dir and every non-hidden subdirectory.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// scan ingests every routable file already present.
func (w *Watcher) scan(ctx context.Context) {
	_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || ctx.Err() != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.root && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := Route(path); ok && !isHidden(path) {
			w.ingestPath(ctx, path)
		}
		return nil
	})
}

// handleEvent schedules ingestion for created or written files and starts
// watching new directories.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if isHidden(ev.Name) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) && fsw != nil {
			if err := w.addTree(fsw, ev.Name); err != nil {
				logger.Warn("%v", err)
			}
		}
		return
	}
	if _, ok := Route(ev.Name); !ok {
		logger.Debug("watch: ignoring %s", ev.Name)
		return
	}
	w.schedule(ev.Name)
}

// schedule (re)starts the quiet-period timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if t, ok := w.timers[path]; ok {
		t.Reset(w.cfg.Debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}
		select {
		case w.pending <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) ingestPath(ctx context.Context, path string) {
	via, ok := Route(path)
	if !ok {
		return
	}

	var out *domain.IngestOutcome
	if via == domain.ViaVideo {
		out = w.ingest.IngestVideo(ctx, path)
	} else {
		out = w.ingest.IngestDocument(ctx, path)
	}
	logger.Info("watch: %s: %s", filepath.Base(path), out.Message())

	if w.cfg.OnOutcome != nil {
		w.cfg.OnOutcome(out)
	}
}

func isHidden(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".crdownload")
}
