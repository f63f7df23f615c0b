// Package lock serialises writers of each source kind across goroutines and
// processes with an advisory lock on <base>/<kind>/.lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// FileName is the lock file name inside each kind directory.
const FileName = ".lock"

// pollInterval is how often a blocked Lock retries the file lock.
const pollInterval = 50 * time.Millisecond

// errWouldBlock is returned by tryLock when another process holds the lock.
var errWouldBlock = errors.New("lock held by another process")

// Ensure FileLocker implements the interface.
var _ driven.Locker = (*FileLocker)(nil)

// FileLocker hands out per-kind write locks.
//
// Goroutines in this process queue on a channel semaphore; the holder then
// takes the OS-level file lock so other processes are excluded too.
type FileLocker struct {
	baseDir string

	mu    sync.Mutex
	slots map[domain.SourceKind]chan struct{}
}

// NewFileLocker creates a locker rooted at baseDir.
func NewFileLocker(baseDir string) *FileLocker {
	return &FileLocker{
		baseDir: baseDir,
		slots:   make(map[domain.SourceKind]chan struct{}),
	}
}

// Path returns the lock file path for kind.
func (l *FileLocker) Path(kind domain.SourceKind) string {
	return filepath.Join(l.baseDir, string(kind), FileName)
}

// Lock blocks until the kind's lock is held or ctx is done.
func (l *FileLocker) Lock(ctx context.Context, kind domain.SourceKind) (func() error, error) {
	slot := l.slot(kind)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	f, err := l.acquire(ctx, kind)
	if err != nil {
		<-slot
		return nil, err
	}

	var once sync.Once
	var unlockErr error
	return func() error {
		once.Do(func() {
			if err := unlockFile(f); err != nil {
				unlockErr = fmt.Errorf("releasing %s lock: %w", kind, err)
			}
			if err := f.Close(); err != nil && unlockErr == nil {
				unlockErr = err
			}
			<-slot
		})
		return unlockErr
	}, nil
}

func (l *FileLocker) slot(kind domain.SourceKind) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[kind]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[kind] = s
	}
	return s
}

// acquire opens the lock file and polls the non-blocking file lock so a
// cancelled context is honoured.
func (l *FileLocker) acquire(ctx context.Context, kind domain.SourceKind) (*os.File, error) {
	path := l.Path(kind)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating %s directory: %w", kind, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening %s lock: %w", kind, err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		err := tryLock(f)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, errWouldBlock) {
			f.Close()
			return nil, fmt.Errorf("locking %s: %w", kind, err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		}
	}
}
