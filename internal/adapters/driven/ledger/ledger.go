// Package ledger persists per-kind fingerprint ledgers as JSON files at
// <base>/<kind>/ledger.json.
//
// Writes go through a temporary file and a rename, so readers see either
// the old or the new set. The in-memory copy is reloaded whenever the
// file's modification time or size changes, which keeps processes that
// share a base directory from acting on a stale set.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// FileName is the ledger file name inside each kind directory.
const FileName = "ledger.json"

// Ensure the ledger types implement the interfaces.
var (
	_ driven.DedupLedger    = (*Ledger)(nil)
	_ driven.LedgerProvider = (*Provider)(nil)
)

// Provider hands out one file ledger per source kind.
type Provider struct {
	baseDir string

	mu      sync.Mutex
	ledgers map[domain.SourceKind]*Ledger
}

// NewProvider creates a provider rooted at baseDir.
func NewProvider(baseDir string) *Provider {
	return &Provider{
		baseDir: baseDir,
		ledgers: make(map[domain.SourceKind]*Ledger),
	}
}

// Ledger returns the ledger for kind, creating its directory if needed.
func (p *Provider) Ledger(kind domain.SourceKind) (driven.DedupLedger, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.ledgers[kind]; ok {
		return l, nil
	}
	dir := filepath.Join(p.baseDir, string(kind))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating %s directory: %w", kind, err)
	}
	l := New(filepath.Join(dir, FileName))
	p.ledgers[kind] = l
	return l, nil
}

// Ledger is a fingerprint set backed by a JSON array file.
type Ledger struct {
	path string

	mu      sync.Mutex
	set     map[domain.Fingerprint]struct{}
	modTime time.Time
	size    int64
	loaded  bool
}

// New creates a ledger stored at path. The file is created on first Add.
func New(path string) *Ledger {
	return &Ledger{path: path, set: make(map[domain.Fingerprint]struct{})}
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return l.path
}

// Contains reports whether fp has been recorded.
func (l *Ledger) Contains(_ context.Context, fp domain.Fingerprint) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.refresh(); err != nil {
		return false, err
	}
	_, ok := l.set[fp]
	return ok, nil
}

// Add records fp and writes the ledger to disk.
func (l *Ledger) Add(_ context.Context, fp domain.Fingerprint) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.refresh(); err != nil {
		return err
	}
	if _, ok := l.set[fp]; ok {
		return nil
	}

	l.set[fp] = struct{}{}
	if err := l.write(); err != nil {
		delete(l.set, fp)
		return err
	}
	return nil
}

// Len returns the number of recorded fingerprints.
func (l *Ledger) Len(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.refresh(); err != nil {
		return 0, err
	}
	return len(l.set), nil
}

// refresh reloads the set if the file changed since the last read.
func (l *Ledger) refresh() error {
	info, err := os.Stat(l.path)
	if errors.Is(err, os.ErrNotExist) {
		if l.loaded && l.size > 0 {
			// File was removed underneath us; start over.
			l.set = make(map[domain.Fingerprint]struct{})
		}
		l.loaded, l.modTime, l.size = true, time.Time{}, 0
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat ledger: %w", err)
	}
	if l.loaded && info.ModTime().Equal(l.modTime) && info.Size() == l.size {
		return nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("reading ledger: %w", err)
	}
	var list []domain.Fingerprint
	if len(data) > 0 {
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("parsing ledger %s: %w", l.path, err)
		}
	}

	set := make(map[domain.Fingerprint]struct{}, len(list))
	for _, fp := range list {
		set[fp] = struct{}{}
	}
	l.set = set
	l.modTime, l.size, l.loaded = info.ModTime(), info.Size(), true
	return nil
}

func (l *Ledger) write() error {
	list := make([]string, 0, len(l.set))
	for fp := range l.set {
		list = append(list, string(fp))
	}
	sort.Strings(list)

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}

	info, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("stat ledger: %w", err)
	}
	l.modTime, l.size = info.ModTime(), info.Size()
	return nil
}
