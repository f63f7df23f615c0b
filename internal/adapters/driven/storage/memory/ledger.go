package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure the ledger types implement the interfaces.
var (
	_ driven.DedupLedger    = (*Ledger)(nil)
	_ driven.LedgerProvider = (*LedgerProvider)(nil)
	_ driven.Locker         = (*Locker)(nil)
)

// Ledger is an in-memory fingerprint set.
type Ledger struct {
	mu  sync.RWMutex
	set map[domain.Fingerprint]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{set: make(map[domain.Fingerprint]struct{})}
}

// Contains reports whether fp has been recorded.
func (l *Ledger) Contains(_ context.Context, fp domain.Fingerprint) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.set[fp]
	return ok, nil
}

// Add records fp. Adding a known fingerprint is a no-op.
func (l *Ledger) Add(_ context.Context, fp domain.Fingerprint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.set[fp] = struct{}{}
	return nil
}

// Len returns the number of recorded fingerprints.
func (l *Ledger) Len(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.set), nil
}

// LedgerProvider hands out one Ledger per source kind.
type LedgerProvider struct {
	mu      sync.Mutex
	ledgers map[domain.SourceKind]*Ledger
}

// NewLedgerProvider creates a provider with no ledgers yet.
func NewLedgerProvider() *LedgerProvider {
	return &LedgerProvider{ledgers: make(map[domain.SourceKind]*Ledger)}
}

// Ledger returns the ledger for kind, creating it on first use.
func (p *LedgerProvider) Ledger(kind domain.SourceKind) (driven.DedupLedger, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.ledgers[kind]
	if !ok {
		l = NewLedger()
		p.ledgers[kind] = l
	}
	return l, nil
}

// Locker serialises writers per source kind within one process.
type Locker struct {
	mu    sync.Mutex
	kinds map[domain.SourceKind]chan struct{}
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{kinds: make(map[domain.SourceKind]chan struct{})}
}

// Lock blocks until the kind is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, kind domain.SourceKind) (func() error, error) {
	l.mu.Lock()
	ch, ok := l.kinds[kind]
	if !ok {
		ch = make(chan struct{}, 1)
		l.kinds[kind] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() error {
		once.Do(func() { <-ch })
		return nil
	}, nil
}
