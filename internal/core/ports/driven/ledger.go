package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// DedupLedger is the persisted set of fingerprints already embedded into
// one source kind's vector index. A fingerprint in the ledger implies its
// content is durably stored in the index.
type DedupLedger interface {
	// Contains reports whether the fingerprint is known. The view reflects
	// writes made by other processes.
	Contains(ctx context.Context, fp domain.Fingerprint) (bool, error)

	// Add records the fingerprint and flushes the ledger to durable storage
	// before returning.
	Add(ctx context.Context, fp domain.Fingerprint) error

	// Len returns the number of fingerprints.
	Len(ctx context.Context) (int, error)
}

// LedgerProvider returns the ledger for each source kind.
type LedgerProvider interface {
	Ledger(kind domain.SourceKind) (DedupLedger, error)
}
