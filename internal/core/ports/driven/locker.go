package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// Locker serialises writers of one source kind across goroutines and processes.
type Locker interface {
	// Lock blocks until the kind's write lock is held or ctx is done.
	// The returned function releases the lock.
	Lock(ctx context.Context, kind domain.SourceKind) (unlock func() error, err error)
}
