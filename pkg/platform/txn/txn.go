// Package txn provides the transactional boundary for multi-entity mutations.
//
// The engine serializes invitation state transitions and credit-event
// propagation behind a single lock: a reader must see either the fully
// pre-event or fully post-event state for every entity on a referral path,
// never an interleaving. Throughput expectations are low; correctness
// dominates.
package txn

import (
	"context"
	"sync"
	"time"

	dErrors "creditnet/pkg/domain-errors"
)

// Tx provides a transactional boundary for engine mutations.
// Implementations may wrap a database transaction or an in-memory lock.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

// InMemoryTx serializes mutations for in-memory stores. One instance is
// shared by every service whose mutations may touch overlapping entities.
type InMemoryTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewInMemory constructs the shared serializer.
func NewInMemory() *InMemoryTx {
	return &InMemoryTx{}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}
