package engine

import (
	"context"

	"kittenboard/core"
)

// Storage abstracts the durable player record store. Every implementation
// must persist a successful mutation before returning, keep mutations for
// the same identity mutually exclusive, and guarantee that a failed persist
// leaves the prior win count intact.
type Storage interface {
	// GetOrCreate fetches the record for id, creating a zero-win record on
	// first sight. Idempotent: an existing record is returned unchanged.
	GetOrCreate(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error)
	// Get fetches the record for id without creating one. Returns
	// core.NotFoundError when absent.
	Get(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error)
	// IncrementWin atomically adds one win. Returns core.NotFoundError when
	// no record exists for id.
	IncrementWin(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error)
	// TopN returns at most n records ordered by wins descending, identity
	// ascending. Read-only; core.ValidationError when n <= 0.
	TopN(ctx context.Context, n int) ([]core.PlayerRecord, error)
}
