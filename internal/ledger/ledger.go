// Package ledger defines the evidence ledger contract: append-only creation,
// atomic read-modify-write of a record's access collections, no per-record
// deletion.
package ledger

import (
	"context"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
)

// Store persists evidence records. Implementations must assign strictly
// increasing ids on Create and serialize Update calls per record so
// concurrent grant/deny/revoke operations cannot lose updates.
type Store interface {
	// Create appends a new record and returns its assigned id.
	Create(ctx context.Context, rec evidence.Record) (uint64, error)

	// Get returns the record or evidence.ErrNotFound.
	Get(ctx context.Context, id uint64) (evidence.Record, error)

	// ListByOwner returns the owner's records ordered by id.
	ListByOwner(ctx context.Context, owner string) ([]evidence.Record, error)

	// Update applies fn to the record inside a single transaction. fn sees
	// the current state and mutates it in place; returning an error aborts
	// the write. Missing ids yield evidence.ErrNotFound.
	Update(ctx context.Context, id uint64, fn func(rec *evidence.Record) error) error

	// Purge wipes every record and resets the id counter. Only reachable
	// through the admin surface when explicitly enabled.
	Purge(ctx context.Context) error
}
