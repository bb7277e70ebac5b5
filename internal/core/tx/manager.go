// Package tx provides transaction management abstractions.
// Domain services depend on this interface, not on a concrete database; the
// implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
//
// Every coordinator operation (sale commit, void, return, purchase commit,
// cancel) runs inside exactly one RunInTransaction call: stock movements,
// cost batches, financial transactions and debt changes become visible
// together or not at all.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support for
// reporting queries.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
