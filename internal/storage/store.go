// Package storage persists expense records.
package storage

import (
	"context"

	"expenses/internal/core"
)

// Store is the record store contract shared by every backend.
//
// Add and Update reject records without a date with a *core.ValidationError.
// Update replaces every field except the id and returns *core.NotFoundError
// when the id does not exist. Delete is idempotent. Listings are ordered by
// date descending, then id descending.
type Store interface {
	Add(ctx context.Context, e core.Expense) (int64, error)
	Update(ctx context.Context, e core.Expense) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (core.Expense, error)
	ListByMonth(ctx context.Context, m core.Month) ([]core.Expense, error)
	ListAll(ctx context.Context) ([]core.Expense, error)
	Ping(ctx context.Context) error
	Close() error
}
