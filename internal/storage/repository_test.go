package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "expenses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func expense(t *testing.T, date, amount, category, note string) core.Expense {
	t.Helper()
	e, err := core.ParseExpense(date, amount, category, note)
	require.NoError(t, err)
	return e
}

func TestSQLiteRepository_AddAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	t.Run("round trips all fields", func(t *testing.T) {
		in := expense(t, "2024-03-05", "42.50", "Food", "lunch, with \"quotes\"")
		id, err := repo.Add(ctx, in)
		require.NoError(t, err)
		assert.Positive(t, id)

		got, err := repo.ListByMonth(ctx, core.Month{Year: 2024, Month: time.March})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID)
		assert.Equal(t, "2024-03-05", got[0].Date.String())
		assert.True(t, got[0].Amount.Equal(in.Amount))
		assert.Equal(t, "42.5", got[0].Amount.String())
		assert.Equal(t, "Food", got[0].Category)
		assert.Equal(t, in.Note, got[0].Note)
	})

	t.Run("rejects missing date", func(t *testing.T) {
		_, err := repo.Add(ctx, core.Expense{Amount: core.MoneyFromCents(100), Category: "Food"})
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("accepts zero and negative amounts", func(t *testing.T) {
		_, err := repo.Add(ctx, expense(t, "2024-05-01", "0", "Other", ""))
		require.NoError(t, err)
		_, err = repo.Add(ctx, expense(t, "2024-05-02", "-3.20", "Other", "refund"))
		require.NoError(t, err)

		got, err := repo.ListByMonth(ctx, core.Month{Year: 2024, Month: time.May})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestSQLiteRepository_MonthBoundaries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, d := range []string{"2023-12-31", "2024-01-01", "2024-01-31", "2024-12-01", "2024-12-31", "2025-01-01"} {
		_, err := repo.Add(ctx, expense(t, d, "1", "Food", d))
		require.NoError(t, err)
	}

	dec, err := repo.ListByMonth(ctx, core.Month{Year: 2024, Month: time.December})
	require.NoError(t, err)
	require.Len(t, dec, 2)
	assert.Equal(t, "2024-12-31", dec[0].Date.String())
	assert.Equal(t, "2024-12-01", dec[1].Date.String())

	jan, err := repo.ListByMonth(ctx, core.Month{Year: 2024, Month: time.January})
	require.NoError(t, err)
	require.Len(t, jan, 2)
	for _, e := range jan {
		assert.Equal(t, 2024, e.Date.Year())
	}

	empty, err := repo.ListByMonth(ctx, core.Month{Year: 2024, Month: time.June})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = repo.ListByMonth(ctx, core.Month{Year: 2024, Month: 13})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestSQLiteRepository_Ordering(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a, _ := repo.Add(ctx, expense(t, "2024-03-05", "1", "Food", ""))
	b, _ := repo.Add(ctx, expense(t, "2024-03-10", "2", "Food", ""))
	c, _ := repo.Add(ctx, expense(t, "2024-03-05", "3", "Food", ""))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{b, c, a}, []int64{all[0].ID, all[1].ID, all[2].ID})
}

func TestSQLiteRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.Add(ctx, expense(t, "2024-03-05", "42.50", "Food", "lunch"))
	require.NoError(t, err)

	t.Run("replaces every field", func(t *testing.T) {
		upd := expense(t, "2024-04-01", "12", "Transport", "")
		upd.ID = id
		require.NoError(t, repo.Update(ctx, upd))

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "2024-04-01", got.Date.String())
		assert.Equal(t, "12", got.Amount.String())
		assert.Equal(t, "Transport", got.Category)
		assert.Empty(t, got.Note)
	})

	t.Run("missing id", func(t *testing.T) {
		upd := expense(t, "2024-04-01", "12", "Transport", "")
		upd.ID = id + 100
		err := repo.Update(ctx, upd)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		upd := expense(t, "2024-04-01", "12", "Transport", "")
		assert.ErrorIs(t, repo.Update(ctx, upd), core.ErrValidation)
	})
}

func TestSQLiteRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.Add(ctx, expense(t, "2024-03-05", "1", "Food", ""))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.NoError(t, repo.Delete(ctx, id), "deleting twice is not an error")
	assert.NoError(t, repo.Delete(ctx, 9999))
}

type unknownRowsResult struct{}

func (unknownRowsResult) LastInsertId() (int64, error) { return 0, nil }
func (unknownRowsResult) RowsAffected() (int64, error) {
	return 0, errors.New("rows affected not supported")
}

func TestSQLiteRepository_DeletedRowsLogsDriverError(t *testing.T) {
	var buf bytes.Buffer
	repo := newTestRepo(t)
	repo.logger = slog.New(slog.NewTextHandler(&buf, nil))

	n := repo.deletedRows(context.Background(), 7, unknownRowsResult{})
	assert.Equal(t, int64(-1), n)
	assert.Contains(t, buf.String(), "rows affected not supported")
	assert.Contains(t, buf.String(), "id=7")
}

func TestSQLiteRepository_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = repo.Add(ctx, expense(t, "2024-03-05", "0.10", "Food", ""))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "0.1", all[0].Amount.String())
}

func TestSQLiteRepository_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	batch := make([]core.Expense, 20)
	for i := range batch {
		batch[i] = expense(t, fmt.Sprintf("2024-03-%02d", i%28+1), "1.25", "Food", "")
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(batch))
	for _, e := range batch {
		wg.Add(1)
		go func(e core.Expense) {
			defer wg.Done()
			if _, err := repo.Add(ctx, e); err != nil {
				errs <- err
			}
		}(e)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent add: %v", err)
	}

	all, err := repo.ListByMonth(ctx, core.Month{Year: 2024, Month: time.March})
	require.NoError(t, err)
	assert.Len(t, all, 20)
	assert.Equal(t, "25", core.Total(all).String())
}
