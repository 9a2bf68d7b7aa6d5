// Package services orchestrates the store, the summary cache and change
// notifications behind the front ends.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/report"
	"expenses/internal/storage"
)

// EventPublisher announces committed changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev amqp.ExpenseEvent) error
}

type ExpenseService struct {
	store     storage.Store
	publisher EventPublisher
	summaries cache.Cache[report.Summary]
	logger    *slog.Logger

	// generation counts invalidations. A summary computed across one is
	// not cached.
	cacheMu    sync.Mutex
	generation uint64

	now       func() time.Time
}

type Option func(*ExpenseService)

// WithPublisher enables change events. A nil publisher leaves them off.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithSummaryCache caches monthly summaries until the month changes.
// Only writes made through this service invalidate it, so it must not be
// used when another process writes the same store.
func WithSummaryCache(c cache.Cache[report.Summary]) Option {
	return func(s *ExpenseService) { s.summaries = c }
}

// WithClock overrides the clock used to resolve the current month.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func NewExpenseService(store storage.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:  store,
		logger: slog.Default().With("component", "expense_service"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentMonth is the month containing the service clock's now.
func (s *ExpenseService) CurrentMonth() core.Month {
	return core.CurrentMonth(s.now())
}

// Today is the service clock's calendar date.
func (s *ExpenseService) Today() core.Date {
	t := s.now()
	return core.NewDate(t.Year(), int(t.Month()), t.Day())
}

// AddExpense parses raw input, persists it and announces the new record.
func (s *ExpenseService) AddExpense(ctx context.Context, date, amount, category, note string) (core.Expense, error) {
	e, err := core.ParseExpense(date, amount, category, note)
	if err != nil {
		return core.Expense{}, err
	}

	id, err := s.store.Add(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	s.invalidate(core.MonthOf(e.Date))
	s.publish(ctx, amqp.EventCreated, e)
	return e, nil
}

// UpdateExpense replaces every field of record id.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, date, amount, category, note string) (core.Expense, error) {
	if err := core.ValidateID(id); err != nil {
		return core.Expense{}, err
	}
	e, err := core.ParseExpense(date, amount, category, note)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = id

	old, err := s.store.Get(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("load expense: %w", err)
	}
	if err := s.store.Update(ctx, e); err != nil {
		if core.IsNotFound(err) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.invalidate(core.MonthOf(old.Date), core.MonthOf(e.Date))
	s.publish(ctx, amqp.EventUpdated, e)
	return e, nil
}

// DeleteExpense removes record id. Removing a missing id succeeds and
// publishes nothing.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := core.ValidateID(id); err != nil {
		return err
	}

	old, err := s.store.Get(ctx, id)
	if core.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.invalidate(core.MonthOf(old.Date))
	s.publish(ctx, amqp.EventDeleted, old)
	return nil
}

// GetExpense returns record id or a NotFoundError.
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	if err := core.ValidateID(id); err != nil {
		return core.Expense{}, err
	}
	e, err := s.store.Get(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("load expense: %w", err)
	}
	return e, nil
}

func (s *ExpenseService) ListMonth(ctx context.Context, m core.Month) ([]core.Expense, error) {
	records, err := s.store.ListByMonth(ctx, m)
	if err != nil {
		if core.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("list month %s: %w", m.Key(), err)
	}
	return records, nil
}

func (s *ExpenseService) ListAll(ctx context.Context) ([]core.Expense, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return records, nil
}

// MonthlySummary returns the total and category breakdown of m.
func (s *ExpenseService) MonthlySummary(ctx context.Context, m core.Month) (report.Summary, error) {
	var gen uint64
	if s.summaries != nil {
		if sum, ok := s.summaries.Get(m.Key()); ok {
			return sum, nil
		}
		s.cacheMu.Lock()
		gen = s.generation
		s.cacheMu.Unlock()
	}

	records, err := s.ListMonth(ctx, m)
	if err != nil {
		return report.Summary{}, err
	}
	sum := report.MonthlySummary(records, m.Label())

	if s.summaries != nil {
		s.cacheMu.Lock()
		if s.generation == gen {
			s.summaries.Set(m.Key(), sum)
		}
		s.cacheMu.Unlock()
	}
	return sum, nil
}

// Export writes every record as CSV and returns how many rows were written.
func (s *ExpenseService) Export(ctx context.Context, w io.Writer) (int, error) {
	records, err := s.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return writeExport(w, records)
}

// ExportMonth is Export restricted to m.
func (s *ExpenseService) ExportMonth(ctx context.Context, w io.Writer, m core.Month) (int, error) {
	records, err := s.ListMonth(ctx, m)
	if err != nil {
		return 0, err
	}
	return writeExport(w, records)
}

func writeExport(w io.Writer, records []core.Expense) (int, error) {
	if err := report.WriteCSV(w, report.TabularExport(records)); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	return len(records), nil
}

// Ping reports whether the store is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ExpenseService) invalidate(months ...core.Month) {
	if s.summaries == nil {
		return
	}
	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = m.Key()
	}
	s.cacheMu.Lock()
	s.generation++
	s.summaries.Delete(keys...)
	s.cacheMu.Unlock()
}

// publish never fails the caller: the record is already committed.
func (s *ExpenseService) publish(ctx context.Context, t amqp.EventType, e core.Expense) {
	if s.publisher == nil {
		return
	}
	ev := amqp.NewExpenseEvent(t, e.ID, e.Date)
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			"type", t,
			"expense_id", e.ID,
			"error", err)
	}
}

// Close releases the store.
func (s *ExpenseService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
