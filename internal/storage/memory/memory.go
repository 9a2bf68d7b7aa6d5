// Package memory is an in-process Store used by the memory backend and
// in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"expenses/internal/core"
	"expenses/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Expense
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[int64]core.Expense)}
}

// NewWith seeds the store. Records keep their order of insertion as ids.
func NewWith(records ...core.Expense) *Store {
	s := New()
	for _, r := range records {
		s.nextID++
		r.ID = s.nextID
		s.items[r.ID] = r
	}
	return s
}

func (s *Store) Add(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.items[e.ID] = e
	return e.ID, nil
}

func (s *Store) Update(_ context.Context, e core.Expense) error {
	if err := core.ValidateID(e.ID); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; !ok {
		return &core.NotFoundError{ID: e.ID}
	}
	s.items[e.ID] = e
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	if err := core.ValidateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, &core.NotFoundError{ID: id}
	}
	return e, nil
}

func (s *Store) ListByMonth(ctx context.Context, m core.Month) ([]core.Expense, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	all, _ := s.ListAll(ctx)
	return core.FilterMonth(all, m), nil
}

func (s *Store) ListAll(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
