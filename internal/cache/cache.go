// Package cache holds the short-lived read caches in front of the store.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is the subset of LRUCache the services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(keys ...string)
	Purge()
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps registered caches.
type Manager struct {
	mu       sync.Mutex
	caches   []Cleaner
	logger   *slog.Logger
	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger: logger.With("component", "cache"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// StartCleanup sweeps every interval until Stop is called.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.logger.Debug("Expired cache entries removed", "count", n)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Sweep runs one cleanup pass over all registered caches.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup loop started by StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.done
		}
	})
}
