// Package backend assembles the store, the summary cache and the optional
// change publisher into a ready ExpenseService.
package backend

import (
	"context"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/services"
	"expenses/internal/storage"
)

// CleanupFunc releases everything a backend opened.
type CleanupFunc func() error

// BackendResult holds the assembled service and the handles callers may
// need directly. Publisher is nil when AMQP is disabled or unreachable.
type BackendResult struct {
	Store     storage.Store
	Service   *services.ExpenseService
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	SummaryCacheTTL  time.Duration
	SummaryCacheSize int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
