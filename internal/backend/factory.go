package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/report"
	"expenses/internal/services"
	"expenses/internal/storage"
	"expenses/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With("component", "backend")}
}

// CreateBackend opens the store, connects the publisher when configured
// and wires both into an ExpenseService. An unreachable broker is logged
// and the service runs without events.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	var publisher *amqp.Client
	if config.AMQPURL != "" {
		publisher, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
			publisher = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	opts := []services.Option{}
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}

	var manager *cache.Manager
	cacheTTL := config.SummaryCacheTTL
	if cacheTTL > 0 && config.Type == SQLiteBackend {
		// other processes may write the same database file
		f.logger.InfoContext(ctx, "Summary cache disabled for the shared SQLite store")
		cacheTTL = 0
	}
	if cacheTTL > 0 {
		size := config.SummaryCacheSize
		if size < 1 {
			size = 64
		}
		summaries := cache.NewLRUCache[report.Summary](size, cacheTTL)
		manager = cache.NewManager(f.logger)
		manager.Register(summaries)
		manager.StartCleanup(cacheTTL)
		opts = append(opts, services.WithSummaryCache(summaries))
	}

	svc := services.NewExpenseService(store, opts...)

	f.logger.InfoContext(ctx, "Initialized backend",
		"type", config.Type,
		"amqp_enabled", publisher != nil,
		"summary_cache_ttl", cacheTTL)

	return &BackendResult{
		Store:     store,
		Service:   svc,
		Publisher: publisher,
		Cleanup: func() error {
			var errs []error
			if manager != nil {
				manager.Stop()
			}
			if publisher != nil {
				if err := publisher.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			if err := svc.Close(); err != nil {
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Warn("Using in-memory store, records are lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
