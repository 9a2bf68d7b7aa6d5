// Package worker keeps the exported expense table in sync with the store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/report"
	"expenses/internal/sheets"
)

// ErrMirror marks a refresh whose CSV file was written but whose
// spreadsheet copy failed.
var ErrMirror = errors.New("mirror to sheets")

// Source lists every record to export.
type Source interface {
	ListAll(ctx context.Context) ([]core.Expense, error)
}

// ExportWorker regenerates the CSV export and, when a mirror is set, the
// spreadsheet copy of the same table.
type ExportWorker struct {
	source Source
	path   string
	mirror sheets.TableWriter
	logger *slog.Logger

	// one refresh at a time; events and the schedule may overlap
	mu sync.Mutex
}

func NewExportWorker(source Source, path string, mirror sheets.TableWriter) *ExportWorker {
	return &ExportWorker{
		source: source,
		path:   path,
		mirror: mirror,
		logger: slog.Default().With("component", "export_worker"),
	}
}

// Refresh rewrites the export file atomically and updates the mirror. It
// returns the number of records exported.
func (w *ExportWorker) Refresh(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	records, err := w.source.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}
	rows := report.TabularExport(records)

	if err := writeFileAtomic(w.path, rows); err != nil {
		return 0, err
	}

	if w.mirror != nil {
		if err := w.mirror.ReplaceTable(ctx, report.Header, report.Records(rows)); err != nil {
			return len(rows), fmt.Errorf("%w: %w", ErrMirror, err)
		}
	}

	w.logger.InfoContext(ctx, "Export refreshed",
		"path", w.path,
		"rows", len(rows),
		"mirrored", w.mirror != nil,
		"duration", time.Since(start))
	return len(rows), nil
}

// HandleEvent refreshes on every change notification. Returning an error
// requeues the event. A failed mirror does not: the file is current and
// the schedule retries the spreadsheet.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev amqp.ExpenseEvent) error {
	w.logger.DebugContext(ctx, "Change event received",
		"event_id", ev.ID,
		"type", ev.Type,
		"expense_id", ev.ExpenseID)
	_, err := w.Refresh(ctx)
	if errors.Is(err, ErrMirror) {
		w.logger.WarnContext(ctx, "Export written, spreadsheet mirror failed",
			"event_id", ev.ID,
			"error", err)
		return nil
	}
	return err
}

// RunScheduled refreshes on the cron spec until ctx is done.
func (w *ExportWorker) RunScheduled(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := w.Refresh(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled export failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}

	c.Start()
	w.logger.InfoContext(ctx, "Export schedule started", "schedule", spec)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func writeFileAtomic(path string, rows []report.Row) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := report.WriteCSV(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace export: %w", err)
	}
	return nil
}
