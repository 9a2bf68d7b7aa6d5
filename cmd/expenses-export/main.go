// Command expenses-export writes the expense table to a CSV file once.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"expenses/internal/cli"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/report"
	"expenses/internal/services"
)

func main() {
	out := flag.String("out", "monthly_report.csv", "output file")
	year := flag.Int("year", 0, "restrict the export to this year (requires -month)")
	month := flag.Int("month", 0, "restrict the export to this month, 1-12 (requires -year)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentExport)
	cfg := cli.LoadAndValidateConfig(logger)

	// The exporter never publishes events.
	cfg.AMQPURL = ""

	ctx := context.Background()
	be := cli.InitBackend(ctx, logger, cfg)

	n, err := run(ctx, be.Service, *out, *year, *month)
	cli.RunCleanup(logger, "backend", be.Cleanup)
	if err != nil {
		logger.Error("Export failed", "error", err)
		os.Exit(1)
	}
	if n == 0 {
		fmt.Println("No data to export.")
		return
	}
	fmt.Printf("Exported %d records to %s\n", n, *out)
}

// run writes nothing when the selection is empty.
func run(ctx context.Context, svc *services.ExpenseService, out string, year, month int) (int, error) {
	var (
		records []core.Expense
		err     error
	)
	if year != 0 || month != 0 {
		var m core.Month
		if m, err = core.NewMonth(year, month); err != nil {
			return 0, fmt.Errorf("-year/-month: %w", err)
		}
		records, err = svc.ListMonth(ctx, m)
	} else {
		records, err = svc.ListAll(ctx)
	}
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", out, err)
	}

	err = report.WriteCSV(f, report.TabularExport(records))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
