// Package sheets defines the spreadsheet mirror the export worker writes to.
package sheets

import "context"

// TableWriter replaces the whole contents of a sheet with header and rows.
type TableWriter interface {
	ReplaceTable(ctx context.Context, header []string, rows [][]string) error
}
