package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"expenses/internal/core"
)

// Header is the first line of every export.
var Header = []string{"ID", "Date", "Amount", "Category", "Note"}

// ErrBadHeader is returned by ReadCSV when the first line is not Header.
var ErrBadHeader = errors.New("unexpected csv header")

// Strings renders the row in Header order.
func (r Row) Strings() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Date.String(),
		r.Amount.String(),
		r.Category,
		r.Note,
	}
}

// Records renders rows as string slices without the header, for
// spreadsheet writers.
func Records(rows []Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Strings()
	}
	return out
}

// WriteCSV writes the header followed by one line per row. No aggregate
// row is appended.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings()); err != nil {
			return fmt.Errorf("write row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses an export produced by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, ErrBadHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range Header {
		if head[i] != h {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i+1, head[i], h)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (Row, error) {
	id, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return Row{}, &core.ValidationError{Field: "id", Err: core.ErrInvalidID}
	}
	date, err := core.ParseDate(rec[1])
	if err != nil {
		return Row{}, err
	}
	amount, err := core.ParseMoney(rec[2])
	if err != nil {
		return Row{}, err
	}
	return Row{ID: id, Date: date, Amount: amount, Category: rec[3], Note: rec[4]}, nil
}
