// Package report turns expense records into the shapes the front ends
// render: a monthly summary for charts and dashboards, and a flat table
// for delimited-text export.
package report

import (
	"expenses/internal/core"
)

// Summary is the total and category breakdown for one named period.
type Summary struct {
	Label     string                `json:"label"`
	Total     core.Money            `json:"total"`
	Breakdown map[string]core.Money `json:"breakdown"`
	Shares    map[string]float64    `json:"shares"`
	Count     int                   `json:"count"`
}

// MonthlySummary composes Total and GroupByCategory for a named period.
// An empty input yields a zero total and an empty, non-nil breakdown.
func MonthlySummary(records []core.Expense, label string) Summary {
	breakdown := core.GroupByCategory(records)
	return Summary{
		Label:     label,
		Total:     core.Total(records),
		Breakdown: breakdown,
		Shares:    core.PercentageShares(breakdown),
		Count:     len(records),
	}
}

// Categories returns the breakdown ordered for display.
func (s Summary) Categories() []core.CategoryAmount {
	return core.SortedCategories(s.Breakdown)
}

// IsEmpty reports whether the period had no records.
func (s Summary) IsEmpty() bool {
	return s.Count == 0
}

// Row is one record of the tabular export.
type Row struct {
	ID       int64
	Date     core.Date
	Amount   core.Money
	Category string
	Note     string
}

// TabularExport flattens records into rows, preserving input order.
func TabularExport(records []core.Expense) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			ID:       r.ID,
			Date:     r.Date,
			Amount:   r.Amount,
			Category: r.Category,
			Note:     r.Note,
		}
	}
	return rows
}

// ToExpenses is the inverse of TabularExport.
func ToExpenses(rows []Row) []core.Expense {
	out := make([]core.Expense, len(rows))
	for i, r := range rows {
		out[i] = core.Expense{
			ID:       r.ID,
			Date:     r.Date,
			Amount:   r.Amount,
			Category: r.Category,
			Note:     r.Note,
		}
	}
	return out
}
