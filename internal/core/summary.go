package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount Money   `json:"amount"`
	Share  float64 `json:"share"`
}

var hundred = decimal.NewFromInt(100)

// Total sums every amount. An empty input totals 0.
func Total(records []Expense) Money {
	var total Money
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// GroupByCategory sums amounts per distinct category. Categories that do
// not occur in records are absent from the result.
func GroupByCategory(records []Expense) map[string]Money {
	sums := make(map[string]Money)
	for _, r := range records {
		sums[r.Category] = sums[r.Category].Add(r.Amount)
	}
	return sums
}

// SumCategories totals a category breakdown.
func SumCategories(sums map[string]Money) Money {
	var total Money
	for _, m := range sums {
		total = total.Add(m)
	}
	return total
}

// PercentageShares divides each category sum by the breakdown total and
// scales to a percentage rounded to two places. When the total is zero the
// result is an empty map. Negative amounts are passed through, so shares
// may fall outside [0,100] if refunds are recorded.
func PercentageShares(sums map[string]Money) map[string]float64 {
	shares := make(map[string]float64, len(sums))
	total := SumCategories(sums)
	if total.IsZero() {
		return shares
	}
	for name, m := range sums {
		shares[name] = m.amount.Mul(hundred).Div(total.amount).Round(2).InexactFloat64()
	}
	return shares
}

// FilterMonth keeps the records dated within m, preserving order.
func FilterMonth(records []Expense, m Month) []Expense {
	out := make([]Expense, 0, len(records))
	for _, r := range records {
		if m.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// SortedCategories orders a breakdown by amount descending, then name,
// attaching each category's share.
func SortedCategories(sums map[string]Money) []CategoryAmount {
	shares := PercentageShares(sums)
	out := make([]CategoryAmount, 0, len(sums))
	for name, m := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: m, Share: shares[name]})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.amount.Cmp(out[j].Amount.amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
