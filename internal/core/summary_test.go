package core

import (
	"testing"
	"time"
)

func mustMoney(t *testing.T, s string) Money {
	t.Helper()
	m, err := ParseMoney(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func TestTotalAndGroupByCategory(t *testing.T) {
	if !Total(nil).IsZero() {
		t.Fatalf("empty total should be zero")
	}
	if len(GroupByCategory(nil)) != 0 {
		t.Fatalf("empty breakdown should be empty")
	}

	records := []Expense{
		{Date: NewDate(2024, 3, 5), Amount: mustMoney(t, "42.50"), Category: "Food"},
		{Date: NewDate(2024, 3, 10), Amount: mustMoney(t, "10.00"), Category: "Transport"},
		{Date: NewDate(2024, 3, 11), Amount: mustMoney(t, "0.10"), Category: "Food"},
		{Date: NewDate(2024, 3, 12), Amount: mustMoney(t, "-2.60"), Category: "Shopping"},
	}

	total := Total(records)
	if !total.Equal(mustMoney(t, "50")) {
		t.Fatalf("unexpected total %s", total)
	}

	sums := GroupByCategory(records)
	if len(sums) != 3 {
		t.Fatalf("expected 3 categories, got %v", sums)
	}
	if !sums["Food"].Equal(mustMoney(t, "42.60")) {
		t.Fatalf("unexpected Food sum %s", sums["Food"])
	}
	if _, ok := sums["Health"]; ok {
		t.Fatalf("absent categories must not be zero-filled")
	}
	if !SumCategories(sums).Equal(total) {
		t.Fatalf("breakdown sum %s != total %s", SumCategories(sums), total)
	}
}

func TestSumOfBreakdownEqualsTotalForManySmallAmounts(t *testing.T) {
	cats := []string{"Food", "Transport", "Utilities"}
	var records []Expense
	for i := 0; i < 3000; i++ {
		records = append(records, Expense{
			Date:     NewDate(2024, 1, 1+i%28),
			Amount:   MoneyFromCents(int64(i%97) + 1),
			Category: cats[i%len(cats)],
		})
	}
	if !SumCategories(GroupByCategory(records)).Equal(Total(records)) {
		t.Fatalf("breakdown and total diverged")
	}
}

func TestPercentageShares(t *testing.T) {
	sums := map[string]Money{
		"Food":      mustMoney(t, "75"),
		"Transport": mustMoney(t, "25"),
	}
	shares := PercentageShares(sums)
	if shares["Food"] != 75 || shares["Transport"] != 25 {
		t.Fatalf("unexpected shares %v", shares)
	}

	thirds := PercentageShares(map[string]Money{
		"A": mustMoney(t, "1"), "B": mustMoney(t, "1"), "C": mustMoney(t, "1"),
	})
	if thirds["A"] != 33.33 {
		t.Fatalf("expected 33.33, got %v", thirds["A"])
	}

	if got := PercentageShares(map[string]Money{}); len(got) != 0 {
		t.Fatalf("empty input should give empty shares, got %v", got)
	}
	zero := PercentageShares(map[string]Money{"A": mustMoney(t, "5"), "B": mustMoney(t, "-5")})
	if len(zero) != 0 {
		t.Fatalf("zero total should give empty shares, got %v", zero)
	}
}

func TestFilterMonthAndSortedCategories(t *testing.T) {
	records := []Expense{
		{Date: NewDate(2024, 12, 31), Amount: mustMoney(t, "1"), Category: "B"},
		{Date: NewDate(2025, 1, 1), Amount: mustMoney(t, "2"), Category: "A"},
		{Date: NewDate(2024, 12, 1), Amount: mustMoney(t, "3"), Category: "A"},
		{Date: NewDate(2024, 11, 30), Amount: mustMoney(t, "4"), Category: "C"},
	}
	dec := FilterMonth(records, Month{Year: 2024, Month: time.December})
	if len(dec) != 2 || dec[0].Amount.String() != "1" || dec[1].Amount.String() != "3" {
		t.Fatalf("unexpected december records %+v", dec)
	}

	sorted := SortedCategories(GroupByCategory(dec))
	if len(sorted) != 2 || sorted[0].Name != "A" || sorted[1].Name != "B" {
		t.Fatalf("unexpected order %+v", sorted)
	}
	if sorted[0].Share != 75 {
		t.Fatalf("unexpected share %v", sorted[0].Share)
	}
}
