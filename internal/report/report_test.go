package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	require.NoError(t, err)
	return m
}

func TestMonthlySummary_MarchScenario(t *testing.T) {
	records := []core.Expense{
		{ID: 2, Date: core.NewDate(2024, 3, 10), Amount: money(t, "10.00"), Category: "Transport"},
		{ID: 1, Date: core.NewDate(2024, 3, 5), Amount: money(t, "42.50"), Category: "Food", Note: "lunch"},
	}

	s := MonthlySummary(records, "March 2024")

	assert.Equal(t, "March 2024", s.Label)
	assert.True(t, s.Total.Equal(money(t, "52.50")), "total %s", s.Total)
	require.Len(t, s.Breakdown, 2)
	assert.True(t, s.Breakdown["Food"].Equal(money(t, "42.50")))
	assert.True(t, s.Breakdown["Transport"].Equal(money(t, "10.00")))
	assert.Equal(t, 2, s.Count)
	assert.False(t, s.IsEmpty())

	cats := s.Categories()
	require.Len(t, cats, 2)
	assert.Equal(t, "Food", cats[0].Name)
}

func TestMonthlySummary_Empty(t *testing.T) {
	s := MonthlySummary(nil, "April 2024")

	assert.True(t, s.Total.IsZero())
	assert.NotNil(t, s.Breakdown)
	assert.Empty(t, s.Breakdown)
	assert.Empty(t, s.Shares)
	assert.True(t, s.IsEmpty())
}

func TestTabularExportPreservesOrder(t *testing.T) {
	records := []core.Expense{
		{ID: 3, Date: core.NewDate(2024, 3, 12), Amount: money(t, "1"), Category: "A"},
		{ID: 1, Date: core.NewDate(2024, 3, 1), Amount: money(t, "2"), Category: "B"},
		{ID: 2, Date: core.NewDate(2024, 3, 7), Amount: money(t, "3"), Category: "C"},
	}
	rows := TabularExport(records)
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, records, ToExpenses(rows))
}

func TestWriteCSV(t *testing.T) {
	rows := TabularExport([]core.Expense{
		{ID: 1, Date: core.NewDate(2024, 3, 5), Amount: money(t, "42.50"), Category: "Food", Note: "lunch, with team"},
		{ID: 2, Date: core.NewDate(2024, 3, 10), Amount: money(t, "10"), Category: "Transport"},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	want := "ID,Date,Amount,Category,Note\n" +
		"1,2024-03-05,42.5,Food,\"lunch, with team\"\n" +
		"2,2024-03-10,10,Transport,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_EmptyHasOnlyHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "ID,Date,Amount,Category,Note\n", buf.String())
}

func TestCSVRoundTrip(t *testing.T) {
	records := []core.Expense{
		{ID: 10, Date: core.NewDate(2024, 12, 31), Amount: money(t, "-3.333"), Category: "Other", Note: "refund \"partial\""},
		{ID: 4, Date: core.NewDate(2024, 1, 1), Amount: money(t, "0"), Category: "Health", Note: ""},
		{ID: 5, Date: core.NewDate(2023, 6, 15), Amount: money(t, "1234567.89"), Category: "custom label", Note: "multi\nline"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, TabularExport(records)))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	back := ToExpenses(rows)
	require.Len(t, back, len(records))
	for i := range records {
		assert.Equal(t, records[i].ID, back[i].ID)
		assert.Equal(t, records[i].Date.String(), back[i].Date.String())
		assert.True(t, records[i].Amount.Equal(back[i].Amount), "amount %s vs %s", records[i].Amount, back[i].Amount)
		assert.Equal(t, records[i].Category, back[i].Category)
		assert.Equal(t, records[i].Note, back[i].Note)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrBadHeader)

	_, err = ReadCSV(strings.NewReader("id,date,amount,category,note\n"))
	assert.ErrorIs(t, err, ErrBadHeader)

	_, err = ReadCSV(strings.NewReader("ID,Date,Amount,Category,Note\n1,2024-03-05,abc,Food,\n"))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = ReadCSV(strings.NewReader("ID,Date,Amount,Category,Note\n1,2024-03-05,1\n"))
	assert.Error(t, err)
}
