package core

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the canonical storage and input format for dates.
const DateLayout = "2006-01-02"

// DefaultCategory is used when an expense is entered without a category.
const DefaultCategory = "Other"

// Categories is the suggested closed set offered by the front ends.
// Stores accept any label.
var Categories = []string{"Food", "Transport", "Utilities", "Entertainment", "Shopping", "Health", "Other"}

type (
	// Date is a calendar date without timezone semantics (always UTC midnight).
	Date struct {
		time.Time
	}

	// Expense is a single logged expense record.
	Expense struct {
		ID       int64  `json:"id"`
		Date     Date   `json:"date"`
		Amount   Money  `json:"amount"`
		Category string `json:"category"`
		Note     string `json:"note"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, &ValidationError{Field: "date", Err: ErrMissingDate}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "date", Err: ErrMissingDate}
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseExpense builds an expense from raw form values. The returned
// expense has no ID; the store assigns one.
func ParseExpense(date, amount, category, note string) (Expense, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Expense{}, err
	}
	m, err := ParseMoney(amount)
	if err != nil {
		return Expense{}, err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}
	return Expense{
		Date:     d,
		Amount:   m,
		Category: category,
		Note:     note,
	}, nil
}

// Validate checks the fields a store requires. Amount is always present
// once parsed; zero and negative values are accepted.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}
