package core

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// Month identifies one calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth validates month (1..12) and builds a Month.
func NewMonth(year, month int) (Month, error) {
	m := Month{Year: year, Month: time.Month(month)}
	if err := m.Validate(); err != nil {
		return Month{}, err
	}
	return m, nil
}

// MonthOf returns the month a date falls in.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

// CurrentMonth returns the month containing t.
func CurrentMonth(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Validate() error {
	if m.Month < time.January || m.Month > time.December {
		return &ValidationError{Field: "month", Err: ErrInvalidMonth}
	}
	return nil
}

// Range returns the half-open interval [first of month, first of next month).
// December rolls over into January of the following year.
func (m Month) Range() (from, to Date) {
	first := now.New(time.Date(m.Year, m.Month, 1, 12, 0, 0, 0, time.UTC)).BeginningOfMonth()
	next := now.New(first).EndOfMonth().Add(time.Nanosecond)
	return Date{Time: first}, Date{Time: next}
}

// Contains reports whether d falls inside the month.
func (m Month) Contains(d Date) bool {
	from, to := m.Range()
	return !d.Before(from.Time) && d.Before(to.Time)
}

// Label renders e.g. "March 2024".
func (m Month) Label() string {
	from, _ := m.Range()
	return from.Format("January 2006")
}

// Key renders e.g. "2024-03"; used for cache keys.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) Next() Month {
	_, to := m.Range()
	return MonthOf(to)
}

func (m Month) Prev() Month {
	from, _ := m.Range()
	return MonthOf(Date{Time: from.AddDate(0, 0, -1)})
}
