// internal/domain/day/date.go
package day

import (
	"fmt"
	"time"
)

// Layout is the ISO calendar date format used for stored and transmitted dates.
const Layout = "2006-01-02"

// Date is a civil calendar date without a time zone.
// The zero value is not a valid date; use Parse, New or Of.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New builds a Date, normalising out-of-range values the way time.Date does
// (e.g. 2024-02-30 becomes 2024-03-01).
func New(year int, month time.Month, d int) Date {
	return Of(time.Date(year, month, d, 0, 0, 0, 0, time.UTC))
}

// Of returns the date part of t in t's own location.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

var ErrInvalidDate = fmt.Errorf("invalid date")

// Parse reads a "YYYY-MM-DD" date.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return Of(t), nil
}

// MustParse is Parse for literals in tests and defaults.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// Weekday is computed on the proleptic Gregorian calendar, independent of any time zone.
func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

func (d Date) AddDays(n int) Date {
	return Of(d.Time(time.UTC).AddDate(0, 0, n))
}

// Period returns the reporting period the date belongs to.
func (d Date) Period() Period {
	return Period{Year: d.Year, Month: d.Month}
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthDates lists every date of the month in order.
func MonthDates(year int, month time.Month) []Date {
	n := DaysIn(year, month)
	dates := make([]Date, 0, n)
	for i := 1; i <= n; i++ {
		dates = append(dates, Date{Year: year, Month: month, Day: i})
	}
	return dates
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
