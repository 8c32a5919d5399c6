// internal/domain/day/period.go
package day

import (
	"fmt"
	"time"
)

// PeriodLayout is the "YYYY-MM" format of a reporting period (the source month
// of a fulfillment record).
const PeriodLayout = "2006-01"

// Period is a calendar month used as a reporting period.
type Period struct {
	Year  int
	Month time.Month
}

var ErrInvalidPeriod = fmt.Errorf("invalid period")

func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(PeriodLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("%w %q: %v", ErrInvalidPeriod, s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period containing t in t's location.
func PeriodOf(t time.Time) Period {
	return Of(t).Period()
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p == Period{}
}

func (p Period) Prev() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

func (p Period) Contains(d Date) bool {
	return d.Year == p.Year && d.Month == p.Month
}

func (p Period) First() Date {
	return Date{Year: p.Year, Month: p.Month, Day: 1}
}

func (p Period) Last() Date {
	return Date{Year: p.Year, Month: p.Month, Day: DaysIn(p.Year, p.Month)}
}
