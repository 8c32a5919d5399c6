// internal/domain/calendar/month.go
package calendar

import (
	"fmt"
	"time"

	"ecommify/internal/domain/day"
	"ecommify/internal/domain/reminder"
)

// Query asks for the reminders and notes of every date in one month.
// Reminders should be the full list, since recurring ones may be anchored in
// any earlier month. Notes are matched on their exact date.
type Query struct {
	Year      int
	Month     time.Month
	Today     day.Date
	Reminders []reminder.Reminder
	Notes     []reminder.Note
}

// Cell is one date of the displayed month.
type Cell struct {
	Date       day.Date
	Reminders  []reminder.Reminder
	Notes      []reminder.Note
	HasOverdue bool
	IsToday    bool
}

func (c Cell) Empty() bool {
	return len(c.Reminders) == 0 && len(c.Notes) == 0
}

// Month is the result of a Query: one Cell per date, in order.
type Month struct {
	Year  int
	Month time.Month
	Cells []Cell
}

var ErrInvalidMonth = fmt.Errorf("month must be between 1 and 12")

// Build evaluates the query. Each cell depends only on its own date.
func Build(q Query) (Month, error) {
	if q.Month < time.January || q.Month > time.December {
		return Month{}, fmt.Errorf("%w: got %d", ErrInvalidMonth, q.Month)
	}
	dates := day.MonthDates(q.Year, q.Month)
	m := Month{Year: q.Year, Month: q.Month, Cells: make([]Cell, len(dates))}
	for i, d := range dates {
		m.Cells[i] = buildCell(d, q)
	}
	return m, nil
}

func buildCell(d day.Date, q Query) Cell {
	c := Cell{
		Date:      d,
		Reminders: reminder.ActiveOn(q.Reminders, d),
		Notes:     reminder.NotesOn(q.Notes, d),
		IsToday:   d == q.Today,
	}
	if d.Before(q.Today) {
		for _, r := range c.Reminders {
			if !r.Done && r.Recurring == reminder.RecurNone {
				c.HasOverdue = true
				break
			}
		}
	}
	return c
}

// Cell returns the cell for d, or false when d is outside the month.
func (m Month) Cell(d day.Date) (Cell, bool) {
	if d.Year != m.Year || d.Month != m.Month || d.Day < 1 || d.Day > len(m.Cells) {
		return Cell{}, false
	}
	return m.Cells[d.Day-1], true
}

// LeadingBlanks is the number of empty grid slots before the 1st in a
// Monday-first week layout.
func (m Month) LeadingBlanks() int {
	wd := day.Date{Year: m.Year, Month: m.Month, Day: 1}.Weekday()
	return (int(wd) + 6) % 7
}

// Busy lists the cells with at least one reminder or note.
func (m Month) Busy() []Cell {
	var out []Cell
	for _, c := range m.Cells {
		if !c.Empty() {
			out = append(out, c)
		}
	}
	return out
}
