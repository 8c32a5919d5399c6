// internal/domain/reminder/reminder.go
package reminder

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ecommify/internal/domain/day"
)

// Recurrence determines on which dates after its anchor a reminder repeats.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

var ErrInvalidRecurrence = fmt.Errorf("invalid recurrence")
var ErrInvalidReminder = fmt.Errorf("invalid reminder")
var ErrNotFound = fmt.Errorf("reminder not found")
var ErrNoteNotFound = fmt.Errorf("note not found")
var ErrEmptyNote = fmt.Errorf("note content is empty")

func (r Recurrence) Valid() bool {
	switch r {
	case RecurNone, RecurDaily, RecurWeekly, RecurMonthly:
		return true
	}
	return false
}

// ParseRecurrence accepts the stored values; an empty string means RecurNone.
func ParseRecurrence(s string) (Recurrence, error) {
	r := Recurrence(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return RecurNone, nil
	}
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
	}
	return r, nil
}

// Reminder is a dated calendar reminder, optionally recurring from its anchor date.
// Done applies to the stored reminder only, not to its recurring occurrences.
type Reminder struct {
	ID        string
	Title     string
	Date      day.Date       // anchor date
	Time      sql.NullString // optional "HH:MM"
	Recurring Recurrence
	Done      bool
	CreatedBy string
	CreatedAt time.Time
}

// Validate checks the fields an operator supplies when creating or editing a reminder.
func (r *Reminder) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalidReminder)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is empty", ErrInvalidReminder)
	}
	if !r.Recurring.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrence, r.Recurring)
	}
	if r.Time.Valid {
		if _, err := time.Parse("15:04", r.Time.String); err != nil {
			return fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidReminder, r.Time.String)
		}
	}
	return nil
}

// IsActive reports whether the reminder falls on d.
//
// The anchor date always matches. Otherwise a reminder only repeats forward from
// its anchor: daily on every later date, weekly on the same weekday, monthly on the
// same day of month. A monthly anchor on the 29th-31st has no occurrence in months
// lacking that day.
func IsActive(r Reminder, d day.Date) bool {
	if d == r.Date {
		return true
	}
	if r.Recurring == RecurNone {
		return false
	}
	if d.Before(r.Date) {
		return false
	}
	switch r.Recurring {
	case RecurDaily:
		return true
	case RecurWeekly:
		return d.Weekday() == r.Date.Weekday()
	case RecurMonthly:
		return d.Day == r.Date.Day
	default:
		return false
	}
}

// IsOverdue reports whether a one-off reminder was left undone before today.
// Recurring reminders are never overdue.
func IsOverdue(r Reminder, today day.Date) bool {
	return !r.Done && r.Recurring == RecurNone && r.Date.Before(today)
}

// ActiveOn filters rs down to the reminders active on d, keeping their order.
func ActiveOn(rs []Reminder, d day.Date) []Reminder {
	var out []Reminder
	for _, r := range rs {
		if IsActive(r, d) {
			out = append(out, r)
		}
	}
	return out
}

func Overdue(rs []Reminder, today day.Date) []Reminder {
	var out []Reminder
	for _, r := range rs {
		if IsOverdue(r, today) {
			out = append(out, r)
		}
	}
	return out
}
