package app

import (
	"fmt"
	"strings"

	"ecommify/internal/domain/calendar"
	"ecommify/internal/domain/reminder"
	"ecommify/internal/infra/config"
)

// FormatDigest renders the pipeline digest for operators.
func FormatDigest(d Digest) string {
	var b strings.Builder
	b.WriteString("Kontrola realizacji zamowien\n")
	if d.Is15th && d.WaitingForReminder > 0 {
		fmt.Fprintf(&b, "\nDzis 15. dzien miesiaca: %d zamowien z %s czeka na przypomnienie.\nUzyj /bulk_remind %s\n",
			d.WaitingForReminder, d.PrevMonth, d.PrevMonth)
	}
	if d.ReadyForCheck > 0 {
		fmt.Fprintf(&b, "\n%d zamowien gotowych do sprawdzenia platnosci.\n", d.ReadyForCheck)
	}
	if !d.ShowReminder {
		b.WriteString("\nBrak zadan.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatReminder renders one reminder line, e.g. "09:30 Zamowic kartony (Co tydzien)".
func FormatReminder(r reminder.Reminder, labels *config.Labels) string {
	var b strings.Builder
	if r.Time.Valid {
		b.WriteString(r.Time.String)
		b.WriteByte(' ')
	}
	b.WriteString(r.Title)
	if r.Recurring != reminder.RecurNone {
		fmt.Fprintf(&b, " (%s)", labels.RecurrenceName(r.Recurring))
	}
	if r.Done {
		b.WriteString(" [zrobione]")
	}
	return b.String()
}

// FormatDay renders a calendar cell with an optional list of overdue reminders.
func FormatDay(c calendar.Cell, overdue []reminder.Reminder, labels *config.Labels) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Kalendarz na %s\n", c.Date)

	if len(c.Reminders) == 0 {
		b.WriteString("\nBrak przypomnien na ten dzien\n")
	} else {
		b.WriteString("\nPrzypomnienia:\n")
		for _, r := range c.Reminders {
			fmt.Fprintf(&b, "- %s\n", FormatReminder(r, labels))
		}
	}
	if len(c.Notes) > 0 {
		b.WriteString("\nNotatki:\n")
		for _, n := range c.Notes {
			fmt.Fprintf(&b, "- %s\n", n.Content)
		}
	}
	if len(overdue) > 0 {
		b.WriteString("\nZalegle:\n")
		for _, r := range overdue {
			fmt.Fprintf(&b, "- %s %s\n", r.Date, FormatReminder(r, labels))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
