package telegram

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/telebot.v3"

	"ecommify/internal/app"
	"ecommify/internal/domain/calendar"
	"ecommify/internal/domain/day"
	"ecommify/internal/domain/fulfillment"
	"ecommify/internal/domain/order"
	"ecommify/internal/domain/reminder"
	"ecommify/internal/infra/config"
)

var plPrinter = message.NewPrinter(language.Polish)

var weekdaysPL = [...]string{"nd", "pn", "wt", "sr", "cz", "pt", "sb"}

func formatAmount(v float64) string {
	return plPrinter.Sprintf("%.2f zl", v)
}

// parsePeriodArg reads an optional YYYY-MM argument, defaulting to the month of now.
func parsePeriodArg(args []string, now time.Time) (day.Period, error) {
	if len(args) == 0 {
		return day.PeriodOf(now), nil
	}
	return day.ParsePeriod(args[0])
}

func formatRecord(rec *fulfillment.Record, labels *config.Labels) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s\n", labels.ShopName(rec.ShopID), rec.CustomerName)
	fmt.Fprintf(&b, "Zamowienie %s: %s\n", rec.OrderID, formatAmount(rec.OrderTotal))
	fmt.Fprintf(&b, "Etap: %s\n", labels.Stage(rec.Status))
	if rec.ExtraPayment > 0 {
		paid := "nieoplacona"
		if rec.ExtraPaymentPaid {
			paid = "oplacona"
		}
		fmt.Fprintf(&b, "Doplata: %s (%s)\n", formatAmount(rec.ExtraPayment), paid)
	}
	if rec.Status == fulfillment.StatusReminderSent {
		if rec.AutoCheckReady {
			b.WriteString("Gotowe do sprawdzenia platnosci\n")
		} else if rec.ReminderSentAt.Valid {
			fmt.Fprintf(&b, "Sprawdzenie platnosci za %d dni\n", rec.DaysUntilCheck)
		}
	}
	if rec.Notes != "" {
		fmt.Fprintf(&b, "Notatki: %s\n", rec.Notes)
	}
	return strings.TrimRight(b.String(), "\n")
}

func callbackUnique(a fulfillment.Action) string {
	return "ff_" + string(a)
}

// actionMarkup builds one inline button per action currently available on rec.
// The button payload is the record ID.
func actionMarkup(rec *fulfillment.Record, labels *config.Labels) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	var btns []telebot.Btn
	for _, a := range fulfillment.AvailableActions(*rec) {
		btns = append(btns, m.Data(labels.Action(a), callbackUnique(a), rec.ID))
	}
	m.Inline(m.Split(2, btns)...)
	return m
}

func formatMonth(m calendar.Month) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Kalendarz %s\n", day.Period{Year: m.Year, Month: m.Month})
	busy := m.Busy()
	if len(busy) == 0 {
		b.WriteString("\nBrak wpisow w tym miesiacu")
		return b.String()
	}
	b.WriteByte('\n')
	for _, c := range busy {
		fmt.Fprintf(&b, "%s (%s): %d przyp., %d notat.", c.Date, weekdaysPL[c.Date.Weekday()], len(c.Reminders), len(c.Notes))
		if c.HasOverdue {
			b.WriteString(" [!]")
		}
		if c.IsToday {
			b.WriteString(" <- dzis")
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseReminderArgs reads "YYYY-MM-DD [HH:MM] [daily|weekly|monthly] title...".
func parseReminderArgs(args []string) (*reminder.Reminder, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: expected a date and a title", reminder.ErrInvalidReminder)
	}
	d, err := day.Parse(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reminder.ErrInvalidReminder, err)
	}
	r := &reminder.Reminder{Date: d, Recurring: reminder.RecurNone}
	rest := args[1:]
	if len(rest) > 1 {
		if _, err := time.Parse("15:04", rest[0]); err == nil {
			r.Time = sql.NullString{String: rest[0], Valid: true}
			rest = rest[1:]
		}
	}
	if len(rest) > 1 {
		if rec, err := reminder.ParseRecurrence(rest[0]); err == nil {
			r.Recurring = rec
			rest = rest[1:]
		}
	}
	r.Title = strings.Join(rest, " ")
	return r, nil
}

// userMessage maps a service error to the text shown to the operator.
func userMessage(err error) string {
	switch {
	case errors.Is(err, fulfillment.ErrPreconditionFailed):
		return "Za wczesnie na sprawdzenie platnosci."
	case errors.Is(err, fulfillment.ErrInvalidTransition):
		return "Ta akcja nie jest dostepna na tym etapie."
	case errors.Is(err, fulfillment.ErrStale):
		return "Rekord zostal zmieniony w miedzyczasie. Odswiez liste."
	case errors.Is(err, fulfillment.ErrNotFound):
		return "Nie znaleziono rekordu."
	case errors.Is(err, fulfillment.ErrAlreadyInPipeline):
		return "To zamowienie jest juz w realizacji."
	case errors.Is(err, order.ErrNotFound):
		return "Nie znaleziono zamowienia."
	case errors.Is(err, app.ErrInvalidExtraPayment):
		return "Doplata musi byc nieujemna kwota."
	case errors.Is(err, reminder.ErrInvalidRecurrence):
		return "Nieznane powtarzanie. Uzyj: daily, weekly, monthly."
	case errors.Is(err, reminder.ErrInvalidReminder):
		return "Niepoprawne przypomnienie. Uzyj: /remind RRRR-MM-DD [GG:MM] [daily|weekly|monthly] tytul"
	case errors.Is(err, reminder.ErrNotFound):
		return "Nie znaleziono przypomnienia."
	case errors.Is(err, reminder.ErrNoteNotFound), errors.Is(err, fulfillment.ErrNoteNotFound):
		return "Nie znaleziono notatki."
	case errors.Is(err, reminder.ErrEmptyNote), errors.Is(err, fulfillment.ErrEmptyNote):
		return "Notatka nie moze byc pusta."
	case errors.Is(err, day.ErrInvalidPeriod):
		return "Niepoprawny miesiac. Uzyj formatu RRRR-MM."
	case errors.Is(err, day.ErrInvalidDate):
		return "Niepoprawna data. Uzyj formatu RRRR-MM-DD."
	default:
		return "Wystapil blad. Sprobuj ponownie pozniej."
	}
}
