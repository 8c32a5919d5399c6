package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"ecommify/internal/app"
	"ecommify/internal/domain/calendar"
	"ecommify/internal/domain/day"
	"ecommify/internal/domain/reminder"
	"ecommify/internal/infra/config"
)

const (
	uniqueReminderToggle = "rem_toggle"
	uniqueReminderDelete = "rem_delete"
	uniqueNoteDelete     = "note_delete"
)

// CalendarService is the part of the calendar service the bot drives.
type CalendarService interface {
	Month(ctx context.Context, year int, month time.Month, today day.Date) (calendar.Month, error)
	Day(ctx context.Context, d day.Date, today day.Date) (calendar.Cell, error)
	Overdue(ctx context.Context, today day.Date) ([]reminder.Reminder, error)
	AddReminder(ctx context.Context, r *reminder.Reminder) error
	ToggleReminder(ctx context.Context, id string) (*reminder.Reminder, error)
	DeleteReminder(ctx context.Context, id string) error
	AddNote(ctx context.Context, n *reminder.Note) error
	DeleteNote(ctx context.Context, id string) error
	Today() day.Date
}

type CalendarHandlers struct {
	ctx     context.Context
	service CalendarService
	labels  *config.Labels
	logger  *logrus.Entry
}

func NewCalendarHandlers(ctx context.Context, svc CalendarService, labels *config.Labels, baseLogger *logrus.Entry) *CalendarHandlers {
	return &CalendarHandlers{
		ctx:     ctx,
		service: svc,
		labels:  labels,
		logger:  baseLogger.WithField("handler_group", "calendar"),
	}
}

func (h *CalendarHandlers) Register(b *telebot.Bot, mw telebot.MiddlewareFunc) {
	b.Handle("/calendar", h.handleCalendar, mw)
	b.Handle("/today", h.handleToday, mw)
	b.Handle("/day", h.handleDay, mw)
	b.Handle("/overdue", h.handleOverdue, mw)
	b.Handle("/remind", h.handleRemind, mw)
	b.Handle("/note", h.handleNote, mw)
	b.Handle(&telebot.Btn{Unique: uniqueReminderToggle}, h.handleToggle, mw)
	b.Handle(&telebot.Btn{Unique: uniqueReminderDelete}, h.handleDeleteReminder, mw)
	b.Handle(&telebot.Btn{Unique: uniqueNoteDelete}, h.handleDeleteNote, mw)
}

func (h *CalendarHandlers) request() (context.Context, context.CancelFunc) {
	return context.WithTimeout(h.ctx, requestTimeout)
}

func (h *CalendarHandlers) handlerLogger(c telebot.Context, handler string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{"handler": handler, "sender_id": c.Sender().ID})
}

func (h *CalendarHandlers) handleCalendar(c telebot.Context) error {
	today := h.service.Today()
	period := today.Period()
	if len(c.Args()) > 0 {
		p, err := day.ParsePeriod(c.Args()[0])
		if err != nil {
			return c.Send(userMessage(err))
		}
		period = p
	}

	ctx, cancel := h.request()
	defer cancel()
	m, err := h.service.Month(ctx, period.Year, period.Month, today)
	if err != nil {
		h.handlerLogger(c, "/calendar").WithError(err).Error("Failed to build month")
		return c.Send(userMessage(err))
	}
	return c.Send(formatMonth(m))
}

func (h *CalendarHandlers) handleToday(c telebot.Context) error {
	return h.sendDay(c, "/today", h.service.Today(), true)
}

func (h *CalendarHandlers) handleDay(c telebot.Context) error {
	if len(c.Args()) != 1 {
		return c.Send("Niepoprawny format. Uzyj: /day RRRR-MM-DD")
	}
	d, err := day.Parse(c.Args()[0])
	if err != nil {
		return c.Send(userMessage(err))
	}
	return h.sendDay(c, "/day", d, false)
}

func (h *CalendarHandlers) sendDay(c telebot.Context, handler string, d day.Date, withOverdue bool) error {
	log := h.handlerLogger(c, handler).WithField("date", d.String())
	today := h.service.Today()

	ctx, cancel := h.request()
	defer cancel()
	cell, err := h.service.Day(ctx, d, today)
	if err != nil {
		log.WithError(err).Error("Failed to build day")
		return c.Send(userMessage(err))
	}
	var overdue []reminder.Reminder
	if withOverdue {
		if overdue, err = h.service.Overdue(ctx, today); err != nil {
			log.WithError(err).Error("Failed to list overdue reminders")
			return c.Send(userMessage(err))
		}
	}
	return c.Send(app.FormatDay(cell, overdue, h.labels), dayMarkup(cell))
}

// dayMarkup offers toggle and delete buttons for the stored reminders and notes of a cell.
func dayMarkup(cell calendar.Cell) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	for _, r := range cell.Reminders {
		mark := "[ ]"
		if r.Done {
			mark = "[x]"
		}
		rows = append(rows, m.Row(
			m.Data(mark+" "+r.Title, uniqueReminderToggle, r.ID),
			m.Data("Usun", uniqueReminderDelete, r.ID),
		))
	}
	for _, n := range cell.Notes {
		rows = append(rows, m.Row(m.Data("Usun notatke: "+truncate(n.Content, 24), uniqueNoteDelete, n.ID)))
	}
	m.Inline(rows...)
	return m
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

func (h *CalendarHandlers) handleOverdue(c telebot.Context) error {
	ctx, cancel := h.request()
	defer cancel()
	list, err := h.service.Overdue(ctx, h.service.Today())
	if err != nil {
		h.handlerLogger(c, "/overdue").WithError(err).Error("Failed to list overdue reminders")
		return c.Send(userMessage(err))
	}
	if len(list) == 0 {
		return c.Send("Brak zaleglych przypomnien.")
	}
	var b strings.Builder
	b.WriteString("Zalegle przypomnienia:\n")
	for _, r := range list {
		fmt.Fprintf(&b, "- %s %s\n", r.Date, app.FormatReminder(r, h.labels))
	}
	m := &telebot.ReplyMarkup{}
	var btns []telebot.Btn
	for _, r := range list {
		btns = append(btns, m.Data("Zrobione: "+truncate(r.Title, 24), uniqueReminderToggle, r.ID))
	}
	m.Inline(m.Split(1, btns)...)
	return c.Send(strings.TrimRight(b.String(), "\n"), m)
}

func senderName(c telebot.Context) string {
	u := c.Sender()
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

func (h *CalendarHandlers) handleRemind(c telebot.Context) error {
	log := h.handlerLogger(c, "/remind")

	r, err := parseReminderArgs(c.Args())
	if err != nil {
		return c.Send(userMessage(err))
	}
	r.CreatedBy = senderName(c)

	ctx, cancel := h.request()
	defer cancel()
	if err := h.service.AddReminder(ctx, r); err != nil {
		log.WithError(err).Warn("Reminder rejected")
		return c.Send(userMessage(err))
	}
	log.WithField("reminder_id", r.ID).Info("Reminder added")
	return c.Send(fmt.Sprintf("Dodano przypomnienie na %s: %s", r.Date, app.FormatReminder(*r, h.labels)))
}

func (h *CalendarHandlers) handleNote(c telebot.Context) error {
	args := c.Args()
	n := &reminder.Note{CreatedBy: senderName(c)}
	if len(args) > 1 {
		if d, err := day.Parse(args[0]); err == nil {
			n.Date = d
			args = args[1:]
		}
	}
	n.Content = strings.Join(args, " ")

	ctx, cancel := h.request()
	defer cancel()
	if err := h.service.AddNote(ctx, n); err != nil {
		h.handlerLogger(c, "/note").WithError(err).Warn("Note rejected")
		return c.Send(userMessage(err))
	}
	return c.Send(fmt.Sprintf("Dodano notatke na %s.", n.Date))
}

func (h *CalendarHandlers) handleToggle(c telebot.Context) error {
	ctx, cancel := h.request()
	defer cancel()
	r, err := h.service.ToggleReminder(ctx, c.Callback().Data)
	if err != nil {
		h.handlerLogger(c, uniqueReminderToggle).WithError(err).Warn("Toggle failed")
		return c.Respond(&telebot.CallbackResponse{Text: userMessage(err), ShowAlert: true})
	}
	state := "do zrobienia"
	if r.Done {
		state = "zrobione"
	}
	return c.Respond(&telebot.CallbackResponse{Text: r.Title + ": " + state})
}

func (h *CalendarHandlers) handleDeleteReminder(c telebot.Context) error {
	ctx, cancel := h.request()
	defer cancel()
	if err := h.service.DeleteReminder(ctx, c.Callback().Data); err != nil {
		h.handlerLogger(c, uniqueReminderDelete).WithError(err).Warn("Delete failed")
		return c.Respond(&telebot.CallbackResponse{Text: userMessage(err), ShowAlert: true})
	}
	return c.Respond(&telebot.CallbackResponse{Text: "Przypomnienie usuniete."})
}

func (h *CalendarHandlers) handleDeleteNote(c telebot.Context) error {
	ctx, cancel := h.request()
	defer cancel()
	if err := h.service.DeleteNote(ctx, c.Callback().Data); err != nil {
		h.handlerLogger(c, uniqueNoteDelete).WithError(err).Warn("Delete failed")
		return c.Respond(&telebot.CallbackResponse{Text: userMessage(err), ShowAlert: true})
	}
	return c.Respond(&telebot.CallbackResponse{Text: "Notatka usunieta."})
}
