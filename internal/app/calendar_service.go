// internal/app/calendar_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ecommify/internal/domain/calendar"
	"ecommify/internal/domain/day"
	"ecommify/internal/domain/reminder"
)

type CalendarService struct {
	reminders reminder.Repository
	notes     reminder.NoteRepository
	logger    *logrus.Entry
	now       func() time.Time
}

func NewCalendarService(rr reminder.Repository, nr reminder.NoteRepository, logger *logrus.Entry, clock func() time.Time) *CalendarService {
	if clock == nil {
		clock = time.Now
	}
	return &CalendarService{
		reminders: rr,
		notes:     nr,
		logger:    logger.WithField("service", "calendar"),
		now:       clock,
	}
}

// Today is the current civil date by the service clock.
func (s *CalendarService) Today() day.Date {
	return day.Of(s.now())
}

func (s *CalendarService) allReminders(ctx context.Context) ([]reminder.Reminder, error) {
	list, err := s.reminders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	out := make([]reminder.Reminder, 0, len(list))
	for _, r := range list {
		out = append(out, *r)
	}
	return out, nil
}

// Month builds the calendar grid for year/month as seen from today.
func (s *CalendarService) Month(ctx context.Context, year int, month time.Month, today day.Date) (calendar.Month, error) {
	rs, err := s.allReminders(ctx)
	if err != nil {
		return calendar.Month{}, err
	}
	noteList, err := s.notes.ListByPeriod(ctx, day.Period{Year: year, Month: month})
	if err != nil {
		return calendar.Month{}, fmt.Errorf("failed to list notes for %d-%02d: %w", year, month, err)
	}
	ns := make([]reminder.Note, 0, len(noteList))
	for _, n := range noteList {
		ns = append(ns, *n)
	}

	return calendar.Build(calendar.Query{
		Year:      year,
		Month:     month,
		Today:     today,
		Reminders: rs,
		Notes:     ns,
	})
}

// Day returns the single cell of d.
func (s *CalendarService) Day(ctx context.Context, d day.Date, today day.Date) (calendar.Cell, error) {
	m, err := s.Month(ctx, d.Year, d.Month, today)
	if err != nil {
		return calendar.Cell{}, err
	}
	c, ok := m.Cell(d)
	if !ok {
		return calendar.Cell{}, fmt.Errorf("date %s outside of built month", d)
	}
	return c, nil
}

// Overdue lists the one-off reminders left undone before today.
func (s *CalendarService) Overdue(ctx context.Context, today day.Date) ([]reminder.Reminder, error) {
	rs, err := s.allReminders(ctx)
	if err != nil {
		return nil, err
	}
	return reminder.Overdue(rs, today), nil
}

func (s *CalendarService) AddReminder(ctx context.Context, r *reminder.Reminder) error {
	if r.Recurring == "" {
		r.Recurring = reminder.RecurNone
	}
	if err := r.Validate(); err != nil {
		return err
	}
	r.ID = uuid.NewString()
	r.Done = false
	r.CreatedAt = s.now()
	if err := s.reminders.Create(ctx, r); err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"reminder_id": r.ID,
		"date":        r.Date.String(),
		"recurring":   r.Recurring,
	}).Info("Reminder added.")
	return nil
}

// ToggleReminder flips the done flag of the stored reminder.
func (s *CalendarService) ToggleReminder(ctx context.Context, id string) (*reminder.Reminder, error) {
	r, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reminder.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load reminder %s: %w", id, err)
	}
	r.Done = !r.Done
	if err := s.reminders.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update reminder %s: %w", id, err)
	}
	s.logger.WithFields(logrus.Fields{"reminder_id": id, "done": r.Done}).Info("Reminder toggled.")
	return r, nil
}

func (s *CalendarService) DeleteReminder(ctx context.Context, id string) error {
	if err := s.reminders.Delete(ctx, id); err != nil {
		if errors.Is(err, reminder.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete reminder %s: %w", id, err)
	}
	s.logger.WithField("reminder_id", id).Info("Reminder deleted.")
	return nil
}

// AddNote pins a note to its date, or to today when no date is given.
func (s *CalendarService) AddNote(ctx context.Context, n *reminder.Note) error {
	n.Content = strings.TrimSpace(n.Content)
	if n.Content == "" {
		return reminder.ErrEmptyNote
	}
	if n.Date.IsZero() {
		n.Date = s.Today()
	}
	n.ID = uuid.NewString()
	n.CreatedAt = s.now()
	if err := s.notes.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"note_id": n.ID, "date": n.Date.String()}).Info("Note added.")
	return nil
}

func (s *CalendarService) DeleteNote(ctx context.Context, id string) error {
	if err := s.notes.Delete(ctx, id); err != nil {
		if errors.Is(err, reminder.ErrNoteNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	s.logger.WithField("note_id", id).Info("Note deleted.")
	return nil
}
