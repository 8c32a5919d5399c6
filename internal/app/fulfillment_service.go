// internal/app/fulfillment_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ecommify/internal/domain/day"
	"ecommify/internal/domain/fulfillment"
	"ecommify/internal/domain/order"
)

var ErrInvalidExtraPayment = fmt.Errorf("extra payment must be a non-negative amount")

// BulkResult counts the outcome of a bulk reminder run.
type BulkResult struct {
	Updated int
	Skipped int // moved by another writer in the meantime
	Failed  int
}

// Digest summarizes what the operators should do about the pipeline today.
type Digest struct {
	Is15th             bool
	PrevMonth          day.Period
	WaitingForReminder int
	ReadyForCheck      int
	ShowReminder       bool
}

type FulfillmentService struct {
	records fulfillment.Repository
	orders  order.Repository
	notes   fulfillment.NoteRepository
	logger  *logrus.Entry
	grace   time.Duration
	now     func() time.Time
}

// Now returns the service clock's current time.
func (s *FulfillmentService) Now() time.Time { return s.now() }

// NewFulfillmentService wires the pipeline service. A nil clock means time.Now.
func NewFulfillmentService(
	records fulfillment.Repository,
	orders order.Repository,
	notes fulfillment.NoteRepository,
	logger *logrus.Entry,
	grace time.Duration,
	clock func() time.Time,
) *FulfillmentService {
	if clock == nil {
		clock = time.Now
	}
	return &FulfillmentService{
		records: records,
		orders:  orders,
		notes:   notes,
		logger:  logger.WithField("service", "fulfillment"),
		grace:   grace,
		now:     clock,
	}
}

// Push puts an order into the pipeline in the waiting stage and marks the order processing.
func (s *FulfillmentService) Push(ctx context.Context, orderID string, extraPayment float64, notes string) (*fulfillment.Record, error) {
	if math.IsNaN(extraPayment) || math.IsInf(extraPayment, 0) || extraPayment < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtraPayment, extraPayment)
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}

	now := s.now()
	rec := &fulfillment.Record{
		ID:           uuid.NewString(),
		OrderID:      o.ID,
		ShopID:       o.ShopID,
		CustomerName: o.CustomerName,
		OrderTotal:   o.Total,
		Status:       fulfillment.StatusWaiting,
		ExtraPayment: extraPayment,
		SourceMonth:  o.Date.Period(),
		Notes:        notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.records.Create(ctx, rec, fulfillment.OrderStatusOnPush); err != nil {
		if errors.Is(err, fulfillment.ErrAlreadyInPipeline) {
			s.logger.WithField("order_id", orderID).Info("Order is already in the pipeline. No action needed.")
			return nil, err
		}
		return nil, fmt.Errorf("failed to create fulfillment record for order %s: %w", orderID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"record_id":    rec.ID,
		"order_id":     orderID,
		"source_month": rec.SourceMonth.String(),
	}).Info("Order pushed into the pipeline.")
	rec.Annotate(now, s.grace)
	return rec, nil
}

// Apply performs one action on a record. The returned transition has Noop set when
// the record already was where the action leads.
func (s *FulfillmentService) Apply(ctx context.Context, id string, action fulfillment.Action) (*fulfillment.Record, fulfillment.Transition, error) {
	log := s.logger.WithFields(logrus.Fields{"record_id": id, "action": action})

	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, fulfillment.ErrNotFound) {
			return nil, fulfillment.Transition{}, &fulfillment.TransitionError{RecordID: id, Action: action, Err: fulfillment.ErrNotFound}
		}
		return nil, fulfillment.Transition{}, fmt.Errorf("failed to load fulfillment record %s: %w", id, err)
	}

	now := s.now()
	rec.Annotate(now, s.grace)

	t, err := fulfillment.Next(*rec, action)
	if err != nil {
		log.WithError(err).Warn("Action rejected.")
		return rec, fulfillment.Transition{}, err
	}
	if t.Noop {
		log.WithField("status", rec.Status).Info("Record already in target status. No action needed.")
		return rec, t, nil
	}

	updated := t.Apply(*rec, now)
	if err := s.records.ApplyTransition(ctx, &updated, t, fulfillment.OrderStatusAfter(t)); err != nil {
		if errors.Is(err, fulfillment.ErrStale) {
			log.Warn("Record changed concurrently, transition not written.")
			return rec, fulfillment.Transition{}, &fulfillment.TransitionError{RecordID: id, From: t.From, Action: action, Err: err}
		}
		return rec, fulfillment.Transition{}, fmt.Errorf("failed to persist %s on record %s: %w", action, id, err)
	}

	log.WithFields(logrus.Fields{"from": t.From, "to": t.To}).Info("Transition applied.")
	updated.Annotate(now, s.grace)
	return &updated, t, nil
}

func (s *FulfillmentService) Undo(ctx context.Context, id string) (*fulfillment.Record, fulfillment.Transition, error) {
	return s.Apply(ctx, id, fulfillment.ActionUndo)
}

// BulkSendReminders moves every waiting record of the period to reminder_sent.
// Records are handled one by one; a failure on one does not undo the others.
func (s *FulfillmentService) BulkSendReminders(ctx context.Context, period day.Period) (BulkResult, error) {
	log := s.logger.WithField("period", period.String())

	list, err := s.records.List(ctx, fulfillment.Filter{
		SourceMonth: period,
		Statuses:    []fulfillment.Status{fulfillment.StatusWaiting},
	})
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to list waiting records for %s: %w", period, err)
	}
	candidates := make([]fulfillment.Record, 0, len(list))
	for _, r := range list {
		candidates = append(candidates, *r)
	}
	candidates = fulfillment.SelectWaiting(candidates, period)

	var res BulkResult
	for _, rec := range candidates {
		if err := ctx.Err(); err != nil {
			log.WithField("updated", res.Updated).Warn("Bulk reminder run interrupted.")
			return res, err
		}
		t, err := fulfillment.Next(rec, fulfillment.ActionSendReminder)
		if err != nil {
			res.Failed++
			log.WithError(err).WithField("record_id", rec.ID).Error("Could not compute reminder transition.")
			continue
		}
		updated := t.Apply(rec, s.now())
		err = s.records.ApplyTransition(ctx, &updated, t, fulfillment.OrderStatusAfter(t))
		switch {
		case err == nil:
			res.Updated++
		case errors.Is(err, fulfillment.ErrStale):
			res.Skipped++
			log.WithField("record_id", rec.ID).Info("Record left waiting before the update. Skipping.")
		default:
			res.Failed++
			log.WithError(err).WithField("record_id", rec.ID).Error("Failed to mark reminder sent.")
		}
	}

	log.WithFields(logrus.Fields{
		"updated": res.Updated,
		"skipped": res.Skipped,
		"failed":  res.Failed,
	}).Info("Bulk reminder run finished.")
	return res, nil
}

// List returns the matching records with their scheduling hints filled in.
func (s *FulfillmentService) List(ctx context.Context, f fulfillment.Filter) ([]*fulfillment.Record, error) {
	list, err := s.records.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list fulfillment records: %w", err)
	}
	now := s.now()
	for _, r := range list {
		r.Annotate(now, s.grace)
	}
	return list, nil
}

// Remove takes a record out of the pipeline and returns its order to new.
func (s *FulfillmentService) Remove(ctx context.Context, id string) error {
	if _, err := s.records.GetByID(ctx, id); err != nil {
		if errors.Is(err, fulfillment.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to load fulfillment record %s: %w", id, err)
	}
	if err := s.records.Delete(ctx, id, fulfillment.OrderStatusOnRemove); err != nil {
		return fmt.Errorf("failed to delete fulfillment record %s: %w", id, err)
	}
	s.logger.WithField("record_id", id).Info("Record removed from the pipeline.")
	return nil
}

// AddNote pins a note to a pipeline month. ID and CreatedAt are assigned here.
func (s *FulfillmentService) AddNote(ctx context.Context, n *fulfillment.Note) error {
	if err := n.Validate(); err != nil {
		return err
	}
	n.ID = uuid.NewString()
	n.CreatedAt = s.now()
	if err := s.notes.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create pipeline note: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"note_id": n.ID, "source_month": n.SourceMonth.String()}).Info("Pipeline note added.")
	return nil
}

func (s *FulfillmentService) Notes(ctx context.Context, p day.Period) ([]*fulfillment.Note, error) {
	list, err := s.notes.ListByPeriod(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline notes for %s: %w", p, err)
	}
	return list, nil
}

func (s *FulfillmentService) DeleteNote(ctx context.Context, id string) error {
	if err := s.notes.Delete(ctx, id); err != nil {
		if errors.Is(err, fulfillment.ErrNoteNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete pipeline note %s: %w", id, err)
	}
	s.logger.WithField("note_id", id).Info("Pipeline note deleted.")
	return nil
}

// ReminderCheck builds the digest as of now: on the 15th the previous month's
// waiting records are due for a reminder, and any sent reminder past its grace
// period is ready for a payment check.
func (s *FulfillmentService) ReminderCheck(ctx context.Context, now time.Time) (Digest, error) {
	today := day.Of(now)
	d := Digest{
		Is15th:    today.Day == 15,
		PrevMonth: today.Period().Prev(),
	}

	counts, err := s.records.CountByStatus(ctx, fulfillment.Filter{
		SourceMonth: d.PrevMonth,
		Statuses:    []fulfillment.Status{fulfillment.StatusWaiting},
	})
	if err != nil {
		return Digest{}, fmt.Errorf("failed to count waiting records: %w", err)
	}
	d.WaitingForReminder = counts[fulfillment.StatusWaiting]

	sent, err := s.records.List(ctx, fulfillment.Filter{
		Statuses: []fulfillment.Status{fulfillment.StatusReminderSent},
	})
	if err != nil {
		return Digest{}, fmt.Errorf("failed to list sent reminders: %w", err)
	}
	for _, r := range sent {
		if _, ready := fulfillment.CheckSchedule(*r, now, s.grace); ready {
			d.ReadyForCheck++
		}
	}

	d.ShowReminder = (d.Is15th && d.WaitingForReminder > 0) || d.ReadyForCheck > 0
	return d, nil
}
