// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	domainTelegram "ecommify/internal/domain/telegram"
	"ecommify/internal/infra/config"
)

// NotificationService pushes the scheduled digests to the operators.
type NotificationService interface {
	// SendFulfillmentDigest sends the pipeline digest when there is something to act on.
	SendFulfillmentDigest(ctx context.Context) error
	// SendCalendarDigest sends today's reminders, notes and overdue reminders.
	SendCalendarDigest(ctx context.Context) error
}

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	fulfillment    *FulfillmentService
	calendar       *CalendarService
	telegramClient domainTelegram.Client
	labels         *config.Labels
	logger         *logrus.Entry
	operatorIDs    []int64
}

func NewNotificationServiceImpl(
	fs *FulfillmentService,
	cs *CalendarService,
	tc domainTelegram.Client,
	labels *config.Labels,
	logger *logrus.Entry,
	operatorIDs []int64,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		fulfillment:    fs,
		calendar:       cs,
		telegramClient: tc,
		labels:         labels,
		logger:         logger.WithField("service", "notification"),
		operatorIDs:    operatorIDs,
	}
}

func (s *NotificationServiceImpl) SendFulfillmentDigest(ctx context.Context) error {
	d, err := s.fulfillment.ReminderCheck(ctx, s.fulfillment.Now())
	if err != nil {
		return fmt.Errorf("failed to build fulfillment digest: %w", err)
	}
	log := s.logger.WithFields(logrus.Fields{
		"is_15th":         d.Is15th,
		"waiting":         d.WaitingForReminder,
		"ready_for_check": d.ReadyForCheck,
	})
	if !d.ShowReminder {
		log.Info("Nothing to act on in the pipeline. Digest not sent.")
		return nil
	}
	log.Info("Sending fulfillment digest.")
	return s.broadcast(ctx, FormatDigest(d))
}

func (s *NotificationServiceImpl) SendCalendarDigest(ctx context.Context) error {
	today := s.calendar.Today()
	cell, err := s.calendar.Day(ctx, today, today)
	if err != nil {
		return fmt.Errorf("failed to build calendar for %s: %w", today, err)
	}
	overdue, err := s.calendar.Overdue(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to list overdue reminders: %w", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"date":      today.String(),
		"reminders": len(cell.Reminders),
		"notes":     len(cell.Notes),
		"overdue":   len(overdue),
	})
	if cell.Empty() && len(overdue) == 0 {
		log.Info("Empty calendar day. Digest not sent.")
		return nil
	}
	log.Info("Sending calendar digest.")
	return s.broadcast(ctx, FormatDay(cell, overdue, s.labels))
}

// broadcast sends text to every operator, continuing past individual failures.
func (s *NotificationServiceImpl) broadcast(ctx context.Context, text string) error {
	var errs []error
	for _, id := range s.operatorIDs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := s.telegramClient.SendText(ctx, id, text); err != nil {
			s.logger.WithError(err).WithField("operator_id", id).Error("Failed to send digest.")
			errs = append(errs, fmt.Errorf("operator %d: %w", id, err))
			continue
		}
		s.logger.WithField("operator_id", id).Debug("Digest sent.")
	}
	return errors.Join(errs...)
}

var _ NotificationService = (*NotificationServiceImpl)(nil)
