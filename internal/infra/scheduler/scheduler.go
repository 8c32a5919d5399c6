package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"ecommify/internal/app"
)

const defaultJobTimeout = 2 * time.Minute

type NotificationScheduler struct {
	cronEngine               *cron.Cron
	notifService             app.NotificationService
	logger                   *logrus.Entry
	cronSpecFulfillmentCheck string
	cronSpecDailyDigest      string
	jobTimeout               time.Duration
}

func NewNotificationScheduler(
	notifService app.NotificationService,
	logger *logrus.Entry,
	loc *time.Location,
	cronSpecFulfillmentCheck string, // e.g. "0 10 15 * *" (10:00 on the 15th)
	cronSpecDailyDigest string, // e.g. "0 9 * * *"
) *NotificationScheduler {
	cronLog := cron.PrintfLogger(logger)
	return &NotificationScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		notifService:             notifService,
		logger:                   logger,
		cronSpecFulfillmentCheck: cronSpecFulfillmentCheck,
		cronSpecDailyDigest:      cronSpecDailyDigest,
		jobTimeout:               defaultJobTimeout,
	}
}

// Start registers the jobs and starts the cron engine. Nothing is started when a
// spec does not parse.
func (s *NotificationScheduler) Start() error {
	s.logger.Info("Starting notification scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecFulfillmentCheck, func() {
		s.runJob("fulfillment_check", s.notifService.SendFulfillmentDigest)
	})
	if err != nil {
		return fmt.Errorf("could not add fulfillment check job %q: %w", s.cronSpecFulfillmentCheck, err)
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecDailyDigest, func() {
		s.runJob("daily_digest", s.notifService.SendCalendarDigest)
	})
	if err != nil {
		return fmt.Errorf("could not add daily digest job %q: %w", s.cronSpecDailyDigest, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Notification scheduler started.")
	return nil
}

func (s *NotificationScheduler) runJob(name string, job func(ctx context.Context) error) {
	log := s.logger.WithField("job", name)
	log.Info("Cron job triggered.")

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	started := time.Now()
	if err := job(ctx); err != nil {
		log.WithError(err).Error("Cron job failed.")
		return
	}
	log.WithField("took", time.Since(started).String()).Info("Cron job finished.")
}

// Stop stops scheduling new runs and waits for running jobs to finish.
func (s *NotificationScheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Notification scheduler gracefully stopped.")
}
