package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v3"

	"ecommify/internal/app"
	"ecommify/internal/infra/logger"
	"ecommify/internal/infra/scheduler"
	"ecommify/internal/infra/telegram"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the Telegram bot and the notification scheduler",
		Args:  cobra.NoArgs,
		RunE:  withDeps(runBot),
	}
}

func runBot(cmd *cobra.Command, _ []string, d *deps) error {
	if err := d.cfg.ValidateBot(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mainLogger := logger.Component("main")
	botLogger := logger.Component("telegram")

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  d.cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "text": c.Text()})
			}
			entry.Error("Unhandled telebot error")
		},
	})
	if err != nil {
		return err
	}

	mw := telegram.OperatorsOnly(d.cfg.IsOperator, botLogger)
	if err := telegram.RegisterBotCommands(bot, d.cfg, botLogger); err != nil {
		// The menu is cosmetic; commands still work without it.
		mainLogger.WithError(err).Warn("Could not publish command menu")
	}
	telegram.NewPipelineHandlers(ctx, d.fulfillment, d.labels, botLogger).Register(bot, mw)
	telegram.NewCalendarHandlers(ctx, d.calendar, d.labels, botLogger).Register(bot, mw)

	notifService := app.NewNotificationServiceImpl(
		d.fulfillment,
		d.calendar,
		telegram.NewTelebotAdapter(bot),
		d.labels,
		logger.Component("app"),
		d.cfg.OperatorTelegramIDs,
	)
	notifScheduler := scheduler.NewNotificationScheduler(
		notifService,
		logger.Component("scheduler"),
		d.cfg.Location,
		d.cfg.CronSpecFulfillmentCheck,
		d.cfg.CronSpecDailyDigest,
	)
	if err := notifScheduler.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mainLogger.Info("Bot polling started")
		bot.Start()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		mainLogger.Info("Shutting down...")
		bot.Stop()
		notifScheduler.Stop()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	mainLogger.Info("Shut down gracefully")
	return nil
}
