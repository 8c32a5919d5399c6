package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ecommify/internal/app"
	"ecommify/internal/infra/config"
	idb "ecommify/internal/infra/database"
	"ecommify/internal/infra/logger"
)

// deps holds everything the subcommands share once configuration is loaded.
type deps struct {
	cfg         *config.AppConfig
	labels      *config.Labels
	db          *sql.DB
	fulfillment *app.FulfillmentService
	calendar    *app.CalendarService
}

func (d *deps) Close() {
	if d.db != nil {
		d.db.Close()
	}
}

// setup loads configuration, connects to Postgres and builds the services.
func setup(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"operators":   len(cfg.OperatorTelegramIDs),
		"timezone":    cfg.Location.String(),
	}).Info("Configuration loaded")

	labels, err := config.LoadLabels(cfg.LabelsFile)
	if err != nil {
		return nil, err
	}

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	mainLogger.Info("Database connection established")

	fs := app.NewFulfillmentService(
		idb.NewPostgresFulfillmentRepository(db),
		idb.NewPostgresOrderRepository(db),
		idb.NewPostgresFulfillmentNoteRepository(db),
		logger.Component("app"),
		cfg.FulfillmentGrace,
		cfg.Now,
	)
	cs := app.NewCalendarService(
		idb.NewPostgresReminderRepository(db),
		idb.NewPostgresNoteRepository(db),
		logger.Component("app"),
		cfg.Now,
	)
	return &deps{cfg: cfg, labels: labels, db: db, fulfillment: fs, calendar: cs}, nil
}

// withDeps adapts a subcommand body to cobra, handling setup and teardown.
func withDeps(run func(cmd *cobra.Command, args []string, d *deps) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()
		return run(cmd, args, d)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ecommify",
		Short:         "Order fulfillment pipeline and operator calendar",
		Long:          "Telegram bot for shop operators: tracks orders through the fulfillment pipeline and keeps a shared calendar of reminders and notes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newCalendarCommand())
	cmd.AddCommand(newReminderCheckCommand())
	cmd.AddCommand(newBulkRemindCommand())

	return cmd
}
