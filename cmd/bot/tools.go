package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ecommify/internal/app"
	"ecommify/internal/domain/calendar"
	"ecommify/internal/domain/day"
	idb "ecommify/internal/infra/database"
	"ecommify/internal/infra/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			if err := idb.Migrate(cmd.Context(), d.db); err != nil {
				return err
			}
			logger.Component("main").Info("Schema is up to date")
			return nil
		}),
	}
}

func newCalendarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Print the days of a month that have reminders or notes",
		Args:  cobra.MaximumNArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			today := d.calendar.Today()
			period := today.Period()
			if len(args) == 1 {
				p, err := day.ParsePeriod(args[0])
				if err != nil {
					return err
				}
				period = p
			}
			m, err := d.calendar.Month(cmd.Context(), period.Year, period.Month, today)
			if err != nil {
				return err
			}
			printMonth(cmd, m)
			return nil
		}),
	}
}

func printMonth(cmd *cobra.Command, m calendar.Month) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", day.Period{Year: m.Year, Month: m.Month})
	for _, c := range m.Busy() {
		marker := ""
		if c.IsToday {
			marker = " *"
		}
		fmt.Fprintf(out, "%s %-9s reminders=%d notes=%d%s\n", c.Date, c.Date.Weekday(), len(c.Reminders), len(c.Notes), marker)
	}
}

func newReminderCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reminder-check",
		Short: "Print the fulfillment digest for today",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			digest, err := d.fulfillment.ReminderCheck(cmd.Context(), d.fulfillment.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), app.FormatDigest(digest))
			return nil
		}),
	}
}

func newBulkRemindCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-remind YYYY-MM",
		Short: "Mark every waiting order of a month as reminded",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			period, err := day.ParsePeriod(args[0])
			if err != nil {
				return err
			}
			start := time.Now()
			res, err := d.fulfillment.BulkSendReminders(cmd.Context(), period)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: updated=%d skipped=%d failed=%d (%s)\n",
				period, res.Updated, res.Skipped, res.Failed, time.Since(start).Round(time.Millisecond))
			return nil
		}),
	}
}
