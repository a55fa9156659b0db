package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/moffi-scheduler/internal/autobook"
	"github.com/example/moffi-scheduler/internal/booking"
	"github.com/example/moffi-scheduler/internal/config"
)

// reservationFlags maps the reservation flags to configuration keys.
var reservationFlags = map[string]string{
	"city":         "city",
	"workspace":    "workspace",
	"desk":         "desk",
	"parking":      "parking",
	"working-days": "working_days",
	"horizon":      "horizon",
}

func addReservationFlags(c *cobra.Command) {
	c.Flags().StringP("city", "c", "", "city (building) name")
	c.Flags().StringP("workspace", "w", "", "workspace name")
	c.Flags().StringP("desk", "d", "", "desk name")
	c.Flags().String("parking", "", "parking workspace to book alongside desks")
	c.Flags().String("working-days", "", "ISO weekdays to book, e.g. 1,2,3,4,5")
	c.Flags().Int("horizon", 30, "number of days to look ahead")
}

func newAutoCmd(g *globals) *cobra.Command {
	c := &cobra.Command{
		Use:   "auto",
		Short: "Book the configured desk on every eligible day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd, reservationFlags)
			if err != nil {
				return err
			}
			if err := cfg.Require("city", "workspace", "desk"); err != nil {
				return err
			}
			days, err := booking.ParseWeekdays(cfg.Reservation.WorkingDays)
			if err != nil {
				return &config.Error{Msg: err.Error()}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner, closeFn, err := newRunner(ctx, &cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			log.Info("starting auto reservation", "run_id", runner.RunID, "city", cfg.Reservation.City,
				"workspace", cfg.Reservation.Workspace, "desk", cfg.Reservation.Desk)
			outcomes, err := runner.ResolveAndEvaluate(ctx, autobook.Request{
				City:      cfg.Reservation.City,
				Workspace: cfg.Reservation.Workspace,
				Desk:      cfg.Reservation.Desk,
				Weekdays:  days,
				Horizon:   cfg.Reservation.Horizon,
				Parking:   cfg.Reservation.Parking,
			})
			printOutcomes(cmd, outcomes)
			return err
		},
	}
	addReservationFlags(c)
	return c
}

func printOutcomes(cmd *cobra.Command, outcomes []autobook.Outcome) {
	for _, o := range outcomes {
		fmt.Fprintf(cmd.OutOrStdout(), "date=%s outcome=%s order=%q detail=%q\n", o.Day(), o.Kind, o.OrderID, o.Detail)
	}
}

// newRunner signs in and builds a runner that records attempts when a
// database is configured.
func newRunner(ctx context.Context, cfg *config.Config, log *slog.Logger) (*autobook.Runner, func(), error) {
	api, err := signin(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	runner := autobook.NewRunner(api, nil, log)

	repo, closeFn, err := openHistory(ctx, *cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if repo != nil {
		runner.Recorder = repo
	}
	return runner, closeFn, nil
}
