package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/moffi-scheduler/internal/config"
)

func newOrderCmd(g *globals) *cobra.Command {
	var date string
	c := &cobra.Command{
		Use:   "order",
		Short: "Book the configured desk for a single date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd, reservationFlags)
			if err != nil {
				return err
			}
			if err := cfg.Require("city", "workspace", "desk"); err != nil {
				return err
			}
			day, err := time.Parse(time.DateOnly, date)
			if err != nil {
				return &config.Error{Msg: fmt.Sprintf("invalid date %q: want YYYY-MM-DD", date)}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner, closeFn, err := newRunner(ctx, &cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			r := cfg.Reservation
			paid, err := runner.OrderDesk(ctx, r.City, r.Workspace, r.Desk, day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kind=desk date=%s workspace=%q desk=%q order=%s status=%s\n",
				date, r.Workspace, r.Desk, paid.ID, paid.Status)

			if r.Parking == "" {
				return nil
			}
			paid, err = runner.OrderParking(ctx, r.City, r.Parking, day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kind=parking date=%s parking=%q order=%s status=%s\n",
				date, r.Parking, paid.ID, paid.Status)
			return nil
		},
	}
	addReservationFlags(c)
	c.Flags().StringVar(&date, "date", "", "date to book (YYYY-MM-DD)")
	_ = c.MarkFlagRequired("date")
	return c
}
