package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/moffi-scheduler/internal/config"
	"github.com/example/moffi-scheduler/internal/reservations"
)

func newReservationsCmd(g *globals) *cobra.Command {
	var (
		steps     []string
		cancelled bool
	)
	c := &cobra.Command{
		Use:   "reservations",
		Short: "List your reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd, nil)
			if err != nil {
				return err
			}
			for _, s := range steps {
				if _, ok := reservations.Steps[s]; !ok {
					return &config.Error{Msg: fmt.Sprintf("unknown step %q (valid: %s)", s, strings.Join(reservations.AllSteps, ", "))}
				}
			}

			api, err := signin(cmd.Context(), &cfg, log)
			if err != nil {
				return err
			}
			inv := reservations.NewInventory(api, nil, log)
			items, err := inv.Fetch(cmd.Context(), steps, cancelled, time.Local)
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "start=%s end=%s step=%s status=%s city=%q workspace=%q desk=%q type=%s\n",
					it.Start.Local().Format(time.DateTime), it.End.Local().Format(time.DateTime),
					it.Step, it.Status, it.WorkspaceCity, it.WorkspaceName, it.DeskName, it.WorkspaceType)
			}
			return nil
		},
	}
	c.Flags().StringSliceVar(&steps, "steps", nil, "steps to list (default all)")
	c.Flags().BoolVar(&cancelled, "cancelled", false, "include upcoming cancelled reservations")
	return c
}
