package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(g *globals) *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "history",
		Short: "Show recent order attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd, map[string]string{"database-url": "database_url"})
			if err != nil {
				return err
			}
			if err := cfg.Require("database_url"); err != nil {
				return err
			}
			repo, closeFn, err := openHistory(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			attempts, err := repo.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, a := range attempts {
				fmt.Fprintf(cmd.OutOrStdout(), "id=%d run=%s kind=%s date=%s outcome=%s city=%q workspace=%q desk=%q order=%q at=%s\n",
					a.ID, a.RunID, a.Kind, a.Date.Format(time.DateOnly), a.Outcome,
					a.City, a.Workspace, a.Desk, a.OrderID, a.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	c.Flags().IntVar(&limit, "limit", 50, "number of attempts to show")
	c.Flags().String("database-url", "", "Postgres connection string (default $DATABASE_URL)")
	return c
}
