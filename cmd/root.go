package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/moffi-scheduler/internal/config"
	"github.com/example/moffi-scheduler/internal/db"
	"github.com/example/moffi-scheduler/internal/history"
	"github.com/example/moffi-scheduler/internal/logging"
	"github.com/example/moffi-scheduler/internal/migrate"
	"github.com/example/moffi-scheduler/internal/moffi"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "moffisched",
		Short:         "Book Moffi desks and parking spots ahead of time",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default $MOFFI_CONFIG or ~/.config/moffi.yaml)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "more verbose logging")
	pf.StringP("user", "u", "", "Moffi username")
	pf.StringP("password", "p", "", "Moffi password")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newAutoCmd(g))
	root.AddCommand(newOrderCmd(g))
	root.AddCommand(newReservationsCmd(g))
	root.AddCommand(newCalendarCmd(g))
	root.AddCommand(newHistoryCmd(g))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if config.IsError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// load builds the configuration for cmd. flags maps flag names to
// configuration keys; only flags set on the command line override.
func (g *globals) load(cmd *cobra.Command, flags map[string]string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	all := map[string]string{"user": "user", "password": "password"}
	for name, key := range flags {
		all[name] = key
	}
	for name, key := range all {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := cfg.Set(key, f.Value.String()); err != nil {
			return config.Config{}, nil, err
		}
	}
	return cfg, logging.New(g.verbose || cfg.Verbose), nil
}

// signin returns an authenticated API client for the configured user.
func signin(ctx context.Context, cfg *config.Config, log *slog.Logger) (*moffi.Client, error) {
	if err := cfg.Require("user"); err != nil {
		return nil, err
	}
	if err := cfg.PromptPassword(os.Stdin, os.Stderr); err != nil {
		return nil, err
	}
	if err := cfg.Require("password"); err != nil {
		return nil, err
	}
	c := moffi.New(moffi.Options{BaseURL: cfg.APIURL, Logger: log})
	p, err := c.Signin(ctx, cfg.User, cfg.Password)
	if err != nil {
		return nil, err
	}
	log.Debug("signed in", "user", cfg.User, "id", p.ID)
	return c, nil
}

// openHistory connects to the history database when one is configured. The
// returned repo is nil otherwise.
func openHistory(ctx context.Context, cfg config.Config, log *slog.Logger) (*history.Repo, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, nil
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.Up(ctx, d, log); err != nil {
		d.Close()
		return nil, nil, err
	}
	return history.NewRepo(d), d.Close, nil
}
