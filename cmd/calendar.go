package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/moffi-scheduler/internal/calendar"
	"github.com/example/moffi-scheduler/internal/config"
	"github.com/example/moffi-scheduler/internal/moffi"
)

var calendarFlags = map[string]string{
	"listen": "listen",
	"port":   "port",
	"secret": "secret",
}

func newCalendarCmd(g *globals) *cobra.Command {
	c := &cobra.Command{
		Use:   "calendar",
		Short: "Publish reservations as an ICS calendar",
	}
	c.AddCommand(newCalendarServeCmd(g))
	c.AddCommand(newCalendarTokenCmd(g))
	return c
}

func newCalendarServeCmd(g *globals) *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the calendar HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd, calendarFlags)
			if err != nil {
				return err
			}
			srv := &calendar.Server{
				NewSession: func() calendar.Session {
					return moffi.New(moffi.Options{BaseURL: cfg.APIURL, Logger: log})
				},
				Log: log,
			}
			if cfg.Calendar.Secret != "" {
				tokens, err := calendar.NewTokens(cfg.Calendar.Secret)
				if err != nil {
					return &config.Error{Msg: err.Error()}
				}
				srv.Tokens = tokens
			} else {
				log.Warn("no calendar secret configured, token routes are disabled")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return calendar.Start(ctx, cfg.Addr(), srv.Routes(), log)
		},
	}
	c.Flags().String("listen", "0.0.0.0", "address to listen on")
	c.Flags().Int("port", 8888, "port to listen on")
	c.Flags().String("secret", "", "token secret (default $MOFFI_CALENDAR_SECRET)")
	return c
}

func newCalendarTokenCmd(g *globals) *cobra.Command {
	c := &cobra.Command{
		Use:   "token",
		Short: "Print a calendar token for the configured user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd, calendarFlags)
			if err != nil {
				return err
			}
			if err := cfg.Require("secret"); err != nil {
				return err
			}
			tokens, err := calendar.NewTokens(cfg.Calendar.Secret)
			if err != nil {
				return &config.Error{Msg: err.Error()}
			}
			if _, err := signin(cmd.Context(), &cfg, log); err != nil {
				return err
			}
			token, err := tokens.Encode(calendar.Credentials{Login: cfg.User, Password: cfg.Password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token=%s path=/token/%s\n", token, token)
			return nil
		},
	}
	c.Flags().String("secret", "", "token secret (default $MOFFI_CALENDAR_SECRET)")
	return c
}
