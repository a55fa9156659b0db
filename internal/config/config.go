// Package config loads settings from a YAML file, then the environment,
// then command-line flags, each layer overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration of moffisched.
type Config struct {
	Verbose     bool   `yaml:"verbose"`
	APIURL      string `yaml:"api_url"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	DatabaseURL string `yaml:"database_url"`

	Reservation ReservationConfig `yaml:"reservation"`
	Calendar    CalendarConfig    `yaml:"calendar"`
}

type ReservationConfig struct {
	City      string `yaml:"city"`
	Workspace string `yaml:"workspace"`
	Desk      string `yaml:"desk"`
	// Parking names a parking workspace in City. Empty disables parking.
	Parking string `yaml:"parking"`
	// WorkingDays is a comma-separated list of ISO weekdays, 1 (Monday) to
	// 7 (Sunday). Empty means every day.
	WorkingDays string `yaml:"working_days"`
	Horizon     int    `yaml:"horizon"`
}

type CalendarConfig struct {
	Listen string `yaml:"listen"`
	Port   int    `yaml:"port"`
	Secret string `yaml:"secret"`
}

// Error is a configuration problem. Commands exit with status 2 on it.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func errorf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// IsError reports whether err is, or wraps, a *Error.
func IsError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

func defaults() Config {
	return Config{
		Reservation: ReservationConfig{Horizon: 30},
		Calendar:    CalendarConfig{Listen: "0.0.0.0", Port: 8888},
	}
}

// DefaultPath is ~/.config/moffi.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "moffi.yaml")
}

// Load reads path, or $MOFFI_CONFIG, or DefaultPath, and applies the
// environment on top. Only the default file may be absent.
func Load(path string) (Config, error) {
	cfg := defaults()

	explicit := true
	if path == "" {
		path = os.Getenv("MOFFI_CONFIG")
	}
	if path == "" {
		path, explicit = DefaultPath(), false
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, errorf("parse %s: %v", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, errorf("read config: %v", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.User = getenv("MOFFI_USER", c.User)
	c.Password = getenv("MOFFI_PASSWORD", c.Password)
	c.APIURL = getenv("MOFFI_API_URL", c.APIURL)
	c.DatabaseURL = getenv("DATABASE_URL", c.DatabaseURL)
	c.Calendar.Secret = getenv("MOFFI_CALENDAR_SECRET", c.Calendar.Secret)
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// Set overrides one key, as named in Require, from a string value.
func (c *Config) Set(key, value string) error {
	switch key {
	case "user":
		c.User = value
	case "password":
		c.Password = value
	case "api_url":
		c.APIURL = value
	case "database_url":
		c.DatabaseURL = value
	case "city":
		c.Reservation.City = value
	case "workspace":
		c.Reservation.Workspace = value
	case "desk":
		c.Reservation.Desk = value
	case "parking":
		c.Reservation.Parking = value
	case "working_days":
		c.Reservation.WorkingDays = value
	case "horizon":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return errorf("invalid horizon %q", value)
		}
		c.Reservation.Horizon = n
	case "listen":
		c.Calendar.Listen = value
	case "port":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 65535 {
			return errorf("invalid port %q", value)
		}
		c.Calendar.Port = n
	case "secret":
		c.Calendar.Secret = value
	default:
		return errorf("unknown configuration key %q", key)
	}
	return nil
}

func (c *Config) get(key string) string {
	switch key {
	case "user":
		return c.User
	case "password":
		return c.Password
	case "api_url":
		return c.APIURL
	case "database_url":
		return c.DatabaseURL
	case "city":
		return c.Reservation.City
	case "workspace":
		return c.Reservation.Workspace
	case "desk":
		return c.Reservation.Desk
	case "parking":
		return c.Reservation.Parking
	case "working_days":
		return c.Reservation.WorkingDays
	case "listen":
		return c.Calendar.Listen
	case "secret":
		return c.Calendar.Secret
	case "port":
		if c.Calendar.Port == 0 {
			return ""
		}
		return strconv.Itoa(c.Calendar.Port)
	}
	return ""
}

// Require fails on the first key without a value.
func (c *Config) Require(keys ...string) error {
	for _, k := range keys {
		if strings.TrimSpace(c.get(k)) == "" {
			return errorf("missing configuration value for %s", k)
		}
	}
	return nil
}

// Addr is the calendar listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Calendar.Listen, c.Calendar.Port)
}

// PromptPassword asks for the password on a terminal when none is
// configured. It leaves Password empty when in is not a terminal.
func (c *Config) PromptPassword(in *os.File, out io.Writer) error {
	if c.Password != "" || !term.IsTerminal(int(in.Fd())) {
		return nil
	}
	fmt.Fprintf(out, "Moffi password for %s: ", c.User)
	b, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	c.Password = string(b)
	return nil
}
