// Package calendar publishes a user's upcoming reservations as an iCalendar
// feed.
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/example/moffi-scheduler/internal/clock"
	"github.com/example/moffi-scheduler/internal/logging"
	"github.com/example/moffi-scheduler/internal/moffi"
	"github.com/example/moffi-scheduler/internal/reservations"
)

// Session is one signed-in API client. Each request gets its own.
type Session interface {
	Signin(ctx context.Context, username, password string) (moffi.Profile, error)
	Query(ctx context.Context, method, path string, params url.Values, body, out any) error
}

type Server struct {
	// NewSession returns a fresh, unauthenticated client.
	NewSession func() Session
	// Tokens is nil when no secret is configured; token routes then fail.
	Tokens *Tokens
	Clock  clock.Clock
	Log    *slog.Logger
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /{$}", s.handleBasicAuth)
	mux.HandleFunc("GET /getToken", s.handleGetToken)
	mux.HandleFunc("GET /token/{token}", s.handleToken)

	return mux
}

func (s *Server) log() *slog.Logger { return logging.OrDiscard(s.Log) }

func (s *Server) handleBasicAuth(w http.ResponseWriter, r *http.Request) {
	user, pw, ok := r.BasicAuth()
	if !ok {
		unauthorized(w, "missing authentication")
		return
	}
	s.serveCalendar(w, r, Credentials{Login: user, Password: pw})
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	if s.Tokens == nil {
		http.Error(w, "missing secret key in configuration", http.StatusInternalServerError)
		return
	}
	user, pw, ok := r.BasicAuth()
	if !ok {
		unauthorized(w, "missing authentication")
		return
	}
	// Only hand out tokens for credentials the API accepts.
	if _, err := s.NewSession().Signin(r.Context(), user, pw); err != nil {
		s.signinFailed(w, user, err)
		return
	}
	token, err := s.Tokens.Encode(Credentials{Login: user, Password: pw})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if s.Tokens == nil {
		http.Error(w, "missing secret key in configuration", http.StatusInternalServerError)
		return
	}
	creds, err := s.Tokens.Decode(r.PathValue("token"))
	if err != nil {
		s.log().Debug("rejected calendar token", "error", err)
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	s.serveCalendar(w, r, creds)
}

func (s *Server) serveCalendar(w http.ResponseWriter, r *http.Request, creds Credentials) {
	ctx := r.Context()
	s.log().Debug("calendar login", "user", creds.Login)

	api := s.NewSession()
	if _, err := api.Signin(ctx, creds.Login, creds.Password); err != nil {
		s.signinFailed(w, creds.Login, err)
		return
	}

	c := s.Clock
	if c == nil {
		c = clock.Real()
	}
	inv := reservations.NewInventory(api, c, s.Log)
	items, err := inv.Fetch(ctx, reservations.ActiveSteps, false, time.UTC)
	if err != nil {
		s.log().Error("fetch reservations", "user", creds.Login, "error", err)
		http.Error(w, "unable to fetch reservations", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write(Render(items, c.Now()))
}

func (s *Server) signinFailed(w http.ResponseWriter, user string, err error) {
	if errors.Is(err, moffi.ErrAuthFailed) {
		s.log().Info("signin rejected", "user", user, "error", err)
		unauthorized(w, "authentication failed")
		return
	}
	s.log().Error("signin", "user", user, "error", err)
	http.Error(w, "signin failed", http.StatusBadGateway)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="moffi"`)
	http.Error(w, msg, http.StatusUnauthorized)
}

// Start serves h on addr until ctx is cancelled.
func Start(ctx context.Context, addr string, h http.Handler, l *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logging.OrDiscard(l).Info("calendar server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
