// Package autobook ties resolution, evaluation and ordering together into
// the operations the command line exposes.
package autobook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/example/moffi-scheduler/internal/booking"
	"github.com/example/moffi-scheduler/internal/clock"
	"github.com/example/moffi-scheduler/internal/history"
	"github.com/example/moffi-scheduler/internal/logging"
	"github.com/example/moffi-scheduler/internal/order"
	"github.com/example/moffi-scheduler/internal/parking"
	"github.com/example/moffi-scheduler/internal/reservations"
	"github.com/example/moffi-scheduler/internal/workspace"
)

type Querier interface {
	Query(ctx context.Context, method, path string, params url.Values, body, out any) error
}

type Resolver interface {
	Resolve(ctx context.Context, city, workspaceName string) (workspace.Details, error)
	ResolveDesk(ctx context.Context, d workspace.Details, deskName string, date time.Time) (workspace.DeskAvailability, error)
	FirstAvailableSeat(ctx context.Context, d workspace.Details, date time.Time) (workspace.DeskAvailability, error)
}

type Inventory interface {
	FetchByDate(ctx context.Context, steps []string, includeCancelled bool, loc *time.Location) (reservations.ByDate, error)
}

type Orders interface {
	Desk(ctx context.Context, date time.Time, ws workspace.Details, seat workspace.DeskAvailability) (order.PaidOrder, error)
	Parking(ctx context.Context, seats order.SeatFinder, date time.Time, ws workspace.Details) (order.PaidOrder, error)
}

// Recorder stores order attempts. *history.Repo satisfies it.
type Recorder interface {
	Record(ctx context.Context, a history.Attempt) error
}

// Request describes one auto-reservation run.
type Request struct {
	City      string
	Workspace string
	Desk      string
	Weekdays  booking.Weekdays
	Horizon   int
	// Parking, when set, names a parking workspace reconciled after the
	// desk loop.
	Parking string
}

type Runner struct {
	Resolver  Resolver
	Inventory Inventory
	Orders    Orders
	Recorder  Recorder
	Clock     clock.Clock
	Log       *slog.Logger
	RunID     uuid.UUID
}

// NewRunner wires the default components on top of an authenticated API
// client. Recorder is left nil.
func NewRunner(api Querier, c clock.Clock, l *slog.Logger) *Runner {
	if c == nil {
		c = clock.Real()
	}
	l = logging.OrDiscard(l)
	return &Runner{
		Resolver:  workspace.NewResolver(api, c, l),
		Inventory: reservations.NewInventory(api, c, l),
		Orders:    order.NewTransaction(api, l),
		Clock:     c,
		Log:       l,
		RunID:     uuid.New(),
	}
}

// ResolveAndEvaluate books the configured desk on every eligible day of the
// horizon. Per-day failures become outcomes; remote and auth errors end the
// run and are returned with the outcomes gathered so far.
func (r *Runner) ResolveAndEvaluate(ctx context.Context, req Request) ([]Outcome, error) {
	log := r.Log.With("city", req.City, "workspace", req.Workspace, "desk", req.Desk)

	ws, err := r.Resolver.Resolve(ctx, req.City, req.Workspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	byDate, err := r.Inventory.FetchByDate(ctx, nil, true, ws.Location)
	if err != nil {
		return nil, fmt.Errorf("fetch reservations: %w", err)
	}

	var outcomes []Outcome
	for _, d := range booking.Evaluate(r.Clock.Now(), ws, byDate, req.Weekdays, req.Horizon) {
		if d.Kind != booking.Candidate {
			o := fromDecision(d)
			log.Info("skipping day", "date", o.Day(), "reason", o.Kind, "detail", o.Detail)
			outcomes = append(outcomes, o)
			continue
		}

		o, err := r.bookCandidate(ctx, ws, req.Desk, d)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, o)
	}

	if req.Parking != "" {
		po, err := r.ReconcileParking(ctx, req.City, req.Parking)
		outcomes = append(outcomes, po...)
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (r *Runner) bookCandidate(ctx context.Context, ws workspace.Details, deskName string, d booking.Decision) (Outcome, error) {
	log := r.Log.With("workspace", ws.Title, "desk", deskName, "date", d.Day())
	o := Outcome{Date: d.Date, Decision: d}

	seat, err := r.Resolver.ResolveDesk(ctx, ws, deskName, d.Date)
	if errors.Is(err, workspace.ErrNotFound) {
		log.Warn("desk not found", "error", err)
		o.Kind, o.Detail = NotFound, err.Error()
		return o, nil
	}
	if err != nil {
		return o, fmt.Errorf("desk availability on %s: %w", d.Day(), err)
	}
	if !seat.Available() {
		log.Warn("desk is not available", "status", seat.Status)
		o.Kind, o.Detail = DeskUnavailable, "status "+seat.Status
		return o, nil
	}

	log.Info("ordering desk")
	paid, err := r.Orders.Desk(ctx, d.Date, ws, seat)
	o, err = classify(o, paid, err, Booked)
	if err != nil {
		return o, err
	}
	r.record(ctx, "desk", ws, deskName, o)
	return o, nil
}

// OrderDesk books deskName in workspaceName for a single date.
func (r *Runner) OrderDesk(ctx context.Context, city, workspaceName, deskName string, date time.Time) (order.PaidOrder, error) {
	ws, err := r.Resolver.Resolve(ctx, city, workspaceName)
	if err != nil {
		return order.PaidOrder{}, fmt.Errorf("resolve workspace: %w", err)
	}
	day := onDay(date, ws.Location)
	seat, err := r.Resolver.ResolveDesk(ctx, ws, deskName, day)
	if err != nil {
		return order.PaidOrder{}, err
	}
	if !seat.Available() {
		return order.PaidOrder{}, fmt.Errorf("%w: desk %s has status %s", order.ErrUnavailable, deskName, seat.Status)
	}

	r.Log.Info("ordering desk", "workspace", ws.Title, "desk", deskName, "date", day.Format(time.DateOnly))
	paid, err := r.Orders.Desk(ctx, day, ws, seat)
	o, _ := classify(Outcome{Date: day}, paid, err, Booked)
	r.record(ctx, "desk", ws, deskName, o)
	return paid, err
}

// OrderParking books the first free spot of the parking workspace for a
// single date.
func (r *Runner) OrderParking(ctx context.Context, city, parkingName string, date time.Time) (order.PaidOrder, error) {
	lot, err := r.Resolver.Resolve(ctx, city, parkingName)
	if err != nil {
		return order.PaidOrder{}, fmt.Errorf("resolve parking: %w", err)
	}
	day := onDay(date, lot.Location)

	r.Log.Info("ordering parking", "parking", lot.Title, "date", day.Format(time.DateOnly))
	paid, err := r.Orders.Parking(ctx, r.Resolver, day, lot)
	o, _ := classify(Outcome{Date: day}, paid, err, ParkingBooked)
	r.record(ctx, "parking", lot, "", o)
	return paid, err
}

// ReconcileParking books parking for days that already hold a desk in city.
func (r *Runner) ReconcileParking(ctx context.Context, city, parkingName string) ([]Outcome, error) {
	lot, err := r.Resolver.Resolve(ctx, city, parkingName)
	if err != nil {
		return nil, fmt.Errorf("resolve parking: %w", err)
	}
	c := parking.NewCorrelator(r.Inventory, r.Resolver, r.Orders, r.Clock, r.Log)
	results, err := c.Reconcile(ctx, city, lot)

	outcomes := make([]Outcome, 0, len(results))
	for _, res := range results {
		o := Outcome{Date: res.Date, Kind: res.Status, OrderID: res.OrderID}
		if res.Err != nil {
			o.Detail = res.Err.Error()
		}
		if o.Attempted() {
			r.record(ctx, "parking", lot, "", o)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, err
}

// classify turns an order result into an outcome. Only errors that are not
// per-day outcomes are returned.
func classify(o Outcome, paid order.PaidOrder, err error, success string) (Outcome, error) {
	switch {
	case err == nil:
		o.Kind, o.OrderID = success, paid.ID
		return o, nil
	case order.IsUnavailable(err):
		o.Kind = Unavailable
	case order.IsOrderFailed(err):
		o.Kind = OrderFailed
	case errors.Is(err, workspace.ErrNotFound):
		o.Kind = NotFound
	default:
		return o, err
	}
	o.Detail = err.Error()
	return o, nil
}

func (r *Runner) record(ctx context.Context, kind string, ws workspace.Details, desk string, o Outcome) {
	if o.Kind == "" {
		return
	}
	switch o.Kind {
	case Booked, ParkingBooked:
		r.Log.Info("order successful", "date", o.Day(), "order_id", o.OrderID)
	default:
		r.Log.Warn("unable to order", "kind", kind, "date", o.Day(), "reason", o.Kind, "detail", o.Detail)
	}
	if r.Recorder == nil {
		return
	}
	err := r.Recorder.Record(ctx, history.Attempt{
		RunID:     r.RunID,
		Kind:      kind,
		City:      ws.City,
		Workspace: ws.Title,
		Desk:      desk,
		Date:      o.Date,
		Outcome:   o.Kind,
		Detail:    o.Detail,
		OrderID:   o.OrderID,
	})
	if err != nil {
		r.Log.Warn("unable to record attempt", "error", err)
	}
}

func onDay(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
