// Package parking books a parking spot for every day the user already has a
// desk in the same city.
package parking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/moffi-scheduler/internal/booking"
	"github.com/example/moffi-scheduler/internal/clock"
	"github.com/example/moffi-scheduler/internal/logging"
	"github.com/example/moffi-scheduler/internal/order"
	"github.com/example/moffi-scheduler/internal/reservations"
	"github.com/example/moffi-scheduler/internal/workspace"
)

// Result statuses.
const (
	Booked      = "parking_booked"
	TooEarly    = "too_early"
	TooLate     = "range_exhausted"
	Unavailable = "unavailable"
	OrderFailed = "order_failed"
	NotFound    = "not_found"
)

// Result is what happened for one date that needed parking.
type Result struct {
	Date    time.Time
	Status  string
	OrderID string
	Err     error
}

type Inventory interface {
	FetchByDate(ctx context.Context, steps []string, includeCancelled bool, loc *time.Location) (reservations.ByDate, error)
}

type Orderer interface {
	Parking(ctx context.Context, seats order.SeatFinder, date time.Time, ws workspace.Details) (order.PaidOrder, error)
}

type Correlator struct {
	Inventory Inventory
	Seats     order.SeatFinder
	Orders    Orderer
	Clock     clock.Clock
	Log       *slog.Logger
}

func NewCorrelator(inv Inventory, seats order.SeatFinder, orders Orderer, c clock.Clock, l *slog.Logger) *Correlator {
	if c == nil {
		c = clock.Real()
	}
	return &Correlator{Inventory: inv, Seats: seats, Orders: orders, Clock: c, Log: logging.OrDiscard(l)}
}

// Reconcile orders parking in lot for each upcoming date that has a desk
// reservation in city and no parking reservation. Per-date booking failures
// are reported in the results; remote and auth errors abort.
func (c *Correlator) Reconcile(ctx context.Context, city string, lot workspace.Details) ([]Result, error) {
	loc := lot.Location
	if loc == nil {
		loc = time.UTC
	}
	log := c.Log.With("city", city, "parking", lot.Title)

	byDate, err := c.Inventory.FetchByDate(ctx, nil, false, loc)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	now := c.Clock.Now().In(loc)
	today := reservations.Key(now, loc)
	var results []Result
	for _, key := range byDate.Dates() {
		if key < today {
			continue
		}
		desk, ok := needsParking(byDate[key], city)
		if !ok {
			continue
		}
		date := desk.Start.In(loc)

		switch booking.InWindow(now, date, lot.Policy) {
		case -1:
			log.Info("date is too close to book parking", "date", key)
			results = append(results, Result{Date: date, Status: TooEarly})
			continue
		case 1:
			log.Info("date is out of parking range, stopping", "date", key)
			results = append(results, Result{Date: date, Status: TooLate})
			return results, nil
		}

		log.Info("ordering parking", "date", key, "desk", desk.DeskName)
		paid, err := c.Orders.Parking(ctx, c.Seats, date, lot)
		switch {
		case err == nil:
			results = append(results, Result{Date: date, Status: Booked, OrderID: paid.ID})
		case order.IsUnavailable(err):
			log.Warn("parking unavailable", "date", key, "error", err)
			results = append(results, Result{Date: date, Status: Unavailable, Err: err})
		case order.IsOrderFailed(err):
			log.Warn("parking order failed", "date", key, "error", err)
			results = append(results, Result{Date: date, Status: OrderFailed, Err: err})
		case errors.Is(err, workspace.ErrNotFound):
			log.Warn("no parking seat", "date", key, "error", err)
			results = append(results, Result{Date: date, Status: NotFound, Err: err})
		default:
			return results, err
		}
	}
	return results, nil
}

// needsParking returns the earliest desk item in city when items contain no
// parking reservation.
func needsParking(items []reservations.Item, city string) (reservations.Item, bool) {
	var (
		desk  reservations.Item
		found bool
	)
	for _, it := range items {
		if it.IsParking() {
			return reservations.Item{}, false
		}
		if it.WorkspaceCity != city {
			continue
		}
		if !found || it.Start.Before(desk.Start) {
			desk, found = it, true
		}
	}
	return desk, found
}
