// Package order runs the booking protocol for a single day: unavailability
// check, schedule check, estimate, order creation and payment.
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/moffi-scheduler/internal/logging"
	"github.com/example/moffi-scheduler/internal/workspace"
)

const StatusPaid = "PAID"

type Querier interface {
	Query(ctx context.Context, method, path string, params url.Values, body, out any) error
}

// SeatFinder picks a free seat in a workspace. *workspace.Resolver
// satisfies it.
type SeatFinder interface {
	FirstAvailableSeat(ctx context.Context, d workspace.Details, date time.Time) (workspace.DeskAvailability, error)
}

// PaidOrder is the payment response.
type PaidOrder struct {
	ID            string
	Status        string
	TotalBookings float64
	AuthorID      string
	Raw           json.RawMessage
}

type Transaction struct {
	API Querier
	Log *slog.Logger
}

func NewTransaction(api Querier, l *slog.Logger) *Transaction {
	return &Transaction{API: api, Log: logging.OrDiscard(l)}
}

// Desk books seat in ws for the calendar day of date in the workspace zone.
// Nothing is retried; any failing step aborts the transaction.
func (tx *Transaction) Desk(ctx context.Context, date time.Time, ws workspace.Details, seat workspace.DeskAvailability) (PaidOrder, error) {
	loc := ws.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayKey := day.Format(time.DateOnly)
	log := tx.Log.With("workspace", ws.Title, "desk", seat.Seat.Fullname, "date", dayKey)

	if err := tx.checkUnavailabilities(ctx, ws, day); err != nil {
		return PaidOrder{}, err
	}

	sched, ok := ws.Schedule.Day(day.Weekday())
	if !ok || !sched.Open() {
		return PaidOrder{}, fmt.Errorf("%w: %s is not open for reservation on %s", ErrUnavailable, ws.Title, dayKey)
	}
	start, end := sched.Hours(day, loc)
	startStr, endStr := start.Format(time.RFC3339), end.Format(time.RFC3339)

	bookedSeats := []map[string]any{{"seat": seat.Seat}}
	days := []map[string]any{{"day": dayKey, "date": startStr, "period": "DAY"}}

	estimateBody := map[string]any{
		"id":               ws.WorkspaceID,
		"workspaceId":      ws.WorkspaceID,
		"start":            startStr,
		"end":              endStr,
		"isMonthlyBooking": false,
		"places":           1,
		"days":             days,
		"bookedSeats":      bookedSeats,
		"period":           "DAY",
		"rrule":            nil,
	}
	var estimate struct {
		ErrorCode any `json:"errorCode"`
	}
	if err := tx.API.Query(ctx, "POST", "/bookings/estimate", nil, estimateBody, &estimate); err != nil {
		return PaidOrder{}, fmt.Errorf("estimate %s on %s: %w", seat.Seat.Fullname, dayKey, err)
	}
	if code := errorCode(estimate.ErrorCode); code != "" {
		return PaidOrder{}, fmt.Errorf("%w: estimate for %s on %s: %s", ErrUnavailable, seat.Seat.Fullname, dayKey, code)
	}

	orderBody := map[string]any{
		"company":  map[string]any{"id": ws.CompanyID},
		"timezone": loc.String(),
		"coupon":   nil,
		"bookings": []map[string]any{{
			"id":               nil,
			"workspace":        map[string]any{"id": ws.WorkspaceID},
			"workspaceId":      ws.WorkspaceID,
			"start":            startStr,
			"end":              endStr,
			"places":           1,
			"isMonthlyBooking": false,
			"coupon":           nil,
			"period":           "DAY",
			"bookedSeats":      bookedSeats,
			"days":             days,
			"bookNextToInfo":   map[string]any{"id": nil},
			"rrule":            nil,
		}},
		"origin": "WIDGET",
	}
	var created json.RawMessage
	if err := tx.API.Query(ctx, "POST", "/orders/add", nil, orderBody, &created); err != nil {
		return PaidOrder{}, fmt.Errorf("create order for %s on %s: %w", seat.Seat.Fullname, dayKey, err)
	}
	var head struct {
		ID            json.RawMessage `json:"id"`
		TotalBookings json.RawMessage `json:"totalBookings"`
		Author        struct {
			ID json.RawMessage `json:"id"`
		} `json:"author"`
	}
	if err := json.Unmarshal(created, &head); err != nil {
		return PaidOrder{}, fmt.Errorf("%w: decode created order: %v", ErrOrderFailed, err)
	}

	price, err := parsePrice(head.TotalBookings)
	switch {
	case err != nil:
		log.Warn("unable to check order price", "total_bookings", string(head.TotalBookings), "error", err)
	case price != 0:
		return PaidOrder{}, fmt.Errorf("%w: price for %s is %v, only free orders are supported", ErrOrderFailed, seat.Seat.Fullname, price)
	}

	orderID := scalar(head.ID)
	if orderID == "" {
		return PaidOrder{}, fmt.Errorf("%w: no order id in created order", ErrOrderFailed)
	}

	payBody := map[string]any{
		"orderId":  head.ID,
		"customer": map[string]any{"id": rawOrNull(head.Author.ID)},
		"method":   "FREE",
		"methodId": nil,
		"target":   map[string]any{"kind": "ORDER", "order": created},
	}
	var paidRaw json.RawMessage
	if err := tx.API.Query(ctx, "POST", "/orders/"+url.PathEscape(orderID)+"/pay", nil, payBody, &paidRaw); err != nil {
		return PaidOrder{}, fmt.Errorf("pay order %s: %w", orderID, err)
	}
	var paid struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(paidRaw, &paid); err != nil {
		return PaidOrder{}, fmt.Errorf("%w: decode paid order %s: %v", ErrOrderFailed, orderID, err)
	}
	if paid.Status != StatusPaid {
		return PaidOrder{}, fmt.Errorf("%w: order %s has status %q after payment", ErrOrderFailed, orderID, paid.Status)
	}

	log.Info("order paid", "order_id", orderID, "start", startStr, "end", endStr)
	return PaidOrder{
		ID:            orderID,
		Status:        paid.Status,
		TotalBookings: price,
		AuthorID:      scalar(head.Author.ID),
		Raw:           paidRaw,
	}, nil
}

// Parking books the first free seat of a parking workspace.
func (tx *Transaction) Parking(ctx context.Context, seats SeatFinder, date time.Time, ws workspace.Details) (PaidOrder, error) {
	seat, err := seats.FirstAvailableSeat(ctx, ws, date)
	if err != nil {
		return PaidOrder{}, fmt.Errorf("parking %s: %w", ws.Title, err)
	}
	tx.Log.Debug("parking seat selected", "parking", ws.Title, "seat", seat.Seat.Fullname)
	return tx.Desk(ctx, date, ws, seat)
}

func (tx *Transaction) checkUnavailabilities(ctx context.Context, ws workspace.Details, day time.Time) error {
	y, m, d := day.Date()
	params := url.Values{
		"companyId": {ws.CompanyID},
		"start":     {day.Format(time.RFC3339)},
		"end":       {time.Date(y, m, d, 23, 59, 59, 0, day.Location()).Format(time.RFC3339)},
	}
	var raw json.RawMessage
	if err := tx.API.Query(ctx, "GET", "/planning/unavailabilities", params, nil, &raw); err != nil {
		return fmt.Errorf("unavailabilities on %s: %w", day.Format(time.DateOnly), err)
	}

	key := day.Format(time.DateOnly)
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Lists and nulls carry no per-date flags.
		return nil
	}
	// Only the entry for key is decoded; other entries may have any shape.
	var entry struct {
		Date string `json:"date"`
	}
	if e, ok := entries[key]; !ok || json.Unmarshal(e, &entry) != nil {
		return nil
	}
	if entry.Date == key {
		return fmt.Errorf("%w: user is unavailable on %s", ErrUnavailable, key)
	}
	return nil
}

func errorCode(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case bool:
		if c {
			return "true"
		}
		return ""
	case float64:
		if c == 0 {
			return ""
		}
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		b, _ := json.Marshal(c)
		return string(b)
	}
}

// parsePrice reads totalBookings as a number. A missing value counts as -1
// so that it never passes for a free order.
func parsePrice(raw json.RawMessage) (float64, error) {
	s := scalar(raw)
	if s == "" {
		return -1, nil
	}
	return strconv.ParseFloat(s, 64)
}

// scalar renders a JSON string or number without quotes; null is empty.
func scalar(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}

func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
