package reservations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/moffi-scheduler/internal/clock"
	"github.com/example/moffi-scheduler/internal/logging"
)

// PageSize is the number of orders requested per page.
const PageSize = 20

type Querier interface {
	Query(ctx context.Context, method, path string, params url.Values, body, out any) error
}

// Inventory lists the signed-in user's reservations.
type Inventory struct {
	API   Querier
	Clock clock.Clock
	Log   *slog.Logger
}

func NewInventory(api Querier, c clock.Clock, l *slog.Logger) *Inventory {
	if c == nil {
		c = clock.Real()
	}
	return &Inventory{API: api, Clock: c, Log: logging.OrDiscard(l)}
}

type orderPage struct {
	Content []order `json:"content"`
}

type order struct {
	Step     string    `json:"step"`
	Status   string    `json:"status"`
	Bookings []booking `json:"bookings"`
}

type booking struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Workspace struct {
		Title    string `json:"title"`
		Address  string `json:"address"`
		Type     string `json:"type"`
		Building struct {
			Name string `json:"name"`
		} `json:"building"`
	} `json:"workspace"`
	BookedSeats []struct {
		Seat struct {
			Fullname string `json:"fullname"`
		} `json:"seat"`
	} `json:"bookedSeats"`
}

// Counts returns the per-step and cancelled totals.
func (inv *Inventory) Counts(ctx context.Context) (map[string]int, error) {
	var raw map[string]json.RawMessage
	if err := inv.API.Query(ctx, "GET", "/orders/count", nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	counts := make(map[string]int, len(raw))
	for k, v := range raw {
		n, err := strconv.Atoi(strings.Trim(string(v), `"`))
		if err != nil {
			continue
		}
		counts[k] = n
	}
	return counts, nil
}

// Fetch returns every reservation in steps (all known steps when nil) plus,
// when includeCancelled is set, the cancelled ones starting after today in
// loc.
func (inv *Inventory) Fetch(ctx context.Context, steps []string, includeCancelled bool, loc *time.Location) ([]Item, error) {
	if loc == nil {
		loc = time.UTC
	}
	if steps == nil {
		steps = AllSteps
	}
	counts, err := inv.Counts(ctx)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, step := range steps {
		apiStep, known := Steps[step]
		n, counted := counts[step]
		if !known || !counted {
			inv.Log.Warn("unknown reservation step, ignoring", "step", step)
			continue
		}
		if n == 0 {
			inv.Log.Debug("no reservations", "step", step)
			continue
		}
		got, err := inv.paginate(ctx, url.Values{"step": {apiStep}, "kind": {"BOOKING"}}, n, loc, nil)
		if err != nil {
			return nil, fmt.Errorf("list %s reservations: %w", step, err)
		}
		items = append(items, got...)
	}

	if includeCancelled {
		if counts["cancelled"] == 0 {
			inv.Log.Debug("no cancelled reservations")
			return items, nil
		}
		today := Key(inv.Clock.Now(), loc)
		upcoming := func(it Item) bool { return Key(it.Start, loc) > today }
		got, err := inv.paginate(ctx, url.Values{
			"status": {StatusCancelled},
			"kind":   {"BOOKING"},
			"sort":   {"start,desc"},
		}, counts["cancelled"], loc, upcoming)
		if err != nil {
			return nil, fmt.Errorf("list cancelled reservations: %w", err)
		}
		items = append(items, got...)
	}
	return items, nil
}

// FetchByDate is Fetch grouped by local start date.
func (inv *Inventory) FetchByDate(ctx context.Context, steps []string, includeCancelled bool, loc *time.Location) (ByDate, error) {
	items, err := inv.Fetch(ctx, steps, includeCancelled, loc)
	if err != nil {
		return nil, err
	}
	return Group(items, loc), nil
}

// paginate walks /orders pages until a short page or the last page that
// total orders can fill. A non-nil keep stops the walk at the first item it
// rejects.
func (inv *Inventory) paginate(ctx context.Context, base url.Values, total int, loc *time.Location, keep func(Item) bool) ([]Item, error) {
	var items []Item
	pages := (total + PageSize - 1) / PageSize
	for page := 0; page < pages; page++ {
		params := url.Values{}
		for k, v := range base {
			params[k] = v
		}
		params.Set("size", strconv.Itoa(PageSize))
		params.Set("page", strconv.Itoa(page))

		var p orderPage
		if err := inv.API.Query(ctx, "GET", "/orders", params, nil, &p); err != nil {
			return nil, err
		}
		for _, o := range p.Content {
			for _, it := range inv.flatten(o, loc) {
				if keep != nil && !keep(it) {
					inv.Log.Debug("stopping at past reservation", "start", it.Start, "page", page)
					return items, nil
				}
				items = append(items, it)
			}
		}
		if len(p.Content) < PageSize {
			return items, nil
		}
	}
	return items, nil
}

// flatten expands an order into one Item per booked seat.
func (inv *Inventory) flatten(o order, loc *time.Location) []Item {
	var out []Item
	for _, b := range o.Bookings {
		start, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			inv.Log.Warn("skipping booking with unparsable start", "start", b.Start, "error", err)
			continue
		}
		end, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			inv.Log.Warn("skipping booking with unparsable end", "end", b.End, "error", err)
			continue
		}
		for _, s := range b.BookedSeats {
			out = append(out, Item{
				WorkspaceName:    b.Workspace.Title,
				WorkspaceAddress: b.Workspace.Address,
				WorkspaceType:    strings.ToLower(b.Workspace.Type),
				WorkspaceCity:    b.Workspace.Building.Name,
				DeskName:         s.Seat.Fullname,
				Start:            start.In(loc),
				End:              end.In(loc),
				Step:             o.Step,
				Status:           o.Status,
			})
		}
	}
	return out
}
