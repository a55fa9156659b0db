package reservations_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/example/moffi-scheduler/internal/clock"
	"github.com/example/moffi-scheduler/internal/moffi"
	"github.com/example/moffi-scheduler/internal/moffi/moffitest"
	"github.com/example/moffi-scheduler/internal/reservations"
)

var now = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func order(step, status, start string, seats ...string) map[string]any {
	booked := make([]map[string]any, 0, len(seats))
	for _, s := range seats {
		booked = append(booked, map[string]any{"seat": map[string]any{"fullname": s}})
	}
	return map[string]any{
		"step":   step,
		"status": status,
		"bookings": []map[string]any{{
			"start": start,
			"end":   start,
			"workspace": map[string]any{
				"title":    "Aquarium",
				"address":  "1 rue de la Paix",
				"type":     "DESK",
				"building": map[string]any{"name": "Paris"},
			},
			"bookedSeats": booked,
		}},
	}
}

func orders(n int, step string, first time.Time) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = order(step, "PAID", first.AddDate(0, 0, i).Format(time.RFC3339), "A"+strconv.Itoa(i))
	}
	return out
}

func TestFetchPaginates(t *testing.T) {
	api := moffitest.New(t)
	api.JSON("GET", "/orders/count", map[string]int{"waiting": 25, "inProgress": 0, "cancelled": 0})
	first := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	api.Handle("GET", "/orders", func(r *http.Request, _ []byte) (int, any) {
		switch r.URL.Query().Get("page") {
		case "0":
			return http.StatusOK, map[string]any{"content": orders(20, "WAITING", first)}
		case "1":
			return http.StatusOK, map[string]any{"content": orders(5, "WAITING", first.AddDate(0, 0, 20))}
		}
		return http.StatusOK, map[string]any{"content": []any{}}
	})

	inv := reservations.NewInventory(api.Client(), clock.Fixed(now), nil)
	items, err := inv.Fetch(context.Background(), []string{"waiting", "inProgress", "bogus"}, true, time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 25 {
		t.Errorf("len(items) = %d, want 25", len(items))
	}

	calls := api.Calls("GET", "/orders")
	if len(calls) != 2 {
		t.Fatalf("/orders calls = %d, want 2", len(calls))
	}
	for i, c := range calls {
		q := c.Query
		if q.Get("step") != "WAITING" || q.Get("kind") != "BOOKING" || q.Get("size") != "20" || q.Get("page") != strconv.Itoa(i) {
			t.Errorf("call %d query = %v", i, q)
		}
	}
	it := items[0]
	if it.WorkspaceType != "desk" || it.WorkspaceCity != "Paris" || it.Step != "WAITING" {
		t.Errorf("item = %+v", it)
	}
}

func TestFetchStopsAtCountedPages(t *testing.T) {
	api := moffitest.New(t)
	api.JSON("GET", "/orders/count", map[string]int{"waiting": 30})
	// The server ignores page and always answers a full page.
	api.JSON("GET", "/orders", map[string]any{"content": orders(20, "WAITING", time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC))})

	inv := reservations.NewInventory(api.Client(), clock.Fixed(now), nil)
	items, err := inv.Fetch(context.Background(), []string{"waiting"}, false, time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls := api.Calls("GET", "/orders"); len(calls) != 2 {
		t.Errorf("/orders calls = %d, want 2", len(calls))
	}
	if len(items) != 40 {
		t.Errorf("len(items) = %d, want 40", len(items))
	}
}

func TestFetchFlattensSeats(t *testing.T) {
	api := moffitest.New(t)
	api.JSON("GET", "/orders/count", map[string]int{"inProgress": 1})
	api.JSON("GET", "/orders", map[string]any{"content": []any{
		order("IN_PROGRESS", "PAID", "2024-03-06T08:00:00Z", "A1", "A2", "A3"),
	}})

	inv := reservations.NewInventory(api.Client(), clock.Fixed(now), nil)
	byDate, err := inv.FetchByDate(context.Background(), []string{"inProgress"}, false, time.UTC)
	if err != nil {
		t.Fatalf("FetchByDate: %v", err)
	}
	day := byDate["2024-03-06"]
	if len(day) != 3 {
		t.Fatalf("items on 2024-03-06 = %d, want 3", len(day))
	}
	for i, want := range []string{"A1", "A2", "A3"} {
		if day[i].DeskName != want || !day[i].Start.Equal(day[0].Start) {
			t.Errorf("item %d = %+v", i, day[i])
		}
	}
}

func TestFetchCancelledCutoff(t *testing.T) {
	api := moffitest.New(t)
	api.JSON("GET", "/orders/count", map[string]int{"cancelled": 50})
	api.Handle("GET", "/orders", func(r *http.Request, _ []byte) (int, any) {
		if r.URL.Query().Get("page") != "0" {
			t.Errorf("requested page %s after the cutoff", r.URL.Query().Get("page"))
		}
		content := []any{
			order("FINISHED", "CANCELLED", "2024-03-08T08:00:00Z", "C1"),
			order("FINISHED", "CANCELLED", "2024-03-05T08:00:00Z", "C2"),
			order("FINISHED", "CANCELLED", "2024-03-04T08:00:00Z", "C3"),
		}
		for i := 0; i < 20; i++ {
			content = append(content, order("FINISHED", "CANCELLED", "2024-02-01T08:00:00Z", fmt.Sprint("old", i)))
		}
		return http.StatusOK, map[string]any{"content": content}
	})

	inv := reservations.NewInventory(api.Client(), clock.Fixed(now), nil)
	items, err := inv.Fetch(context.Background(), []string{}, true, time.UTC)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 || items[0].DeskName != "C1" || items[1].DeskName != "C2" {
		t.Errorf("items = %v, want C1 and C2", items)
	}
	q := api.Calls("GET", "/orders")[0].Query
	if q.Get("status") != "CANCELLED" || q.Get("sort") != "start,desc" {
		t.Errorf("query = %v", q)
	}
}

func TestFetchErrors(t *testing.T) {
	t.Run("auth required", func(t *testing.T) {
		inv := reservations.NewInventory(moffi.New(moffi.Options{BaseURL: "http://127.0.0.1:1"}), clock.Fixed(now), nil)
		_, err := inv.Fetch(context.Background(), nil, false, time.UTC)
		if !errors.Is(err, moffi.ErrAuthRequired) {
			t.Errorf("err = %v, want ErrAuthRequired", err)
		}
	})

	t.Run("remote error", func(t *testing.T) {
		api := moffitest.New(t)
		api.JSON("GET", "/orders/count", map[string]int{"waiting": 1})
		api.Handle("GET", "/orders", func(*http.Request, []byte) (int, any) {
			return http.StatusInternalServerError, map[string]string{"error": "boom"}
		})
		inv := reservations.NewInventory(api.Client(), clock.Fixed(now), nil)
		_, err := inv.Fetch(context.Background(), nil, false, time.UTC)
		var re *moffi.RemoteError
		if !errors.As(err, &re) || re.StatusCode != http.StatusInternalServerError {
			t.Errorf("err = %v, want RemoteError 500", err)
		}
	})
}

func TestGroupUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	items := []reservations.Item{
		{DeskName: "late", Start: time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)},
		{DeskName: "early", Start: time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)},
	}
	byDate := reservations.Group(items, tokyo)
	if got := len(byDate["2024-03-05"]); got != 2 {
		t.Errorf("items on 2024-03-05 JST = %d, want 2", got)
	}
	if got := byDate.Dates(); len(got) != 1 {
		t.Errorf("Dates = %v", got)
	}
}
