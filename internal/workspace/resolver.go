package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/example/moffi-scheduler/internal/clock"
	"github.com/example/moffi-scheduler/internal/logging"
)

// Querier is the API capability the resolver consumes.
type Querier interface {
	Query(ctx context.Context, method, path string, params url.Values, body, out any) error
}

// Resolver turns human-readable city, workspace and desk names into API
// identifiers and metadata.
type Resolver struct {
	API   Querier
	Clock clock.Clock
	Log   *slog.Logger
}

func NewResolver(api Querier, c clock.Clock, l *slog.Logger) *Resolver {
	if c == nil {
		c = clock.Real()
	}
	return &Resolver{API: api, Clock: c, Log: logging.OrDiscard(l)}
}

// Building is a city entry as returned by /buildings/{id}.
type Building struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Floors   []struct {
		Level int `json:"level"`
	} `json:"floors"`

	Location *time.Location `json:"-"`
}

// Building finds the building named city among those visible to the user.
func (r *Resolver) Building(ctx context.Context, city string) (Building, error) {
	var buildings []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := r.API.Query(ctx, "GET", "/users/buildings", url.Values{"withDetails": {"false"}}, nil, &buildings); err != nil {
		return Building{}, fmt.Errorf("list buildings: %w", err)
	}

	id := ""
	names := make([]string, 0, len(buildings))
	for _, b := range buildings {
		if b.Name == city {
			id = b.ID
			break
		}
		names = append(names, nameOr(b.Name))
	}
	if id == "" {
		return Building{}, &NotFoundError{Kind: "city", Name: city, Available: names}
	}

	var b Building
	if err := r.API.Query(ctx, "GET", "/buildings/"+url.PathEscape(id), nil, nil, &b); err != nil {
		return Building{}, fmt.Errorf("get building %s: %w", id, err)
	}
	tz := b.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Building{}, fmt.Errorf("building %s timezone %q: %w", city, tz, err)
	}
	b.Location = loc
	if b.Name == "" {
		b.Name = city
	}
	return b, nil
}

type availability struct {
	Workspace struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"workspace"`
	Seats []DeskAvailability `json:"seats"`
}

// Resolve finds workspaceName in city and fetches its full details.
func (r *Resolver) Resolve(ctx context.Context, city, workspaceName string) (Details, error) {
	b, err := r.Building(ctx, city)
	if err != nil {
		return Details{}, err
	}
	found, err := r.findWorkspace(ctx, b, workspaceName)
	if err != nil {
		return Details{}, err
	}

	var raw struct {
		ID      string   `json:"id"`
		Title   string   `json:"title"`
		Address string   `json:"address"`
		URL     string   `json:"url"`
		Type    string   `json:"type"`
		Floor   struct {
			Level int `json:"level"`
		} `json:"floor"`
		Building struct {
			ID string `json:"id"`
		} `json:"building"`
		Company struct {
			ID string `json:"id"`
		} `json:"company"`
		Schedule  Schedule `json:"schedule"`
		PlageMini struct {
			Minutes int `json:"minutes"`
		} `json:"plageMini"`
		PlageMaxi struct {
			Minutes int `json:"minutes"`
		} `json:"plageMaxi"`
	}
	if err := r.API.Query(ctx, "GET", "/workspaces/url/"+found.Workspace.URL, nil, nil, &raw); err != nil {
		return Details{}, fmt.Errorf("get workspace %q: %w", workspaceName, err)
	}

	d := Details{
		WorkspaceID: raw.ID,
		Title:       raw.Title,
		Address:     raw.Address,
		URL:         raw.URL,
		Type:        raw.Type,
		FloorLevel:  raw.Floor.Level,
		BuildingID:  raw.Building.ID,
		City:        b.Name,
		CompanyID:   raw.Company.ID,
		Location:    b.Location,
		Schedule:    raw.Schedule,
		Policy:      WindowPolicy{MinMinutes: raw.PlageMini.Minutes, MaxMinutes: raw.PlageMaxi.Minutes},
	}
	if d.WorkspaceID == "" {
		d.WorkspaceID = found.Workspace.ID
	}
	if d.Title == "" {
		d.Title = found.Workspace.Title
	}
	if d.BuildingID == "" {
		d.BuildingID = b.ID
	}
	if d.Schedule == nil {
		d.Schedule = Schedule{}
	}

	r.Log.Debug("workspace resolved", "city", city, "workspace", d.Title, "id", d.WorkspaceID,
		"floor", d.FloorLevel, "timezone", d.Location.String(),
		"plage_min", d.Policy.MinMinutes, "plage_max", d.Policy.MaxMinutes)
	return d, nil
}

// findWorkspace scans floors in ascending level order for a workspace whose
// title matches exactly. Availability is asked for tomorrow in the building
// zone.
func (r *Resolver) findWorkspace(ctx context.Context, b Building, name string) (availability, error) {
	levels := make([]int, 0, len(b.Floors))
	for _, f := range b.Floors {
		levels = append(levels, f.Level)
	}
	sort.Ints(levels)

	target := r.Clock.Now().In(b.Location).AddDate(0, 0, 1).Format(time.RFC3339)
	var titles []string
	for _, level := range levels {
		params := url.Values{
			"buildingId": {b.ID},
			"startDate":  {target},
			"endDate":    {target},
			"places":     {"1"},
			"period":     {"DAY"},
			"floor":      {strconv.Itoa(level)},
		}
		var floor []availability
		if err := r.API.Query(ctx, "GET", "/workspaces/availabilities", params, nil, &floor); err != nil {
			return availability{}, fmt.Errorf("workspaces on floor %d: %w", level, err)
		}
		for _, a := range floor {
			if a.Workspace.Title == name {
				return a, nil
			}
			titles = append(titles, nameOr(a.Workspace.Title))
		}
	}
	return availability{}, &NotFoundError{Kind: "workspace", Name: name, Available: titles}
}

// Seats returns every seat of the workspace with its status for date.
func (r *Resolver) Seats(ctx context.Context, d Details, date time.Time) ([]DeskAvailability, error) {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, day := date.In(loc).Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, loc)
	end := time.Date(y, m, day, 23, 59, 59, 0, loc)

	params := url.Values{
		"buildingId":  {d.BuildingID},
		"places":      {"1"},
		"period":      {"DAY"},
		"floor":       {strconv.Itoa(d.FloorLevel)},
		"workspaceId": {d.WorkspaceID},
		"startDate":   {start.Format(time.RFC3339)},
		"endDate":     {end.Format(time.RFC3339)},
	}
	var list []availability
	if err := r.API.Query(ctx, "GET", "/workspaces/availabilities", params, nil, &list); err != nil {
		return nil, fmt.Errorf("availabilities for %s on %s: %w", d.Title, start.Format(time.DateOnly), err)
	}
	if len(list) == 0 {
		return nil, &NotFoundError{Kind: "workspace", Name: d.WorkspaceID}
	}
	return list[0].Seats, nil
}

// ResolveDesk returns the availability of deskName in d on date.
func (r *Resolver) ResolveDesk(ctx context.Context, d Details, deskName string, date time.Time) (DeskAvailability, error) {
	seats, err := r.Seats(ctx, d, date)
	if err != nil {
		return DeskAvailability{}, err
	}
	return FindDesk(seats, deskName)
}

// FirstAvailableSeat returns the first AVAILABLE seat of d on date.
func (r *Resolver) FirstAvailableSeat(ctx context.Context, d Details, date time.Time) (DeskAvailability, error) {
	seats, err := r.Seats(ctx, d, date)
	if err != nil {
		return DeskAvailability{}, err
	}
	for _, s := range seats {
		if s.Available() {
			return s, nil
		}
	}
	return DeskAvailability{}, &NotFoundError{Kind: "seat", Name: StatusAvailable + " seat in " + d.Title}
}

// FindDesk picks the seat whose fullname is exactly name.
func FindDesk(seats []DeskAvailability, name string) (DeskAvailability, error) {
	names := make([]string, 0, len(seats))
	for _, s := range seats {
		if s.Seat.Fullname == name {
			return s, nil
		}
		names = append(names, nameOr(s.Seat.Fullname))
	}
	return DeskAvailability{}, &NotFoundError{Kind: "desk", Name: name, Available: names}
}

func nameOr(s string) string {
	if s == "" {
		return "NO_NAME"
	}
	return s
}
