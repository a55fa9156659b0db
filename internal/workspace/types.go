package workspace

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Details is everything the scheduler needs to know about one bookable
// workspace. Location is the building's zone and governs all date math for
// this workspace.
type Details struct {
	WorkspaceID string
	Title       string
	Address     string
	URL         string
	Type        string
	FloorLevel  int
	BuildingID  string
	City        string
	CompanyID   string
	Location    *time.Location
	Schedule    Schedule
	Policy      WindowPolicy
}

// Now returns now converted to the workspace zone.
func (d Details) Now(now time.Time) time.Time {
	if d.Location == nil {
		return now.UTC()
	}
	return now.In(d.Location)
}

// WindowPolicy bounds how far ahead of now a day may be booked.
type WindowPolicy struct {
	MinMinutes int
	MaxMinutes int
}

// Bounds returns the earliest and latest bookable instants relative to now.
// The upper bound is widened to the last nanosecond of its calendar day in
// now's zone.
func (p WindowPolicy) Bounds(now time.Time) (earliest, latest time.Time) {
	earliest = now.Add(time.Duration(p.MinMinutes) * time.Minute)
	upper := now.Add(time.Duration(p.MaxMinutes) * time.Minute)
	y, m, d := upper.Date()
	latest = time.Date(y, m, d, 23, 59, 59, 999999999, upper.Location())
	return earliest, latest
}

// DaySchedule is one weekday entry of a workspace schedule. A nil time is
// absent from the API response.
type DaySchedule struct {
	IsOpen           *bool   `json:"isOpen"`
	BeginningMorning *string `json:"beginningMorning"`
	EndingAfternoon  *string `json:"endingAfternoon"`
}

// Open reports whether the day is explicitly open.
func (d DaySchedule) Open() bool { return d.IsOpen != nil && *d.IsOpen }

// Closed reports whether the day is explicitly closed. A missing flag is
// neither open nor closed.
func (d DaySchedule) Closed() bool { return d.IsOpen != nil && !*d.IsOpen }

// Hours returns the booking start and end instants, in UTC, for the calendar
// day of date in loc. Absent times default to 00:00 and 23:59 local; a
// malformed time, the empty string included, falls back to 00:00:00 (start)
// or 23:59:59 (end) UTC.
func (d DaySchedule) Hours(date time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, day := date.In(loc).Date()

	open := "00:00"
	if d.BeginningMorning != nil {
		open = *d.BeginningMorning
	}
	if h, mi, ok := parseClock(open); ok {
		start = time.Date(y, m, day, h, mi, 0, 0, loc).UTC()
	} else {
		start = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}

	closing := "23:59"
	if d.EndingAfternoon != nil {
		closing = *d.EndingAfternoon
	}
	if h, mi, ok := parseClock(closing); ok {
		end = time.Date(y, m, day, h, mi, 0, 0, loc).UTC()
	} else {
		end = time.Date(y, m, day, 23, 59, 59, 0, time.UTC)
	}
	return start, end
}

// parseClock reads "HH:MM" (extra ":SS" ignored).
func parseClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	mi, err := strconv.Atoi(parts[1])
	if err != nil || mi < 0 || mi > 59 {
		return 0, 0, false
	}
	return h, mi, true
}

// Schedule maps lower-case English weekday names to their entry.
type Schedule map[string]DaySchedule

// UnmarshalJSON lower-cases day names and skips entries that are not
// objects.
func (s *Schedule) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Schedule, len(raw))
	for day, v := range raw {
		var ds DaySchedule
		if err := json.Unmarshal(v, &ds); err != nil {
			continue
		}
		out[strings.ToLower(day)] = ds
	}
	*s = out
	return nil
}

// Day returns the entry for wd.
func (s Schedule) Day(wd time.Weekday) (DaySchedule, bool) {
	ds, ok := s[strings.ToLower(wd.String())]
	return ds, ok
}

// ClosedOn reports whether the schedule explicitly closes wd.
func (s Schedule) ClosedOn(wd time.Weekday) bool {
	ds, ok := s.Day(wd)
	return ok && ds.Closed()
}

// Seat is a bookable place. Raw keeps the API object verbatim so it can be
// echoed back in estimate and order payloads.
type Seat struct {
	ID       string
	Fullname string
	Raw      json.RawMessage
}

func (s *Seat) UnmarshalJSON(b []byte) error {
	var v struct {
		ID       json.RawMessage `json:"id"`
		Fullname string          `json:"fullname"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if id := string(v.ID); id != "" && id != "null" {
		s.ID = strings.Trim(id, `"`)
	}
	s.Fullname = v.Fullname
	s.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (s Seat) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	return json.Marshal(map[string]string{"id": s.ID, "fullname": s.Fullname})
}

// Desk availability statuses.
const (
	StatusAvailable   = "AVAILABLE"
	StatusUnavailable = "UNAVAILABLE"
)

// DeskAvailability is one seat's state for one (workspace, floor, date).
type DeskAvailability struct {
	Seat   Seat   `json:"seat"`
	Status string `json:"status"`
}

// Available reports whether the seat can be booked.
func (d DeskAvailability) Available() bool { return d.Status == StatusAvailable }
