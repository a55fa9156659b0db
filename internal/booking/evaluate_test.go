package booking

import (
	"testing"
	"time"

	"github.com/example/moffi-scheduler/internal/reservations"
	"github.com/example/moffi-scheduler/internal/workspace"
)

func paris(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

func boolPtr(b bool) *bool { return &b }

// monday 2024-03-04 09:00 in Paris.
func fixture(t *testing.T) (time.Time, workspace.Details) {
	loc := paris(t)
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, loc)
	ws := workspace.Details{
		Title:    "Aquarium",
		Location: loc,
		Policy:   workspace.WindowPolicy{MinMinutes: 60, MaxMinutes: 7 * 24 * 60},
		Schedule: workspace.Schedule{},
	}
	return now, ws
}

func kinds(ds []Decision) []Kind {
	out := make([]Kind, len(ds))
	for i, d := range ds {
		out[i] = d.Kind
	}
	return out
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEvaluateWorkweekScenario(t *testing.T) {
	now, ws := fixture(t)
	ws.Schedule["sunday"] = workspace.DaySchedule{IsOpen: boolPtr(false)}

	got := Evaluate(now.UTC(), ws, reservations.ByDate{}, NewWeekdays(1, 2, 3, 4, 5), DefaultHorizon)

	want := []Kind{
		Candidate,      // tue 5
		Candidate,      // wed 6
		Candidate,      // thu 7
		Candidate,      // fri 8
		NotAWorkingDay, // sat 9
		ClosedDay,      // sun 10
		Candidate,      // mon 11, last day of the window
		RangeExhausted, // tue 12
	}
	if !equalKinds(kinds(got), want) {
		t.Fatalf("kinds = %v, want %v", kinds(got), want)
	}
	if d := got[0].Day(); d != "2024-03-05" {
		t.Errorf("first day = %s, want 2024-03-05", d)
	}
	if got[0].Date.Location() != ws.Location {
		t.Errorf("decision dated in %v, want workspace zone", got[0].Date.Location())
	}
	if got[5].Weekday() != time.Sunday {
		t.Errorf("closed day weekday = %v", got[5].Weekday())
	}
}

func TestEvaluateAlreadyBooked(t *testing.T) {
	now, ws := fixture(t)
	item := reservations.Item{DeskName: "A1", Start: time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC)}
	byDate := reservations.Group([]reservations.Item{item}, ws.Location)

	got := Evaluate(now, ws, byDate, nil, DefaultHorizon)
	for _, d := range got {
		if d.Day() != "2024-03-06" {
			continue
		}
		if d.Kind != AlreadyBooked {
			t.Errorf("2024-03-06 = %v, want already_booked", d.Kind)
		}
		if len(d.Items) != 1 || d.Items[0].DeskName != "A1" {
			t.Errorf("items = %v", d.Items)
		}
	}
	for _, d := range got {
		if d.Kind == Candidate && len(byDate.On(d.Date, ws.Location)) > 0 {
			t.Errorf("candidate on booked day %s", d.Day())
		}
	}
}

func TestEvaluateAlreadyBookedBeforeWindow(t *testing.T) {
	now, ws := fixture(t)
	ws.Policy.MinMinutes = 3 * 24 * 60
	item := reservations.Item{Start: time.Date(2024, 3, 5, 9, 0, 0, 0, ws.Location)}

	got := Evaluate(now, ws, reservations.Group([]reservations.Item{item}, ws.Location), nil, 4)
	want := []Kind{AlreadyBooked, TooEarly, Candidate}
	if !equalKinds(kinds(got), want) {
		t.Errorf("kinds = %v, want %v", kinds(got), want)
	}
}

func TestEvaluateStopsAtRangeExhausted(t *testing.T) {
	now, ws := fixture(t)
	ws.Policy.MaxMinutes = 2 * 24 * 60

	got := Evaluate(now, ws, reservations.ByDate{}, nil, DefaultHorizon)
	if len(got) == 0 || got[len(got)-1].Kind != RangeExhausted {
		t.Fatalf("kinds = %v, want trailing range_exhausted", kinds(got))
	}
	for _, d := range got[:len(got)-1] {
		if d.Kind == RangeExhausted {
			t.Errorf("range_exhausted before the end: %v", kinds(got))
		}
	}
	if n := len(got); n != 3 {
		t.Errorf("decisions = %d, want 3", n)
	}
}

func TestEvaluateEmptyWeekdays(t *testing.T) {
	now, ws := fixture(t)
	ws.Policy.MaxMinutes = 60 * 24 * 60

	got := Evaluate(now, ws, reservations.ByDate{}, Weekdays{}, DefaultHorizon)
	for _, d := range got {
		if d.Kind != NotAWorkingDay {
			t.Errorf("%s = %v, want not_working_day", d.Day(), d.Kind)
		}
	}
}

func TestEvaluateHorizonExclusive(t *testing.T) {
	now, ws := fixture(t)
	ws.Policy.MaxMinutes = 60 * 24 * 60

	tests := []struct {
		horizon int
		want    int
	}{
		{horizon: 1, want: 0},
		{horizon: 2, want: 1},
		{horizon: 10, want: 9},
		{horizon: 0, want: DefaultHorizon - 1},
	}
	for _, tt := range tests {
		if got := len(Evaluate(now, ws, nil, nil, tt.horizon)); got != tt.want {
			t.Errorf("horizon %d: decisions = %d, want %d", tt.horizon, got, tt.want)
		}
	}
}

func TestParseWeekdays(t *testing.T) {
	tests := []struct {
		in      string
		want    Weekdays
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "1,2, 3", want: NewWeekdays(1, 2, 3)},
		{in: "7", want: NewWeekdays(7)},
		{in: "0", wantErr: true},
		{in: "mon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseWeekdays(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWeekdays(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if len(got) != len(tt.want) || (got == nil) != (tt.want == nil) {
			t.Errorf("ParseWeekdays(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for d := range tt.want {
			if !got[d] {
				t.Errorf("ParseWeekdays(%q) missing %d", tt.in, d)
			}
		}
	}
	if !Weekdays(nil).Allows(time.Sunday) {
		t.Error("nil set should allow sunday")
	}
	if NewWeekdays(1).Allows(time.Sunday) || !NewWeekdays(7).Allows(time.Sunday) {
		t.Error("sunday must map to ISO 7")
	}
}

func TestInWindow(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	p := workspace.WindowPolicy{MinMinutes: 24 * 60, MaxMinutes: 3 * 24 * 60}
	tests := []struct {
		at   time.Time
		want int
	}{
		{time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC), -1},
		{time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), 1},
	}
	for _, tt := range tests {
		if got := InWindow(now, tt.at, p); got != tt.want {
			t.Errorf("InWindow(%v) = %d, want %d", tt.at, got, tt.want)
		}
	}
}
