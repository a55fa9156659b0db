package workspace

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWindowPolicyBounds(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	p := WindowPolicy{MinMinutes: 90, MaxMinutes: 2 * 24 * 60}

	earliest, latest := p.Bounds(now)
	if want := time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC); !earliest.Equal(want) {
		t.Errorf("earliest = %v, want %v", earliest, want)
	}
	if want := time.Date(2024, 3, 6, 23, 59, 59, 999999999, time.UTC); !latest.Equal(want) {
		t.Errorf("latest = %v, want %v", latest, want)
	}
}

func strPtr(s string) *string { return &s }

func TestDayScheduleHours(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	date := time.Date(2024, 3, 6, 12, 0, 0, 0, paris)

	tests := []struct {
		name      string
		day       DaySchedule
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "local hours converted to UTC",
			day:       DaySchedule{BeginningMorning: strPtr("08:00"), EndingAfternoon: strPtr("19:30")},
			wantStart: time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 6, 18, 30, 0, 0, time.UTC),
		},
		{
			name:      "absent times cover the local day",
			day:       DaySchedule{},
			wantStart: time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 6, 22, 59, 0, 0, time.UTC),
		},
		{
			name:      "malformed times fall back to UTC day bounds",
			day:       DaySchedule{BeginningMorning: strPtr("25:99"), EndingAfternoon: strPtr("late")},
			wantStart: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 6, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "empty times are malformed",
			day:       DaySchedule{BeginningMorning: strPtr(""), EndingAfternoon: strPtr("")},
			wantStart: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 6, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "seconds are ignored",
			day:       DaySchedule{BeginningMorning: strPtr("09:15:42"), EndingAfternoon: strPtr("17:00:00")},
			wantStart: time.Date(2024, 3, 6, 8, 15, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 6, 16, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.day.Hours(date, paris)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestScheduleUnmarshal(t *testing.T) {
	var s Schedule
	raw := `{"MONDAY": {"isOpen": true}, "Tuesday": {"isOpen": false}, "wednesday": "n/a", "thursday": {}}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if d, ok := s.Day(time.Monday); !ok || !d.Open() {
		t.Errorf("monday = %+v, %v", d, ok)
	}
	if !s.ClosedOn(time.Tuesday) {
		t.Error("tuesday should be closed")
	}
	if _, ok := s.Day(time.Wednesday); ok {
		t.Error("non-object wednesday should be skipped")
	}
	if d, _ := s.Day(time.Thursday); d.Open() || d.Closed() {
		t.Errorf("thursday without flag = %+v, want neither open nor closed", d)
	}
	if s.ClosedOn(time.Friday) {
		t.Error("missing friday is not closed")
	}
}

func TestSeatRoundTripKeepsRaw(t *testing.T) {
	in := `{"seat":{"id":42,"fullname":"B7","extra":{"x":1}},"status":"AVAILABLE"}`
	var d DeskAvailability
	if err := json.Unmarshal([]byte(in), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if d.Seat.ID != "42" || d.Seat.Fullname != "B7" || !d.Available() {
		t.Errorf("decoded = %+v", d)
	}
	out, err := json.Marshal(d.Seat)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"id":42,"fullname":"B7","extra":{"x":1}}` {
		t.Errorf("Marshal = %s", out)
	}
}
