package booking

import (
	"fmt"
	"time"

	"github.com/example/moffi-scheduler/internal/reservations"
)

// Kind classifies a Decision.
type Kind int

const (
	Candidate Kind = iota
	AlreadyBooked
	TooEarly
	RangeExhausted
	ClosedDay
	NotAWorkingDay
)

var kindNames = map[Kind]string{
	Candidate:      "candidate",
	AlreadyBooked:  "already_booked",
	TooEarly:       "too_early",
	RangeExhausted: "range_exhausted",
	ClosedDay:      "closed",
	NotAWorkingDay: "not_working_day",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Decision is the evaluator's verdict for one day. Date is the instant
// now+delay in the workspace zone; Items is set for AlreadyBooked.
type Decision struct {
	Kind  Kind
	Date  time.Time
	Items []reservations.Item
}

// Day is the YYYY-MM-DD form of Date.
func (d Decision) Day() string { return d.Date.Format(time.DateOnly) }

// Weekday is the Date weekday.
func (d Decision) Weekday() time.Weekday { return d.Date.Weekday() }

func (d Decision) String() string {
	switch d.Kind {
	case ClosedDay, NotAWorkingDay:
		return fmt.Sprintf("%s %s (%s)", d.Kind, d.Day(), d.Weekday())
	case AlreadyBooked:
		return fmt.Sprintf("%s %s (%d reservations)", d.Kind, d.Day(), len(d.Items))
	}
	return fmt.Sprintf("%s %s", d.Kind, d.Day())
}
