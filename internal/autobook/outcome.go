package autobook

import (
	"fmt"
	"time"

	"github.com/example/moffi-scheduler/internal/booking"
)

// Outcome kinds.
const (
	Booked          = "booked"
	AlreadyBooked   = "already_booked"
	TooEarly        = "too_early"
	RangeExhausted  = "range_exhausted"
	Closed          = "closed"
	NotWorkingDay   = "not_working_day"
	DeskUnavailable = "desk_unavailable"
	Unavailable     = "unavailable"
	OrderFailed     = "order_failed"
	NotFound        = "not_found"
	ParkingBooked   = "parking_booked"
)

// Outcome is the result of one day of a run.
type Outcome struct {
	Date     time.Time
	Kind     string
	Decision booking.Decision
	Detail   string
	OrderID  string
}

// Day is the YYYY-MM-DD form of Date.
func (o Outcome) Day() string { return o.Date.Format(time.DateOnly) }

// Attempted reports whether the outcome involved an order attempt.
func (o Outcome) Attempted() bool {
	switch o.Kind {
	case Booked, ParkingBooked, Unavailable, OrderFailed:
		return true
	}
	return false
}

func (o Outcome) String() string {
	s := o.Day() + " " + o.Kind
	if o.OrderID != "" {
		s += " order=" + o.OrderID
	}
	if o.Detail != "" {
		s += ": " + o.Detail
	}
	return s
}

func fromDecision(d booking.Decision) Outcome {
	o := Outcome{Date: d.Date, Kind: d.Kind.String(), Decision: d}
	switch d.Kind {
	case booking.AlreadyBooked:
		o.Detail = fmt.Sprintf("%d existing reservations", len(d.Items))
		if len(d.Items) > 0 {
			o.Detail = d.Items[0].String()
		}
	case booking.ClosedDay:
		o.Detail = "workspace closed on " + d.Weekday().String()
	case booking.NotAWorkingDay:
		o.Detail = d.Weekday().String() + " is not a configured working day"
	case booking.TooEarly:
		o.Detail = "too close from now"
	case booking.RangeExhausted:
		o.Detail = "out of workspace booking range"
	}
	return o
}
