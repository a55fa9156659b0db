// Package booking decides, day by day, whether a desk should be booked.
// Evaluate performs no I/O.
package booking

import (
	"time"

	"github.com/example/moffi-scheduler/internal/reservations"
	"github.com/example/moffi-scheduler/internal/workspace"
)

// DefaultHorizon is the default number of days looked ahead. The horizon
// day itself is never evaluated.
const DefaultHorizon = 30

// Evaluate walks delays 1..horizon-1 from now and returns one Decision per
// visited day. The walk ends after the first RangeExhausted.
func Evaluate(now time.Time, ws workspace.Details, byDate reservations.ByDate, allowed Weekdays, horizon int) []Decision {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	now = ws.Now(now)
	earliest, latest := ws.Policy.Bounds(now)

	var out []Decision
	for delay := 1; delay < horizon; delay++ {
		future := now.AddDate(0, 0, delay)

		if items := byDate.On(future, ws.Location); len(items) > 0 {
			out = append(out, Decision{Kind: AlreadyBooked, Date: future, Items: items})
			continue
		}
		if future.Before(earliest) {
			out = append(out, Decision{Kind: TooEarly, Date: future})
			continue
		}
		if future.After(latest) {
			out = append(out, Decision{Kind: RangeExhausted, Date: future})
			break
		}
		if ws.Schedule.ClosedOn(future.Weekday()) {
			out = append(out, Decision{Kind: ClosedDay, Date: future})
			continue
		}
		if !allowed.Allows(future.Weekday()) {
			out = append(out, Decision{Kind: NotAWorkingDay, Date: future})
			continue
		}
		out = append(out, Decision{Kind: Candidate, Date: future})
	}
	return out
}

// InWindow tests t against policy relative to now: -1 when too early, 1
// when past the widened upper bound, 0 otherwise.
func InWindow(now, t time.Time, policy workspace.WindowPolicy) int {
	earliest, latest := policy.Bounds(now)
	switch {
	case t.Before(earliest):
		return -1
	case t.After(latest):
		return 1
	}
	return 0
}
