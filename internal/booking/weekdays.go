package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekdays is a set of ISO weekday numbers, Monday=1 through Sunday=7. A nil
// set allows every day; a non-nil empty set allows none.
type Weekdays map[int]bool

// ParseWeekdays reads a comma-separated list such as "1,2,3,4,5". An empty
// string yields nil.
func ParseWeekdays(s string) (Weekdays, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	out := Weekdays{}
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > 7 {
			return nil, fmt.Errorf("invalid weekday %q: want a number from 1 (Monday) to 7 (Sunday)", f)
		}
		out[n] = true
	}
	return out, nil
}

// NewWeekdays builds a set from ISO numbers.
func NewWeekdays(days ...int) Weekdays {
	out := make(Weekdays, len(days))
	for _, d := range days {
		out[d] = true
	}
	return out
}

// ISO returns wd as an ISO weekday number.
func ISO(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// Allows reports whether wd is in the set.
func (w Weekdays) Allows(wd time.Weekday) bool {
	if w == nil {
		return true
	}
	return w[ISO(wd)]
}
