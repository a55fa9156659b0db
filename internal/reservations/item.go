package reservations

import (
	"fmt"
	"sort"
	"time"
)

// Order steps as accepted by the inventory. The map value is the API
// representation used in the step query parameter.
var Steps = map[string]string{
	"validation": "VALIDATION",
	"invitation": "INVITATION",
	"waiting":    "WAITING",
	"inProgress": "IN_PROGRESS",
	"finished":   "FINISHED",
}

// AllSteps lists Steps keys in a stable order.
var AllSteps = []string{"validation", "invitation", "waiting", "inProgress", "finished"}

// ActiveSteps are the steps of reservations that are still going to happen.
var ActiveSteps = []string{"waiting", "inProgress"}

const StatusCancelled = "CANCELLED"

// Item is one booked seat in one reservation.
type Item struct {
	WorkspaceName    string
	WorkspaceAddress string
	WorkspaceType    string
	WorkspaceCity    string
	DeskName         string
	Start            time.Time
	End              time.Time
	Step             string
	Status           string
}

// IsParking reports whether the item books a parking spot.
func (i Item) IsParking() bool { return i.WorkspaceType == "parking" }

func (i Item) String() string {
	return fmt.Sprintf("%s - %s / status %s / step %s / from %s to %s",
		i.WorkspaceName, i.DeskName, i.Status, i.Step,
		i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// Key is the ByDate key of t in loc.
func Key(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}

// ByDate groups items by the local calendar date of their start.
type ByDate map[string][]Item

// Group builds a ByDate from items, dating each one in loc.
func Group(items []Item, loc *time.Location) ByDate {
	out := make(ByDate)
	for _, it := range items {
		k := Key(it.Start, loc)
		out[k] = append(out[k], it)
	}
	return out
}

// On returns the items starting on the local date of t.
func (b ByDate) On(t time.Time, loc *time.Location) []Item {
	return b[Key(t, loc)]
}

// Dates returns the keys in ascending order.
func (b ByDate) Dates() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
