package calendar

import (
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/example/moffi-scheduler/internal/reservations"
)

const productID = "-//moffisched//calendar//EN"

// uidSpace namespaces event UIDs so the same reservation keeps its UID
// across renders.
var uidSpace = uuid.MustParse("6f1c2a8e-4d3b-4b7a-9a51-0c8f5e2d7b10")

// Render returns an iCalendar document with one event per item, stamped
// with stamp.
func Render(items []reservations.Item, stamp time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, it := range items {
		ev := cal.AddEvent(EventUID(it))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(it.Start.UTC())
		ev.SetEndAt(it.End.UTC())
		ev.SetSummary(it.WorkspaceName + " - " + it.DeskName)
		if it.WorkspaceAddress != "" {
			ev.SetLocation(it.WorkspaceAddress)
		}
	}
	return []byte(cal.Serialize())
}

// EventUID is stable for a given workspace, desk and start.
func EventUID(it reservations.Item) string {
	key := it.WorkspaceName + "|" + it.DeskName + "|" + it.Start.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(uidSpace, []byte(key)).String() + "@moffisched"
}
