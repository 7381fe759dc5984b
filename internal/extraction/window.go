package extraction

import (
	"fmt"
	"time"

	"github.com/woskam/looker-studio-automation/pkg/contracts/domain"
)

// Window is the Sunday-to-Saturday week that one export covers.
type Window struct {
	Start  time.Time // Sunday, midnight local time
	End    time.Time // the following Saturday
	Period domain.Period
}

// PreviousWeek returns the full week before the one containing now, with
// weeks running Sunday to Saturday. On a Sunday the previous week starts
// seven days earlier. The Period is the ISO week and ISO year of the Sunday.
func PreviousWeek(now time.Time) Window {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	back := int(today.Weekday())
	if back == 0 {
		back = 7
	} else {
		back += 7
	}

	start := today.AddDate(0, 0, -back)
	return Window{
		Start:  start,
		End:    start.AddDate(0, 0, 6),
		Period: domain.PeriodOf(start),
	}
}

// String renders the window as shown in the dashboard's date picker,
// e.g. "Jan 5, 2025 - Jan 11, 2025".
func (w Window) String() string {
	return shortDate(w.Start) + " - " + shortDate(w.End)
}

func shortDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// dayLabels are the aria-labels a calendar cell for t may carry, long month
// name first.
func dayLabels(t time.Time) []string {
	return []string{
		fmt.Sprintf("%s %d, %d", t.Month(), t.Day(), t.Year()),
		shortDate(t),
	}
}
