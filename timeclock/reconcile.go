/*
reconcile.go - Event Reconciler

PURPOSE:
  Pairs one employee's ordered clock events into WorkedShifts using a
  single "open clock-in" cursor.

RULES:
  in,  cursor empty  -> cursor = in
  in,  cursor open   -> emit cursor as incomplete (0h), cursor = in
  out, cursor open   -> emit completed shift, clear cursor
  out, cursor empty  -> ignored (malformed data, nothing to pair with)
  end, cursor open   -> emit cursor as incomplete

  A forgotten clock-out is never dropped: it surfaces as an incomplete
  shift so an operator can fix it.

EXAMPLE:
  [IN 09:00, IN 09:05, OUT 09:10]
    -> {09:00, incomplete, 0h}
    -> {09:05-09:10, 0.0833h}

PRECONDITIONS:
  Field-level validity (employee id, parseable timestamp) is checked
  upstream. Events are processed in ascending timestamp order; the input
  is stably sorted first so equal timestamps keep their given order.
*/
package timeclock

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/clock"
)

var msPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

// HoursBetween returns (out - in) in hours. Non-positive spans yield zero.
func HoursBetween(in, out time.Time) decimal.Decimal {
	d := out.Sub(in)
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(d.Milliseconds()).Div(msPerHour)
}

// Reconcile pairs events into shifts. Flags other than Incomplete are left
// for the Detector.
func Reconcile(events []ClockEvent) []WorkedShift {
	ordered := make([]ClockEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var (
		shifts []WorkedShift
		open   *ClockEvent
	)

	for i := range ordered {
		ev := ordered[i]
		switch ev.Type {
		case EventIn:
			if open != nil {
				shifts = append(shifts, incompleteShift(*open))
			}
			open = &ordered[i]

		case EventOut:
			if open == nil {
				continue
			}
			shifts = append(shifts, completedShift(*open, ev))
			open = nil
		}
	}

	if open != nil {
		shifts = append(shifts, incompleteShift(*open))
	}
	return shifts
}

func incompleteShift(in ClockEvent) WorkedShift {
	return WorkedShift{
		EmployeeID: in.EmployeeID,
		Date:       clock.DateOf(in.Timestamp),
		ClockIn:    in.Timestamp,
		Hours:      decimal.Zero,
		Flags:      Flags{Incomplete: true},
		Source:     SourceEvents{InID: in.ID},
	}
}

func completedShift(in, out ClockEvent) WorkedShift {
	outAt := out.Timestamp
	outID := out.ID
	return WorkedShift{
		EmployeeID:        in.EmployeeID,
		Date:              clock.DateOf(in.Timestamp),
		ClockIn:           in.Timestamp,
		ClockOut:          &outAt,
		Hours:             HoursBetween(in.Timestamp, outAt),
		Source:            SourceEvents{InID: in.ID, OutID: &outID},
		OutManuallyEdited: out.ManuallyEdited,
	}
}
