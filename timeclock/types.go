/*
Package timeclock turns raw clock-in/clock-out events into worked shifts
and annotates them with anomaly flags.

PURPOSE:
  ClockEvents are owned by the external time-clock subsystem. This
  package only reads them, pairs them into WorkedShifts, and can ask the
  subsystem for corrections. A WorkedShift is DERIVED: it is recomputed
  from the current event set on every read and is never persisted.

KEY CONCEPTS IN THIS FILE (types.go):
  - ClockEvent:  One raw in/out punch
  - WorkedShift: One clock-in paired with at most one clock-out
  - Flags:       Incomplete (set by the reconciler), AutoClockOut and
                 Suspicious (set by the Detector)

SEE ALSO:
  - reconcile.go:   Event Reconciler
  - flags.go:       Flag Detector and red-flag triage
  - corrections.go: Batched manual corrections
*/
package timeclock

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/clock"
)

// =============================================================================
// CLOCK EVENT - Raw punch from the time-clock subsystem
// =============================================================================

// EventType is the direction of a punch.
type EventType string

const (
	EventIn  EventType = "in"
	EventOut EventType = "out"
)

// ParseEventType accepts "in" or "out".
func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventIn, EventOut:
		return EventType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEventType, s)
	}
}

// ClockEvent is one punch. ManuallyEdited is set by the time-clock subsystem
// whenever an operator changed the timestamp after the fact.
type ClockEvent struct {
	ID             string
	EmployeeID     string
	Type           EventType
	Timestamp      time.Time
	ManuallyEdited bool
}

// =============================================================================
// WORKED SHIFT - Derived pairing, never persisted
// =============================================================================

// Flags are the anomaly markers of one shift.
type Flags struct {
	Incomplete   bool // Clock-in with no matching clock-out
	AutoClockOut bool // Clock-out presumed system-generated at the cutoff
	Suspicious   bool // Positive but shorter than five minutes
}

// SourceEvents identifies the rows a shift was built from so edits can
// target them exactly.
type SourceEvents struct {
	InID  string
	OutID *string
}

// WorkedShift is one clock-in with an optional clock-out.
//
// INVARIANTS:
//   - Hours >= 0
//   - Flags.Incomplete implies ClockOut == nil and Hours == 0
type WorkedShift struct {
	EmployeeID string
	Date       clock.Date // Business-local date of the clock-in
	ClockIn    time.Time
	ClockOut   *time.Time
	Hours      decimal.Decimal
	Flags      Flags
	Source     SourceEvents

	// OutManuallyEdited carries the clock-out event's edit marker for the
	// auto-clockout heuristic.
	OutManuallyEdited bool
}

// Complete reports whether the shift has a clock-out.
func (s WorkedShift) Complete() bool { return s.ClockOut != nil }

// TotalHours sums hours over shifts. Incomplete shifts contribute zero.
func TotalHours(shifts []WorkedShift) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shifts {
		if !s.Complete() {
			continue
		}
		total = total.Add(s.Hours)
	}
	return total
}
