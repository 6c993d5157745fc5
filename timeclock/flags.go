/*
flags.go - Flag Detector and red-flag triage

PURPOSE:
  Annotates WorkedShifts with anomaly flags on top of the Incomplete flag
  set by the reconciler, and classifies shifts for the exception view.

FLAGS:
  AutoClockOut: clock-out lands on the cutoff minute (18:30 business-local)
                and the out event was NOT manually edited. The time-clock
                subsystem force-closes open shifts at that minute, so such a
                punch is presumed system-generated and goes to owner review.
  Suspicious:   0 < hours < 0.0833 (five minutes). Feeds the separate
                flagged-activity list.

RED FLAG (triage):
  AutoClockOut OR hours > 13 OR 0 < hours < 0.5

  Incomplete on its own is NOT a red flag: someone currently clocked in is
  a normal state. The short-shift bound is exclusive, 0.5h exactly is clean.

TOLERANCE:
  Detector.Tolerance widens the cutoff match to +/- Tolerance. Zero (the
  default) means exact hour:minute equality, seconds ignored.
*/
package timeclock

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/clock"
)

// =============================================================================
// THRESHOLDS
// =============================================================================

var (
	// SuspiciousBelow is the exclusive upper bound for a suspicious shift.
	SuspiciousBelow = decimal.RequireFromString("0.0833")

	// ShortShiftBelow is the exclusive upper bound for a short-shift red flag.
	ShortShiftBelow = decimal.RequireFromString("0.5")

	// LongShiftAbove is the exclusive lower bound for a long-shift red flag.
	LongShiftAbove = decimal.NewFromInt(13)
)

const (
	DefaultCutoffHour   = 18
	DefaultCutoffMinute = 30
)

// =============================================================================
// DETECTOR
// =============================================================================

// Detector sets AutoClockOut and Suspicious.
type Detector struct {
	Location     *time.Location
	CutoffHour   int
	CutoffMinute int
	Tolerance    time.Duration
}

// NewDetector returns a detector with the 18:30 business-local cutoff.
func NewDetector() *Detector {
	return &Detector{
		Location:     clock.Location(),
		CutoffHour:   DefaultCutoffHour,
		CutoffMinute: DefaultCutoffMinute,
	}
}

// IsAutoClockOut applies the cutoff heuristic to one clock-out.
func (d *Detector) IsAutoClockOut(out time.Time, manuallyEdited bool) bool {
	if manuallyEdited {
		return false
	}
	loc := d.Location
	if loc == nil {
		loc = clock.Location()
	}
	local := out.In(loc)

	if d.Tolerance <= 0 {
		return local.Hour() == d.CutoffHour && local.Minute() == d.CutoffMinute
	}

	cutoff := time.Date(local.Year(), local.Month(), local.Day(), d.CutoffHour, d.CutoffMinute, 0, 0, loc)
	diff := local.Sub(cutoff)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d.Tolerance
}

// Annotate returns copies of shifts with AutoClockOut and Suspicious set.
func (d *Detector) Annotate(shifts []WorkedShift) []WorkedShift {
	out := make([]WorkedShift, len(shifts))
	for i, s := range shifts {
		if s.ClockOut != nil {
			s.Flags.AutoClockOut = d.IsAutoClockOut(*s.ClockOut, s.OutManuallyEdited)
		}
		s.Flags.Suspicious = IsSuspicious(s.Hours)
		out[i] = s
	}
	return out
}

// IsSuspicious reports 0 < hours < SuspiciousBelow.
func IsSuspicious(hours decimal.Decimal) bool {
	return hours.IsPositive() && hours.LessThan(SuspiciousBelow)
}

// =============================================================================
// RED FLAGS
// =============================================================================

// RedFlagReason names one triggered triage predicate.
type RedFlagReason string

const (
	ReasonAutoClockOut RedFlagReason = "auto_clock_out"
	ReasonLongShift    RedFlagReason = "long_shift"
	ReasonShortShift   RedFlagReason = "short_shift"
)

// RedFlagReasons lists every predicate the shift trips, in a fixed order.
// An annotated shift is expected.
func RedFlagReasons(s WorkedShift) []RedFlagReason {
	var reasons []RedFlagReason
	if s.Flags.AutoClockOut {
		reasons = append(reasons, ReasonAutoClockOut)
	}
	if s.Hours.GreaterThan(LongShiftAbove) {
		reasons = append(reasons, ReasonLongShift)
	}
	if s.Hours.IsPositive() && s.Hours.LessThan(ShortShiftBelow) {
		reasons = append(reasons, ReasonShortShift)
	}
	return reasons
}

// IsRedFlag reports whether the shift belongs in the exception view.
func IsRedFlag(s WorkedShift) bool { return len(RedFlagReasons(s)) > 0 }
