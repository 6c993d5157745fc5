package timeclock_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/timeclock"
)

func shiftWithHours(h string) timeclock.WorkedShift {
	return timeclock.WorkedShift{EmployeeID: "emp-1", ClockIn: at(9, 0), Hours: decimal.RequireFromString(h)}
}

// =============================================================================
// AUTO CLOCK-OUT
// =============================================================================

func TestDetector_AutoClockOut_ExactCutoffUnedited(t *testing.T) {
	// GIVEN: OUT at exactly 18:30 business-local, not edited
	// THEN: AutoClockOut; the same punch edited by hand is not

	d := timeclock.NewDetector()
	assert.True(t, d.IsAutoClockOut(at(18, 30), false))
	assert.False(t, d.IsAutoClockOut(at(18, 30), true))
}

func TestDetector_AutoClockOut_NoToleranceByDefault(t *testing.T) {
	d := timeclock.NewDetector()
	assert.False(t, d.IsAutoClockOut(at(18, 29), false))
	assert.False(t, d.IsAutoClockOut(at(18, 31), false))
	assert.True(t, d.IsAutoClockOut(at(18, 30).Add(45*time.Second), false), "seconds within the minute still match")
}

func TestDetector_AutoClockOut_UsesBusinessZone(t *testing.T) {
	// 18:30 in Los Angeles is 21:30 Eastern
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	d := timeclock.NewDetector()
	assert.False(t, d.IsAutoClockOut(time.Date(2026, time.October, 14, 18, 30, 0, 0, la), false))
	assert.True(t, d.IsAutoClockOut(at(18, 30).UTC(), false))
}

func TestDetector_AutoClockOut_WithTolerance(t *testing.T) {
	d := timeclock.NewDetector()
	d.Tolerance = 2 * time.Minute

	assert.True(t, d.IsAutoClockOut(at(18, 28), false))
	assert.True(t, d.IsAutoClockOut(at(18, 32), false))
	assert.False(t, d.IsAutoClockOut(at(18, 33), false))
	assert.False(t, d.IsAutoClockOut(at(18, 30), true))
}

func TestDetector_Annotate(t *testing.T) {
	nextDay := func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	editedOut := out("e4", nextDay(at(18, 30)))
	editedOut.ManuallyEdited = true

	shifts := timeclock.Reconcile([]timeclock.ClockEvent{
		in("e1", at(9, 0)), out("e2", at(18, 30)),
		in("e3", nextDay(at(9, 0))), editedOut,
	})
	require.Len(t, shifts, 2)

	annotated := timeclock.NewDetector().Annotate(shifts)
	require.Len(t, annotated, 2)
	assert.True(t, annotated[0].Flags.AutoClockOut)
	assert.False(t, annotated[1].Flags.AutoClockOut)

	// the input slice is left untouched
	assert.False(t, shifts[0].Flags.AutoClockOut)
}

func TestDetector_Annotate_IncompleteHasNoAutoClockOut(t *testing.T) {
	annotated := timeclock.NewDetector().Annotate(timeclock.Reconcile([]timeclock.ClockEvent{in("e1", at(9, 0))}))
	require.Len(t, annotated, 1)
	assert.True(t, annotated[0].Flags.Incomplete)
	assert.False(t, annotated[0].Flags.AutoClockOut)
	assert.False(t, annotated[0].Flags.Suspicious)
	assert.False(t, timeclock.IsRedFlag(annotated[0]))
}

// =============================================================================
// SUSPICIOUS / RED FLAGS
// =============================================================================

func TestIsSuspicious_Boundaries(t *testing.T) {
	assert.True(t, timeclock.IsSuspicious(decimal.RequireFromString("0.08")))
	assert.True(t, timeclock.IsSuspicious(decimal.RequireFromString("0.01")))
	assert.False(t, timeclock.IsSuspicious(decimal.Zero))
	assert.False(t, timeclock.IsSuspicious(decimal.RequireFromString("0.0833")))
	assert.False(t, timeclock.IsSuspicious(decimal.RequireFromString("0.5")))
}

func TestRedFlag_ShortShiftBoundaryIsExclusive(t *testing.T) {
	assert.False(t, timeclock.IsRedFlag(shiftWithHours("0.5")))
	assert.True(t, timeclock.IsRedFlag(shiftWithHours("0.49")))
	assert.Equal(t, []timeclock.RedFlagReason{timeclock.ReasonShortShift}, timeclock.RedFlagReasons(shiftWithHours("0.2")))
}

func TestRedFlag_LongShift(t *testing.T) {
	assert.False(t, timeclock.IsRedFlag(shiftWithHours("13")))
	assert.Equal(t, []timeclock.RedFlagReason{timeclock.ReasonLongShift}, timeclock.RedFlagReasons(shiftWithHours("13.25")))
}

func TestRedFlag_AutoClockOutCombinesWithLong(t *testing.T) {
	s := shiftWithHours("14")
	s.Flags.AutoClockOut = true
	assert.Equal(t, []timeclock.RedFlagReason{timeclock.ReasonAutoClockOut, timeclock.ReasonLongShift}, timeclock.RedFlagReasons(s))
}

func TestRedFlag_IncompleteAloneIsNotRed(t *testing.T) {
	s := shiftWithHours("0")
	s.Flags.Incomplete = true
	assert.False(t, timeclock.IsRedFlag(s))
}

// =============================================================================
// FEEDS
// =============================================================================

func TestFlaggedActivities_OnlySuspicious(t *testing.T) {
	shifts := timeclock.NewDetector().Annotate(timeclock.Reconcile([]timeclock.ClockEvent{
		in("e1", at(9, 0)), out("e2", at(9, 3)),
		in("e3", at(13, 0)), out("e4", at(17, 0)),
	}))

	feed := timeclock.FlaggedActivities("Dana Reyes", shifts)
	require.Len(t, feed, 1)
	assert.Equal(t, "emp-1", feed[0].EmployeeID)
	assert.Equal(t, "Dana Reyes", feed[0].EmployeeName)
	assert.Equal(t, "9:00 AM", feed[0].ClockIn)
	assert.Equal(t, "9:03 AM", feed[0].ClockOut)
	assert.Equal(t, timeclock.SuspiciousReason, feed[0].Reason)
	assert.Equal(t, "2026-10-14", feed[0].Date.String())
}

func TestRedFlags_Feed(t *testing.T) {
	shifts := timeclock.NewDetector().Annotate(timeclock.Reconcile([]timeclock.ClockEvent{
		in("e1", at(9, 0)), out("e2", at(18, 30)),
		in("e3", at(19, 0)), out("e4", at(19, 20)),
		in("e5", at(20, 0)),
	}))

	entries := timeclock.RedFlags("Dana Reyes", shifts)
	require.Len(t, entries, 2)
	assert.Equal(t, []timeclock.RedFlagReason{timeclock.ReasonAutoClockOut}, entries[0].Reasons)
	assert.Equal(t, []timeclock.RedFlagReason{timeclock.ReasonShortShift}, entries[1].Reasons)
}

func TestDisplayTime_RendersBusinessLocal(t *testing.T) {
	assert.Equal(t, "6:30 PM", timeclock.DisplayTime(at(18, 30).UTC()))
}
