package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/clock"
)

func eastern(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, clock.Location())
}

// =============================================================================
// WEEK WINDOWS
// =============================================================================

func TestWindow_ThisWeek_FromWednesday(t *testing.T) {
	// GIVEN: Business-now is Wednesday Oct 14 2026, mid-afternoon
	// WHEN: Asking for "this" week
	// THEN: Monday Oct 12 through the following Monday Oct 19 (exclusive)

	r, err := clock.Window(eastern(2026, time.October, 14, 15, 0), clock.SelectThis)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-12", r.Start.String())
	assert.Equal(t, "2026-10-19", r.End.String())
	assert.Equal(t, time.Monday, r.Start.Weekday())
	assert.Equal(t, time.Sunday, r.LastDay().Weekday())
	assert.Len(t, r.Days(), 7)
}

func TestWindow_IndependentOfCallerZone(t *testing.T) {
	// GIVEN: The same Wednesday instant expressed in several zones
	// THEN: Every one yields the identical window

	instant := eastern(2026, time.October, 14, 9, 0)
	zones := []string{"UTC", "Asia/Tokyo", "Pacific/Honolulu", "Europe/Berlin"}

	want, err := clock.Window(instant, clock.SelectThis)
	require.NoError(t, err)

	for _, name := range zones {
		loc, err := time.LoadLocation(name)
		require.NoError(t, err)

		got, err := clock.Window(instant.In(loc), clock.SelectThis)
		require.NoError(t, err)
		assert.Equal(t, want, got, "zone %s", name)
	}
}

func TestWindow_LateSundayUTCIsStillBusinessSunday(t *testing.T) {
	// GIVEN: 02:00 UTC Monday Oct 19 = 22:00 Sunday Oct 18 in Eastern
	// THEN: "this" week is still the one starting Oct 12

	now := time.Date(2026, time.October, 19, 2, 0, 0, 0, time.UTC)
	r, err := clock.Window(now, clock.SelectThis)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-12", r.Start.String())
}

func TestWindow_LastWeek(t *testing.T) {
	r, err := clock.Window(eastern(2026, time.October, 14, 12, 0), clock.SelectLast)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-05", r.Start.String())
	assert.Equal(t, "2026-10-12", r.End.String())
}

func TestWindow_LastPayPeriod_TwoCompletedWeeks(t *testing.T) {
	// GIVEN: Monday morning Oct 12
	// THEN: Monday Sep 28 through Sunday Oct 11 inclusive

	r, err := clock.Window(eastern(2026, time.October, 12, 8, 0), clock.SelectLastPayPeriod)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-28", r.Start.String())
	assert.Equal(t, "2026-10-11", r.LastDay().String())
	assert.Len(t, r.Days(), 14)
}

func TestWindow_AcrossDSTChange(t *testing.T) {
	// Nov 1 2026 is the fall-back Sunday; the week still has seven days
	r, err := clock.Window(eastern(2026, time.November, 1, 23, 30), clock.SelectThis)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-26", r.Start.String())

	from, to := r.Instants()
	assert.Equal(t, 7*24*time.Hour+time.Hour, to.Sub(from))
}

func TestWindow_UnknownSelector(t *testing.T) {
	_, err := clock.Window(time.Now(), clock.Selector("fortnight"))
	assert.ErrorIs(t, err, clock.ErrUnknownSelector)
}

func TestParseSelector(t *testing.T) {
	sel, err := clock.ParseSelector("")
	require.NoError(t, err)
	assert.Equal(t, clock.SelectThis, sel)

	sel, err = clock.ParseSelector("lastPayPeriod")
	require.NoError(t, err)
	assert.Equal(t, clock.SelectLastPayPeriod, sel)

	_, err = clock.ParseSelector("next")
	assert.ErrorIs(t, err, clock.ErrUnknownSelector)
}

// =============================================================================
// RANGE
// =============================================================================

func TestRange_ContainsIsHalfOpen(t *testing.T) {
	r := clock.Range{Start: clock.NewDate(2026, time.October, 12), End: clock.NewDate(2026, time.October, 19)}

	assert.True(t, r.Contains(eastern(2026, time.October, 12, 0, 0)))
	assert.True(t, r.Contains(eastern(2026, time.October, 18, 23, 59)))
	assert.False(t, r.Contains(eastern(2026, time.October, 19, 0, 0)))
	assert.False(t, r.Contains(eastern(2026, time.October, 11, 23, 59)))
}

func TestRange_Validate(t *testing.T) {
	d := clock.NewDate(2026, time.October, 12)
	assert.NoError(t, clock.Range{Start: d, End: d.AddDays(1)}.Validate())
	assert.ErrorIs(t, clock.Range{Start: d, End: d}.Validate(), clock.ErrInvalidRange)
}

func TestDate_ParseAndText(t *testing.T) {
	d, err := clock.ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", d.AddDays(1).String())

	_, err = clock.ParseDate("02/28/2026")
	assert.ErrorIs(t, err, clock.ErrInvalidDate)

	var back clock.Date
	require.NoError(t, back.UnmarshalText([]byte("2026-10-12")))
	assert.Equal(t, clock.NewDate(2026, time.October, 12), back)
}

func TestMondayOf(t *testing.T) {
	sunday := clock.NewDate(2026, time.October, 18)
	assert.Equal(t, "2026-10-12", clock.MondayOf(sunday).String())
	monday := clock.NewDate(2026, time.October, 12)
	assert.Equal(t, monday, clock.MondayOf(monday))
}
