package clock

import (
	"fmt"
	"time"
)

// =============================================================================
// SELECTOR - Which window the caller wants
// =============================================================================

// Selector picks a week window relative to "now".
type Selector string

const (
	SelectThis          Selector = "this"          // Monday-Sunday week containing now
	SelectLast          Selector = "last"          // The week before that
	SelectLastPayPeriod Selector = "lastPayPeriod" // Two most recently completed weeks
)

// ParseSelector maps a query value to a Selector. Empty means SelectThis.
func ParseSelector(s string) (Selector, error) {
	switch Selector(s) {
	case "", SelectThis:
		return SelectThis, nil
	case SelectLast:
		return SelectLast, nil
	case SelectLastPayPeriod:
		return SelectLastPayPeriod, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSelector, s)
	}
}

// =============================================================================
// RANGE - Half-open span of business-local dates
// =============================================================================

// Range is [Start, End). End is the day after the last included day, so a
// filter written as "< End" still covers the whole final Sunday.
type Range struct {
	Start Date
	End   Date
}

// Validate rejects empty or inverted ranges.
func (r Range) Validate() error {
	if !r.Start.Before(r.End) {
		return fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	return nil
}

// Contains reports whether the instant falls on a business-local day in the range.
func (r Range) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(r.Start) && d.Before(r.End)
}

// LastDay is the final included date.
func (r Range) LastDay() Date { return r.End.AddDays(-1) }

// Days lists every included date.
func (r Range) Days() []Date {
	var days []Date
	for d := r.Start; d.Before(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Instants returns the range as business-local midnight instants [from, to).
func (r Range) Instants() (from, to time.Time) {
	return r.Start.Start(), r.End.Start()
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + ")"
}

// =============================================================================
// WEEK WINDOW CALCULATOR
// =============================================================================

// Window returns the date range for sel relative to now. It depends only on
// its arguments: now is converted to business-local time before the week is
// located, so the host timezone has no influence.
func Window(now time.Time, sel Selector) (Range, error) {
	thisMonday := MondayOf(DateOf(now))

	switch sel {
	case SelectThis:
		return Range{Start: thisMonday, End: thisMonday.AddDays(7)}, nil
	case SelectLast:
		return Range{Start: thisMonday.AddDays(-7), End: thisMonday}, nil
	case SelectLastPayPeriod:
		return Range{Start: thisMonday.AddDays(-14), End: thisMonday}, nil
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownSelector, sel)
	}
}

// WindowFor is Window with the instant taken from a Clock.
func WindowFor(c Clock, sel Selector) (Range, error) {
	return Window(c.Now(), sel)
}
