/*
Package clock provides business-local calendar arithmetic and the week
window calculator used by every payroll read.

PURPOSE:
  All week and day boundaries in the engine are computed in ONE fixed
  organizational timezone (US Eastern), never in the caller's or the
  host's timezone. This package owns that zone and the Date type that
  makes "which calendar day is this?" an explicit conversion.

KEY CONCEPTS:
  - Date:     A calendar date in business-local time (no clock component)
  - Range:    Half-open [Start, End) span of Dates
  - Selector: this / last / lastPayPeriod
  - Clock:    Injectable "now" so windows are pure functions in tests

TZDATA:
  The IANA database is embedded (time/tzdata) so a container without
  /usr/share/zoneinfo still resolves America/New_York.

SEE ALSO:
  - window.go: Week window calculator
*/
package clock

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// =============================================================================
// BUSINESS TIMEZONE
// =============================================================================

// BusinessZoneName is the IANA identifier of the organizational timezone.
const BusinessZoneName = "America/New_York"

var businessLocation = mustLoadLocation(BusinessZoneName)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("clock: load %s: %v", name, err))
	}
	return loc
}

// Location returns the business timezone.
func Location() *time.Location { return businessLocation }

// InBusiness converts an instant to business-local wall time.
func InBusiness(t time.Time) time.Time { return t.In(businessLocation) }

// =============================================================================
// DATE - Calendar date in business-local time
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes overflowing fields the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return fromUTC(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the business-local calendar date of an instant.
func DateOf(t time.Time) Date {
	lt := t.In(businessLocation)
	return Date{Year: lt.Year(), Month: lt.Month(), Day: lt.Day()}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return fromUTC(t), nil
}

func fromUTC(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// utc is only used for calendar arithmetic; it never leaks as an instant.
func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(o Date) bool { return d.utc().Before(o.utc()) }
func (d Date) After(o Date) bool { return d.utc().After(o.utc()) }
func (d Date) Equal(o Date) bool { return d == o }
func (d Date) IsZero() bool { return d == Date{} }

// Arithmetic
func (d Date) AddDays(n int) Date { return fromUTC(d.utc().AddDate(0, 0, n)) }
func (d Date) Weekday() time.Weekday { return d.utc().Weekday() }

// Start returns midnight of the date in business-local time.
func (d Date) Start() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, businessLocation)
}

func (d Date) String() string { return d.utc().Format(dateLayout) }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MondayOf returns the Monday of the Monday-Sunday week containing d.
func MondayOf(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// =============================================================================
// CLOCK - Injectable now
// =============================================================================

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct{ At time.Time }

func (c FixedClock) Now() time.Time { return c.At }
