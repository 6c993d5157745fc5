package timeclock

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/clock"
)

// SuspiciousReason is the fixed explanation attached to every flagged activity.
const SuspiciousReason = "Shift shorter than 5 minutes"

const displayLayout = "3:04 PM"

// FlaggedActivity is one suspicious shift, pre-rendered for display.
type FlaggedActivity struct {
	EmployeeID   string
	EmployeeName string
	Date         clock.Date
	ClockIn      string
	ClockOut     string
	Hours        decimal.Decimal
	Reason       string
	Source       SourceEvents
}

// RedFlagEntry is one shift in the exception view.
type RedFlagEntry struct {
	EmployeeName string
	Shift        WorkedShift
	Reasons      []RedFlagReason
}

// FlaggedActivities keeps only Suspicious shifts. Shifts must already be annotated.
func FlaggedActivities(employeeName string, shifts []WorkedShift) []FlaggedActivity {
	var feed []FlaggedActivity
	for _, s := range shifts {
		if !s.Flags.Suspicious {
			continue
		}
		feed = append(feed, FlaggedActivity{
			EmployeeID:   s.EmployeeID,
			EmployeeName: employeeName,
			Date:         s.Date,
			ClockIn:      DisplayTime(s.ClockIn),
			ClockOut:     displayOptional(s.ClockOut),
			Hours:        s.Hours,
			Reason:       SuspiciousReason,
			Source:       s.Source,
		})
	}
	return feed
}

// RedFlags keeps only shifts that satisfy the triage predicate.
func RedFlags(employeeName string, shifts []WorkedShift) []RedFlagEntry {
	var entries []RedFlagEntry
	for _, s := range shifts {
		reasons := RedFlagReasons(s)
		if len(reasons) == 0 {
			continue
		}
		entries = append(entries, RedFlagEntry{EmployeeName: employeeName, Shift: s, Reasons: reasons})
	}
	return entries
}

// DisplayTime renders an instant as business-local "3:04 PM".
func DisplayTime(t time.Time) string {
	return clock.InBusiness(t).Format(displayLayout)
}

func displayOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return DisplayTime(*t)
}
