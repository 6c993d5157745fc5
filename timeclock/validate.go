package timeclock

import (
	"strings"
	"time"

	"github.com/warp/payroll-engine/clock"
)

// ValidationResult is returned instead of an error so a form can show the
// message and let the operator retry without losing other state.
type ValidationResult struct {
	IsValid      bool
	ErrorMessage string
}

func valid() ValidationResult { return ValidationResult{IsValid: true} }

func invalid(msg string) ValidationResult {
	return ValidationResult{IsValid: false, ErrorMessage: msg}
}

// ValidateEmployeeID rejects blank ids.
func ValidateEmployeeID(id string) ValidationResult {
	if strings.TrimSpace(id) == "" {
		return invalid("Employee is required")
	}
	return valid()
}

// ValidateDate checks a YYYY-MM-DD string.
func ValidateDate(s string) ValidationResult {
	if strings.TrimSpace(s) == "" {
		return invalid("Date is required")
	}
	if _, err := clock.ParseDate(s); err != nil {
		return invalid("Date must be in YYYY-MM-DD format")
	}
	return valid()
}

// ValidateShiftTimes checks an edited clock-in/clock-out pair.
func ValidateShiftTimes(in, out time.Time) ValidationResult {
	if in.IsZero() {
		return invalid("Clock-in time is required")
	}
	if out.IsZero() {
		return invalid("Clock-out time is required")
	}
	if !out.After(in) {
		return invalid("Clock-out must be after clock-in")
	}
	if out.Sub(in) > 24*time.Hour {
		return invalid("Shift cannot be longer than 24 hours")
	}
	return valid()
}

// ValidateCorrection checks one correction before it reaches the event store.
func ValidateCorrection(c Correction) ValidationResult {
	if c.At.IsZero() {
		return invalid("Correction time is required")
	}
	switch c.Kind {
	case CorrectionCreate:
		if r := ValidateEmployeeID(c.EmployeeID); !r.IsValid {
			return r
		}
		if _, err := ParseEventType(string(c.Type)); err != nil {
			return invalid("Event type must be in or out")
		}
	case CorrectionUpdate:
		if strings.TrimSpace(c.EventID) == "" {
			return invalid("Event to update is required")
		}
	default:
		return invalid("Unknown correction kind")
	}
	return valid()
}
