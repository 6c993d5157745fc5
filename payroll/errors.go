package payroll

import (
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/clock"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicatePayment is returned when a record already exists for the
	// same (employee, arrangement, period). Enforced by a check before
	// insert and by a unique index in the store.
	ErrDuplicatePayment = errors.New("payment already recorded for this arrangement and period")

	// ErrInvalidCommit is returned when commit input fails validation.
	ErrInvalidCommit = errors.New("invalid payment commit")

	// ErrLoadFailed marks a failed read of events, rates or records. The
	// whole period computation is aborted.
	ErrLoadFailed = errors.New("payroll data load failed")

	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrArrangementNotFound = errors.New("pay rate arrangement not found")

	ErrInvalidPaySchedule       = errors.New("invalid pay schedule")
	ErrInvalidTaxClassification = errors.New("invalid tax classification")
	ErrInvalidPaymentMethod     = errors.New("invalid payment method")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// DuplicatePaymentError names the tuple that was already settled.
type DuplicatePaymentError struct {
	EmployeeID    string
	ArrangementID string
	Period        clock.Range
}

func (e *DuplicatePaymentError) Error() string {
	return fmt.Sprintf("payment already recorded: employee %s arrangement %s period %s",
		e.EmployeeID, e.ArrangementID, e.Period)
}

func (e *DuplicatePaymentError) Unwrap() error { return ErrDuplicatePayment }

// CommitValidationError describes the first invalid field of a commit.
type CommitValidationError struct {
	Field   string
	Message string
}

func (e *CommitValidationError) Error() string {
	return fmt.Sprintf("invalid payment commit: %s: %s", e.Field, e.Message)
}

func (e *CommitValidationError) Unwrap() error { return ErrInvalidCommit }

// LoadError records which read failed for which employee.
type LoadError struct {
	Source     string // "employees", "events", "rates", "payments"
	EmployeeID string
	Err        error
}

func (e *LoadError) Error() string {
	if e.EmployeeID == "" {
		return fmt.Sprintf("load %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("load %s for %s: %v", e.Source, e.EmployeeID, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrLoadFailed, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidCommit) ||
		errors.Is(err, ErrDuplicatePayment) ||
		errors.Is(err, ErrInvalidPaySchedule) ||
		errors.Is(err, ErrInvalidTaxClassification) ||
		errors.Is(err, ErrInvalidPaymentMethod) ||
		errors.Is(err, clock.ErrUnknownSelector)
}

// IsNotFound returns true if a referenced employee or arrangement is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrArrangementNotFound)
}
