/*
ledger.go - Append-only Payment Ledger

PURPOSE:
  The ledger is the only record of payroll settlements. A record is
  written once when an operator commits an arrangement for a period and is
  never edited or deleted. Paid status is always derived from the records
  (see status.go).

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. UNIQUE: at most one record per (employee, arrangement, period start,
     period end). A second commit returns ErrDuplicatePayment.
  3. EstimatedAmount = hours × rate; GrossAmount is what the operator
     actually entered. Both are stored.

PERIODS:
  PayPeriodStart is the Monday of the window and PayPeriodEnd is its last
  included day (the Sunday), so a record reads the same way it is shown.

SEE ALSO:
  - store/sqlite: unique index enforcing invariant 2 in storage
  - store/memory: same check under a mutex
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/clock"
)

// =============================================================================
// PAYMENT RECORD
// =============================================================================

// PaymentRecord is one settled arrangement for one period.
type PaymentRecord struct {
	ID              string
	EmployeeID      string
	ArrangementID   *string // nil on legacy records
	PayPeriodStart  clock.Date
	PayPeriodEnd    clock.Date // Inclusive
	HoursWorked     decimal.Decimal
	HourlyRate      decimal.Decimal
	EstimatedAmount decimal.Decimal
	GrossAmount     decimal.Decimal
	PaymentMethod   PaymentMethod
	CheckNumber     string
	Notes           string
	PreparedDate    time.Time
}

// Covers reports whether the record settles exactly the given period.
func (r PaymentRecord) Covers(period clock.Range) bool {
	return r.PayPeriodStart.Equal(period.Start) && r.PayPeriodEnd.Equal(period.LastDay())
}

// IsLegacy is true for records written before arrangements existed.
func (r PaymentRecord) IsLegacy() bool {
	return r.ArrangementID == nil
}

// =============================================================================
// LEDGER STORE - Persistence interface (append-only)
// =============================================================================

// LedgerStore persists payment records.
// IMPORTANT: there is no update or delete.
type LedgerStore interface {
	// AppendPayment persists a record. Returns an error wrapping
	// ErrDuplicatePayment if the uniqueness tuple already exists.
	AppendPayment(ctx context.Context, rec PaymentRecord) error

	// HasPayment reports whether a record exists for the tuple.
	HasPayment(ctx context.Context, employeeID, arrangementID string, start, end clock.Date) (bool, error)

	// PaymentsInRange returns records whose period starts in [from, to),
	// ordered by PreparedDate.
	PaymentsInRange(ctx context.Context, employeeID string, from, to clock.Date) ([]PaymentRecord, error)

	// LatestPayment returns the most recently prepared record, or nil.
	LatestPayment(ctx context.Context, employeeID string) (*PaymentRecord, error)
}

// =============================================================================
// LEDGER - Commit with validation and duplicate detection
// =============================================================================

// CommitInput is an operator's settlement of one arrangement.
type CommitInput struct {
	EmployeeID    string
	ArrangementID string
	Period        clock.Range
	HoursWorked   decimal.Decimal
	HourlyRate    decimal.Decimal
	GrossAmount   decimal.Decimal
	PaymentMethod PaymentMethod
	CheckNumber   string
	Notes         string
}

// Validate returns a *CommitValidationError for the first bad field.
func (in CommitInput) Validate() error {
	switch {
	case strings.TrimSpace(in.EmployeeID) == "":
		return &CommitValidationError{Field: "employeeId", Message: "is required"}
	case strings.TrimSpace(in.ArrangementID) == "":
		return &CommitValidationError{Field: "arrangementId", Message: "is required"}
	case in.Period.Validate() != nil:
		return &CommitValidationError{Field: "period", Message: in.Period.Validate().Error()}
	case in.HoursWorked.IsNegative():
		return &CommitValidationError{Field: "hoursWorked", Message: "must not be negative"}
	case in.HourlyRate.IsNegative():
		return &CommitValidationError{Field: "hourlyRate", Message: "must not be negative"}
	case in.GrossAmount.IsNegative():
		return &CommitValidationError{Field: "grossAmount", Message: "must not be negative"}
	case !in.PaymentMethod.Valid():
		return &CommitValidationError{Field: "paymentMethod", Message: fmt.Sprintf("unknown method %q", in.PaymentMethod)}
	}
	return nil
}

// Ledger wraps a LedgerStore with commit rules.
type Ledger struct {
	Store  LedgerStore
	Clock  clock.Clock
	NewID  func() string
	Logger *slog.Logger
}

// NewLedger uses the system clock and random UUIDs.
func NewLedger(store LedgerStore, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ledger{
		Store:  store,
		Clock:  clock.SystemClock{},
		NewID:  uuid.NewString,
		Logger: logger,
	}
}

// Commit appends a payment record. The existence check runs first; the
// store's own constraint catches a concurrent commit that slips past it.
func (l *Ledger) Commit(ctx context.Context, in CommitInput) (PaymentRecord, error) {
	if err := in.Validate(); err != nil {
		return PaymentRecord{}, err
	}

	dup := &DuplicatePaymentError{
		EmployeeID:    in.EmployeeID,
		ArrangementID: in.ArrangementID,
		Period:        in.Period,
	}

	exists, err := l.Store.HasPayment(ctx, in.EmployeeID, in.ArrangementID, in.Period.Start, in.Period.LastDay())
	if err != nil {
		return PaymentRecord{}, fmt.Errorf("check existing payment: %w", err)
	}
	if exists {
		return PaymentRecord{}, dup
	}

	arrangementID := in.ArrangementID
	rec := PaymentRecord{
		ID:              l.NewID(),
		EmployeeID:      in.EmployeeID,
		ArrangementID:   &arrangementID,
		PayPeriodStart:  in.Period.Start,
		PayPeriodEnd:    in.Period.LastDay(),
		HoursWorked:     in.HoursWorked,
		HourlyRate:      in.HourlyRate,
		EstimatedAmount: in.HoursWorked.Mul(in.HourlyRate),
		GrossAmount:     in.GrossAmount,
		PaymentMethod:   in.PaymentMethod,
		CheckNumber:     strings.TrimSpace(in.CheckNumber),
		Notes:           strings.TrimSpace(in.Notes),
		PreparedDate:    l.Clock.Now().UTC(),
	}

	if err := l.Store.AppendPayment(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicatePayment) {
			return PaymentRecord{}, dup
		}
		return PaymentRecord{}, fmt.Errorf("append payment: %w", err)
	}

	l.Logger.InfoContext(ctx, "payment committed",
		slog.String("record_id", rec.ID),
		slog.String("employee_id", rec.EmployeeID),
		slog.String("arrangement_id", arrangementID),
		slog.String("period", in.Period.String()),
		slog.String("gross_amount", rec.GrossAmount.StringFixed(2)),
	)
	return rec, nil
}
