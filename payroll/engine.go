/*
engine.go - Per-employee payroll summary for a week window

PURPOSE:
  Joins the time clock, rate history and Payment Ledger into one
  EmployeePayrollSummary per employee. The presentation layer only reads
  these summaries and calls Settle.

PIPELINE (per employee):
  1. Window:     selector → [Monday, next Monday) in business time
  2. Events:     EventsInRange over the window instants
  3. Reconcile:  events → WorkedShifts
  4. Annotate:   AutoClockOut / Suspicious flags
  5. Rates:      full history → rows in force by the last day
  6. Ledger:     records → PaidMap → Status
  7. Allocate:   split-pay hours per arrangement
  8. Quick pay:  suggestion per unpaid allocation

FAIL-CLOSED:
  Any failed read aborts the whole request with a *LoadError. A partial
  period would show unpaid hours as paid or the reverse.

SEE ALSO:
  - allocate.go: Allocation strategy
  - status.go:   Status derivation
  - ledger.go:   Commit used by Settle
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/clock"
	"github.com/warp/payroll-engine/timeclock"
)

// =============================================================================
// SOURCES
// =============================================================================

// EmployeeSource is the employee directory.
type EmployeeSource interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
	// GetEmployee returns ErrEmployeeNotFound for an unknown ID.
	GetEmployee(ctx context.Context, id string) (Employee, error)
}

// RateSource holds the append-only rate history.
type RateSource interface {
	RatesFor(ctx context.Context, employeeID string) ([]PayRateArrangement, error)
	AddRate(ctx context.Context, rate PayRateArrangement) error
}

// Sources groups every dependency the engine reads from.
type Sources struct {
	Employees EmployeeSource
	Events    timeclock.EventSource
	Rates     RateSource
	Payments  LedgerStore
}

// =============================================================================
// SUMMARY
// =============================================================================

// EmployeePayrollSummary is everything shown for one employee and period.
type EmployeePayrollSummary struct {
	Employee          Employee
	Selector          clock.Selector
	Period            clock.Range
	Shifts            []timeclock.WorkedShift
	TotalHours        decimal.Decimal
	Arrangements      []PayRateArrangement
	Allocations       []Allocation
	Paid              PaidMap
	Status            Status
	QuickPay          []QuickPaySuggestion
	LastPaymentMethod PaymentMethod
}

// Allocation returns the allocation for an arrangement.
func (s EmployeePayrollSummary) Allocation(arrangementID string) (Allocation, bool) {
	for _, a := range s.Allocations {
		if a.ArrangementID == arrangementID {
			return a, true
		}
	}
	return Allocation{}, false
}

// QuickPayFor returns the suggestion for an arrangement.
func (s EmployeePayrollSummary) QuickPayFor(arrangementID string) (QuickPaySuggestion, bool) {
	for _, q := range s.QuickPay {
		if q.ArrangementID == arrangementID {
			return q, true
		}
	}
	return QuickPaySuggestion{}, false
}

// HasRedFlags reports whether any shift needs triage.
func (s EmployeePayrollSummary) HasRedFlags() bool {
	for _, sh := range s.Shifts {
		if timeclock.IsRedFlag(sh) {
			return true
		}
	}
	return false
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes summaries and settles arrangements.
type Engine struct {
	Sources   Sources
	Clock     clock.Clock
	Detector  *timeclock.Detector
	Allocator Allocator
	Ledger    *Ledger
	Logger    *slog.Logger
}

// NewEngine wires defaults: system clock, 18:30 detector, split-pay policy.
func NewEngine(src Sources, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		Sources:   src,
		Clock:     clock.SystemClock{},
		Detector:  timeclock.NewDetector(),
		Allocator: SplitPayPolicy{},
		Ledger:    NewLedger(src.Payments, logger),
		Logger:    logger,
	}
}

// Window resolves a selector against the engine clock.
func (e *Engine) Window(sel clock.Selector) (clock.Range, error) {
	return clock.WindowFor(e.Clock, sel)
}

// Summaries returns one summary per employee, or none at all if any read fails.
func (e *Engine) Summaries(ctx context.Context, sel clock.Selector) ([]EmployeePayrollSummary, error) {
	_, summaries, err := e.PeriodSummaries(ctx, sel)
	return summaries, err
}

// PeriodSummaries is Summaries plus the window it was computed for. The
// window is resolved once, so callers labelling the result use the same
// week as the rows.
func (e *Engine) PeriodSummaries(ctx context.Context, sel clock.Selector) (clock.Range, []EmployeePayrollSummary, error) {
	period, err := e.Window(sel)
	if err != nil {
		return clock.Range{}, nil, err
	}
	employees, err := e.listEmployees(ctx)
	if err != nil {
		return clock.Range{}, nil, err
	}

	summaries := make([]EmployeePayrollSummary, 0, len(employees))
	for _, emp := range employees {
		s, err := e.summarize(ctx, emp, sel, period)
		if err != nil {
			e.abort(ctx, "summaries", period, err)
			return clock.Range{}, nil, err
		}
		summaries = append(summaries, s)
	}
	return period, summaries, nil
}

// Summary returns the summary for one employee.
func (e *Engine) Summary(ctx context.Context, employeeID string, sel clock.Selector) (EmployeePayrollSummary, error) {
	period, err := e.Window(sel)
	if err != nil {
		return EmployeePayrollSummary{}, err
	}
	emp, err := e.Sources.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return EmployeePayrollSummary{}, err
		}
		return EmployeePayrollSummary{}, &LoadError{Source: "employees", EmployeeID: employeeID, Err: err}
	}
	s, err := e.summarize(ctx, emp, sel, period)
	if err != nil {
		e.abort(ctx, "summary", period, err)
		return EmployeePayrollSummary{}, err
	}
	return s, nil
}

func (e *Engine) summarize(ctx context.Context, emp Employee, sel clock.Selector, period clock.Range) (EmployeePayrollSummary, error) {
	shifts, err := e.shifts(ctx, emp.ID, period)
	if err != nil {
		return EmployeePayrollSummary{}, err
	}

	rates, err := e.Sources.Rates.RatesFor(ctx, emp.ID)
	if err != nil {
		return EmployeePayrollSummary{}, &LoadError{Source: "rates", EmployeeID: emp.ID, Err: err}
	}
	active := ActiveAsOfPeriod(rates, period)

	records, err := e.Sources.Payments.PaymentsInRange(ctx, emp.ID, period.Start, period.End)
	if err != nil {
		return EmployeePayrollSummary{}, &LoadError{Source: "payments", EmployeeID: emp.ID, Err: err}
	}
	paid := DerivePaid(LegacyArrangement(rates, active), records, period)

	latest, err := e.Sources.Payments.LatestPayment(ctx, emp.ID)
	if err != nil {
		return EmployeePayrollSummary{}, &LoadError{Source: "payments", EmployeeID: emp.ID, Err: err}
	}
	var lastMethod PaymentMethod
	if latest != nil {
		lastMethod = latest.PaymentMethod
	}

	total := timeclock.TotalHours(shifts)
	allocs := e.Allocator.Allocate(AllocationInput{TotalHours: total, Arrangements: active, Paid: paid})

	var quick []QuickPaySuggestion
	for _, a := range allocs {
		if a.AlreadyPaid {
			continue
		}
		quick = append(quick, QuickPay(a, lastMethod))
	}

	return EmployeePayrollSummary{
		Employee:          emp,
		Selector:          sel,
		Period:            period,
		Shifts:            shifts,
		TotalHours:        total,
		Arrangements:      active,
		Allocations:       allocs,
		Paid:              paid,
		Status:            DeriveStatus(active, paid),
		QuickPay:          quick,
		LastPaymentMethod: lastMethod,
	}, nil
}

func (e *Engine) shifts(ctx context.Context, employeeID string, period clock.Range) ([]timeclock.WorkedShift, error) {
	from, to := period.Instants()
	events, err := e.Sources.Events.EventsInRange(ctx, employeeID, from, to)
	if err != nil {
		return nil, &LoadError{Source: "events", EmployeeID: employeeID, Err: err}
	}
	return e.Detector.Annotate(timeclock.Reconcile(events)), nil
}

func (e *Engine) listEmployees(ctx context.Context) ([]Employee, error) {
	employees, err := e.Sources.Employees.ListEmployees(ctx)
	if err != nil {
		return nil, &LoadError{Source: "employees", Err: err}
	}
	return employees, nil
}

func (e *Engine) abort(ctx context.Context, op string, period clock.Range, err error) {
	e.Logger.ErrorContext(ctx, "payroll computation aborted",
		slog.String("op", op),
		slog.String("period", period.String()),
		slog.Any("error", err),
	)
}

// =============================================================================
// FEEDS
// =============================================================================

// FlaggedActivity lists suspicious shifts across all employees.
func (e *Engine) FlaggedActivity(ctx context.Context, sel clock.Selector) ([]timeclock.FlaggedActivity, error) {
	period, err := e.Window(sel)
	if err != nil {
		return nil, err
	}
	employees, err := e.listEmployees(ctx)
	if err != nil {
		return nil, err
	}
	feed := []timeclock.FlaggedActivity{}
	for _, emp := range employees {
		shifts, err := e.shifts(ctx, emp.ID, period)
		if err != nil {
			e.abort(ctx, "flagged_activity", period, err)
			return nil, err
		}
		feed = append(feed, timeclock.FlaggedActivities(emp.Name, shifts)...)
	}
	return feed, nil
}

// RedFlags lists shifts needing triage across all employees.
func (e *Engine) RedFlags(ctx context.Context, sel clock.Selector) ([]timeclock.RedFlagEntry, error) {
	period, err := e.Window(sel)
	if err != nil {
		return nil, err
	}
	employees, err := e.listEmployees(ctx)
	if err != nil {
		return nil, err
	}
	entries := []timeclock.RedFlagEntry{}
	for _, emp := range employees {
		shifts, err := e.shifts(ctx, emp.ID, period)
		if err != nil {
			e.abort(ctx, "red_flags", period, err)
			return nil, err
		}
		entries = append(entries, timeclock.RedFlags(emp.Name, shifts)...)
	}
	return entries, nil
}

// =============================================================================
// SETTLE / RATES
// =============================================================================

// SettleInput commits one arrangement. Nil GrossAmount and empty Method
// take the quick-pay suggestion.
type SettleInput struct {
	EmployeeID    string
	ArrangementID string
	Selector      clock.Selector
	GrossAmount   *decimal.Decimal
	Method        PaymentMethod
	CheckNumber   string
	Notes         string
}

// Settle recomputes the summary and commits the arrangement's allocation.
func (e *Engine) Settle(ctx context.Context, in SettleInput) (PaymentRecord, error) {
	summary, err := e.Summary(ctx, in.EmployeeID, in.Selector)
	if err != nil {
		return PaymentRecord{}, err
	}
	alloc, ok := summary.Allocation(in.ArrangementID)
	if !ok {
		return PaymentRecord{}, fmt.Errorf("%w: %s", ErrArrangementNotFound, in.ArrangementID)
	}
	if alloc.AlreadyPaid {
		return PaymentRecord{}, &DuplicatePaymentError{
			EmployeeID:    in.EmployeeID,
			ArrangementID: in.ArrangementID,
			Period:        summary.Period,
		}
	}

	quick := QuickPay(alloc, summary.LastPaymentMethod)
	gross := quick.Amount
	if in.GrossAmount != nil {
		gross = *in.GrossAmount
	}
	method := quick.Method
	if in.Method != "" {
		method = in.Method
	}

	return e.Ledger.Commit(ctx, CommitInput{
		EmployeeID:    in.EmployeeID,
		ArrangementID: in.ArrangementID,
		Period:        summary.Period,
		HoursWorked:   alloc.Hours,
		HourlyRate:    alloc.Rate,
		GrossAmount:   gross,
		PaymentMethod: method,
		CheckNumber:   in.CheckNumber,
		Notes:         in.Notes,
	})
}

// NewRateInput is a rate change. It always becomes a new row.
type NewRateInput struct {
	EmployeeID        string
	Rate              decimal.Decimal
	PaymentMethod     PaymentMethod
	PaySchedule       PaySchedule
	TaxClassification TaxClassification
	EffectiveDate     *clock.Date // nil = now
}

// AddRate appends a rate row and returns it.
func (e *Engine) AddRate(ctx context.Context, in NewRateInput) (PayRateArrangement, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return PayRateArrangement{}, &CommitValidationError{Field: "employeeId", Message: "is required"}
	}
	if !in.Rate.IsPositive() {
		return PayRateArrangement{}, &CommitValidationError{Field: "rate", Message: "must be positive"}
	}
	if !in.PaymentMethod.Valid() {
		return PayRateArrangement{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, in.PaymentMethod)
	}
	if !in.PaySchedule.Valid() {
		return PayRateArrangement{}, fmt.Errorf("%w: %q", ErrInvalidPaySchedule, in.PaySchedule)
	}
	if !in.TaxClassification.Valid() {
		return PayRateArrangement{}, fmt.Errorf("%w: %q", ErrInvalidTaxClassification, in.TaxClassification)
	}
	if _, err := e.Sources.Employees.GetEmployee(ctx, in.EmployeeID); err != nil {
		return PayRateArrangement{}, err
	}

	effective := e.Clock.Now().UTC()
	if in.EffectiveDate != nil {
		effective = in.EffectiveDate.Start().UTC()
	}
	rate := PayRateArrangement{
		ID:                uuid.NewString(),
		EmployeeID:        in.EmployeeID,
		Rate:              in.Rate,
		PaymentMethod:     in.PaymentMethod,
		PaySchedule:       in.PaySchedule,
		TaxClassification: in.TaxClassification,
		EffectiveDate:     effective,
	}
	if err := e.Sources.Rates.AddRate(ctx, rate); err != nil {
		return PayRateArrangement{}, fmt.Errorf("add rate: %w", err)
	}
	e.Logger.InfoContext(ctx, "pay rate added",
		slog.String("employee_id", rate.EmployeeID),
		slog.String("arrangement_id", rate.ID),
		slog.String("schedule", string(rate.PaySchedule)),
	)
	return rate, nil
}
