/*
Package payroll allocates reconciled hours across an employee's pay-rate
arrangements and records settlements in an append-only ledger.

PURPOSE:
  An employee may be paid under more than one concurrently active
  arrangement (split pay), e.g. a biweekly W2 rate and a weekly cash rate.
  This package decides which arrangement receives which hours, suggests a
  quick-pay amount, and derives paid/partial/unpaid status from the
  Payment Ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - PaySchedule, TaxClassification, PaymentMethod: closed enums
  - PayRateArrangement: one rate row; a rate change adds a NEW row
  - Employee: id + display name from the directory

SEE ALSO:
  - arrangements.go: Active-arrangement deduplication
  - allocate.go:     Split-pay allocation strategy + quick-pay
  - ledger.go:       Payment Ledger commit
  - status.go:       Paid/partial/unpaid derivation
  - engine.go:       EmployeePayrollSummary assembly
*/
package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMS
// =============================================================================

// PaySchedule is how often an arrangement is settled.
type PaySchedule string

const (
	ScheduleWeekly   PaySchedule = "Weekly"
	ScheduleBiweekly PaySchedule = "Biweekly"
	ScheduleNone     PaySchedule = "None"
)

var paySchedules = []PaySchedule{ScheduleWeekly, ScheduleBiweekly, ScheduleNone}

// ParsePaySchedule matches case-insensitively. Empty means ScheduleNone.
func ParsePaySchedule(s string) (PaySchedule, error) {
	if strings.TrimSpace(s) == "" {
		return ScheduleNone, nil
	}
	for _, ps := range paySchedules {
		if strings.EqualFold(s, string(ps)) {
			return ps, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaySchedule, s)
}

func (ps PaySchedule) Valid() bool {
	for _, v := range paySchedules {
		if ps == v {
			return true
		}
	}
	return false
}

// TaxClassification is the tax treatment of an arrangement.
type TaxClassification string

const (
	TaxW2   TaxClassification = "W2"
	Tax1099 TaxClassification = "1099"
	TaxNone TaxClassification = "None"
)

var taxClassifications = []TaxClassification{TaxW2, Tax1099, TaxNone}

// ParseTaxClassification matches case-insensitively. Empty means TaxNone.
func ParseTaxClassification(s string) (TaxClassification, error) {
	if strings.TrimSpace(s) == "" {
		return TaxNone, nil
	}
	for _, tc := range taxClassifications {
		if strings.EqualFold(s, string(tc)) {
			return tc, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTaxClassification, s)
}

func (tc TaxClassification) Valid() bool {
	for _, v := range taxClassifications {
		if tc == v {
			return true
		}
	}
	return false
}

// PaymentMethod is how a settlement was handed over.
type PaymentMethod string

const (
	MethodCash          PaymentMethod = "cash"
	MethodCheck         PaymentMethod = "check"
	MethodDirectDeposit PaymentMethod = "direct_deposit"
	MethodOther         PaymentMethod = "other"
)

var paymentMethods = []PaymentMethod{MethodCash, MethodCheck, MethodDirectDeposit, MethodOther}

// ParsePaymentMethod matches case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for _, m := range paymentMethods {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
}

func (m PaymentMethod) Valid() bool {
	for _, v := range paymentMethods {
		if m == v {
			return true
		}
	}
	return false
}

// =============================================================================
// ARRANGEMENT / EMPLOYEE
// =============================================================================

// PayRateArrangement is one rate row. Rows are never edited; a new rate is a
// new row with a later EffectiveDate.
type PayRateArrangement struct {
	ID                string
	EmployeeID        string
	Rate              decimal.Decimal // Per hour
	PaymentMethod     PaymentMethod
	PaySchedule       PaySchedule
	TaxClassification TaxClassification
	EffectiveDate     time.Time
}

// Employee is the directory entry the summary is keyed by.
type Employee struct {
	ID   string
	Name string
}
