/*
allocate.go - Split-pay allocation of a week's hours across arrangements

PURPOSE:
  Given the total completed hours for a period and the active
  arrangements, decide how many hours each arrangement is paid for.
  Mirrors the priority distribution of the time-off engine: a fixed
  order decides which bucket is filled first.

SPLIT-PAY RULE (two or more active arrangements):
  - The first Biweekly arrangement receives min(40, total).
  - The first Weekly arrangement receives max(0, total - 40).
  - Every other arrangement receives 0.
  - An arrangement that already has a payment record receives 0.

SINGLE ARRANGEMENT:
  Receives total - hours already paid, floored at 0.

EXAMPLE:
  45h with Biweekly $15 and Weekly $20:
    Biweekly: 40h → $600
    Weekly:    5h → $100

SEE ALSO:
  - status.go: PaidMap consumed here
  - engine.go: Calls Allocate once per employee summary
*/
package payroll

import "github.com/shopspring/decimal"

// BiweeklyShareHours is the portion of a week paid under the biweekly
// arrangement before the remainder spills to the weekly one.
var BiweeklyShareHours = decimal.NewFromInt(40)

// =============================================================================
// ALLOCATION TYPES
// =============================================================================

// AllocationInput is everything the allocator needs for one employee-period.
type AllocationInput struct {
	TotalHours   decimal.Decimal
	Arrangements []PayRateArrangement // Output of ActiveArrangements
	Paid         PaidMap
}

// Allocation is the hours and amount assigned to one arrangement.
type Allocation struct {
	ArrangementID string
	Schedule      PaySchedule
	Tax           TaxClassification
	Method        PaymentMethod
	Hours         decimal.Decimal
	Rate          decimal.Decimal
	Amount        decimal.Decimal // Hours × Rate
	AlreadyPaid   bool
}

// Allocator assigns hours to arrangements.
type Allocator interface {
	Allocate(in AllocationInput) []Allocation
}

// TotalAllocatedHours sums allocated hours.
func TotalAllocatedHours(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Hours)
	}
	return total
}

// =============================================================================
// SPLIT PAY POLICY
// =============================================================================

// SplitPayPolicy is the default Allocator. Allocated hours never exceed
// the input total.
type SplitPayPolicy struct{}

var _ Allocator = SplitPayPolicy{}

func (SplitPayPolicy) Allocate(in AllocationInput) []Allocation {
	total := decimal.Max(in.TotalHours, decimal.Zero)

	switch len(in.Arrangements) {
	case 0:
		return nil
	case 1:
		a := in.Arrangements[0]
		entry, paid := in.Paid[a.ID]
		hours := total
		if paid {
			hours = decimal.Max(total.Sub(entry.Hours), decimal.Zero)
		}
		return []Allocation{newAllocation(a, hours, paid)}
	}

	biweeklyShare := decimal.Min(total, BiweeklyShareHours)
	weeklyShare := decimal.Max(total.Sub(BiweeklyShareHours), decimal.Zero)

	var biweeklyTaken, weeklyTaken bool
	allocs := make([]Allocation, 0, len(in.Arrangements))
	for _, a := range in.Arrangements {
		hours := decimal.Zero
		switch a.PaySchedule {
		case ScheduleBiweekly:
			if !biweeklyTaken {
				hours = biweeklyShare
				biweeklyTaken = true
			}
		case ScheduleWeekly:
			if !weeklyTaken {
				hours = weeklyShare
				weeklyTaken = true
			}
		case ScheduleNone:
			// Never part of the split.
		}

		_, paid := in.Paid[a.ID]
		if paid {
			hours = decimal.Zero
		}
		allocs = append(allocs, newAllocation(a, hours, paid))
	}
	return allocs
}

func newAllocation(a PayRateArrangement, hours decimal.Decimal, paid bool) Allocation {
	return Allocation{
		ArrangementID: a.ID,
		Schedule:      a.PaySchedule,
		Tax:           a.TaxClassification,
		Method:        a.PaymentMethod,
		Hours:         hours,
		Rate:          a.Rate,
		Amount:        hours.Mul(a.Rate),
		AlreadyPaid:   paid,
	}
}

// =============================================================================
// QUICK PAY
// =============================================================================

// QuickPaySuggestion is the default settlement an operator can accept with
// one action.
type QuickPaySuggestion struct {
	ArrangementID string
	Hours         decimal.Decimal
	Rate          decimal.Decimal
	Amount        decimal.Decimal // Whole currency units, rounded down
	Method        PaymentMethod
}

// QuickPay suggests floor(hours × rate) paid by the employee's last-used
// method. Without a previous payment the arrangement's own method is used.
func QuickPay(alloc Allocation, lastMethod PaymentMethod) QuickPaySuggestion {
	method := lastMethod
	if !method.Valid() {
		method = alloc.Method
	}
	return QuickPaySuggestion{
		ArrangementID: alloc.ArrangementID,
		Hours:         alloc.Hours,
		Rate:          alloc.Rate,
		Amount:        alloc.Hours.Mul(alloc.Rate).Floor(),
		Method:        method,
	}
}
