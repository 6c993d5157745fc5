package payroll

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/clock"
)

// =============================================================================
// PAID STATUS - Derived from ledger records, never stored
// =============================================================================

// Status is the settlement state of an employee or arrangement for a period.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusUnpaid  Status = "unpaid"
)

// PaidEntry summarizes the records attributed to one arrangement.
type PaidEntry struct {
	RecordID string
	Hours    decimal.Decimal
	Pay      decimal.Decimal // GrossAmount of the last record
	Records  int
	Legacy   bool // At least one attributed record had no arrangement ID
}

// PaidMap is keyed by arrangement ID.
type PaidMap map[string]PaidEntry

// IsPaid reports whether the arrangement has any record.
func (m PaidMap) IsPaid(arrangementID string) bool {
	_, ok := m[arrangementID]
	return ok
}

// TotalPaid sums the pay of every entry.
func (m PaidMap) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, e := range m {
		total = total.Add(e.Pay)
	}
	return total
}

// DerivePaid builds the PaidMap for a period from raw records.
//
// Only records covering exactly the period count. Records are applied in
// PreparedDate order, so the last one prepared supplies Hours and Pay.
// A legacy record without an arrangement ID is attributed to legacyID (see
// LegacyArrangement); when legacyID is empty it is dropped.
func DerivePaid(legacyID string, records []PaymentRecord, period clock.Range) PaidMap {
	matching := make([]PaymentRecord, 0, len(records))
	for _, r := range records {
		if r.Covers(period) {
			matching = append(matching, r)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].PreparedDate.Before(matching[j].PreparedDate)
	})

	paid := make(PaidMap)
	for _, r := range matching {
		var id string
		if r.ArrangementID != nil {
			id = *r.ArrangementID
		} else {
			if legacyID == "" {
				continue
			}
			id = legacyID
		}

		entry := paid[id]
		entry.RecordID = r.ID
		entry.Hours = r.HoursWorked
		entry.Pay = r.GrossAmount
		entry.Records++
		entry.Legacy = entry.Legacy || r.IsLegacy()
		paid[id] = entry
	}
	return paid
}

// DeriveStatus is paid when every active arrangement has a record, partial
// when some do, unpaid otherwise. No active arrangements means unpaid.
func DeriveStatus(active []PayRateArrangement, paid PaidMap) Status {
	if len(active) == 0 {
		return StatusUnpaid
	}
	count := 0
	for _, a := range active {
		if paid.IsPaid(a.ID) {
			count++
		}
	}
	switch {
	case count == len(active):
		return StatusPaid
	case count > 0:
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// ArrangementStatus is paid or unpaid for a single arrangement.
func ArrangementStatus(arrangementID string, paid PaidMap) Status {
	if paid.IsPaid(arrangementID) {
		return StatusPaid
	}
	return StatusUnpaid
}
