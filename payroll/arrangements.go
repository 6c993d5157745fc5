package payroll

import (
	"sort"
	"time"

	"github.com/warp/payroll-engine/clock"
)

// =============================================================================
// ACTIVE ARRANGEMENTS - One row per (schedule, tax classification)
// =============================================================================

type arrangementKey struct {
	schedule PaySchedule
	tax      TaxClassification
}

// ActiveArrangements reduces an employee's full rate history to the set in
// force before asOf. Rows effective at or after asOf are ignored. For each
// (PaySchedule, TaxClassification) pair the row with the latest
// EffectiveDate wins; equal dates fall back to the lexically greater ID so
// the choice is stable across reads.
//
// The result is ordered oldest-effective first.
func ActiveArrangements(rows []PayRateArrangement, asOf time.Time) []PayRateArrangement {
	latest := make(map[arrangementKey]PayRateArrangement, len(rows))
	for _, row := range rows {
		if !row.EffectiveDate.Before(asOf) {
			continue
		}
		key := keyOf(row)
		current, ok := latest[key]
		if !ok || supersedes(row, current) {
			latest[key] = row
		}
	}

	active := make([]PayRateArrangement, 0, len(latest))
	for _, row := range latest {
		active = append(active, row)
	}
	sort.Slice(active, func(i, j int) bool { return earlier(active[i], active[j]) })
	return active
}

// ActiveAsOfPeriod is ActiveArrangements for every row effective on or
// before the period's last day.
func ActiveAsOfPeriod(rows []PayRateArrangement, period clock.Range) []PayRateArrangement {
	return ActiveArrangements(rows, period.End.Start())
}

// LegacyArrangement picks the arrangement that records without an
// arrangement ID belong to: the active row of the same kind as the
// employee's earliest rate row. When that kind has no active row the
// oldest-effective active arrangement is used. Empty when active is empty.
func LegacyArrangement(history, active []PayRateArrangement) string {
	if len(active) == 0 {
		return ""
	}
	var first *PayRateArrangement
	for i := range history {
		if first == nil || earlier(history[i], *first) {
			first = &history[i]
		}
	}
	if first != nil {
		for _, a := range active {
			if keyOf(a) == keyOf(*first) {
				return a.ID
			}
		}
	}
	return active[0].ID
}

func keyOf(a PayRateArrangement) arrangementKey {
	return arrangementKey{schedule: a.PaySchedule, tax: a.TaxClassification}
}

func earlier(a, b PayRateArrangement) bool {
	if !a.EffectiveDate.Equal(b.EffectiveDate) {
		return a.EffectiveDate.Before(b.EffectiveDate)
	}
	return a.ID < b.ID
}

func supersedes(candidate, current PayRateArrangement) bool {
	if candidate.EffectiveDate.After(current.EffectiveDate) {
		return true
	}
	return candidate.EffectiveDate.Equal(current.EffectiveDate) && candidate.ID > current.ID
}

// FindArrangement returns the arrangement with the given ID.
func FindArrangement(arrangements []PayRateArrangement, id string) (PayRateArrangement, bool) {
	for _, a := range arrangements {
		if a.ID == id {
			return a, true
		}
	}
	return PayRateArrangement{}, false
}
