/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
	Populates the store with realistic timesheets, rate histories and
	ledger records relative to the current week, so every screen has
	something to show right after startup.

AVAILABLE SCENARIOS:
	split-pay:     45h this week over a Biweekly W2 + Weekly 1099 split
	red-flags:     Auto clock-outs, long, short and dangling shifts
	legacy-ledger: Last week settled by a record without arrangement ID,
	               followed by a rate change

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create employees
 3. Add rate rows
 4. Insert raw clock events relative to this week's Monday
 5. Optionally append payment records

USAGE VIA API:
	POST /api/scenarios/load
	{"scenario_id": "split-pay"}

NOTE:
	Scenarios reset the store. The router only mounts them outside
	production.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/clock"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/timeclock"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "split-pay",
		Name:        "Split Pay",
		Description: "45 hours this week: 40 on a biweekly W2 rate, 5 on a weekly 1099 rate",
	},
	{
		ID:          "red-flags",
		Name:        "Red Flags",
		Description: "Auto clock-out, 14-hour shift, 3-minute shift, missing clock-out",
	},
	{
		ID:          "legacy-ledger",
		Name:        "Legacy Ledger",
		Description: "Last week paid by a record without arrangement ID, then a raise",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "split-pay":
		load = h.loadSplitPayScenario
	case "red-flags":
		load = h.loadRedFlagsScenario
	case "legacy-ledger":
		load = h.loadLegacyLedgerScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSplitPayScenario(ctx context.Context) error {
	monday := h.thisMonday()
	emp := payroll.Employee{ID: "emp-dana", Name: "Dana Reyes"}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}

	rates := []payroll.PayRateArrangement{
		h.rate(emp.ID, "rate-dana-w2", "15", payroll.MethodDirectDeposit, payroll.ScheduleBiweekly, payroll.TaxW2, monday.AddDays(-90)),
		h.rate(emp.ID, "rate-dana-1099", "20", payroll.MethodCash, payroll.ScheduleWeekly, payroll.Tax1099, monday.AddDays(-60)),
	}
	for _, rt := range rates {
		if err := h.Store.AddRate(ctx, rt); err != nil {
			return err
		}
	}

	// This week: Mon-Fri 9:00-17:00 plus Saturday 9:00-14:00 = 45h
	for i := 0; i < 5; i++ {
		if err := h.shift(ctx, emp.ID, monday.AddDays(i), 9, 0, 17, 0); err != nil {
			return err
		}
	}
	if err := h.shift(ctx, emp.ID, monday.AddDays(5), 9, 0, 14, 0); err != nil {
		return err
	}

	// Last week: 38h, nothing paid yet
	lastMonday := monday.AddDays(-7)
	for i := 0; i < 4; i++ {
		if err := h.shift(ctx, emp.ID, lastMonday.AddDays(i), 8, 30, 17, 0); err != nil {
			return err
		}
	}
	return h.shift(ctx, emp.ID, lastMonday.AddDays(4), 9, 0, 13, 0)
}

func (h *Handler) loadRedFlagsScenario(ctx context.Context) error {
	monday := h.thisMonday()
	emp := payroll.Employee{ID: "emp-lee", Name: "Lee Park"}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}
	if err := h.Store.AddRate(ctx, h.rate(emp.ID, "rate-lee", "18", payroll.MethodCheck, payroll.ScheduleWeekly, payroll.TaxW2, monday.AddDays(-30))); err != nil {
		return err
	}

	steps := []func() error{
		// Forgot to clock out; the system closed the shift at 18:30
		func() error { return h.shift(ctx, emp.ID, monday, 10, 0, 18, 30) },
		// 14-hour shift
		func() error { return h.shift(ctx, emp.ID, monday.AddDays(1), 6, 0, 20, 0) },
		// 3-minute accidental punch
		func() error { return h.shift(ctx, emp.ID, monday.AddDays(2), 9, 0, 9, 3) },
		// Double clock-in: the first one is superseded
		func() error { return h.punch(ctx, emp.ID, timeclock.EventIn, monday.AddDays(3), 8, 55) },
		func() error { return h.shift(ctx, emp.ID, monday.AddDays(3), 9, 0, 16, 0) },
		// Still clocked in
		func() error { return h.punch(ctx, emp.ID, timeclock.EventIn, monday.AddDays(4), 9, 0) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadLegacyLedgerScenario(ctx context.Context) error {
	monday := h.thisMonday()
	lastWeek := clock.Range{Start: monday.AddDays(-7), End: monday}
	emp := payroll.Employee{ID: "emp-sam", Name: "Sam Cole"}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}

	if err := h.Store.AddRate(ctx, h.rate(emp.ID, "rate-sam-old", "16", payroll.MethodCash, payroll.ScheduleWeekly, payroll.TaxNone, monday.AddDays(-120))); err != nil {
		return err
	}

	for i := 0; i < 3; i++ {
		if err := h.shift(ctx, emp.ID, lastWeek.Start.AddDays(i), 9, 0, 17, 0); err != nil {
			return err
		}
		if err := h.shift(ctx, emp.ID, monday.AddDays(i), 9, 0, 17, 0); err != nil {
			return err
		}
	}

	// Written before arrangements existed: no arrangement ID
	legacy := payroll.PaymentRecord{
		ID:              "pay-sam-legacy",
		EmployeeID:      emp.ID,
		PayPeriodStart:  lastWeek.Start,
		PayPeriodEnd:    lastWeek.LastDay(),
		HoursWorked:     decimal.NewFromInt(24),
		HourlyRate:      decimal.NewFromInt(16),
		EstimatedAmount: decimal.NewFromInt(384),
		GrossAmount:     decimal.NewFromInt(384),
		PaymentMethod:   payroll.MethodCash,
		Notes:           "imported",
		PreparedDate:    monday.Start().Add(10 * time.Hour),
	}
	if err := h.Store.AppendPayment(ctx, legacy); err != nil {
		return err
	}

	// Raise effective this Monday: a new row, the old one stays
	return h.Store.AddRate(ctx, h.rate(emp.ID, "rate-sam-new", "17.5", payroll.MethodCash, payroll.ScheduleWeekly, payroll.TaxNone, monday))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) thisMonday() clock.Date {
	return clock.MondayOf(clock.DateOf(h.Engine.Clock.Now()))
}

func (h *Handler) rate(employeeID, id, rate string, method payroll.PaymentMethod, schedule payroll.PaySchedule, tax payroll.TaxClassification, effective clock.Date) payroll.PayRateArrangement {
	return payroll.PayRateArrangement{
		ID:                id,
		EmployeeID:        employeeID,
		Rate:              decimal.RequireFromString(rate),
		PaymentMethod:     method,
		PaySchedule:       schedule,
		TaxClassification: tax,
		EffectiveDate:     effective.Start().UTC(),
	}
}

func (h *Handler) punch(ctx context.Context, employeeID string, typ timeclock.EventType, day clock.Date, hour, minute int) error {
	at := time.Date(day.Year, day.Month, day.Day, hour, minute, 0, 0, clock.Location())
	_, err := h.Store.InsertEvent(ctx, timeclock.ClockEvent{EmployeeID: employeeID, Type: typ, Timestamp: at})
	return err
}

func (h *Handler) shift(ctx context.Context, employeeID string, day clock.Date, inH, inM, outH, outM int) error {
	if err := h.punch(ctx, employeeID, timeclock.EventIn, day, inH, inM); err != nil {
		return err
	}
	return h.punch(ctx, employeeID, timeclock.EventOut, day, outH, outM)
}
