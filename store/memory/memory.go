// Package memory provides in-memory implementations of every payroll
// source and store (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/payroll-engine/clock"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/timeclock"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store holds employees, clock events, rate rows and payment records.
type Store struct {
	mu        sync.RWMutex
	employees map[string]payroll.Employee
	order     []string // Employee insertion order
	events    map[string]timeclock.ClockEvent
	rates     map[string][]payroll.PayRateArrangement
	payments  map[string][]payroll.PaymentRecord
	paidKeys  map[paymentKey]bool
}

type paymentKey struct {
	employeeID    string
	arrangementID string
	start, end    clock.Date
}

var (
	_ payroll.EmployeeSource = (*Store)(nil)
	_ payroll.RateSource     = (*Store)(nil)
	_ payroll.LedgerStore    = (*Store)(nil)
	_ timeclock.EventSource  = (*Store)(nil)
)

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

// Reset drops all data.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *Store) reset() {
	s.employees = make(map[string]payroll.Employee)
	s.order = nil
	s.events = make(map[string]timeclock.ClockEvent)
	s.rates = make(map[string][]payroll.PayRateArrangement)
	s.payments = make(map[string][]payroll.PaymentRecord)
	s.paidKeys = make(map[paymentKey]bool)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or renames an employee.
func (s *Store) SaveEmployee(_ context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[emp.ID]; !ok {
		s.order = append(s.order, emp.ID)
	}
	s.employees[emp.ID] = emp
	return nil
}

func (s *Store) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]payroll.Employee, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.employees[id])
	}
	return out, nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return payroll.Employee{}, fmt.Errorf("%w: %s", payroll.ErrEmployeeNotFound, id)
	}
	return emp, nil
}

// =============================================================================
// CLOCK EVENTS
// =============================================================================

// InsertEvent stores a raw event as captured by the clock. An empty ID is
// assigned.
func (s *Store) InsertEvent(_ context.Context, ev timeclock.ClockEvent) (timeclock.ClockEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	s.events[ev.ID] = ev
	return ev, nil
}

func (s *Store) EventsInRange(_ context.Context, employeeID string, from, to time.Time) ([]timeclock.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []timeclock.ClockEvent
	for _, ev := range s.events {
		if ev.EmployeeID != employeeID {
			continue
		}
		if ev.Timestamp.Before(from) || !ev.Timestamp.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CreateEvent adds an event entered by an operator. It is marked edited.
func (s *Store) CreateEvent(ctx context.Context, employeeID string, typ timeclock.EventType, at time.Time) (timeclock.ClockEvent, error) {
	if _, err := s.GetEmployee(ctx, employeeID); err != nil {
		return timeclock.ClockEvent{}, err
	}
	return s.InsertEvent(ctx, timeclock.ClockEvent{
		EmployeeID:     employeeID,
		Type:           typ,
		Timestamp:      at,
		ManuallyEdited: true,
	})
}

// UpdateEvent moves an event and marks it edited.
func (s *Store) UpdateEvent(_ context.Context, eventID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return fmt.Errorf("%w: %s", timeclock.ErrEventNotFound, eventID)
	}
	ev.Timestamp = at
	ev.ManuallyEdited = true
	s.events[eventID] = ev
	return nil
}

// =============================================================================
// RATES - Append-only
// =============================================================================

func (s *Store) AddRate(_ context.Context, rate payroll.PayRateArrangement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[rate.EmployeeID] = append(s.rates[rate.EmployeeID], rate)
	return nil
}

func (s *Store) RatesFor(_ context.Context, employeeID string) ([]payroll.PayRateArrangement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.rates[employeeID]
	out := make([]payroll.PayRateArrangement, len(rows))
	copy(out, rows)
	return out, nil
}

// =============================================================================
// PAYMENTS - Append-only, unique per (employee, arrangement, period)
// =============================================================================

func (s *Store) AppendPayment(_ context.Context, rec payroll.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Legacy records carry no arrangement and are not constrained.
	if rec.ArrangementID != nil {
		k := paymentKey{rec.EmployeeID, *rec.ArrangementID, rec.PayPeriodStart, rec.PayPeriodEnd}
		if s.paidKeys[k] {
			return payroll.ErrDuplicatePayment
		}
		s.paidKeys[k] = true
	}
	s.payments[rec.EmployeeID] = append(s.payments[rec.EmployeeID], rec)
	return nil
}

func (s *Store) HasPayment(_ context.Context, employeeID, arrangementID string, start, end clock.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paidKeys[paymentKey{employeeID, arrangementID, start, end}], nil
}

func (s *Store) PaymentsInRange(_ context.Context, employeeID string, from, to clock.Date) ([]payroll.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []payroll.PaymentRecord
	for _, rec := range s.payments[employeeID] {
		if rec.PayPeriodStart.Before(from) || !rec.PayPeriodStart.Before(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PreparedDate.Before(out[j].PreparedDate)
	})
	return out, nil
}

func (s *Store) LatestPayment(_ context.Context, employeeID string) (*payroll.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *payroll.PaymentRecord
	for i := range s.payments[employeeID] {
		rec := s.payments[employeeID][i]
		if latest == nil || !rec.PreparedDate.Before(latest.PreparedDate) {
			latest = &rec
		}
	}
	return latest, nil
}
