package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/clock"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
	"github.com/warp/payroll-engine/timeclock"
)

var week = clock.Range{Start: clock.NewDate(2026, 10, 12), End: clock.NewDate(2026, 10, 19)}

func et(day, hour, minute int) time.Time {
	return time.Date(2026, time.October, day, hour, minute, 0, 0, clock.Location())
}

func record(id string, arrangementID *string, prepared time.Time) payroll.PaymentRecord {
	return payroll.PaymentRecord{
		ID:             id,
		EmployeeID:     "emp-1",
		ArrangementID:  arrangementID,
		PayPeriodStart: week.Start,
		PayPeriodEnd:   week.LastDay(),
		HoursWorked:    decimal.NewFromInt(40),
		HourlyRate:     decimal.NewFromInt(15),
		GrossAmount:    decimal.NewFromInt(600),
		PaymentMethod:  payroll.MethodCash,
		PreparedDate:   prepared,
	}
}

func strPtr(s string) *string { return &s }

func TestMemory_PaymentUniqueness(t *testing.T) {
	// GIVEN: A payment for (emp-1, arr-1, this week)
	// WHEN: Appending a second one for the same key
	// THEN: ErrDuplicatePayment; legacy records are never constrained

	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.AppendPayment(ctx, record("p1", strPtr("arr-1"), et(19, 9, 0))))
	err := s.AppendPayment(ctx, record("p2", strPtr("arr-1"), et(19, 10, 0)))
	assert.ErrorIs(t, err, payroll.ErrDuplicatePayment)

	require.NoError(t, s.AppendPayment(ctx, record("l1", nil, et(19, 11, 0))))
	require.NoError(t, s.AppendPayment(ctx, record("l2", nil, et(19, 12, 0))))

	has, err := s.HasPayment(ctx, "emp-1", "arr-1", week.Start, week.LastDay())
	require.NoError(t, err)
	assert.True(t, has)

	recs, err := s.PaymentsInRange(ctx, "emp-1", week.Start, week.End)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "p1", recs[0].ID)

	latest, err := s.LatestPayment(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "l2", latest.ID)
}

func TestMemory_EventsHalfOpenAndSorted(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{ID: "emp-1", Name: "Dana"}))

	for _, at := range []time.Time{et(13, 17, 0), et(13, 9, 0), et(19, 0, 0)} {
		_, err := s.InsertEvent(ctx, timeclock.ClockEvent{EmployeeID: "emp-1", Type: timeclock.EventIn, Timestamp: at})
		require.NoError(t, err)
	}

	from, to := week.Instants()
	events, err := s.EventsInRange(ctx, "emp-1", from, to)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.Before(events[1].Timestamp))
}

func TestMemory_Corrections(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{ID: "emp-1", Name: "Dana"}))

	_, err := s.CreateEvent(ctx, "ghost", timeclock.EventOut, et(13, 17, 0))
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)

	ev, err := s.CreateEvent(ctx, "emp-1", timeclock.EventOut, et(13, 17, 0))
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.True(t, ev.ManuallyEdited)

	assert.ErrorIs(t, s.UpdateEvent(ctx, "missing", et(13, 18, 0)), timeclock.ErrEventNotFound)
	require.NoError(t, s.UpdateEvent(ctx, ev.ID, et(13, 18, 0)))

	from, to := week.Instants()
	events, err := s.EventsInRange(ctx, "emp-1", from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Timestamp.Equal(et(13, 18, 0)))
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.SaveEmployee(ctx, payroll.Employee{ID: "emp-1", Name: "Dana"}))
	require.NoError(t, s.AppendPayment(ctx, record("p1", strPtr("arr-1"), et(19, 9, 0))))

	require.NoError(t, s.Reset(ctx))

	employees, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employees)
	has, err := s.HasPayment(ctx, "emp-1", "arr-1", week.Start, week.LastDay())
	require.NoError(t, err)
	assert.False(t, has)
}
