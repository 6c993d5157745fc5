package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/clock"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/timeclock"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.SaveEmployee(context.Background(), payroll.Employee{ID: "emp-1", Name: "Dana Reyes"}))
	return store
}

var week = clock.Range{Start: clock.NewDate(2026, 10, 12), End: clock.NewDate(2026, 10, 19)}

func et(day, hour, minute int) time.Time {
	return time.Date(2026, time.October, day, hour, minute, 0, 0, clock.Location())
}

func paymentFor(id string, arrangementID *string, prepared time.Time) payroll.PaymentRecord {
	return payroll.PaymentRecord{
		ID:              id,
		EmployeeID:      "emp-1",
		ArrangementID:   arrangementID,
		PayPeriodStart:  week.Start,
		PayPeriodEnd:    week.LastDay(),
		HoursWorked:     decimal.RequireFromString("40"),
		HourlyRate:      decimal.RequireFromString("15.25"),
		EstimatedAmount: decimal.RequireFromString("610"),
		GrossAmount:     decimal.RequireFromString("600"),
		PaymentMethod:   payroll.MethodCheck,
		CheckNumber:     "1042",
		PreparedDate:    prepared,
	}
}

func strPtr(s string) *string { return &s }

// =============================================================================
// PAYMENT LEDGER
// =============================================================================

func TestSQLite_PaymentRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	prepared := time.Date(2026, 10, 19, 14, 0, 0, 123, time.UTC)
	require.NoError(t, store.AppendPayment(ctx, paymentFor("p1", strPtr("bi"), prepared)))

	records, err := store.PaymentsInRange(ctx, "emp-1", week.Start, week.End)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	require.NotNil(t, rec.ArrangementID)
	assert.Equal(t, "bi", *rec.ArrangementID)
	assert.Equal(t, week.LastDay(), rec.PayPeriodEnd)
	assert.True(t, rec.HourlyRate.Equal(decimal.RequireFromString("15.25")))
	assert.Equal(t, "1042", rec.CheckNumber)
	assert.Empty(t, rec.Notes)
	assert.True(t, rec.PreparedDate.Equal(prepared))
	assert.True(t, rec.Covers(week))
}

func TestSQLite_UniqueIndexRejectsDuplicate(t *testing.T) {
	// GIVEN: A record for (emp-1, bi, week)
	// WHEN: Appending another with the same tuple
	// THEN: ErrDuplicatePayment from the unique index

	ctx := context.Background()
	store := newStore(t)
	now := time.Now()

	require.NoError(t, store.AppendPayment(ctx, paymentFor("p1", strPtr("bi"), now)))
	err := store.AppendPayment(ctx, paymentFor("p2", strPtr("bi"), now))
	assert.ErrorIs(t, err, payroll.ErrDuplicatePayment)

	exists, err := store.HasPayment(ctx, "emp-1", "bi", week.Start, week.LastDay())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.HasPayment(ctx, "emp-1", "wk", week.Start, week.LastDay())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLite_LegacyRecordsNotConstrained(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.AppendPayment(ctx, paymentFor("l1", nil, base)))
	require.NoError(t, store.AppendPayment(ctx, paymentFor("l2", nil, base.Add(time.Minute))))

	latest, err := store.LatestPayment(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "l2", latest.ID)
	assert.Nil(t, latest.ArrangementID)
}

func TestSQLite_LatestPaymentNone(t *testing.T) {
	latest, err := newStore(t).LatestPayment(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSQLite_LedgerCommitThroughStore(t *testing.T) {
	// GIVEN: The ledger over SQLite
	// WHEN: Committing the same arrangement twice
	// THEN: Second commit is a duplicate

	ctx := context.Background()
	ledger := payroll.NewLedger(newStore(t), nil)
	in := payroll.CommitInput{
		EmployeeID:    "emp-1",
		ArrangementID: "bi",
		Period:        week,
		HoursWorked:   decimal.NewFromInt(40),
		HourlyRate:    decimal.NewFromInt(15),
		GrossAmount:   decimal.NewFromInt(600),
		PaymentMethod: payroll.MethodCash,
	}

	_, err := ledger.Commit(ctx, in)
	require.NoError(t, err)
	_, err = ledger.Commit(ctx, in)
	assert.ErrorIs(t, err, payroll.ErrDuplicatePayment)
}

// =============================================================================
// CLOCK EVENTS
// =============================================================================

func TestSQLite_EventsInRangeHalfOpen(t *testing.T) {
	// GIVEN: Punches on Monday 00:00, mid-week, and next Monday 00:00
	// WHEN: Querying the week
	// THEN: The next-Monday punch is excluded

	ctx := context.Background()
	store := newStore(t)
	for _, at := range []time.Time{et(12, 0, 0), et(14, 9, 0), et(19, 0, 0)} {
		_, err := store.InsertEvent(ctx, timeclock.ClockEvent{EmployeeID: "emp-1", Type: timeclock.EventIn, Timestamp: at})
		require.NoError(t, err)
	}

	from, to := week.Instants()
	events, err := store.EventsInRange(ctx, "emp-1", from, to)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.Equal(et(12, 0, 0)))
	assert.True(t, events[1].Timestamp.Equal(et(14, 9, 0)))
}

func TestSQLite_CorrectionsMarkEdited(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	in, err := store.InsertEvent(ctx, timeclock.ClockEvent{EmployeeID: "emp-1", Type: timeclock.EventIn, Timestamp: et(14, 9, 0)})
	require.NoError(t, err)
	assert.False(t, in.ManuallyEdited)

	require.NoError(t, store.UpdateEvent(ctx, in.ID, et(14, 8, 45)))
	out, err := store.CreateEvent(ctx, "emp-1", timeclock.EventOut, et(14, 17, 0))
	require.NoError(t, err)

	from, to := week.Instants()
	events, err := store.EventsInRange(ctx, "emp-1", from, to)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].ManuallyEdited)
	assert.True(t, events[0].Timestamp.Equal(et(14, 8, 45)))
	assert.Equal(t, out.ID, events[1].ID)
	assert.True(t, events[1].ManuallyEdited)

	err = store.UpdateEvent(ctx, "missing", et(14, 9, 0))
	assert.ErrorIs(t, err, timeclock.ErrEventNotFound)

	_, err = store.CreateEvent(ctx, "ghost", timeclock.EventIn, et(14, 9, 0))
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

// =============================================================================
// EMPLOYEES / RATES / RESET
// =============================================================================

func TestSQLite_RatesAndEmployees(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	effective := time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddRate(ctx, payroll.PayRateArrangement{
		ID:                "bi",
		EmployeeID:        "emp-1",
		Rate:              decimal.RequireFromString("15.5"),
		PaymentMethod:     payroll.MethodDirectDeposit,
		PaySchedule:       payroll.ScheduleBiweekly,
		TaxClassification: payroll.TaxW2,
		EffectiveDate:     effective,
	}))

	rates, err := store.RatesFor(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, rates[0].Rate.Equal(decimal.RequireFromString("15.5")))
	assert.Equal(t, payroll.ScheduleBiweekly, rates[0].PaySchedule)
	assert.True(t, rates[0].EffectiveDate.Equal(effective))

	require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{ID: "emp-1", Name: "Dana R."}))
	emp, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Dana R.", emp.Name)

	_, err = store.GetEmployee(ctx, "ghost")
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)

	require.NoError(t, store.Reset(ctx))
	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employees)
}
