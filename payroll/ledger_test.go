package payroll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/clock"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
)

func newTestLedger(store payroll.LedgerStore) *payroll.Ledger {
	l := payroll.NewLedger(store, nil)
	l.Clock = clock.FixedClock{At: time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)}
	return l
}

func commitInput(arrangementID string) payroll.CommitInput {
	return payroll.CommitInput{
		EmployeeID:    "emp-1",
		ArrangementID: arrangementID,
		Period:        week,
		HoursWorked:   dec("40"),
		HourlyRate:    dec("15"),
		GrossAmount:   dec("590"),
		PaymentMethod: payroll.MethodCheck,
		CheckNumber:   " 1042 ",
	}
}

func TestLedger_CommitThenStatusPaid(t *testing.T) {
	// GIVEN: An empty ledger and a single arrangement
	// WHEN: Committing the arrangement for the week
	// THEN: The record is stored and the arrangement derives as paid

	ctx := context.Background()
	store := memory.New()
	ledger := newTestLedger(store)

	rec, err := ledger.Commit(ctx, commitInput("bi"))
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	require.NotNil(t, rec.ArrangementID)
	assert.Equal(t, "bi", *rec.ArrangementID)
	assert.Equal(t, clock.NewDate(2026, 10, 12), rec.PayPeriodStart)
	assert.Equal(t, clock.NewDate(2026, 10, 18), rec.PayPeriodEnd)
	assert.True(t, rec.EstimatedAmount.Equal(dec("600")))
	assert.True(t, rec.GrossAmount.Equal(dec("590")))
	assert.Equal(t, "1042", rec.CheckNumber)

	records, err := store.PaymentsInRange(ctx, "emp-1", week.Start, week.End)
	require.NoError(t, err)
	active := []payroll.PayRateArrangement{arrangement("bi", payroll.ScheduleBiweekly, payroll.TaxW2, "15", jan1)}
	paid := payroll.DerivePaid("bi", records, week)
	assert.Equal(t, payroll.StatusPaid, payroll.DeriveStatus(active, paid))
}

func TestLedger_DuplicateCommitRejected(t *testing.T) {
	// GIVEN: A committed arrangement
	// WHEN: Committing the same (employee, arrangement, period) again
	// THEN: ErrDuplicatePayment, and the ledger still holds one record

	ctx := context.Background()
	store := memory.New()
	ledger := newTestLedger(store)

	_, err := ledger.Commit(ctx, commitInput("bi"))
	require.NoError(t, err)

	_, err = ledger.Commit(ctx, commitInput("bi"))
	require.ErrorIs(t, err, payroll.ErrDuplicatePayment)

	var dupErr *payroll.DuplicatePaymentError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "bi", dupErr.ArrangementID)

	records, err := store.PaymentsInRange(ctx, "emp-1", week.Start, week.End)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLedger_OtherArrangementSamePeriodAllowed(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(memory.New())

	_, err := ledger.Commit(ctx, commitInput("bi"))
	require.NoError(t, err)
	_, err = ledger.Commit(ctx, commitInput("wk"))
	assert.NoError(t, err)
}

// racyStore hides existing records from HasPayment, so only the store-level
// constraint can reject the second write.
type racyStore struct {
	*memory.Store
}

func (racyStore) HasPayment(context.Context, string, string, clock.Date, clock.Date) (bool, error) {
	return false, nil
}

func TestLedger_StoreConstraintCatchesConcurrentCommit(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(racyStore{memory.New()})

	_, err := ledger.Commit(ctx, commitInput("bi"))
	require.NoError(t, err)

	_, err = ledger.Commit(ctx, commitInput("bi"))
	var dupErr *payroll.DuplicatePaymentError
	assert.ErrorAs(t, err, &dupErr)
}

func TestLedger_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*payroll.CommitInput)
		field  string
	}{
		{"missing employee", func(in *payroll.CommitInput) { in.EmployeeID = "" }, "employeeId"},
		{"missing arrangement", func(in *payroll.CommitInput) { in.ArrangementID = " " }, "arrangementId"},
		{"inverted period", func(in *payroll.CommitInput) { in.Period = clock.Range{Start: week.End, End: week.Start} }, "period"},
		{"negative hours", func(in *payroll.CommitInput) { in.HoursWorked = dec("-1") }, "hoursWorked"},
		{"negative gross", func(in *payroll.CommitInput) { in.GrossAmount = dec("-0.01") }, "grossAmount"},
		{"unknown method", func(in *payroll.CommitInput) { in.PaymentMethod = "barter" }, "paymentMethod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := commitInput("bi")
			tt.mutate(&in)

			_, err := newTestLedger(memory.New()).Commit(context.Background(), in)

			require.ErrorIs(t, err, payroll.ErrInvalidCommit)
			var vErr *payroll.CommitValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestMemoryStore_LegacyRecordsUnconstrained(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.AppendPayment(ctx, record("l1", nil, "1", "10", jan1)))
	require.NoError(t, store.AppendPayment(ctx, record("l2", nil, "2", "20", feb1)))

	latest, err := store.LatestPayment(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "l2", latest.ID)
}
