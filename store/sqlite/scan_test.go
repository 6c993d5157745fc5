package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/clock"
)

func TestScanPayment_CorruptAmountIsAnError(t *testing.T) {
	// GIVEN: A ledger row whose gross amount is not a number
	// WHEN: Reading the period
	// THEN: The read fails instead of reporting $0

	ctx := context.Background()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.db.ExecContext(ctx, `
		INSERT INTO payment_records (id, employee_id, arrangement_id, pay_period_start, pay_period_end,
			hours_worked, hourly_rate, estimated_amount, gross_amount, payment_method, prepared_date)
		VALUES ('bad', 'emp-1', 'arr-1', '2026-10-12', '2026-10-18', '40', '15', '600', 'six hundred', 'cash', ?)
	`, formatInstant(clock.NewDate(2026, 10, 19).Start()))
	require.NoError(t, err)

	_, err = store.PaymentsInRange(ctx, "emp-1", clock.NewDate(2026, 10, 12), clock.NewDate(2026, 10, 19))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment record bad")

	latest, err := store.LatestPayment(ctx, "emp-1")
	assert.Error(t, err)
	assert.Nil(t, latest)
}
