package export_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-engine/clock"
	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
	"github.com/warp/payroll-engine/timeclock"
)

func et(day, hour, minute int) time.Time {
	return time.Date(2026, time.October, day, hour, minute, 0, 0, clock.Location())
}

func summaries(t *testing.T) (clock.Range, []payroll.EmployeePayrollSummary) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{ID: "emp-1", Name: "Dana Reyes"}))
	for _, ev := range []timeclock.ClockEvent{
		{EmployeeID: "emp-1", Type: timeclock.EventIn, Timestamp: et(12, 9, 0)},
		{EmployeeID: "emp-1", Type: timeclock.EventOut, Timestamp: et(12, 18, 30)},
		{EmployeeID: "emp-1", Type: timeclock.EventIn, Timestamp: et(13, 9, 0)},
	} {
		_, err := store.InsertEvent(ctx, ev)
		require.NoError(t, err)
	}
	require.NoError(t, store.AddRate(ctx, payroll.PayRateArrangement{
		ID:                "wk",
		EmployeeID:        "emp-1",
		Rate:              decimal.NewFromInt(20),
		PaymentMethod:     payroll.MethodCash,
		PaySchedule:       payroll.ScheduleWeekly,
		TaxClassification: payroll.TaxNone,
		EffectiveDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	engine := payroll.NewEngine(payroll.Sources{Employees: store, Events: store, Rates: store, Payments: store}, nil)
	engine.Clock = clock.FixedClock{At: et(14, 12, 0)}

	all, err := engine.Summaries(ctx, clock.SelectThis)
	require.NoError(t, err)
	require.Len(t, all, 1)
	return all[0].Period, all
}

func TestWorkbook(t *testing.T) {
	// GIVEN: One employee with a 9.5h auto clock-out shift and an open shift
	// WHEN: Exporting
	// THEN: The Payroll sheet has the allocation; Shifts lists both with flags

	period, all := summaries(t)

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, period, all))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.PayrollSheet, export.ShiftsSheet}, f.GetSheetList())

	title, err := f.GetCellValue(export.PayrollSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Payroll 2026-10-12 to 2026-10-18", title)

	rows, err := f.GetRows(export.PayrollSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Dana Reyes", rows[3][0])
	assert.Equal(t, "wk", rows[3][1])
	assert.Equal(t, "9.5", rows[3][4])
	assert.Equal(t, "190.00", rows[3][7])
	assert.Equal(t, "cash", rows[3][8])
	assert.Equal(t, "unpaid", rows[3][9])

	shifts, err := f.GetRows(export.ShiftsSheet)
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, "6:30 PM", shifts[1][3])
	assert.Equal(t, "auto_clock_out", shifts[1][5])
	assert.Equal(t, "incomplete", shifts[2][5])
}

func TestFilename(t *testing.T) {
	period := clock.Range{Start: clock.NewDate(2026, 10, 12), End: clock.NewDate(2026, 10, 19)}
	assert.Equal(t, "payroll_2026-10-12_2026-10-18.xlsx", export.Filename(period))
}
