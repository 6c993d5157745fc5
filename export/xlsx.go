/*
Package export renders payroll summaries as an XLSX workbook.

SHEETS:
  Payroll: one row per (employee, arrangement) with allocated hours,
           amount, quick-pay suggestion and paid status
  Shifts:  one row per reconciled shift with its flags

The workbook is built in memory; callers stream it with Write.
*/
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-engine/clock"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/timeclock"
)

const (
	PayrollSheet = "Payroll"
	ShiftsSheet  = "Shifts"
)

var payrollHeader = []any{
	"Employee", "Arrangement", "Schedule", "Tax", "Hours", "Rate",
	"Amount", "Quick Pay", "Method", "Status", "Paid Amount",
}

var shiftsHeader = []any{
	"Employee", "Date", "Clock In", "Clock Out", "Hours", "Flags",
}

// Filename is the suggested download name for a period.
func Filename(period clock.Range) string {
	return fmt.Sprintf("payroll_%s_%s.xlsx", period.Start, period.LastDay())
}

// Workbook builds the payroll workbook. The caller must Close it.
func Workbook(period clock.Range, summaries []payroll.EmployeePayrollSummary) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", PayrollSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(ShiftsSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writePayroll(f, period, summaries, headerStyle, moneyStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeShifts(f, summaries, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, period clock.Range, summaries []payroll.EmployeePayrollSummary) error {
	f, err := Workbook(period, summaries)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

func writePayroll(f *excelize.File, period clock.Range, summaries []payroll.EmployeePayrollSummary, headerStyle, moneyStyle int) error {
	title := fmt.Sprintf("Payroll %s to %s", period.Start, period.LastDay())
	if err := f.SetCellValue(PayrollSheet, "A1", title); err != nil {
		return err
	}
	if err := writeRow(f, PayrollSheet, 3, payrollHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(PayrollSheet, "A3", cell(len(payrollHeader), 3), headerStyle); err != nil {
		return err
	}

	row := 4
	for _, s := range summaries {
		if len(s.Allocations) == 0 {
			if err := writeRow(f, PayrollSheet, row, []any{s.Employee.Name, "", "", "", s.TotalHours.InexactFloat64(), "", "", "", "", string(s.Status), ""}); err != nil {
				return err
			}
			row++
			continue
		}
		for _, a := range s.Allocations {
			quick, method := "", ""
			if q, ok := s.QuickPayFor(a.ArrangementID); ok {
				quick = q.Amount.StringFixed(2)
				method = string(q.Method)
			}
			paidAmount := ""
			if entry, ok := s.Paid[a.ArrangementID]; ok {
				paidAmount = entry.Pay.StringFixed(2)
			}
			values := []any{
				s.Employee.Name,
				a.ArrangementID,
				string(a.Schedule),
				string(a.Tax),
				a.Hours.InexactFloat64(),
				a.Rate.InexactFloat64(),
				a.Amount.InexactFloat64(),
				quick,
				method,
				string(payroll.ArrangementStatus(a.ArrangementID, s.Paid)),
				paidAmount,
			}
			if err := writeRow(f, PayrollSheet, row, values); err != nil {
				return err
			}
			if err := f.SetCellStyle(PayrollSheet, cell(6, row), cell(7, row), moneyStyle); err != nil {
				return err
			}
			row++
		}
	}
	return f.SetColWidth(PayrollSheet, "A", "A", 24)
}

func writeShifts(f *excelize.File, summaries []payroll.EmployeePayrollSummary, headerStyle int) error {
	if err := writeRow(f, ShiftsSheet, 1, shiftsHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(ShiftsSheet, "A1", cell(len(shiftsHeader), 1), headerStyle); err != nil {
		return err
	}

	row := 2
	for _, s := range summaries {
		for _, sh := range s.Shifts {
			out := ""
			if sh.ClockOut != nil {
				out = timeclock.DisplayTime(*sh.ClockOut)
			}
			values := []any{s.Employee.Name, sh.Date.String(), timeclock.DisplayTime(sh.ClockIn), out, sh.Hours.InexactFloat64(), flagLabels(sh)}
			if err := writeRow(f, ShiftsSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return f.SetColWidth(ShiftsSheet, "A", "A", 24)
}

func flagLabels(sh timeclock.WorkedShift) string {
	var labels []string
	if sh.Flags.Incomplete {
		labels = append(labels, "incomplete")
	}
	if sh.Flags.Suspicious {
		labels = append(labels, "suspicious")
	}
	for _, r := range timeclock.RedFlagReasons(sh) {
		labels = append(labels, string(r))
	}
	return strings.Join(labels, ", ")
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	return f.SetSheetRow(sheet, cell(1, row), &values)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
