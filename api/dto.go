/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Hours, rates and money are decimal strings ("40", "15.25") so no value
  passes through float64. Requests accept either strings or numbers.

TIMES:
  Instants are RFC 3339. Calendar dates are YYYY-MM-DD in business time.
  Display times ("3:04 PM") are business-local.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/timeclock"
)

// =============================================================================
// EMPLOYEES / RATES
// =============================================================================

type EmployeeDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateEmployeeRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ArrangementDTO struct {
	ID                string          `json:"id"`
	Rate              decimal.Decimal `json:"rate"`
	PaymentMethod     string          `json:"payment_method"`
	PaySchedule       string          `json:"pay_schedule"`
	TaxClassification string          `json:"tax_classification"`
	EffectiveDate     time.Time       `json:"effective_date"`
}

// CreateRateRequest adds a new rate row. EffectiveDate is YYYY-MM-DD.
type CreateRateRequest struct {
	Rate              decimal.Decimal `json:"rate"`
	PaymentMethod     string          `json:"payment_method"`
	PaySchedule       string          `json:"pay_schedule"`
	TaxClassification string          `json:"tax_classification"`
	EffectiveDate     string          `json:"effective_date,omitempty"`
}

// =============================================================================
// PAYROLL SUMMARY
// =============================================================================

type PeriodDTO struct {
	Selector string `json:"selector"`
	Start    string `json:"start"`
	End      string `json:"end"`      // Exclusive
	LastDay  string `json:"last_day"` // Inclusive
}

type ShiftDTO struct {
	Date              string          `json:"date"`
	ClockIn           time.Time       `json:"clock_in"`
	ClockOut          *time.Time      `json:"clock_out,omitempty"`
	ClockInDisplay    string          `json:"clock_in_display"`
	ClockOutDisplay   string          `json:"clock_out_display,omitempty"`
	Hours             decimal.Decimal `json:"hours"`
	Incomplete        bool            `json:"incomplete"`
	AutoClockOut      bool            `json:"auto_clock_out"`
	Suspicious        bool            `json:"suspicious"`
	RedFlags          []string        `json:"red_flags,omitempty"`
	InEventID         string          `json:"in_event_id"`
	OutEventID        *string         `json:"out_event_id,omitempty"`
	OutManuallyEdited bool            `json:"out_manually_edited"`
}

type AllocationDTO struct {
	ArrangementID string           `json:"arrangement_id"`
	PaySchedule   string           `json:"pay_schedule"`
	Tax           string           `json:"tax_classification"`
	Hours         decimal.Decimal  `json:"hours"`
	Rate          decimal.Decimal  `json:"rate"`
	Amount        decimal.Decimal  `json:"amount"`
	Status        string           `json:"status"`
	PaidAmount    *decimal.Decimal `json:"paid_amount,omitempty"`
	PaidHours     *decimal.Decimal `json:"paid_hours,omitempty"`
	RecordID      string           `json:"record_id,omitempty"`
}

type QuickPayDTO struct {
	ArrangementID string          `json:"arrangement_id"`
	Hours         decimal.Decimal `json:"hours"`
	Rate          decimal.Decimal `json:"rate"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
}

type PayrollSummaryDTO struct {
	Employee          EmployeeDTO      `json:"employee"`
	Period            PeriodDTO        `json:"period"`
	TotalHours        decimal.Decimal  `json:"total_hours"`
	Status            string           `json:"status"`
	Shifts            []ShiftDTO       `json:"shifts"`
	Arrangements      []ArrangementDTO `json:"arrangements"`
	Allocations       []AllocationDTO  `json:"allocations"`
	QuickPay          []QuickPayDTO    `json:"quick_pay"`
	LastPaymentMethod string           `json:"last_payment_method,omitempty"`
	HasRedFlags       bool             `json:"has_red_flags"`
}

// =============================================================================
// FEEDS
// =============================================================================

type FlaggedActivityDTO struct {
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	Date         string          `json:"date"`
	ClockIn      string          `json:"clock_in"`
	ClockOut     string          `json:"clock_out"`
	Hours        decimal.Decimal `json:"hours"`
	Reason       string          `json:"reason"`
}

type RedFlagDTO struct {
	EmployeeID   string   `json:"employee_id"`
	EmployeeName string   `json:"employee_name"`
	Reasons      []string `json:"reasons"`
	Shift        ShiftDTO `json:"shift"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

// CommitPaymentRequest settles one arrangement. Omitted gross_amount and
// payment_method take the quick-pay suggestion.
type CommitPaymentRequest struct {
	EmployeeID    string           `json:"employee_id"`
	ArrangementID string           `json:"arrangement_id"`
	Period        string           `json:"period"`
	GrossAmount   *decimal.Decimal `json:"gross_amount,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	CheckNumber   string           `json:"check_number,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

type PaymentRecordDTO struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	ArrangementID   *string         `json:"arrangement_id"`
	PayPeriodStart  string          `json:"pay_period_start"`
	PayPeriodEnd    string          `json:"pay_period_end"`
	HoursWorked     decimal.Decimal `json:"hours_worked"`
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
	EstimatedAmount decimal.Decimal `json:"estimated_amount"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	PaymentMethod   string          `json:"payment_method"`
	CheckNumber     string          `json:"check_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	PreparedDate    time.Time       `json:"prepared_date"`
}

// =============================================================================
// CORRECTIONS
// =============================================================================

type CorrectionRequest struct {
	Kind       string    `json:"kind"` // "create" or "update"
	EventID    string    `json:"event_id,omitempty"`
	EmployeeID string    `json:"employee_id,omitempty"`
	Type       string    `json:"type,omitempty"` // "in" or "out"
	At         time.Time `json:"at"`
}

type CorrectionBatchRequest struct {
	Corrections []CorrectionRequest `json:"corrections"`
}

// EditShiftRequest moves a shift. A nil side is left unchanged.
// CurrentClockIn is needed to validate a clock-out-only edit.
type EditShiftRequest struct {
	EmployeeID     string     `json:"employee_id"`
	InEventID      string     `json:"in_event_id"`
	OutEventID     *string    `json:"out_event_id,omitempty"`
	ClockIn        *time.Time `json:"clock_in,omitempty"`
	ClockOut       *time.Time `json:"clock_out,omitempty"`
	CurrentClockIn *time.Time `json:"current_clock_in,omitempty"`
}

type CorrectionResultDTO struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	EventID string `json:"event_id,omitempty"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

type CorrectionReportDTO struct {
	OK      bool                  `json:"ok"`
	Applied int                   `json:"applied"`
	Failed  int                   `json:"failed"`
	Results []CorrectionResultDTO `json:"results"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{ID: e.ID, Name: e.Name}
}

func toShiftDTO(s timeclock.WorkedShift) ShiftDTO {
	dto := ShiftDTO{
		Date:              s.Date.String(),
		ClockIn:           s.ClockIn,
		ClockOut:          s.ClockOut,
		ClockInDisplay:    timeclock.DisplayTime(s.ClockIn),
		Hours:             s.Hours,
		Incomplete:        s.Flags.Incomplete,
		AutoClockOut:      s.Flags.AutoClockOut,
		Suspicious:        s.Flags.Suspicious,
		InEventID:         s.Source.InID,
		OutEventID:        s.Source.OutID,
		OutManuallyEdited: s.OutManuallyEdited,
	}
	if s.ClockOut != nil {
		dto.ClockOutDisplay = timeclock.DisplayTime(*s.ClockOut)
	}
	for _, r := range timeclock.RedFlagReasons(s) {
		dto.RedFlags = append(dto.RedFlags, string(r))
	}
	return dto
}

func toSummaryDTO(s payroll.EmployeePayrollSummary) PayrollSummaryDTO {
	dto := PayrollSummaryDTO{
		Employee: toEmployeeDTO(s.Employee),
		Period: PeriodDTO{
			Selector: string(s.Selector),
			Start:    s.Period.Start.String(),
			End:      s.Period.End.String(),
			LastDay:  s.Period.LastDay().String(),
		},
		TotalHours:        s.TotalHours,
		Status:            string(s.Status),
		Shifts:            make([]ShiftDTO, 0, len(s.Shifts)),
		Arrangements:      make([]ArrangementDTO, 0, len(s.Arrangements)),
		Allocations:       make([]AllocationDTO, 0, len(s.Allocations)),
		QuickPay:          make([]QuickPayDTO, 0, len(s.QuickPay)),
		LastPaymentMethod: string(s.LastPaymentMethod),
		HasRedFlags:       s.HasRedFlags(),
	}
	for _, sh := range s.Shifts {
		dto.Shifts = append(dto.Shifts, toShiftDTO(sh))
	}
	for _, a := range s.Arrangements {
		dto.Arrangements = append(dto.Arrangements, toArrangementDTO(a))
	}
	for _, a := range s.Allocations {
		alloc := AllocationDTO{
			ArrangementID: a.ArrangementID,
			PaySchedule:   string(a.Schedule),
			Tax:           string(a.Tax),
			Hours:         a.Hours,
			Rate:          a.Rate,
			Amount:        a.Amount,
			Status:        string(payroll.ArrangementStatus(a.ArrangementID, s.Paid)),
		}
		if entry, ok := s.Paid[a.ArrangementID]; ok {
			pay, hours := entry.Pay, entry.Hours
			alloc.PaidAmount = &pay
			alloc.PaidHours = &hours
			alloc.RecordID = entry.RecordID
		}
		dto.Allocations = append(dto.Allocations, alloc)
	}
	for _, q := range s.QuickPay {
		dto.QuickPay = append(dto.QuickPay, QuickPayDTO{
			ArrangementID: q.ArrangementID,
			Hours:         q.Hours,
			Rate:          q.Rate,
			Amount:        q.Amount,
			Method:        string(q.Method),
		})
	}
	return dto
}

func toArrangementDTO(a payroll.PayRateArrangement) ArrangementDTO {
	return ArrangementDTO{
		ID:                a.ID,
		Rate:              a.Rate,
		PaymentMethod:     string(a.PaymentMethod),
		PaySchedule:       string(a.PaySchedule),
		TaxClassification: string(a.TaxClassification),
		EffectiveDate:     a.EffectiveDate,
	}
}

func toPaymentRecordDTO(r payroll.PaymentRecord) PaymentRecordDTO {
	return PaymentRecordDTO{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		ArrangementID:   r.ArrangementID,
		PayPeriodStart:  r.PayPeriodStart.String(),
		PayPeriodEnd:    r.PayPeriodEnd.String(),
		HoursWorked:     r.HoursWorked,
		HourlyRate:      r.HourlyRate,
		EstimatedAmount: r.EstimatedAmount,
		GrossAmount:     r.GrossAmount,
		PaymentMethod:   string(r.PaymentMethod),
		CheckNumber:     r.CheckNumber,
		Notes:           r.Notes,
		PreparedDate:    r.PreparedDate,
	}
}

func toCorrectionReportDTO(report timeclock.CorrectionReport) CorrectionReportDTO {
	dto := CorrectionReportDTO{
		OK:      report.OK(),
		Applied: report.Applied(),
		Failed:  len(report.Failed()),
		Results: make([]CorrectionResultDTO, 0, len(report.Results)),
	}
	for i, res := range report.Results {
		r := CorrectionResultDTO{
			Index:   i,
			Kind:    string(res.Correction.Kind),
			EventID: res.EventID,
			OK:      res.OK(),
		}
		if res.Err != nil {
			r.Error = res.Err.Error()
		}
		dto.Results = append(dto.Results, r)
	}
	return dto
}
