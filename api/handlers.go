/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll engine to the presentation layer. Handles HTTP
  request/response, JSON serialization, and delegates to payroll.Engine,
  the Payment Ledger and the correction batcher.

ENDPOINTS:
  Payroll:
    GET    /api/payroll?period=               Summaries for every employee
    GET    /api/payroll/export?period=        XLSX workbook of the summaries
    GET    /api/employees/{id}/payroll        One employee's summary
    POST   /api/payments                      Commit one arrangement

  Employees / Rates:
    GET    /api/employees                     List employees
    POST   /api/employees                     Create employee
    GET    /api/employees/{id}/rates          Full rate history
    POST   /api/employees/{id}/rates          Append a rate row

  Time clock:
    GET    /api/flagged?period=               Suspicious shifts feed
    GET    /api/red-flags?period=             Triage feed
    POST   /api/corrections                   Batch of event corrections
    POST   /api/shifts/edit                   Move one shift

PERIOD:
  period is this | last | lastPayPeriod; empty means this.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Employee, arrangement or event not found
  - 409: Arrangement already paid for the period
  - 500: Load failures (the whole response is withheld)

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/payroll-engine/clock"
	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/timeclock"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Backend is the storage the server runs on. Both store/sqlite and
// store/memory satisfy it.
type Backend interface {
	payroll.EmployeeSource
	payroll.RateSource
	payroll.LedgerStore
	timeclock.EventSource

	SaveEmployee(ctx context.Context, emp payroll.Employee) error
	InsertEvent(ctx context.Context, ev timeclock.ClockEvent) (timeclock.ClockEvent, error)
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Backend
	Engine    *payroll.Engine
	Corrector *timeclock.Corrector
	Logger    *slog.Logger

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a handler with default engine settings.
func NewHandler(store Backend, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	engine := payroll.NewEngine(payroll.Sources{
		Employees: store,
		Events:    store,
		Rates:     store,
		Payments:  store,
	}, logger)
	return &Handler{
		Store:     store,
		Engine:    engine,
		Corrector: timeclock.NewCorrector(store, logger),
		Logger:    logger,
	}
}

// Health reports whether the store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// ListPayroll returns one summary per employee for the period.
func (h *Handler) ListPayroll(w http.ResponseWriter, r *http.Request) {
	sel, ok := selectorParam(w, r)
	if !ok {
		return
	}
	summaries, err := h.Engine.Summaries(r.Context(), sel)
	if err != nil {
		writeDomainError(w, "Failed to compute payroll", err)
		return
	}

	dtos := make([]PayrollSummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		dtos = append(dtos, toSummaryDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployeePayroll returns one employee's summary.
func (h *Handler) GetEmployeePayroll(w http.ResponseWriter, r *http.Request) {
	sel, ok := selectorParam(w, r)
	if !ok {
		return
	}
	s, err := h.Engine.Summary(r.Context(), chi.URLParam(r, "id"), sel)
	if err != nil {
		writeDomainError(w, "Failed to compute payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(s))
}

// ExportPayroll streams the summaries as an XLSX workbook.
func (h *Handler) ExportPayroll(w http.ResponseWriter, r *http.Request) {
	sel, ok := selectorParam(w, r)
	if !ok {
		return
	}
	period, summaries, err := h.Engine.PeriodSummaries(r.Context(), sel)
	if err != nil {
		writeDomainError(w, "Failed to compute payroll", err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, period, summaries); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(period)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.ErrorContext(r.Context(), "payroll export write failed", slog.Any("error", err))
	}
}

// CommitPayment records a settlement for one arrangement.
func (h *Handler) CommitPayment(w http.ResponseWriter, r *http.Request) {
	var req CommitPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sel, err := clock.ParseSelector(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	in := payroll.SettleInput{
		EmployeeID:    req.EmployeeID,
		ArrangementID: req.ArrangementID,
		Selector:      sel,
		GrossAmount:   req.GrossAmount,
		CheckNumber:   req.CheckNumber,
		Notes:         req.Notes,
	}
	if req.PaymentMethod != "" {
		m, err := payroll.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment method", err)
			return
		}
		in.Method = m
	}

	rec, err := h.Engine.Settle(r.Context(), in)
	if err != nil {
		writeDomainError(w, "Failed to commit payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentRecordDTO(rec))
}

// =============================================================================
// EMPLOYEE / RATE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}
	emp := payroll.Employee{ID: strings.TrimSpace(req.ID), Name: strings.TrimSpace(req.Name)}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// ListRates returns the full rate history, not just the active set.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		writeDomainError(w, "Employee not found", err)
		return
	}
	rates, err := h.Store.RatesFor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rates", err)
		return
	}
	dtos := make([]ArrangementDTO, 0, len(rates))
	for _, a := range rates {
		dtos = append(dtos, toArrangementDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRate appends a rate row. Existing rows are never edited.
func (h *Handler) CreateRate(w http.ResponseWriter, r *http.Request) {
	var req CreateRateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := payroll.NewRateInput{EmployeeID: chi.URLParam(r, "id"), Rate: req.Rate}
	var err error
	if in.PaymentMethod, err = payroll.ParsePaymentMethod(req.PaymentMethod); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment method", err)
		return
	}
	if in.PaySchedule, err = payroll.ParsePaySchedule(req.PaySchedule); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pay schedule", err)
		return
	}
	if in.TaxClassification, err = payroll.ParseTaxClassification(req.TaxClassification); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tax classification", err)
		return
	}
	if req.EffectiveDate != "" {
		if v := timeclock.ValidateDate(req.EffectiveDate); !v.IsValid {
			writeError(w, http.StatusBadRequest, v.ErrorMessage, nil)
			return
		}
		d, _ := clock.ParseDate(req.EffectiveDate)
		in.EffectiveDate = &d
	}

	rate, err := h.Engine.AddRate(r.Context(), in)
	if err != nil {
		writeDomainError(w, "Failed to add rate", err)
		return
	}
	writeJSON(w, http.StatusCreated, toArrangementDTO(rate))
}

// =============================================================================
// TIME CLOCK HANDLERS
// =============================================================================

func (h *Handler) ListFlagged(w http.ResponseWriter, r *http.Request) {
	sel, ok := selectorParam(w, r)
	if !ok {
		return
	}
	feed, err := h.Engine.FlaggedActivity(r.Context(), sel)
	if err != nil {
		writeDomainError(w, "Failed to load flagged activity", err)
		return
	}
	dtos := make([]FlaggedActivityDTO, 0, len(feed))
	for _, f := range feed {
		dtos = append(dtos, FlaggedActivityDTO{
			EmployeeID:   f.EmployeeID,
			EmployeeName: f.EmployeeName,
			Date:         f.Date.String(),
			ClockIn:      f.ClockIn,
			ClockOut:     f.ClockOut,
			Hours:        f.Hours,
			Reason:       f.Reason,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListRedFlags(w http.ResponseWriter, r *http.Request) {
	sel, ok := selectorParam(w, r)
	if !ok {
		return
	}
	entries, err := h.Engine.RedFlags(r.Context(), sel)
	if err != nil {
		writeDomainError(w, "Failed to load red flags", err)
		return
	}
	dtos := make([]RedFlagDTO, 0, len(entries))
	for _, e := range entries {
		reasons := make([]string, 0, len(e.Reasons))
		for _, reason := range e.Reasons {
			reasons = append(reasons, string(reason))
		}
		dtos = append(dtos, RedFlagDTO{
			EmployeeID:   e.Shift.EmployeeID,
			EmployeeName: e.EmployeeName,
			Reasons:      reasons,
			Shift:        toShiftDTO(e.Shift),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApplyCorrections runs a batch. 200 when all applied, 207 when some failed.
func (h *Handler) ApplyCorrections(w http.ResponseWriter, r *http.Request) {
	var req CorrectionBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Corrections) == 0 {
		writeError(w, http.StatusBadRequest, "At least one correction is required", nil)
		return
	}

	batch := make([]timeclock.Correction, 0, len(req.Corrections))
	for _, c := range req.Corrections {
		batch = append(batch, timeclock.Correction{
			Kind:       timeclock.CorrectionKind(strings.ToLower(c.Kind)),
			EventID:    c.EventID,
			EmployeeID: c.EmployeeID,
			Type:       timeclock.EventType(strings.ToLower(c.Type)),
			At:         c.At,
		})
	}
	h.writeReport(w, h.Corrector.Apply(r.Context(), batch))
}

// EditShift moves one shift's clock-in and/or clock-out.
func (h *Handler) EditShift(w http.ResponseWriter, r *http.Request) {
	var req EditShiftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if v := timeclock.ValidateEmployeeID(req.EmployeeID); !v.IsValid {
		writeError(w, http.StatusBadRequest, v.ErrorMessage, nil)
		return
	}
	if req.ClockIn == nil && req.ClockOut == nil {
		writeError(w, http.StatusBadRequest, "Nothing to change", nil)
		return
	}
	if req.ClockOut != nil {
		in := req.ClockIn
		if in == nil {
			in = req.CurrentClockIn
		}
		var start time.Time
		if in != nil {
			start = *in
		}
		if v := timeclock.ValidateShiftTimes(start, *req.ClockOut); !v.IsValid {
			writeError(w, http.StatusBadRequest, v.ErrorMessage, nil)
			return
		}
	}

	shift := timeclock.WorkedShift{
		EmployeeID: req.EmployeeID,
		Source:     timeclock.SourceEvents{InID: req.InEventID, OutID: req.OutEventID},
	}
	h.writeReport(w, h.Corrector.Apply(r.Context(), timeclock.EditShift(shift, req.ClockIn, req.ClockOut)))
}

func (h *Handler) writeReport(w http.ResponseWriter, report timeclock.CorrectionReport) {
	status := http.StatusOK
	if !report.OK() {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, toCorrectionReportDTO(report))
}

// =============================================================================
// HELPERS
// =============================================================================

func selectorParam(w http.ResponseWriter, r *http.Request) (clock.Selector, bool) {
	sel, err := clock.ParseSelector(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return "", false
	}
	return sel, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeDomainError maps engine errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, payroll.ErrDuplicatePayment):
		writeError(w, http.StatusConflict, "Already paid for this period", err)
	case payroll.IsNotFound(err), errors.Is(err, timeclock.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case payroll.IsClientError(err), errors.Is(err, clock.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
