/*
corrections.go - Batched manual corrections to clock events

PURPOSE:
  An operator fixing a shift usually edits two rows (the clock-in and the
  clock-out). Each row is a separate single-row write on the time-clock
  subsystem, and there is no multi-row transaction there.

PARTIAL FAILURE:
  Every correction in a batch is attempted and reported independently.
  The batch is OK only if all of them succeeded. Corrections that did
  apply are NOT rolled back when a later one fails; the report tells the
  caller exactly which rows changed.
*/
package timeclock

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CorrectionKind selects the write performed.
type CorrectionKind string

const (
	CorrectionCreate CorrectionKind = "create"
	CorrectionUpdate CorrectionKind = "update"
)

// Correction is one requested write. Create uses EmployeeID and Type;
// Update uses EventID.
type Correction struct {
	Kind       CorrectionKind
	EventID    string
	EmployeeID string
	Type       EventType
	At         time.Time
}

// CorrectionResult is the outcome of one correction.
type CorrectionResult struct {
	Correction Correction
	EventID    string // Created or updated event
	Err        error
}

func (r CorrectionResult) OK() bool { return r.Err == nil }

// CorrectionReport collects every result of a batch, in input order.
type CorrectionReport struct {
	Results []CorrectionResult
}

// OK is false if any correction failed.
func (r CorrectionReport) OK() bool {
	for _, res := range r.Results {
		if !res.OK() {
			return false
		}
	}
	return true
}

// Applied counts corrections that reached the store successfully.
func (r CorrectionReport) Applied() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed returns the failed results.
func (r CorrectionReport) Failed() []CorrectionResult {
	var failed []CorrectionResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// =============================================================================
// CORRECTOR
// =============================================================================

// Corrector applies correction batches against an EventSource.
type Corrector struct {
	Source EventSource
	Logger *slog.Logger
}

// NewCorrector creates a corrector. A nil logger discards output.
func NewCorrector(source EventSource, logger *slog.Logger) *Corrector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Corrector{Source: source, Logger: logger}
}

// Apply runs every correction and never stops early.
func (c *Corrector) Apply(ctx context.Context, batch []Correction) CorrectionReport {
	report := CorrectionReport{Results: make([]CorrectionResult, 0, len(batch))}

	for i, corr := range batch {
		res := CorrectionResult{Correction: corr}

		if v := ValidateCorrection(corr); !v.IsValid {
			res.Err = &CorrectionError{Index: i, Kind: corr.Kind, Err: fmt.Errorf("%w: %s", ErrInvalidCorrection, v.ErrorMessage)}
			report.Results = append(report.Results, res)
			continue
		}

		switch corr.Kind {
		case CorrectionCreate:
			ev, err := c.Source.CreateEvent(ctx, corr.EmployeeID, corr.Type, corr.At)
			if err != nil {
				res.Err = &CorrectionError{Index: i, Kind: corr.Kind, Err: err}
			} else {
				res.EventID = ev.ID
			}
		case CorrectionUpdate:
			res.EventID = corr.EventID
			if err := c.Source.UpdateEvent(ctx, corr.EventID, corr.At); err != nil {
				res.Err = &CorrectionError{Index: i, Kind: corr.Kind, Err: err}
			}
		}

		if res.Err != nil {
			c.Logger.WarnContext(ctx, "clock correction failed",
				slog.Int("index", i),
				slog.String("kind", string(corr.Kind)),
				slog.String("event_id", corr.EventID),
				slog.String("error", res.Err.Error()))
		}
		report.Results = append(report.Results, res)
	}

	if !report.OK() {
		c.Logger.WarnContext(ctx, "clock correction batch incomplete",
			slog.Int("applied", report.Applied()),
			slog.Int("failed", len(report.Failed())))
	}
	return report
}

// EditShift builds the batch that moves a shift to newIn/newOut. A nil time
// leaves that side alone. When the shift has no clock-out yet, a new out
// event is created instead of updated.
func EditShift(shift WorkedShift, newIn, newOut *time.Time) []Correction {
	var batch []Correction
	if newIn != nil {
		batch = append(batch, Correction{Kind: CorrectionUpdate, EventID: shift.Source.InID, At: *newIn})
	}
	if newOut != nil {
		if shift.Source.OutID != nil {
			batch = append(batch, Correction{Kind: CorrectionUpdate, EventID: *shift.Source.OutID, At: *newOut})
		} else {
			batch = append(batch, Correction{Kind: CorrectionCreate, EmployeeID: shift.EmployeeID, Type: EventOut, At: *newOut})
		}
	}
	return batch
}
