package timeclock

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEventType is returned for a punch direction other than in/out.
	ErrInvalidEventType = errors.New("invalid clock event type")

	// ErrEventNotFound is returned when a correction targets a missing event.
	ErrEventNotFound = errors.New("clock event not found")

	// ErrInvalidCorrection is returned when a correction fails validation
	// before reaching the event store.
	ErrInvalidCorrection = errors.New("invalid correction")
)

// CorrectionError wraps the failure of one correction inside a batch.
type CorrectionError struct {
	Index int
	Kind  CorrectionKind
	Err   error
}

func (e *CorrectionError) Error() string {
	return fmt.Sprintf("correction %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *CorrectionError) Unwrap() error { return e.Err }
