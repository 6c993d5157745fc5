package timeclock

import (
	"context"
	"time"
)

// EventSource is the time-clock subsystem as seen by this engine.
//
// Reads return events for one employee with Timestamp in [from, to),
// ascending. Writes are single-row; each returns its own error so a caller
// can run several corrections without aborting on the first failure.
type EventSource interface {
	EventsInRange(ctx context.Context, employeeID string, from, to time.Time) ([]ClockEvent, error)
	CreateEvent(ctx context.Context, employeeID string, typ EventType, at time.Time) (ClockEvent, error)
	UpdateEvent(ctx context.Context, eventID string, at time.Time) error
}
