package clock

import "errors"

var (
	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrUnknownSelector is returned for a period selector outside this/last/lastPayPeriod.
	ErrUnknownSelector = errors.New("unknown period selector")

	// ErrInvalidRange is returned when a range ends on or before its start.
	ErrInvalidRange = errors.New("invalid range: end not after start")
)
