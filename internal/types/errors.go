package types

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("not the owner of this resource")
	ErrAlreadyProcessing = errors.New("trip request is already being processed")
	// ErrActiveVersion marks version-integrity violations: the active version
	// can only be retired by creating a successor, never deleted directly.
	ErrActiveVersion   = errors.New("cannot delete the active itinerary version")
	ErrVersionNotFound = errors.New("itinerary version not found")
)
