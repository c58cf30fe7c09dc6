package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotTaken means the slot already has a confirmed booking. Callers
	// should pick another slot rather than retry the same request.
	ErrSlotTaken = errors.New("time slot no longer available")
)

// ValidationError reports bad or missing input. It is always raised before any
// external call, so a validation failure has zero side effects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
