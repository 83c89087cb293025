package orbit

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrConfiguration marks startup configuration defects (for example a
	// missing time unit). The simulation must not start.
	ErrConfiguration = errors.New("orbit: invalid configuration")

	// ErrValidation marks a bad argument at call time (unknown body index,
	// unknown unit, non-positive period). Callers recover with DefaultSpeed.
	ErrValidation = errors.New("orbit: validation failed")
)

// Error wraps an error kind with the failing operation.
type Error struct {
	Op      string
	Msg     string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Op + ": " + e.Wrapped.Error()
	}
	return e.Op + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Errorf builds an *Error of the given kind.
func Errorf(op string, kind error, format string, args ...interface{}) error {
	return &Error{Op: op, Msg: fmt.Sprintf(format, args...), Wrapped: kind}
}
