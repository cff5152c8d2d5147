package broker

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrRejected    = errors.New("order rejected")
	ErrUnavailable = errors.New("broker unavailable")
)

// Error is a failed collaborator call.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("broker %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns err as an *Error for op, or nil when err is nil. An err that
// is already an *Error is returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return &Error{Op: op, Err: err}
}
