package apierr

import (
	"errors"
	"fmt"
)

var (
	ErrOperationFailed = errors.New("remote operation failed")
	ErrUsage           = errors.New("usage error")
	ErrUnsupported     = errors.New("operation not supported")
)

// OperationError is the single failure shape surfaced for remote calls.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}

// Wrap returns nil for a nil err, and leaves errors that are already
// operation failures untouched.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *OperationError
	if errors.As(err, &existing) {
		return err
	}
	return &OperationError{Op: op, Err: err}
}

type usageError struct {
	message string
}

func (e *usageError) Error() string {
	return e.message
}

func (e *usageError) Is(target error) bool {
	return target == ErrUsage
}

// Usagef builds an error matching ErrUsage. The message is printed as is.
func Usagef(format string, args ...any) error {
	return &usageError{message: fmt.Sprintf(format, args...)}
}
