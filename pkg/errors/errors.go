// Package errors wraps errors with stack traces so fatal failures can be reported with the
// call site that produced them.
package errors

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Errorf creates a new error and wraps it in an Error type that contains the stack trace.
func Errorf(message string, args ...interface{}) error {
	err := fmt.Errorf(message, args...)
	return goerrors.Wrap(err, 1)
}

// ErrorWithExitCode is used to request a specific process exit code.
// When Silent is set the error has already been reported to the user.
type ErrorWithExitCode struct {
	Err      error
	ExitCode int
	Silent   bool
}

func (err ErrorWithExitCode) Error() string {
	return err.Err.Error()
}

func (err ErrorWithExitCode) Unwrap() error {
	return err.Err
}

// WithStackTrace wraps the given error in an Error type that contains the stack trace. If the given error
// already has a stack trace, it is used directly. If the given error is nil, return nil.
func WithStackTrace(err error) error {
	if err == nil {
		return nil
	}

	return goerrors.Wrap(err, 1)
}

// WithStackTraceAndPrefix wraps the given error in an Error type that contains the stack trace and has
// the given message prepended as part of the error message. If the given error is nil, return nil.
func WithStackTraceAndPrefix(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	return goerrors.WrapPrefix(err, fmt.Sprintf(message, args...), 1)
}

// ErrorStack returns a string that contains both the error message and the callstack.
func ErrorStack(err error) string {
	if err == nil {
		return ""
	}

	return goError(err).ErrorStack()
}

// StackTrace returns the callstack formatted the same way that go does in runtime/debug.Stack().
func StackTrace(err error) string {
	if err == nil {
		return ""
	}

	return string(goError(err).Stack())
}

// ExitCode returns the exit code requested by err, or 1 for any other non-nil error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var withCode ErrorWithExitCode
	if errors.As(err, &withCode) {
		return withCode.ExitCode
	}

	return 1
}

// IsSilent reports whether err has already been shown to the user.
func IsSilent(err error) bool {
	var withCode ErrorWithExitCode
	return errors.As(err, &withCode) && withCode.Silent
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func goError(err error) *goerrors.Error {
	goerr := &goerrors.Error{Err: err}

	for {
		if candidate := new(goerrors.Error); errors.As(err, &candidate) {
			goerr = candidate
		}

		if err = errors.Unwrap(err); err == nil {
			break
		}
	}

	return goerr
}
