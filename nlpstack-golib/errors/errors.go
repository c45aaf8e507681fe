package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errorf is re-exported from fmt
var Errorf = fmt.Errorf

// New returns an error carrying a stack trace, re-exported from github.com/pkg/errors.
// Use it for package-level sentinel errors compared via Cause.
var New = errors.New

// WrapfOrNil annotates err with a formatted message, or returns nil if err is nil
func WrapfOrNil(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, fmt.Sprintf(format, args...))
}

// Wrapf is WrapfOrNil if err != nil, and Errorf otherwise: it never returns nil
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return Errorf(format, args...)
	}
	return WrapfOrNil(err, format, args...)
}

// WithStack is re-exported from github.com/pkg/errors
var WithStack = errors.WithStack

// Cause is re-exported from github.com/pkg/errors
var Cause = errors.Cause

// Is reports whether the root cause of err is target. Sentinel kinds such as
// decisiontree.ErrInvalidTree are always compared this way.
func Is(err, target error) bool {
	if err == nil {
		return target == nil
	}
	if Cause(err) == target {
		return true
	}
	if errs, ok := err.(Errors); ok {
		for _, e := range errs.sliceNoCopy() {
			if Is(e, target) {
				return true
			}
		}
	}
	return false
}
