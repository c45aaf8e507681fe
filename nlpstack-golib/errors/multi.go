package errors

import (
	"bytes"
	"fmt"
)

// Errors is a non-empty list of errors, e.g. the failures collected from a
// batch of training jobs. A nil Errors means no error occurred, so callers can
// compare against nil directly.
type Errors interface {
	error
	// Slice returns a (non-empty) copy of the underlying (non-nil) errors.
	Slice() []error
	// Len is always > 0.
	Len() int

	sliceNoCopy() []error
	append(e error) Errors
}

type errorSlice []error

func (m errorSlice) append(e error) Errors {
	return errorSlice(append(m, e))
}

func (m errorSlice) sliceNoCopy() []error {
	return []error(m)
}

func (m errorSlice) Slice() []error {
	return append([]error(nil), m...)
}

func (m errorSlice) Len() int {
	return len(m)
}

func (m errorSlice) Error() string {
	var b bytes.Buffer
	if len(m) > 1 {
		fmt.Fprintf(&b, "%d errors:\n", len(m))
	}
	for i, err := range m {
		if i > 0 {
			fmt.Fprint(&b, "\n")
		}
		fmt.Fprint(&b, err)
	}
	return b.String()
}

// Append appends the given (possibly nil) error to the given (possibly nil) Errors.
// If the error is nil, it returns the given Errors unchanged.
func Append(errs Errors, err error) Errors {
	if err == nil {
		return errs
	}
	if errs == nil {
		if nested, ok := err.(Errors); ok {
			return errorSlice(nested.Slice())
		}
		return errorSlice{err}
	}
	if nested, ok := err.(Errors); ok {
		for _, e := range nested.sliceNoCopy() {
			errs = errs.append(e)
		}
		return errs
	}
	return errs.append(err)
}

// Combine combines errors e & f into a single error
func Combine(e, f error) error {
	switch e := e.(type) {
	case nil:
		return f
	case Errors:
		// copy e to avoid mutating the backing array
		return Append(errorSlice(e.Slice()), f)
	default:
		switch f := f.(type) {
		case nil:
			return e
		case Errors:
			return Append(errorSlice{e}, f)
		default:
			return errorSlice{e, f}
		}
	}
}

// Defer is a helper for deferring error-returning functions such as Close
func Defer(err *error, f func() error) {
	*err = Combine(*err, f())
}
