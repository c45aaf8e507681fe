package errors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendNil(t *testing.T) {
	err := New("error")
	errs := Append(nil, err).sliceNoCopy()
	require.Len(t, errs, 1)
	require.Equal(t, err, errs[0])

	errs = Append(errorSlice([]error{err}), nil).sliceNoCopy()
	require.Len(t, errs, 1)
	require.Equal(t, err, errs[0])
}

func TestAppendFlattens(t *testing.T) {
	err0 := New("error0")
	err1 := New("error1")
	err2 := New("error2")

	var errs01 Errors
	errs01 = Append(errs01, err0)
	errs01 = Append(errs01, err1)

	errs := Append(nil, errs01).sliceNoCopy()
	require.Len(t, errs, 2)

	errs = Append(errorSlice{err2}, errs01).sliceNoCopy()
	require.Equal(t, []error{err2, err0, err1}, errs)
}

func TestCombine(t *testing.T) {
	err0 := New("error0")
	err1 := New("error1")
	err2 := New("error2")

	require.Equal(t, err0, Combine(err0, nil))
	require.Equal(t, err0, Combine(nil, err0))

	combined := Combine(err0, err1).(Errors)
	require.Equal(t, 2, combined.Len())

	// combining must not write into the first list's backing array
	first := Combine(combined, err2).(Errors).sliceNoCopy()
	Combine(combined, err0)
	require.Equal(t, err2, first[2])
}

func TestDefer(t *testing.T) {
	closeErr := New("close failed")
	run := func() (err error) {
		defer Defer(&err, func() error { return closeErr })
		return New("work failed")
	}
	err := run()
	require.Equal(t, 2, err.(Errors).Len())
	require.True(t, Is(err, closeErr))
}

func TestIsFollowsCause(t *testing.T) {
	sentinel := New("sentinel")
	wrapped := Wrapf(sentinel, "loading %s", "model.json")
	require.True(t, Is(wrapped, sentinel))
	require.False(t, Is(Errorf("other"), sentinel))
	require.Contains(t, wrapped.Error(), "loading model.json")
	require.Nil(t, WrapfOrNil(nil, "nothing"))
	require.Error(t, Wrapf(nil, "fresh %d", 1))
}
