// Package envutil reads typed settings from the environment. Unset and empty
// variables both fall back to the caller's default.
package envutil

import (
	"os"
	"strconv"
	"time"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
)

// LookupInt returns the named variable as an int, or defaultVal if it is unset.
func LookupInt(name string, defaultVal int) (int, error) {
	val := os.Getenv(name)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.Errorf("environment variable %s should be an integer, got %q", name, val)
	}
	return i, nil
}

// LookupDuration returns the named variable parsed by time.ParseDuration, or
// defaultVal if it is unset.
func LookupDuration(name string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(name)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.Errorf("environment variable %s should be a duration, got %q", name, val)
	}
	return d, nil
}
