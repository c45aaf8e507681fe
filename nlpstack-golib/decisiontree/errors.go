package decisiontree

import (
	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
)

var (
	// ErrInvalidConfiguration is returned when a classifier or trainer is
	// constructed with out-of-range parameters, e.g. a forest with no trees.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidTree is returned when a decision tree's node structure is not
	// a tree rooted at node 0.
	ErrInvalidTree = errors.New("invalid decision tree structure")
	// ErrTrainingTimeout is returned when an ensemble could not be trained
	// within the configured timeout. No partial forest is returned with it.
	ErrTrainingTimeout = errors.New("training timed out")
)

func invalidConfig(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfiguration, format, args...)
}

func invalidTree(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidTree, format, args...)
}
