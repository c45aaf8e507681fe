// Package ml contains the feature vector and outcome distribution types shared
// by the classifiers in this module.
package ml

import (
	"sort"
)

// NoOutcome marks a vector whose outcome is unknown, e.g. one built at
// classification time.
const NoOutcome = -1

// FeatureVector is an integer-indexed feature representation. Indices not set
// in the vector have value 0.
type FeatureVector interface {
	// Outcome returns the known outcome label, if any; only used for training.
	Outcome() (int, bool)
	// NumFeatures is the size of the feature space the vector was built for.
	NumFeatures() int
	// Feature returns the value of the feature at index, 0 if absent.
	Feature(index int) int
	// NonzeroFeatures returns the indices with non-zero values in ascending order.
	NonzeroFeatures() []int
}

// SparseVector is a binary feature vector: listed features have value 1, all
// others 0.
type SparseVector struct {
	outcome      int
	numFeatures  int
	trueFeatures []int
	set          map[int]struct{}
}

// NewSparseVector builds a SparseVector from the indices of its true features.
// Pass NoOutcome for unlabeled vectors.
func NewSparseVector(outcome, numFeatures int, trueFeatures []int) *SparseVector {
	set := make(map[int]struct{}, len(trueFeatures))
	for _, f := range trueFeatures {
		set[f] = struct{}{}
	}
	sorted := make([]int, 0, len(set))
	for f := range set {
		sorted = append(sorted, f)
	}
	sort.Ints(sorted)
	return &SparseVector{
		outcome:      outcome,
		numFeatures:  numFeatures,
		trueFeatures: sorted,
		set:          set,
	}
}

// Outcome implements FeatureVector
func (v *SparseVector) Outcome() (int, bool) {
	return v.outcome, v.outcome >= 0
}

// NumFeatures implements FeatureVector
func (v *SparseVector) NumFeatures() int {
	return v.numFeatures
}

// Feature implements FeatureVector
func (v *SparseVector) Feature(index int) int {
	if _, ok := v.set[index]; ok {
		return 1
	}
	return 0
}

// NonzeroFeatures implements FeatureVector
func (v *SparseVector) NonzeroFeatures() []int {
	return append([]int(nil), v.trueFeatures...)
}

// DenseVector stores an explicit value for every feature.
type DenseVector struct {
	outcome int
	values  []int
}

// NewDenseVector builds a DenseVector; values is copied.
func NewDenseVector(outcome int, values []int) *DenseVector {
	return &DenseVector{
		outcome: outcome,
		values:  append([]int(nil), values...),
	}
}

// Outcome implements FeatureVector
func (v *DenseVector) Outcome() (int, bool) {
	return v.outcome, v.outcome >= 0
}

// NumFeatures implements FeatureVector
func (v *DenseVector) NumFeatures() int {
	return len(v.values)
}

// Feature implements FeatureVector
func (v *DenseVector) Feature(index int) int {
	if index < 0 || index >= len(v.values) {
		return 0
	}
	return v.values[index]
}

// NonzeroFeatures implements FeatureVector
func (v *DenseVector) NonzeroFeatures() []int {
	var nz []int
	for i, val := range v.values {
		if val != 0 {
			nz = append(nz, i)
		}
	}
	return nz
}
