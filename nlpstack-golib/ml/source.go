package ml

import (
	"sort"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
)

// ClassificationTask names the decision a set of vectors was collected for.
// Trainers may dispatch on the name, see decisiontree.OmnibusTrainer.
type ClassificationTask struct {
	Name string `json:"name" yaml:"name"`
}

// FeatureVectorSource is a collection of labeled feature vectors.
type FeatureVectorSource interface {
	ClassificationTask() ClassificationTask
	NumVectors() int
	NumFeatures() int
	// AllOutcomes is the outcome universe of the task, fixed when the source
	// is constructed and sorted ascending.
	AllOutcomes() []int
	// Vector returns the n-th vector, 0 <= n < NumVectors().
	Vector(n int) FeatureVector
}

// InMemorySource is a FeatureVectorSource backed by a slice.
type InMemorySource struct {
	task        ClassificationTask
	vectors     []FeatureVector
	outcomes    []int
	numFeatures int
}

// NewInMemorySource builds a source over vectors. If outcomes is empty the
// universe is the set of outcomes labeled on the vectors; otherwise every
// labeled vector must carry an outcome in the given universe.
func NewInMemorySource(task ClassificationTask, vectors []FeatureVector, outcomes []int) (*InMemorySource, error) {
	universe := make(map[int]struct{})
	for _, o := range outcomes {
		if o < 0 {
			return nil, errors.Errorf("negative outcome %d in universe", o)
		}
		universe[o] = struct{}{}
	}
	explicit := len(universe) > 0

	var numFeatures int
	for i, v := range vectors {
		if n := v.NumFeatures(); n > numFeatures {
			numFeatures = n
		}
		o, ok := v.Outcome()
		if !ok {
			continue
		}
		if _, known := universe[o]; !known {
			if explicit {
				return nil, errors.Errorf("vector %d has outcome %d outside of the outcome universe", i, o)
			}
			universe[o] = struct{}{}
		}
	}

	return &InMemorySource{
		task:        task,
		vectors:     vectors,
		outcomes:    sortedKeys(universe),
		numFeatures: numFeatures,
	}, nil
}

// ClassificationTask implements FeatureVectorSource
func (s *InMemorySource) ClassificationTask() ClassificationTask { return s.task }

// NumVectors implements FeatureVectorSource
func (s *InMemorySource) NumVectors() int { return len(s.vectors) }

// NumFeatures implements FeatureVectorSource
func (s *InMemorySource) NumFeatures() int { return s.numFeatures }

// AllOutcomes implements FeatureVectorSource
func (s *InMemorySource) AllOutcomes() []int { return append([]int(nil), s.outcomes...) }

// Vector implements FeatureVectorSource
func (s *InMemorySource) Vector(n int) FeatureVector { return s.vectors[n] }

// SubsetSource is a view over selected vectors of another source. Indices may
// repeat, which is how bootstrap samples are represented.
type SubsetSource struct {
	FeatureVectorSource
	indices []int
}

// NewSubsetSource returns a view of src restricted to indices.
func NewSubsetSource(src FeatureVectorSource, indices []int) *SubsetSource {
	return &SubsetSource{
		FeatureVectorSource: src,
		indices:             indices,
	}
}

// NumVectors implements FeatureVectorSource
func (s *SubsetSource) NumVectors() int { return len(s.indices) }

// Vector implements FeatureVectorSource
func (s *SubsetSource) Vector(n int) FeatureVector {
	return s.FeatureVectorSource.Vector(s.indices[n])
}

// OutcomeHistogram counts the labeled outcomes of every vector in src.
func OutcomeHistogram(src FeatureVectorSource) Histogram {
	h := make(Histogram)
	for i := 0; i < src.NumVectors(); i++ {
		if o, ok := src.Vector(i).Outcome(); ok {
			h[o]++
		}
	}
	return h
}

func sortedKeys(m map[int]struct{}) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
