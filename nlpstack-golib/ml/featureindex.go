package ml

import (
	"strconv"
	"strings"
	"sync"
)

// FeatureName is a symbolic feature name made of one or more symbols, e.g.
// {"stack1", "pos", "NN"}.
type FeatureName []string

func (n FeatureName) String() string {
	return strings.Join(n, ".")
}

// key length-prefixes every symbol, so no two distinct names share a key
// whatever bytes their symbols contain.
func (n FeatureName) key() string {
	var b strings.Builder
	for _, s := range n {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}

// FeatureIndex assigns stable dense indices to symbolic feature names. Indices
// are handed out in insertion order and never change, so a tree trained
// against an index classifies correctly with vectors built from the same index.
// It is safe for concurrent use.
type FeatureIndex struct {
	m       sync.RWMutex
	indices map[string]int
	names   []FeatureName
}

// NewFeatureIndex returns an index pre-populated with names, in order.
func NewFeatureIndex(names ...FeatureName) *FeatureIndex {
	idx := &FeatureIndex{indices: make(map[string]int)}
	for _, n := range names {
		idx.Intern(n)
	}
	return idx
}

// Intern returns the index for name, assigning the next free index if needed.
func (f *FeatureIndex) Intern(name FeatureName) int {
	key := name.key()
	f.m.RLock()
	i, ok := f.indices[key]
	f.m.RUnlock()
	if ok {
		return i
	}

	f.m.Lock()
	defer f.m.Unlock()
	if i, ok := f.indices[key]; ok {
		return i
	}
	i = len(f.names)
	f.indices[key] = i
	f.names = append(f.names, append(FeatureName(nil), name...))
	return i
}

// Index looks up name without assigning a new index.
func (f *FeatureIndex) Index(name FeatureName) (int, bool) {
	f.m.RLock()
	defer f.m.RUnlock()
	i, ok := f.indices[name.key()]
	return i, ok
}

// Name returns the name for index i, or nil if i is unassigned.
func (f *FeatureIndex) Name(i int) FeatureName {
	f.m.RLock()
	defer f.m.RUnlock()
	if i < 0 || i >= len(f.names) {
		return nil
	}
	return f.names[i]
}

// FeatureName returns the printable name of feature i; it lets an index be used
// wherever justifications are rendered.
func (f *FeatureIndex) FeatureName(i int) string {
	if n := f.Name(i); n != nil {
		return n.String()
	}
	return ""
}

// Len returns the number of assigned indices.
func (f *FeatureIndex) Len() int {
	f.m.RLock()
	defer f.m.RUnlock()
	return len(f.names)
}

// Names returns all names in index order.
func (f *FeatureIndex) Names() []FeatureName {
	f.m.RLock()
	defer f.m.RUnlock()
	return append([]FeatureName(nil), f.names...)
}

// Vectorize builds a binary vector from the names present for one decision.
// With grow set, unseen names are interned (training); otherwise they are
// dropped (classification), since no tree can test a feature it never saw.
func (f *FeatureIndex) Vectorize(names []FeatureName, outcome int, grow bool) *SparseVector {
	trueFeatures := make([]int, 0, len(names))
	for _, n := range names {
		if grow {
			trueFeatures = append(trueFeatures, f.Intern(n))
			continue
		}
		if i, ok := f.Index(n); ok {
			trueFeatures = append(trueFeatures, i)
		}
	}
	return NewSparseVector(outcome, f.Len(), trueFeatures)
}

// OutcomeIndex maps symbolic outcome labels, e.g. transition names, to outcome
// integers and back.
type OutcomeIndex struct {
	labels *FeatureIndex
}

// NewOutcomeIndex returns an index pre-populated with labels, in order.
func NewOutcomeIndex(labels ...string) *OutcomeIndex {
	o := &OutcomeIndex{labels: NewFeatureIndex()}
	for _, l := range labels {
		o.Intern(l)
	}
	return o
}

// Intern returns the outcome for label, assigning the next free one if needed.
func (o *OutcomeIndex) Intern(label string) int {
	return o.labels.Intern(FeatureName{label})
}

// Outcome looks up label without assigning.
func (o *OutcomeIndex) Outcome(label string) (int, bool) {
	return o.labels.Index(FeatureName{label})
}

// Label returns the label of outcome, or "" if unassigned.
func (o *OutcomeIndex) Label(outcome int) string {
	return o.labels.FeatureName(outcome)
}

// Outcomes returns every assigned outcome, ascending.
func (o *OutcomeIndex) Outcomes() []int {
	outcomes := make([]int, o.labels.Len())
	for i := range outcomes {
		outcomes[i] = i
	}
	return outcomes
}

// Labels returns every label in outcome order.
func (o *OutcomeIndex) Labels() []string {
	names := o.labels.Names()
	labels := make([]string, len(names))
	for i, n := range names {
		labels[i] = n[0]
	}
	return labels
}
