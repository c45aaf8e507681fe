package decisiontree

import (
	"fmt"
	"strings"
)

// FeatureNamer renders feature indices for explanations; *ml.FeatureIndex
// implements it.
type FeatureNamer interface {
	FeatureName(i int) string
}

// Justification records why a classifier produced its distribution. It is one
// of *TreeJustification or *ForestJustification.
type Justification interface {
	// Explain renders the justification; names may be nil.
	Explain(names FeatureNamer) string

	justification()
}

// TreeJustification names the node a single tree's decision was made at.
type TreeJustification struct {
	Tree *DecisionTree
	Node int
}

func (*TreeJustification) justification() {}

// Path returns the decisions that led to Node.
func (j *TreeJustification) Path() []Decision {
	return j.Tree.DecisionPath(j.Node)
}

// Explain implements Justification
func (j *TreeJustification) Explain(names FeatureNamer) string {
	path := j.Path()
	if len(path) == 0 {
		return fmt.Sprintf("root node %v", histogramString(j.Tree.histograms[j.Node]))
	}
	parts := make([]string, len(path))
	for i, d := range path {
		parts[i] = fmt.Sprintf("%s=%d", featureName(names, d.Feature), d.Value)
	}
	return fmt.Sprintf("%s -> node %d %v", strings.Join(parts, ", "), j.Node, histogramString(j.Tree.histograms[j.Node]))
}

// ForestJustification collects the per-tree justifications of a forest's
// decision. VotingTrees lists the trees whose own most likely outcome at their
// decision node is Outcome.
type ForestJustification struct {
	Forest      *RandomForest
	Outcome     int
	VotingTrees []int
	Trees       []*TreeJustification
}

func (*ForestJustification) justification() {}

// Explain implements Justification
func (j *ForestJustification) Explain(names FeatureNamer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d trees voted for outcome %d", len(j.VotingTrees), len(j.Trees), j.Outcome)
	for _, i := range j.VotingTrees {
		fmt.Fprintf(&b, "\n  tree %d: %s", i, j.Trees[i].Explain(names))
	}
	return b.String()
}

func featureName(names FeatureNamer, f int) string {
	if names != nil {
		if n := names.FeatureName(f); n != "" {
			return n
		}
	}
	return fmt.Sprintf("f%d", f)
}
