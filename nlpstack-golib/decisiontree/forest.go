package decisiontree

import (
	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
)

// RandomForest is an ensemble of decision trees sharing one outcome universe.
// Each tree votes with the full outcome histogram at its decision node, so a
// tree's influence is proportional to the training data behind its decision.
type RandomForest struct {
	outcomes []int
	trees    []*DecisionTree
}

// NewRandomForest builds a forest. If outcomes is empty the first tree's
// universe is used. It returns ErrInvalidConfiguration for an empty ensemble.
func NewRandomForest(outcomes []int, trees []*DecisionTree) (*RandomForest, error) {
	if len(trees) == 0 {
		return nil, invalidConfig("random forest needs at least one decision tree")
	}
	for i, t := range trees {
		if t == nil {
			return nil, invalidConfig("decision tree %d is nil", i)
		}
	}
	if len(outcomes) == 0 {
		outcomes = trees[0].outcomes
	}
	return &RandomForest{
		outcomes: uniqueSorted(outcomes),
		trees:    append([]*DecisionTree(nil), trees...),
	}, nil
}

// Outcomes implements Classifier
func (f *RandomForest) Outcomes() []int {
	return append([]int(nil), f.outcomes...)
}

// Trees returns the member trees.
func (f *RandomForest) Trees() []*DecisionTree {
	return append([]*DecisionTree(nil), f.trees...)
}

// NumTrees returns the size of the ensemble.
func (f *RandomForest) NumTrees() int {
	return len(f.trees)
}

// OutcomeDistribution implements Classifier. The histograms at every tree's
// decision node are summed, smoothed with one count per outcome and normalized
// once, so the result does not depend on the order of the trees.
func (f *RandomForest) OutcomeDistribution(v ml.FeatureVector) (ml.OutcomeDistribution, Justification) {
	votes := make(ml.Histogram, len(f.outcomes))
	justifications := make([]*TreeJustification, len(f.trees))
	for i, t := range f.trees {
		node := t.FindDecisionNode(v)
		justifications[i] = &TreeJustification{Tree: t, Node: node}
		votes = ml.AddHistograms(votes, t.histograms[node])
	}

	dist := ml.MustNormalize(ml.Smooth(votes, f.outcomes))
	winner, _ := dist.Mode()

	var voting []int
	for i, j := range justifications {
		if o, _ := j.Tree.NodeDistribution(j.Node).Mode(); o == winner {
			voting = append(voting, i)
		}
	}

	return dist, &ForestJustification{
		Forest:      f,
		Outcome:     winner,
		VotingTrees: voting,
		Trees:       justifications,
	}
}

// Classify implements Classifier
func (f *RandomForest) Classify(v ml.FeatureVector) (int, Justification) {
	dist, j := f.OutcomeDistribution(v)
	outcome, _ := dist.Mode()
	return outcome, j
}

// AllFeatures implements Classifier
func (f *RandomForest) AllFeatures() []int {
	seen := make(map[int]struct{})
	for _, t := range f.trees {
		for _, feat := range t.AllFeatures() {
			seen[feat] = struct{}{}
		}
	}
	return sortedSet(seen)
}
