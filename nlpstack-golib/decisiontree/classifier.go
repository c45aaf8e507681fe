package decisiontree

import (
	"context"

	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
)

// Classifier maps feature vectors to outcome distributions. Implementations
// are immutable once built and safe for concurrent use.
type Classifier interface {
	// OutcomeDistribution returns a distribution with positive probability
	// for every outcome, and the justification for it.
	OutcomeDistribution(v ml.FeatureVector) (ml.OutcomeDistribution, Justification)
	// Classify returns the most probable outcome.
	Classify(v ml.FeatureVector) (int, Justification)
	// AllFeatures returns every feature index the classifier may test, ascending.
	AllFeatures() []int
	// Outcomes returns the outcome universe, ascending.
	Outcomes() []int
}

// Trainer induces a Classifier from labeled vectors.
type Trainer interface {
	Train(ctx context.Context, src ml.FeatureVectorSource) (Classifier, error)
}

var (
	_ Classifier = (*DecisionTree)(nil)
	_ Classifier = (*RandomForest)(nil)

	_ Trainer = (*DecisionTreeTrainer)(nil)
	_ Trainer = (*RandomForestTrainer)(nil)
	_ Trainer = (*OmnibusTrainer)(nil)
)
