package decisiontree

import (
	"context"
	"strings"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
	"github.com/danyaljj/nlpstack/nlpstack-golib/nlplog"
)

// Route sends tasks whose name starts with Prefix to Trainer.
type Route struct {
	Prefix  string
	Trainer Trainer
}

// OmnibusTrainer picks a trainer for each source by its classification task
// name: the route with the longest matching prefix wins, and tasks matching no
// route go to Default.
type OmnibusTrainer struct {
	Routes  []Route
	Default Trainer
}

// TrainerFor returns the trainer that handles task.
func (o *OmnibusTrainer) TrainerFor(task ml.ClassificationTask) (Trainer, error) {
	var best *Route
	for i := range o.Routes {
		r := &o.Routes[i]
		if !strings.HasPrefix(task.Name, r.Prefix) {
			continue
		}
		if best == nil || len(r.Prefix) > len(best.Prefix) {
			best = r
		}
	}
	if best != nil {
		return best.Trainer, nil
	}
	if o.Default == nil {
		return nil, invalidConfig("no trainer for task %q", task.Name)
	}
	return o.Default, nil
}

// Train implements Trainer
func (o *OmnibusTrainer) Train(ctx context.Context, src ml.FeatureVectorSource) (Classifier, error) {
	tr, err := o.TrainerFor(src.ClassificationTask())
	if err != nil {
		return nil, err
	}
	c, err := tr.Train(ctx, src)
	if err != nil {
		return nil, errors.Wrapf(err, "task %q", src.ClassificationTask().Name)
	}
	return c, nil
}

// DecisionTreePrefix is the task name prefix DefaultOmnibusTrainer routes to
// its single tree configuration.
const DecisionTreePrefix = "dt"

// DefaultOmnibusTrainer routes "dt" tasks to a one-tree forest that examines
// every feature, and everything else to a ten-tree bagged forest examining a
// tenth of the features at each node. Both use a multinomial gain threshold
// of 0.5. numThreads follows ForestTrainerOptions.NumThreads.
func DefaultOmnibusTrainer(numThreads int, logger nlplog.Interface) (*OmnibusTrainer, error) {
	dt, err := NewRandomForestTrainer(ForestTrainerOptions{
		NumTrees:   1,
		NumThreads: 1,
		Tree: TrainerOptions{
			GainMetric:              MultinomialGainMetric{Minimum: 0.5},
			FeaturesExaminedPerNode: 1,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	rf, err := NewRandomForestTrainer(ForestTrainerOptions{
		NumTrees:   10,
		NumThreads: numThreads,
		UseBagging: true,
		Tree: TrainerOptions{
			GainMetric:              MultinomialGainMetric{Minimum: 0.5},
			FeaturesExaminedPerNode: 0.1,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return &OmnibusTrainer{
		Routes:  []Route{{Prefix: DecisionTreePrefix, Trainer: dt}},
		Default: rf,
	}, nil
}
