package decisiontree

import (
	"context"
	"testing"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedTrainer string

func (n namedTrainer) Train(ctx context.Context, src ml.FeatureVectorSource) (Classifier, error) {
	return nil, errors.Errorf("%s cannot train", string(n))
}

func TestOmnibusRouting(t *testing.T) {
	o := &OmnibusTrainer{
		Routes: []Route{
			{Prefix: "dt", Trainer: namedTrainer("short")},
			{Prefix: "dt-calls", Trainer: namedTrainer("long")},
		},
		Default: namedTrainer("default"),
	}

	for task, want := range map[string]namedTrainer{
		"dt-attr":       "short",
		"dt-calls-args": "long",
		"dt-calls":      "long",
		"kwargs":        "default",
		"":              "default",
	} {
		tr, err := o.TrainerFor(ml.ClassificationTask{Name: task})
		require.NoError(t, err)
		assert.Equal(t, want, tr, "task %q", task)
	}
}

func TestOmnibusWithoutDefault(t *testing.T) {
	o := &OmnibusTrainer{Routes: []Route{{Prefix: "dt", Trainer: namedTrainer("dt")}}}

	_, err := o.TrainerFor(ml.ClassificationTask{Name: "other"})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = o.Train(context.Background(), source(t, "dt-x", labeled(0, 1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `task "dt-x"`)
	assert.Contains(t, err.Error(), "dt cannot train")
}

func TestDefaultOmnibusTrainer(t *testing.T) {
	o, err := DefaultOmnibusTrainer(2, nil)
	require.NoError(t, err)

	tr, err := o.TrainerFor(ml.ClassificationTask{Name: "dt-separable"})
	require.NoError(t, err)
	dt := tr.(*RandomForestTrainer).Options()
	assert.Equal(t, 1, dt.NumTrees)
	assert.False(t, dt.UseBagging)
	assert.Equal(t, 1., dt.Tree.FeaturesExaminedPerNode)
	assert.Equal(t, MultinomialGainMetric{Minimum: 0.5}, dt.Tree.GainMetric)

	tr, err = o.TrainerFor(ml.ClassificationTask{Name: "noisy"})
	require.NoError(t, err)
	rf := tr.(*RandomForestTrainer).Options()
	assert.Equal(t, 10, rf.NumTrees)
	assert.Equal(t, 2, rf.NumThreads)
	assert.True(t, rf.UseBagging)
	assert.Equal(t, 0.1, rf.Tree.FeaturesExaminedPerNode)

	c, err := o.Train(context.Background(), separableSource(t))
	require.NoError(t, err)
	forest := c.(*RandomForest)
	assert.Equal(t, 1, forest.NumTrees())
	outcome, j := forest.Classify(vec(1, 0))
	assert.Equal(t, 1, outcome)
	assert.Equal(t, []int{0}, j.(*ForestJustification).VotingTrees)
}
