package decisiontree

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
	"github.com/danyaljj/nlpstack/nlpstack-golib/nlplog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forestOptions(numTrees, numThreads int) ForestTrainerOptions {
	tree := DefaultTrainerOptions()
	tree.FeaturesExaminedPerNode = 0.5
	tree.Seed = 3
	return ForestTrainerOptions{
		NumTrees:   numTrees,
		NumThreads: numThreads,
		UseBagging: true,
		Tree:       tree,
	}
}

func trainForest(t *testing.T, opts ForestTrainerOptions, src ml.FeatureVectorSource) *RandomForest {
	tr, err := NewRandomForestTrainer(opts)
	require.NoError(t, err)
	forest, err := tr.TrainForest(context.Background(), src)
	require.NoError(t, err)
	return forest
}

func marshal(t *testing.T, v interface{}) string {
	buf, err := json.Marshal(v)
	require.NoError(t, err)
	return string(buf)
}

func TestSingleTreeForestEndToEnd(t *testing.T) {
	opts := ForestTrainerOptions{NumTrees: 1, NumThreads: 1, Tree: DefaultTrainerOptions()}
	forest := trainForest(t, opts, separableSource(t))
	require.Equal(t, 1, forest.NumTrees())

	for _, outcome := range []int{0, 1} {
		v := ml.NewDenseVector(ml.NoOutcome, []int{outcome})
		got, _ := forest.Classify(v)
		assert.Equal(t, outcome, got)

		dist, _ := forest.OutcomeDistribution(v)
		assert.True(t, dist.Prob(outcome) > 0.5)
	}
}

func TestForestTrainingIgnoresCompletionOrder(t *testing.T) {
	src := noisySource(t, 9, 300, 6)

	sequential := trainForest(t, forestOptions(8, 1), src)
	parallel := trainForest(t, forestOptions(8, 4), src)
	assert.Equal(t, 8, parallel.NumTrees())
	assert.Equal(t, marshal(t, sequential), marshal(t, parallel))

	v := vec(1, 2, 0, 0, 1, 2)
	d1, _ := sequential.OutcomeDistribution(v)
	d2, _ := parallel.OutcomeDistribution(v)
	assert.Equal(t, d1, d2)
}

func TestForestTreesDiffer(t *testing.T) {
	forest := trainForest(t, forestOptions(4, 2), noisySource(t, 1, 200, 6))

	trees := forest.Trees()
	distinct := make(map[string]bool)
	for _, tree := range trees {
		distinct[marshal(t, tree)] = true
		assert.Equal(t, 200, tree.Histogram(0).Total(), "bootstrap samples keep the source size")
	}
	assert.True(t, len(distinct) > 1, "bagged trees with different seeds should differ")
}

type blockingStager struct {
	release chan struct{}
}

func (s *blockingStager) Stage(key string, t *DecisionTree) (*DecisionTree, error) {
	<-s.release
	return t, nil
}

func TestForestTrainingTimeout(t *testing.T) {
	stager := &blockingStager{release: make(chan struct{})}
	defer close(stager.release)

	opts := forestOptions(3, 2)
	opts.Timeout = 50 * time.Millisecond
	opts.Stager = stager

	tr, err := NewRandomForestTrainer(opts)
	require.NoError(t, err)

	start := time.Now()
	forest, err := tr.TrainForest(context.Background(), separableSource(t))
	assert.Nil(t, forest)
	assert.True(t, errors.Is(err, ErrTrainingTimeout), "got %v", err)
	assert.True(t, time.Since(start) < 5*time.Second)
}

func TestForestTrainingCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr, err := NewRandomForestTrainer(forestOptions(3, 2))
	require.NoError(t, err)
	forest, err := tr.TrainForest(ctx, separableSource(t))
	assert.Nil(t, forest)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.False(t, errors.Is(err, ErrTrainingTimeout))
}

type failingStager struct {
	calls int32
}

func (s *failingStager) Stage(key string, t *DecisionTree) (*DecisionTree, error) {
	if atomic.AddInt32(&s.calls, 1) == 2 {
		return nil, errors.Errorf("disk full")
	}
	return t, nil
}

func TestForestTrainingFailsAsAWhole(t *testing.T) {
	opts := forestOptions(4, 2)
	opts.Stager = &failingStager{}

	tr, err := NewRandomForestTrainer(opts)
	require.NoError(t, err)
	forest, err := tr.TrainForest(context.Background(), separableSource(t))
	assert.Nil(t, forest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestDiskStagedForest(t *testing.T) {
	dir, err := ioutil.TempDir("", "staged-trees")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	var logs bytes.Buffer
	stager, err := NewDiskStager(DiskStagerOptions{Dir: dir, Keep: true, Logger: nlplog.New(&logs, "stage")})
	require.NoError(t, err)
	assert.Equal(t, dir, stager.Dir())

	src := noisySource(t, 4, 150, 5)
	opts := forestOptions(3, 3)
	opts.Stager = stager
	staged := trainForest(t, opts, src)
	inMemory := trainForest(t, forestOptions(3, 3), src)

	assert.Equal(t, marshal(t, inMemory), marshal(t, staged))
	assert.Contains(t, logs.String(), "staged noisy/tree-2")

	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	require.NoError(t, stager.Close())
}

func TestDiskStagerCleansUp(t *testing.T) {
	stager, err := NewDiskStager(DiskStagerOptions{})
	require.NoError(t, err)
	other, err := NewDiskStager(DiskStagerOptions{Dir: stager.Dir()})
	require.NoError(t, err)
	assert.Len(t, stager.Run(), 36)
	assert.NotEqual(t, stager.Run(), other.Run())

	tree := fixtureTree(t)
	loaded, err := stager.Stage("dt/tree-0", tree)
	require.NoError(t, err)
	assert.Equal(t, marshal(t, tree), marshal(t, loaded))

	entries, err := ioutil.ReadDir(stager.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, stager.Close())
	_, err = os.Stat(stager.Dir())
	assert.True(t, os.IsNotExist(err))
}

func TestForestTrainerOptions(t *testing.T) {
	bad := []ForestTrainerOptions{
		{NumTrees: 0},
		{NumTrees: 2, NumThreads: -1},
		{NumTrees: 2, Timeout: -time.Second},
		{NumTrees: 2, Tree: TrainerOptions{FeaturesExaminedPerNode: 2}},
	}
	for _, opts := range bad {
		_, err := NewRandomForestTrainer(opts)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration), "%+v", opts)
	}

	os.Setenv(ThreadsEnv, "3")
	defer os.Unsetenv(ThreadsEnv)
	tr, err := NewRandomForestTrainer(ForestTrainerOptions{NumTrees: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Options().NumThreads)
	assert.Equal(t, DefaultTrainingTimeout, tr.Options().Timeout)
	assert.Equal(t, MemoryStager{}, tr.Options().Stager)

	os.Setenv(ThreadsEnv, "many")
	_, err = NewRandomForestTrainer(ForestTrainerOptions{NumTrees: 2})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	os.Setenv(ThreadsEnv, "0")
	_, err = NewRandomForestTrainer(ForestTrainerOptions{NumTrees: 2})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	os.Setenv(TimeoutEnv, "2h")
	defer os.Unsetenv(TimeoutEnv)
	tr, err = NewRandomForestTrainer(ForestTrainerOptions{NumTrees: 2, NumThreads: 1})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, tr.Options().Timeout)
}

func TestForestTrainerLogsSummary(t *testing.T) {
	var logs bytes.Buffer
	opts := forestOptions(2, 2)
	opts.Tree.ValidationFraction = 0.25
	opts.Logger = nlplog.New(&logs, "forest")

	trainForest(t, opts, noisySource(t, 2, 200, 4))
	assert.Contains(t, logs.String(), `task "noisy": trained 2 trees`)
	assert.Contains(t, logs.String(), "held-out accuracy mean")
}
