package decisiontree

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const omnibusYAML = `
default: rf
trainers:
  - name: dt
    prefix: dt
    gain: {metric: multinomial, minimum: 0.5}
  - name: calls
    prefix: calls
    numTrees: 3
    threads: 2
    maxDepth: 4
    validationFraction: 0.2
    timeout: 90m
  - name: rf
    numTrees: 10
    bagging: true
    featuresExaminedPerNode: 0.1
    seed: 7
`

func loadConfig(t *testing.T, text string) *OmnibusConfig {
	config, err := LoadOmnibusConfig(strings.NewReader(text))
	require.NoError(t, err)
	return config
}

func trainerOptions(t *testing.T, o *OmnibusTrainer, task string) ForestTrainerOptions {
	tr, err := o.TrainerFor(ml.ClassificationTask{Name: task})
	require.NoError(t, err)
	return tr.(*RandomForestTrainer).Options()
}

func TestOmnibusConfig(t *testing.T) {
	o, closers, err := loadConfig(t, omnibusYAML).Build(nil)
	require.NoError(t, err)
	assert.Empty(t, closers)
	assert.Len(t, o.Routes, 2)

	dt := trainerOptions(t, o, "dt-attr")
	assert.Equal(t, 1, dt.NumTrees)
	assert.Equal(t, 1., dt.Tree.FeaturesExaminedPerNode)
	assert.Equal(t, MultinomialGainMetric{Minimum: 0.5}, dt.Tree.GainMetric)

	calls := trainerOptions(t, o, "calls-args")
	assert.Equal(t, 3, calls.NumTrees)
	assert.Equal(t, 2, calls.NumThreads)
	assert.Equal(t, 4, calls.Tree.MaxDepth)
	assert.Equal(t, 0.2, calls.Tree.ValidationFraction)
	assert.Equal(t, 90*time.Minute, calls.Timeout)
	assert.Equal(t, EntropyGainMetric{}, calls.Tree.GainMetric)

	rf := trainerOptions(t, o, "kwargs")
	assert.Equal(t, 10, rf.NumTrees)
	assert.True(t, rf.UseBagging)
	assert.Equal(t, 0.1, rf.Tree.FeaturesExaminedPerNode)
	assert.Equal(t, int64(7), rf.Tree.Seed)
}

func TestOmnibusConfigErrors(t *testing.T) {
	_, err := LoadOmnibusConfig(strings.NewReader("trainers:\n  - name: dt\n    depth: 3\n"))
	assert.Error(t, err, "unknown fields are rejected")

	for _, text := range []string{
		"default: missing\ntrainers:\n  - name: dt\n    prefix: dt\n",
		"trainers:\n  - name: dt\n    gain: {metric: gini}\n",
		"trainers:\n  - name: dt\n    timeout: soon\n",
		"trainers:\n  - name: dt\n    staging: tape\n",
		"trainers:\n  - name: dt\n  - name: dt\n",
		"trainers:\n  - name: dt\n    featuresExaminedPerNode: 1.5\n",
		"trainers: []\n",
	} {
		_, _, err := loadConfig(t, text).Build(nil)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration), "%s: %v", text, err)
	}
}

func TestOmnibusConfigDiskStaging(t *testing.T) {
	dir, err := ioutil.TempDir("", "omnibus-staging")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	config := loadConfig(t, "default: rf\ntrainers:\n  - name: rf\n    numTrees: 2\n    staging: disk\n    stagingDir: "+dir+"\n")
	o, closers, err := config.Build(nil)
	require.NoError(t, err)
	require.Len(t, closers, 1)

	stager := trainerOptions(t, o, "anything").Stager.(*DiskStager)
	assert.Equal(t, dir, stager.Dir())

	for _, c := range closers {
		require.NoError(t, c.Close())
	}
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
