package decisiontree

import (
	"math"
	"testing"

	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntropy(t *testing.T) {
	assert.Equal(t, 0., entropy(ml.Histogram{}))
	assert.Equal(t, 0., entropy(ml.Histogram{1: 10}))
	assert.InDelta(t, math.Log(2), entropy(ml.Histogram{0: 5, 1: 5}), 1e-12)
}

func TestGainIsBitStable(t *testing.T) {
	parent := ml.Histogram{0: 7, 1: 3, 2: 11, 3: 5, 4: 2}
	children := []ml.Histogram{{0: 7, 2: 4, 4: 1}, {1: 3, 2: 7, 3: 5, 4: 1}}

	e := entropy(parent)
	g := informationGain(parent, children)
	for i := 0; i < 1000; i++ {
		require.Equal(t, e, entropy(parent))
		require.Equal(t, g, informationGain(parent, children))
	}
}

func TestGainMetrics(t *testing.T) {
	parent := ml.Histogram{0: 4, 1: 4}
	perfect := []ml.Histogram{{0: 4}, {1: 4}}
	useless := []ml.Histogram{{0: 2, 1: 2}, {0: 2, 1: 2}}

	e := EntropyGainMetric{Minimum: 0.1}
	assert.InDelta(t, math.Log(2), e.Gain(parent, perfect), 1e-12)
	assert.Equal(t, 0., e.Gain(parent, useless))
	assert.Equal(t, 0.1, e.MinimumGain())

	m := MultinomialGainMetric{Minimum: 0.5}
	assert.InDelta(t, 8*math.Log(2), m.Gain(parent, perfect), 1e-12)
	assert.Equal(t, 0., m.Gain(parent, useless))
	assert.Equal(t, 0., m.Gain(ml.Histogram{}, nil))
}
