package ml

import (
	"testing"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	d, err := Normalize(Histogram{0: 1, 1: 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, d.Prob(0), 1e-12)
	assert.InDelta(t, 0.75, d.Prob(1), 1e-12)
	assert.Equal(t, 0., d.Prob(2))

	o, p := d.Mode()
	assert.Equal(t, 1, o)
	assert.InDelta(t, 0.75, p, 1e-12)
}

func TestNormalizeEmpty(t *testing.T) {
	_, err := Normalize(Histogram{})
	assert.True(t, errors.Is(err, ErrEmptyHistogram))

	_, err = Normalize(Histogram{3: 0})
	assert.True(t, errors.Is(err, ErrEmptyHistogram))

	assert.Panics(t, func() { MustNormalize(nil) })
}

func TestSmoothNeverEmpty(t *testing.T) {
	h := Smooth(Histogram{}, []int{0, 1, 2})
	d := MustNormalize(h)
	for _, o := range []int{0, 1, 2} {
		assert.InDelta(t, 1./3, d.Prob(o), 1e-12)
	}

	orig := Histogram{1: 4}
	h = Smooth(orig, []int{0, 1})
	assert.Equal(t, Histogram{0: 1, 1: 5}, h)
	assert.Equal(t, Histogram{1: 4}, orig, "input must not be modified")
}

func TestAddHistogramsAlgebra(t *testing.T) {
	a := Histogram{0: 2, 1: 1}
	b := Histogram{1: 4, 2: 7}
	c := Histogram{0: 1, 3: 3}

	assert.Equal(t, Histogram{0: 2, 1: 5, 2: 7}, AddHistograms(a, b))
	assert.Equal(t, AddHistograms(a, b), AddHistograms(b, a))
	assert.Equal(t, AddHistograms(AddHistograms(a, b), c), AddHistograms(a, AddHistograms(b, c)))
	assert.Equal(t, a, AddHistograms(a, nil))
	assert.Equal(t, Histogram{0: 2, 1: 1}, a, "input must not be modified")
}

func TestModeTieBreak(t *testing.T) {
	d := MustNormalize(Histogram{4: 2, 2: 2, 7: 1})
	o, _ := d.Mode()
	assert.Equal(t, 2, o)

	o, p := OutcomeDistribution{}.Mode()
	assert.Equal(t, NoOutcome, o)
	assert.Equal(t, 0., p)
	assert.Equal(t, "{2:0.4000 4:0.4000 7:0.2000}", d.String())
}
