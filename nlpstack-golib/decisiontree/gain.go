package decisiontree

import (
	"math"

	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
)

// GainMetric scores how much splitting a node's vectors into children improves
// the purity of their outcomes. A split is only made when its gain exceeds
// MinimumGain.
type GainMetric interface {
	Gain(parent ml.Histogram, children []ml.Histogram) float64
	MinimumGain() float64
}

// EntropyGainMetric is the information gain of a split in nats: the parent's
// outcome entropy minus the count-weighted entropy of the children.
type EntropyGainMetric struct {
	Minimum float64
}

// Gain implements GainMetric
func (m EntropyGainMetric) Gain(parent ml.Histogram, children []ml.Histogram) float64 {
	return informationGain(parent, children)
}

// MinimumGain implements GainMetric
func (m EntropyGainMetric) MinimumGain() float64 { return m.Minimum }

// MultinomialGainMetric is the log-likelihood ratio between modelling outcomes
// with one multinomial per child and one for the parent, i.e. the information
// gain scaled by the number of vectors at the node. Unlike EntropyGainMetric,
// its threshold is harder to meet at small nodes, which keeps trees from
// splitting on a handful of examples.
type MultinomialGainMetric struct {
	Minimum float64
}

// Gain implements GainMetric
func (m MultinomialGainMetric) Gain(parent ml.Histogram, children []ml.Histogram) float64 {
	return float64(parent.Total()) * informationGain(parent, children)
}

// MinimumGain implements GainMetric
func (m MultinomialGainMetric) MinimumGain() float64 { return m.Minimum }

func informationGain(parent ml.Histogram, children []ml.Histogram) float64 {
	total := parent.Total()
	if total == 0 {
		return 0
	}
	gain := entropy(parent)
	for _, c := range children {
		gain -= float64(c.Total()) / float64(total) * entropy(c)
	}
	// guard against -0 and rounding noise on zero-gain splits
	if gain < 1e-12 {
		return 0
	}
	return gain
}

// entropy sums in ascending outcome order so that equal histograms always give
// bit-identical results; split ties depend on it.
func entropy(h ml.Histogram) float64 {
	total := h.Total()
	if total == 0 {
		return 0
	}
	var e float64
	for _, o := range h.Outcomes() {
		c := h[o]
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		e -= p * math.Log(p)
	}
	return e
}
