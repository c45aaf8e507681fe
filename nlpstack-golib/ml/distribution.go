package ml

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
)

// ErrEmptyHistogram is returned when normalizing a histogram whose counts sum
// to zero. Smoothing before normalizing rules this out, so seeing it means a
// histogram was built incorrectly.
var ErrEmptyHistogram = errors.New("cannot normalize a histogram with zero total count")

// Histogram maps an outcome to the number of training vectors observed with it.
type Histogram map[int]int

// Total returns the sum of all counts.
func (h Histogram) Total() int {
	var total int
	for _, c := range h {
		total += c
	}
	return total
}

// Outcomes returns the outcomes present in h in ascending order.
func (h Histogram) Outcomes() []int {
	keys := make([]int, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// AddHistograms returns the union of h1 and h2 with counts summed, treating a
// missing outcome as 0. Neither argument is modified, and the operation is
// associative and commutative.
func AddHistograms(h1, h2 Histogram) Histogram {
	sum := make(Histogram, len(h1)+len(h2))
	for o, c := range h1 {
		sum[o] += c
	}
	for o, c := range h2 {
		sum[o] += c
	}
	return sum
}

// Smooth returns a copy of h with one added to the count of every outcome in
// outcomes. Outcomes in h but not in outcomes are kept unchanged.
func Smooth(h Histogram, outcomes []int) Histogram {
	smoothed := make(Histogram, len(outcomes))
	for o, c := range h {
		smoothed[o] = c
	}
	for _, o := range outcomes {
		smoothed[o]++
	}
	return smoothed
}

// OutcomeDistribution maps outcomes to probabilities summing to 1.
type OutcomeDistribution struct {
	Dist map[int]float64 `json:"dist"`
}

// Normalize divides every count in h by the total count.
func Normalize(h Histogram) (OutcomeDistribution, error) {
	total := h.Total()
	if total <= 0 {
		return OutcomeDistribution{}, ErrEmptyHistogram
	}
	dist := make(map[int]float64, len(h))
	for o, c := range h {
		dist[o] = float64(c) / float64(total)
	}
	return OutcomeDistribution{Dist: dist}, nil
}

// MustNormalize is Normalize for histograms known to be non-empty, e.g. after
// Smooth with a non-empty outcome universe. It panics otherwise.
func MustNormalize(h Histogram) OutcomeDistribution {
	d, err := Normalize(h)
	if err != nil {
		panic(errors.WithStack(err))
	}
	return d
}

// Prob returns the probability of outcome, 0 if absent.
func (d OutcomeDistribution) Prob(outcome int) float64 {
	return d.Dist[outcome]
}

// Mode returns the most probable outcome and its probability. Ties go to the
// smallest outcome. It returns NoOutcome for an empty distribution.
func (d OutcomeDistribution) Mode() (int, float64) {
	best, bestProb := NoOutcome, -1.
	for _, o := range d.outcomes() {
		if p := d.Dist[o]; p > bestProb {
			best, bestProb = o, p
		}
	}
	if best == NoOutcome {
		return NoOutcome, 0
	}
	return best, bestProb
}

func (d OutcomeDistribution) outcomes() []int {
	keys := make([]int, 0, len(d.Dist))
	for k := range d.Dist {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (d OutcomeDistribution) String() string {
	parts := make([]string, 0, len(d.Dist))
	for _, o := range d.outcomes() {
		parts = append(parts, fmt.Sprintf("%d:%.4f", o, d.Dist[o]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
