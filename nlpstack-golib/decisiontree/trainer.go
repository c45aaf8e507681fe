package decisiontree

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
	"github.com/danyaljj/nlpstack/nlpstack-golib/nlplog"
)

// TrainerOptions configures decision tree induction.
type TrainerOptions struct {
	// GainMetric scores candidate splits; nil means EntropyGainMetric{}.
	GainMetric GainMetric
	// FeaturesExaminedPerNode is the fraction of all features sampled as
	// split candidates at each node, in [0, 1]. At least one feature is always
	// examined.
	FeaturesExaminedPerNode float64
	// ValidationFraction of the vectors is held out for pruning, in [0, 1).
	// No pruning is done when it is 0.
	ValidationFraction float64
	// MaxDepth bounds the number of decisions on any path; 0 means unbounded.
	MaxDepth int
	// MinSplit is the smallest number of vectors a node needs to be split;
	// values below 2 are treated as 2.
	MinSplit int
	// Seed makes training reproducible.
	Seed int64
	// Logger receives progress messages; nil discards them.
	Logger nlplog.Interface
}

// DefaultTrainerOptions examines every feature at every node and does not prune.
func DefaultTrainerOptions() TrainerOptions {
	return TrainerOptions{
		GainMetric:              EntropyGainMetric{},
		FeaturesExaminedPerNode: 1,
		MinSplit:                2,
	}
}

// Validate returns ErrInvalidConfiguration for out-of-range options.
func (o TrainerOptions) Validate() error {
	switch {
	case math.IsNaN(o.FeaturesExaminedPerNode) || o.FeaturesExaminedPerNode < 0 || o.FeaturesExaminedPerNode > 1:
		return invalidConfig("features examined per node must be in [0, 1], got %v", o.FeaturesExaminedPerNode)
	case math.IsNaN(o.ValidationFraction) || o.ValidationFraction < 0 || o.ValidationFraction >= 1:
		return invalidConfig("validation fraction must be in [0, 1), got %v", o.ValidationFraction)
	case o.MaxDepth < 0:
		return invalidConfig("max depth must not be negative, got %d", o.MaxDepth)
	case o.MinSplit < 0:
		return invalidConfig("min split must not be negative, got %d", o.MinSplit)
	}
	if o.GainMetric != nil {
		if g := o.GainMetric.MinimumGain(); math.IsNaN(g) || g < 0 {
			return invalidConfig("minimum gain must not be negative, got %v", g)
		}
	}
	return nil
}

// DecisionTreeTrainer grows a single decision tree by recursively splitting on
// the sampled feature with the highest gain, then prunes it against held-out
// vectors.
//
// Split selection is deterministic for a fixed Seed: candidate features are
// sampled from a seeded source in breadth-first node order and evaluated in
// ascending index order, and a later candidate only replaces the current best
// when its gain is strictly higher, so ties go to the smallest feature index.
//
// Pruning is reduced-error pruning: visiting nodes bottom-up, an internal node
// that at least one validation vector reaches is turned into a leaf when its
// own most likely outcome classifies those vectors at least as accurately as
// its subtree does.
type DecisionTreeTrainer struct {
	opts TrainerOptions
}

// NewDecisionTreeTrainer validates opts and returns a trainer.
func NewDecisionTreeTrainer(opts TrainerOptions) (*DecisionTreeTrainer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.GainMetric == nil {
		opts.GainMetric = EntropyGainMetric{}
	}
	if opts.MinSplit < 2 {
		opts.MinSplit = 2
	}
	return &DecisionTreeTrainer{opts: opts}, nil
}

// Options returns the trainer's effective options.
func (tr *DecisionTreeTrainer) Options() TrainerOptions {
	return tr.opts
}

// Train implements Trainer
func (tr *DecisionTreeTrainer) Train(ctx context.Context, src ml.FeatureVectorSource) (Classifier, error) {
	t, err := tr.TrainTree(ctx, src)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// TrainTree grows and prunes a tree over src.
func (tr *DecisionTreeTrainer) TrainTree(ctx context.Context, src ml.FeatureVectorSource) (*DecisionTree, error) {
	t, _, err := tr.train(ctx, src)
	return t, err
}

// trainStats describes one training run.
type trainStats struct {
	grown, pruned int
	// heldOut is the number of validation vectors; accuracy is measured on
	// them after pruning and is only meaningful when heldOut > 0.
	heldOut  int
	accuracy float64
}

func (tr *DecisionTreeTrainer) train(ctx context.Context, src ml.FeatureVectorSource) (*DecisionTree, trainStats, error) {
	var stats trainStats
	outcomes := src.AllOutcomes()
	if len(outcomes) == 0 {
		return nil, stats, invalidConfig("task %q has no outcomes", src.ClassificationTask().Name)
	}

	start := time.Now()
	rng := rand.New(rand.NewSource(tr.opts.Seed))

	var rows []int
	for i := 0; i < src.NumVectors(); i++ {
		if _, ok := src.Vector(i).Outcome(); ok {
			rows = append(rows, i)
		}
	}

	var validation []int
	if tr.opts.ValidationFraction > 0 {
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		n := int(tr.opts.ValidationFraction * float64(len(rows)))
		validation, rows = rows[:n], rows[n:]
		sort.Ints(rows)
	}

	g := &grower{
		opts:     tr.opts,
		src:      src,
		rng:      rng,
		features: make([]int, src.NumFeatures()),
	}
	for i := range g.features {
		g.features[i] = i
	}

	if err := g.grow(ctx, rows); err != nil {
		return nil, stats, err
	}
	stats.grown = len(g.nodes)

	if len(validation) > 0 {
		stats.heldOut = len(validation)
		stats.accuracy = g.prune(validation)
	}

	t, err := g.build(outcomes)
	if err != nil {
		return nil, stats, errors.Wrapf(err, "building tree for task %q", src.ClassificationTask().Name)
	}
	stats.pruned = stats.grown - t.NumNodes()

	nlplog.OrDiscard(tr.opts.Logger).Printf("task %q: grew %d nodes, pruned %d, depth %d, %d training vectors, in %v",
		src.ClassificationTask().Name, stats.grown, stats.pruned, t.Depth(), len(rows), time.Since(start))
	return t, stats, nil
}

type growNode struct {
	hist     ml.Histogram
	rows     []int
	depth    int
	feature  int
	children map[int]int
}

func (n *growNode) isLeaf() bool {
	return n.children == nil
}

func (n *growNode) mode() int {
	best, bestCount := ml.NoOutcome, -1
	for _, o := range n.hist.Outcomes() {
		if n.hist[o] > bestCount {
			best, bestCount = o, n.hist[o]
		}
	}
	return best
}

type grower struct {
	opts     TrainerOptions
	src      ml.FeatureVectorSource
	rng      *rand.Rand
	features []int
	nodes    []*growNode
}

func (g *grower) outcome(row int) int {
	o, _ := g.src.Vector(row).Outcome()
	return o
}

func (g *grower) histogram(rows []int) ml.Histogram {
	h := make(ml.Histogram)
	for _, r := range rows {
		h[g.outcome(r)]++
	}
	return h
}

// grow expands nodes breadth-first; node ids are assigned in the order nodes
// are created.
func (g *grower) grow(ctx context.Context, rows []int) error {
	g.nodes = []*growNode{{hist: g.histogram(rows), rows: rows}}
	for i := 0; i < len(g.nodes); i++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "training interrupted after %d nodes", i)
		}
		n := g.nodes[i]
		if g.shouldStop(n) {
			n.rows = nil
			continue
		}

		feature, ok := g.bestSplit(n)
		if !ok {
			n.rows = nil
			continue
		}

		partition := make(map[int][]int)
		for _, r := range n.rows {
			v := g.src.Vector(r).Feature(feature)
			partition[v] = append(partition[v], r)
		}
		n.feature = feature
		n.children = make(map[int]int, len(partition))
		for _, v := range partitionValues(partition) {
			n.children[v] = len(g.nodes)
			g.nodes = append(g.nodes, &growNode{
				hist:  g.histogram(partition[v]),
				rows:  partition[v],
				depth: n.depth + 1,
			})
		}
		n.rows = nil
	}
	return nil
}

func (g *grower) shouldStop(n *growNode) bool {
	switch {
	case len(n.rows) < g.opts.MinSplit:
		return true
	case g.opts.MaxDepth > 0 && n.depth >= g.opts.MaxDepth:
		return true
	case len(n.hist) <= 1:
		return true
	}
	return false
}

// bestSplit returns the sampled feature with the highest gain above the
// metric's minimum.
func (g *grower) bestSplit(n *growNode) (int, bool) {
	bestFeature, bestGain := -1, g.opts.GainMetric.MinimumGain()
	for _, f := range g.sampleFeatures() {
		byValue := make(map[int]ml.Histogram)
		for _, r := range n.rows {
			v := g.src.Vector(r).Feature(f)
			h, ok := byValue[v]
			if !ok {
				h = make(ml.Histogram)
				byValue[v] = h
			}
			h[g.outcome(r)]++
		}
		if len(byValue) < 2 {
			continue
		}
		children := make([]ml.Histogram, 0, len(byValue))
		for _, v := range histogramValues(byValue) {
			children = append(children, byValue[v])
		}
		if gain := g.opts.GainMetric.Gain(n.hist, children); gain > bestGain {
			bestFeature, bestGain = f, gain
		}
	}
	return bestFeature, bestFeature >= 0
}

// sampleFeatures draws the candidate features for one node, ascending.
func (g *grower) sampleFeatures() []int {
	total := len(g.features)
	k := int(math.Ceil(g.opts.FeaturesExaminedPerNode * float64(total)))
	if k < 1 {
		k = 1
	}
	if k >= total {
		sample := append([]int(nil), g.features...)
		sort.Ints(sample)
		return sample
	}
	// partial Fisher-Yates over the persistent feature slice
	for i := 0; i < k; i++ {
		j := i + g.rng.Intn(total-i)
		g.features[i], g.features[j] = g.features[j], g.features[i]
	}
	sample := append([]int(nil), g.features[:k]...)
	sort.Ints(sample)
	return sample
}

// prune applies reduced-error pruning with the validation rows and returns
// the accuracy of the pruned tree on them.
func (g *grower) prune(validation []int) float64 {
	reaching := make([][]int, len(g.nodes))
	stopped := make([][]int, len(g.nodes))
	for _, r := range validation {
		v := g.src.Vector(r)
		node := 0
		for {
			reaching[node] = append(reaching[node], r)
			n := g.nodes[node]
			if n.isLeaf() {
				stopped[node] = append(stopped[node], r)
				break
			}
			next, ok := n.children[v.Feature(n.feature)]
			if !ok {
				stopped[node] = append(stopped[node], r)
				break
			}
			node = next
		}
	}

	correct := make([]int, len(g.nodes))
	// children always have larger ids than their parent, so walking ids in
	// reverse visits every subtree before its root
	for id := len(g.nodes) - 1; id >= 0; id-- {
		n := g.nodes[id]
		asLeaf := g.countCorrect(reaching[id], n.mode())
		if n.isLeaf() {
			correct[id] = asLeaf
			continue
		}
		subtree := g.countCorrect(stopped[id], n.mode())
		for _, c := range n.children {
			subtree += correct[c]
		}
		if len(reaching[id]) > 0 && asLeaf >= subtree {
			n.children = nil
			correct[id] = asLeaf
		} else {
			correct[id] = subtree
		}
	}
	return float64(correct[0]) / float64(len(validation))
}

func (g *grower) countCorrect(rows []int, predicted int) int {
	var n int
	for _, r := range rows {
		if g.outcome(r) == predicted {
			n++
		}
	}
	return n
}

// build renumbers the nodes still reachable after pruning in breadth-first
// order and constructs the immutable tree.
func (g *grower) build(outcomes []int) (*DecisionTree, error) {
	ids := map[int]int{0: 0}
	order := []int{0}
	for i := 0; i < len(order); i++ {
		n := g.nodes[order[i]]
		for _, v := range childValues(n.children) {
			c := n.children[v]
			ids[c] = len(order)
			order = append(order, c)
		}
	}

	child := make([]map[int]int, len(order))
	splitting := make([]*int, len(order))
	histograms := make([]ml.Histogram, len(order))
	for newID, oldID := range order {
		n := g.nodes[oldID]
		histograms[newID] = n.hist
		child[newID] = make(map[int]int, len(n.children))
		if n.isLeaf() {
			continue
		}
		feature := n.feature
		splitting[newID] = &feature
		for v, c := range n.children {
			child[newID][v] = ids[c]
		}
	}
	return NewDecisionTree(outcomes, child, splitting, histograms)
}

func partitionValues(m map[int][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func histogramValues(m map[int]ml.Histogram) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func childValues(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
