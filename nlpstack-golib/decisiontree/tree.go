package decisiontree

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
)

// Decision is one step on the path from the root to a node: the vector's value
// for Feature was Value.
type Decision struct {
	Feature int `json:"feature"`
	Value   int `json:"value"`
}

// DecisionTree is an immutable classification tree over integer feature
// vectors. Nodes are identified by their index, node 0 is the root. An internal
// node tests one feature and maps each observed value of it to a child; a leaf
// has no splitting feature and no children. Every node keeps the histogram of
// training outcomes that reached it.
//
// A DecisionTree is safe for concurrent use.
type DecisionTree struct {
	outcomes         []int
	child            []map[int]int
	splittingFeature []*int
	histograms       []ml.Histogram

	// bfs lists node ids so that every parent precedes its children
	bfs []int

	pathsOnce sync.Once
	paths     [][]Decision
}

// NewDecisionTree builds a tree from per-node child maps, splitting features
// (nil for leaves) and outcome histograms. The inputs are copied. It returns
// ErrInvalidTree unless the child relation forms a single tree rooted at 0.
func NewDecisionTree(outcomes []int, child []map[int]int, splittingFeature []*int, histograms []ml.Histogram) (*DecisionTree, error) {
	t := &DecisionTree{}
	if err := t.init(outcomes, child, splittingFeature, histograms); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *DecisionTree) init(outcomes []int, child []map[int]int, splittingFeature []*int, histograms []ml.Histogram) error {
	n := len(child)
	switch {
	case n == 0:
		return invalidTree("tree has no nodes")
	case len(splittingFeature) != n || len(histograms) != n:
		return invalidTree("node arrays have different lengths: %d children, %d splitting features, %d histograms",
			n, len(splittingFeature), len(histograms))
	case len(outcomes) == 0:
		return invalidTree("tree has an empty outcome universe")
	}

	for _, o := range outcomes {
		if o < 0 {
			return invalidTree("negative outcome %d", o)
		}
	}

	t.outcomes = uniqueSorted(outcomes)
	universe := make(map[int]bool, len(t.outcomes))
	for _, o := range t.outcomes {
		universe[o] = true
	}
	t.child = make([]map[int]int, n)
	t.splittingFeature = make([]*int, n)
	t.histograms = make([]ml.Histogram, n)

	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}
	for i := 0; i < n; i++ {
		if f := splittingFeature[i]; f != nil {
			if *f < 0 {
				return invalidTree("node %d splits on negative feature %d", i, *f)
			}
			feature := *f
			t.splittingFeature[i] = &feature
		} else if len(child[i]) > 0 {
			return invalidTree("leaf node %d has %d children", i, len(child[i]))
		}

		t.child[i] = make(map[int]int, len(child[i]))
		for value, c := range child[i] {
			switch {
			case c <= 0 || c >= n:
				return invalidTree("node %d has child %d outside of [1, %d)", i, c, n)
			case parent[c] != -1:
				return invalidTree("node %d has two parents, %d and %d", c, parent[c], i)
			}
			parent[c] = i
			t.child[i][value] = c
		}

		t.histograms[i] = make(ml.Histogram, len(histograms[i]))
		for o, count := range histograms[i] {
			switch {
			case o < 0 || count < 0:
				return invalidTree("node %d has invalid histogram entry %d:%d", i, o, count)
			case !universe[o]:
				return invalidTree("node %d counts outcome %d outside of %v", i, o, t.outcomes)
			}
			t.histograms[i][o] = count
		}
	}

	// every node has at most one parent and node 0 has none, so the structure
	// is a tree exactly when every node is reachable from the root
	t.bfs = make([]int, 0, n)
	t.bfs = append(t.bfs, 0)
	for i := 0; i < len(t.bfs); i++ {
		t.bfs = append(t.bfs, t.sortedChildren(t.bfs[i])...)
	}
	if len(t.bfs) != n {
		return invalidTree("%d of %d nodes are unreachable from the root", n-len(t.bfs), n)
	}
	return nil
}

// Outcomes returns the outcome universe of the tree, ascending.
func (t *DecisionTree) Outcomes() []int {
	return append([]int(nil), t.outcomes...)
}

// NumNodes returns the number of nodes in the tree.
func (t *DecisionTree) NumNodes() int {
	return len(t.child)
}

// SplittingFeature returns the feature tested at node, false for leaves.
func (t *DecisionTree) SplittingFeature(node int) (int, bool) {
	if f := t.splittingFeature[node]; f != nil {
		return *f, true
	}
	return 0, false
}

// Children returns a copy of node's value to child mapping.
func (t *DecisionTree) Children(node int) map[int]int {
	children := make(map[int]int, len(t.child[node]))
	for v, c := range t.child[node] {
		children[v] = c
	}
	return children
}

// Histogram returns a copy of the training outcome counts at node.
func (t *DecisionTree) Histogram(node int) ml.Histogram {
	return ml.AddHistograms(t.histograms[node], nil)
}

// IsLeaf reports whether node has no splitting feature.
func (t *DecisionTree) IsLeaf(node int) bool {
	return t.splittingFeature[node] == nil
}

// FindDecisionNode walks v down from the root and returns the node it stops
// at: a leaf, or the first node with no child for v's value of its splitting
// feature.
func (t *DecisionTree) FindDecisionNode(v ml.FeatureVector) int {
	node := 0
	for {
		f := t.splittingFeature[node]
		if f == nil {
			return node
		}
		next, ok := t.child[node][v.Feature(*f)]
		if !ok {
			return node
		}
		node = next
	}
}

// NodeDistribution returns the outcome distribution at node, with one added to
// the count of every outcome so that none has zero probability.
func (t *DecisionTree) NodeDistribution(node int) ml.OutcomeDistribution {
	return ml.MustNormalize(ml.Smooth(t.histograms[node], t.outcomes))
}

// OutcomeDistribution implements Classifier
func (t *DecisionTree) OutcomeDistribution(v ml.FeatureVector) (ml.OutcomeDistribution, Justification) {
	node := t.FindDecisionNode(v)
	return t.NodeDistribution(node), &TreeJustification{Tree: t, Node: node}
}

// Classify implements Classifier
func (t *DecisionTree) Classify(v ml.FeatureVector) (int, Justification) {
	dist, j := t.OutcomeDistribution(v)
	outcome, _ := dist.Mode()
	return outcome, j
}

// DivergenceScore measures how far node's outcome distribution is from the
// root's: the number of outcomes times KL(node || root), summed over outcomes
// with non-zero probability at both nodes. It is 0 for the root and for nodes
// that saw no training data.
func (t *DecisionTree) DivergenceScore(node int) float64 {
	nodeDist, err := ml.Normalize(t.histograms[node])
	if err != nil {
		return 0
	}
	rootDist, err := ml.Normalize(t.histograms[0])
	if err != nil {
		return 0
	}
	var kl float64
	for _, o := range t.histograms[node].Outcomes() {
		p, q := nodeDist.Prob(o), rootDist.Prob(o)
		if p > 0 && q > 0 {
			kl += p * math.Log(p/q)
		}
	}
	return float64(len(t.outcomes)) * kl
}

// DecisionPath returns the decisions leading from the root to node.
func (t *DecisionTree) DecisionPath(node int) []Decision {
	t.pathsOnce.Do(t.buildPaths)
	return append([]Decision(nil), t.paths[node]...)
}

// buildPaths computes every node's path in one top-down pass; parents come
// first in t.bfs so a parent's path is complete before its children extend it.
func (t *DecisionTree) buildPaths() {
	t.paths = make([][]Decision, len(t.child))
	for _, node := range t.bfs {
		f := t.splittingFeature[node]
		if f == nil {
			continue
		}
		prefix := t.paths[node]
		for value, c := range t.child[node] {
			path := make([]Decision, len(prefix), len(prefix)+1)
			copy(path, prefix)
			t.paths[c] = append(path, Decision{Feature: *f, Value: value})
		}
	}
}

// Depth returns the number of decisions on the longest root to leaf path.
func (t *DecisionTree) Depth() int {
	t.pathsOnce.Do(t.buildPaths)
	var depth int
	for _, p := range t.paths {
		if len(p) > depth {
			depth = len(p)
		}
	}
	return depth
}

// AllFeatures implements Classifier
func (t *DecisionTree) AllFeatures() []int {
	seen := make(map[int]struct{})
	for _, f := range t.splittingFeature {
		if f != nil {
			seen[*f] = struct{}{}
		}
	}
	return sortedSet(seen)
}

// String renders the tree one node per line, children indented under parents.
func (t *DecisionTree) String() string {
	var b bytes.Buffer
	t.write(&b, 0, 0, "")
	return b.String()
}

func (t *DecisionTree) write(b *bytes.Buffer, node, indent int, edge string) {
	fmt.Fprintf(b, "%s%snode %d %v", strings.Repeat("  ", indent), edge, node, histogramString(t.histograms[node]))
	f := t.splittingFeature[node]
	if f == nil {
		b.WriteString("\n")
		return
	}
	fmt.Fprintf(b, " split on f%d\n", *f)
	for _, v := range childValues(t.child[node]) {
		t.write(b, t.child[node][v], indent+1, fmt.Sprintf("f%d=%d: ", *f, v))
	}
}

func (t *DecisionTree) sortedChildren(node int) []int {
	values := childValues(t.child[node])
	children := make([]int, len(values))
	for i, v := range values {
		children[i] = t.child[node][v]
	}
	return children
}

func histogramString(h ml.Histogram) string {
	parts := make([]string, 0, len(h))
	for _, o := range h.Outcomes() {
		parts = append(parts, fmt.Sprintf("%d:%d", o, h[o]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func uniqueSorted(xs []int) []int {
	seen := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return sortedSet(seen)
}

func sortedSet(set map[int]struct{}) []int {
	xs := make([]int, 0, len(set))
	for x := range set {
		xs = append(xs, x)
	}
	sort.Ints(xs)
	return xs
}
