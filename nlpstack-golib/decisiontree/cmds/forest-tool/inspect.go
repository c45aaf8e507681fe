package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/danyaljj/nlpstack/nlpstack-golib/cmdline"
	"github.com/danyaljj/nlpstack/nlpstack-golib/decisiontree"
	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	humanize "github.com/dustin/go-humanize"
)

var inspectCmd = cmdline.Command{
	Name:     "inspect",
	Synopsis: "summarize a trained model",
	Args: &inspectArgs{
		ModelDir: "models",
		Top:      5,
	},
}

type inspectArgs struct {
	Task     string `arg:"positional,required" help:"task whose model to inspect"`
	ModelDir string `arg:"--models" help:"directory written by train"`
	Top      int    `help:"number of most divergent nodes to list per tree"`
	Print    bool   `help:"print every tree in full"`
}

func (args *inspectArgs) Validate() error {
	return checkTask(args.Task)
}

func (args *inspectArgs) Handle() error {
	model, err := decisiontree.LoadFile(modelPath(args.ModelDir, args.Task))
	if err != nil {
		return err
	}
	idx, err := readTaskIndex(indexPath(args.ModelDir, args.Task))
	if err != nil {
		return err
	}
	return inspect(os.Stdout, model, idx, args.Top, args.Print)
}

type scoredNode struct {
	node  int
	score float64
}

func inspect(w io.Writer, model decisiontree.Classifier, idx *taskIndex, top int, full bool) error {
	var trees []*decisiontree.DecisionTree
	switch m := model.(type) {
	case *decisiontree.DecisionTree:
		trees = []*decisiontree.DecisionTree{m}
	case *decisiontree.RandomForest:
		trees = m.Trees()
	default:
		return errors.Errorf("cannot inspect classifier of type %T", model)
	}

	fmt.Fprintf(w, "outcomes: %v\n", idx.Outcomes.Labels())
	fmt.Fprintf(w, "features used: %d of %s\n", len(model.AllFeatures()), humanize.Comma(int64(idx.Features.Len())))
	for i, t := range trees {
		fmt.Fprintf(w, "tree %d: %d nodes, depth %d\n", i, t.NumNodes(), t.Depth())

		var nodes []scoredNode
		for n := 0; n < t.NumNodes(); n++ {
			nodes = append(nodes, scoredNode{n, t.DivergenceScore(n)})
		}
		sort.SliceStable(nodes, func(a, b int) bool {
			return nodes[a].score > nodes[b].score
		})
		if len(nodes) > top {
			nodes = nodes[:top]
		}
		for _, n := range nodes {
			j := &decisiontree.TreeJustification{Tree: t, Node: n.node}
			fmt.Fprintf(w, "  %.4f %s\n", n.score, j.Explain(idx.Features))
		}
		if full {
			fmt.Fprintln(w, t)
		}
	}
	return nil
}
