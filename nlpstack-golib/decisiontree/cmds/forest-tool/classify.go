package main

import (
	"fmt"
	"io"
	"os"

	"github.com/danyaljj/nlpstack/nlpstack-golib/cmdline"
	"github.com/danyaljj/nlpstack/nlpstack-golib/decisiontree"
	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/sbwhitecap/tqdm"
	"github.com/sbwhitecap/tqdm/iterators"
)

var classifyCmd = cmdline.Command{
	Name:     "classify",
	Synopsis: "classify JSON-lines examples with trained models",
	Args: &classifyArgs{
		ModelDir:  "models",
		CacheSize: 16,
	},
}

type classifyArgs struct {
	In        []string `arg:"positional,required" help:"JSON-lines example files or glob patterns, optionally gzipped"`
	ModelDir  string   `arg:"--models" help:"directory written by train"`
	Task      string   `help:"task for examples that do not name one"`
	Explain   bool     `help:"print the justification of every decision"`
	Progress  bool     `help:"show a progress bar on stderr"`
	CacheSize int      `help:"number of models kept loaded at once"`
}

func (args *classifyArgs) Handle() error {
	examples, err := readExampleFiles(args.In, args.Task)
	if err != nil {
		return err
	}
	c, err := newClassifier(args.ModelDir, args.CacheSize)
	if err != nil {
		return err
	}
	return c.run(os.Stdout, examples, args.Explain, args.Progress)
}

// classifier resolves each example's task to its model and index.
type classifier struct {
	dir     string
	models  *decisiontree.ModelCache
	indices map[string]*taskIndex
}

func newClassifier(dir string, cacheSize int) (*classifier, error) {
	models, err := decisiontree.NewModelCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &classifier{
		dir:     dir,
		models:  models,
		indices: make(map[string]*taskIndex),
	}, nil
}

func (c *classifier) index(task string) (*taskIndex, error) {
	if idx, ok := c.indices[task]; ok {
		return idx, nil
	}
	idx, err := readTaskIndex(indexPath(c.dir, task))
	if err != nil {
		return nil, errors.Wrapf(err, "task %q", task)
	}
	c.indices[task] = idx
	return idx, nil
}

// run prints one line per example: task, predicted label and its probability,
// followed by the true label for labeled examples. Accuracy over the labeled
// examples is printed at the end.
func (c *classifier) run(w io.Writer, examples []example, explain, progress bool) error {
	var labeled, correct int
	classify := func(ex example) error {
		idx, err := c.index(ex.Task)
		if err != nil {
			return err
		}
		model, err := c.models.Get(modelPath(c.dir, ex.Task))
		if err != nil {
			return errors.Wrapf(err, "task %q", ex.Task)
		}

		dist, j := model.OutcomeDistribution(idx.vector(ex))
		outcome, prob := dist.Mode()
		label := idx.Outcomes.Label(outcome)

		fmt.Fprintf(w, "%s\t%s\t%.4f", ex.Task, label, prob)
		if ex.Outcome != "" {
			labeled++
			if ex.Outcome == label {
				correct++
			}
			fmt.Fprintf(w, "\t%s", ex.Outcome)
		}
		fmt.Fprintln(w)
		if explain {
			fmt.Fprintf(w, "  %s\n", j.Explain(idx.Features))
		}
		return nil
	}

	if progress {
		var err error
		barErr := tqdm.With(iterators.Interval(0, len(examples)), "classifying", func(v interface{}) (brk bool) {
			err = classify(examples[v.(int)])
			return err != nil
		})
		if err != nil {
			return err
		}
		if barErr != nil {
			return barErr
		}
	} else {
		for _, ex := range examples {
			if err := classify(ex); err != nil {
				return err
			}
		}
	}

	if labeled > 0 {
		fmt.Fprintf(w, "accuracy %.4f (%d of %d)\n", float64(correct)/float64(labeled), correct, labeled)
	}
	return nil
}
