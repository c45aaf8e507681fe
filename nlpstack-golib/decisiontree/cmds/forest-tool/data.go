package main

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
	"github.com/danyaljj/nlpstack/nlpstack-golib/serialization"
	zglob "github.com/mattn/go-zglob"
)

// example is one record of a JSON-lines data file: the symbolic features
// that were present for a decision, and the outcome taken if known.
type example struct {
	Task     string           `json:"task"`
	Outcome  string           `json:"outcome,omitempty"`
	Features []ml.FeatureName `json:"features"`
}

// readExamples decodes the examples in r; name picks the encoding as for
// serialization.Decode.
func readExamples(r io.Reader, name, defaultTask string) ([]example, error) {
	var examples []example
	err := serialization.DecodeAs(r, name, func(ex *example) error {
		if ex.Task == "" {
			ex.Task = defaultTask
		}
		if ex.Task == "" {
			return errors.Errorf("example %d: no task", len(examples)+1)
		}
		if err := checkTask(ex.Task); err != nil {
			return errors.Wrapf(err, "example %d", len(examples)+1)
		}
		examples = append(examples, *ex)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return examples, nil
}

// readExampleFiles reads every file matching the given glob patterns, which
// may use ** to match directories recursively.
func readExampleFiles(patterns []string, defaultTask string) ([]example, error) {
	var examples []example
	for _, pattern := range patterns {
		paths, err := zglob.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding %s", pattern)
		}
		for _, path := range paths {
			f, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			read, err := readExamples(f, path, defaultTask)
			f.Close()
			if err != nil {
				return nil, err
			}
			examples = append(examples, read...)
		}
	}
	if len(examples) == 0 {
		return nil, errors.Errorf("no examples in %s", strings.Join(patterns, ", "))
	}
	return examples, nil
}

// groupByTask returns the examples of every task, tasks in sorted order.
func groupByTask(examples []example) ([]string, map[string][]example) {
	byTask := make(map[string][]example)
	for _, ex := range examples {
		byTask[ex.Task] = append(byTask[ex.Task], ex)
	}
	tasks := make([]string, 0, len(byTask))
	for task := range byTask {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)
	return tasks, byTask
}

// taskIndex holds the symbol tables a task's model was trained against.
type taskIndex struct {
	Features *ml.FeatureIndex
	Outcomes *ml.OutcomeIndex
}

type jsonIndex struct {
	Features []ml.FeatureName `json:"features"`
	Outcomes []string         `json:"outcomes"`
}

func newTaskIndex() *taskIndex {
	return &taskIndex{
		Features: ml.NewFeatureIndex(),
		Outcomes: ml.NewOutcomeIndex(),
	}
}

// source vectorizes labeled examples, growing the index as it goes.
func (idx *taskIndex) source(task string, examples []example) (ml.FeatureVectorSource, error) {
	vectors := make([]ml.FeatureVector, 0, len(examples))
	for _, ex := range examples {
		if ex.Outcome == "" {
			continue
		}
		outcome := idx.Outcomes.Intern(ex.Outcome)
		vectors = append(vectors, idx.Features.Vectorize(ex.Features, outcome, true))
	}
	if len(vectors) == 0 {
		return nil, errors.Errorf("task %q has no labeled examples", task)
	}
	return ml.NewInMemorySource(ml.ClassificationTask{Name: task}, vectors, idx.Outcomes.Outcomes())
}

// vector builds an unlabeled vector from ex, ignoring features never seen in
// training.
func (idx *taskIndex) vector(ex example) ml.FeatureVector {
	return idx.Features.Vectorize(ex.Features, ml.NoOutcome, false)
}

func (idx *taskIndex) write(path string) error {
	return serialization.Encode(path, jsonIndex{
		Features: idx.Features.Names(),
		Outcomes: idx.Outcomes.Labels(),
	})
}

func readTaskIndex(path string) (*taskIndex, error) {
	var ji jsonIndex
	if err := serialization.Decode(path, &ji); err != nil {
		return nil, errors.Wrapf(err, "decoding index %s", path)
	}
	return &taskIndex{
		Features: ml.NewFeatureIndex(ji.Features...),
		Outcomes: ml.NewOutcomeIndex(ji.Outcomes...),
	}, nil
}

// checkTask rejects task names that could not be used as a file name inside
// the model directory.
func checkTask(task string) error {
	switch {
	case task == "", task == ".", task == "..":
		return errors.Errorf("invalid task name %q", task)
	case strings.ContainsAny(task, `/\`):
		return errors.Errorf("task name %q contains a path separator", task)
	}
	return nil
}

func modelPath(dir, task string) string {
	return filepath.Join(dir, task+".model.json")
}

func indexPath(dir, task string) string {
	return filepath.Join(dir, task+".index.json")
}
