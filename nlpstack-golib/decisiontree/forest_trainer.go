package decisiontree

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/danyaljj/nlpstack/nlpstack-golib/envutil"
	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
	"github.com/danyaljj/nlpstack/nlpstack-golib/nlplog"
	"github.com/danyaljj/nlpstack/nlpstack-golib/workerpool"
	humanize "github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
)

// DefaultTrainingTimeout bounds how long an ensemble may take to train. It is
// meant to never trigger in practice while still guaranteeing termination.
const DefaultTrainingTimeout = 30 * 24 * time.Hour

// ThreadsEnv overrides the default number of training workers.
const ThreadsEnv = "NLPSTACK_TRAIN_THREADS"

// TimeoutEnv overrides DefaultTrainingTimeout, e.g. "36h".
const TimeoutEnv = "NLPSTACK_TRAIN_TIMEOUT"

// ForestTrainerOptions configures a RandomForestTrainer.
type ForestTrainerOptions struct {
	// NumTrees is the size of the ensemble, at least 1.
	NumTrees int
	// NumThreads bounds how many trees are trained at once; 0 means the value
	// of $NLPSTACK_TRAIN_THREADS, or the number of CPUs if unset.
	NumThreads int
	// UseBagging trains each tree on a bootstrap sample of the vectors.
	UseBagging bool
	// Tree configures every member tree. Tree i is trained with seed
	// Tree.Seed+i.
	Tree TrainerOptions
	// Timeout bounds the whole ensemble build; 0 means the value of
	// $NLPSTACK_TRAIN_TIMEOUT, or DefaultTrainingTimeout if unset.
	Timeout time.Duration
	// Stager receives every trained tree; nil means MemoryStager.
	Stager Stager
	// Logger receives progress messages; nil discards them.
	Logger nlplog.Interface
}

// Validate returns ErrInvalidConfiguration for out-of-range options.
func (o ForestTrainerOptions) Validate() error {
	switch {
	case o.NumTrees < 1:
		return invalidConfig("a random forest needs at least one tree, got %d", o.NumTrees)
	case o.NumThreads < 0:
		return invalidConfig("number of threads must not be negative, got %d", o.NumThreads)
	case o.Timeout < 0:
		return invalidConfig("timeout must not be negative, got %v", o.Timeout)
	}
	return o.Tree.Validate()
}

// RandomForestTrainer trains the trees of a forest in parallel on a bounded
// worker pool and assembles them once all have finished.
type RandomForestTrainer struct {
	opts ForestTrainerOptions
	tree *DecisionTreeTrainer
}

// NewRandomForestTrainer validates opts and returns a trainer.
func NewRandomForestTrainer(opts ForestTrainerOptions) (*RandomForestTrainer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.NumThreads == 0 {
		threads, err := envutil.LookupInt(ThreadsEnv, runtime.NumCPU())
		if err != nil {
			return nil, invalidConfig("%v", err)
		}
		if threads < 1 {
			return nil, invalidConfig("$%s must be positive, got %d", ThreadsEnv, threads)
		}
		opts.NumThreads = threads
	}
	if opts.Timeout == 0 {
		timeout, err := envutil.LookupDuration(TimeoutEnv, DefaultTrainingTimeout)
		if err != nil {
			return nil, invalidConfig("%v", err)
		}
		if timeout <= 0 {
			return nil, invalidConfig("$%s must be positive, got %v", TimeoutEnv, timeout)
		}
		opts.Timeout = timeout
	}
	if opts.Stager == nil {
		opts.Stager = MemoryStager{}
	}
	if opts.Tree.Logger == nil {
		opts.Tree.Logger = opts.Logger
	}
	tree, err := NewDecisionTreeTrainer(opts.Tree)
	if err != nil {
		return nil, err
	}
	return &RandomForestTrainer{opts: opts, tree: tree}, nil
}

// Options returns the trainer's effective options.
func (tr *RandomForestTrainer) Options() ForestTrainerOptions {
	return tr.opts
}

// Train implements Trainer
func (tr *RandomForestTrainer) Train(ctx context.Context, src ml.FeatureVectorSource) (Classifier, error) {
	f, err := tr.TrainForest(ctx, src)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// TrainForest trains NumTrees trees over src. It fails as a whole: if any tree
// fails, or the timeout expires, no forest is returned. In particular an
// expired timeout yields ErrTrainingTimeout.
func (tr *RandomForestTrainer) TrainForest(ctx context.Context, src ml.FeatureVectorSource) (*RandomForest, error) {
	task := src.ClassificationTask().Name
	outcomes := src.AllOutcomes()
	if len(outcomes) == 0 {
		return nil, invalidConfig("task %q has no outcomes", task)
	}

	logger := nlplog.OrDiscard(tr.opts.Logger)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, tr.opts.Timeout)
	defer cancel()

	trees := make([]*DecisionTree, tr.opts.NumTrees)
	runs := make([]trainStats, tr.opts.NumTrees)

	jobs := make([]workerpool.Job, 0, tr.opts.NumTrees)
	for i := 0; i < tr.opts.NumTrees; i++ {
		i := i
		jobs = append(jobs, func() error {
			t, run, err := tr.trainMember(ctx, src, i)
			if err != nil {
				return errors.Wrapf(err, "training tree %d of task %q", i, task)
			}
			trees[i], runs[i] = t, run
			return nil
		})
	}

	pool := workerpool.NewWithCtx(ctx, tr.opts.NumThreads)
	pool.Add(jobs)

	done := make(chan error, 1)
	go func() {
		done <- pool.Wait()
	}()

	select {
	case err := <-done:
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrapf(ErrTrainingTimeout, "task %q after %v", task, tr.opts.Timeout)
		}
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		pool.Stop()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrapf(ErrTrainingTimeout, "task %q after %v", task, tr.opts.Timeout)
		}
		return nil, errors.Wrapf(ctx.Err(), "training task %q", task)
	}

	forest, err := NewRandomForest(outcomes, trees)
	if err != nil {
		return nil, err
	}
	tr.logSummary(logger, task, forest, runs, time.Since(start))
	return forest, nil
}

// trainMember trains tree i on its own data view and seed, then stages it.
func (tr *RandomForestTrainer) trainMember(ctx context.Context, src ml.FeatureVectorSource, i int) (*DecisionTree, trainStats, error) {
	seed := tr.opts.Tree.Seed + int64(i)

	data := src
	if tr.opts.UseBagging {
		data = bootstrap(src, seed)
	}

	member := *tr.tree
	member.opts.Seed = seed
	t, run, err := member.train(ctx, data)
	if err != nil {
		return nil, run, err
	}

	key := fmt.Sprintf("%s/tree-%d", src.ClassificationTask().Name, i)
	staged, err := tr.opts.Stager.Stage(key, t)
	if err != nil {
		return nil, run, err
	}
	return staged, run, nil
}

// bootstrap samples src with replacement, as many vectors as it holds. The
// sample uses a seed derived from, but distinct from, the tree's own seed.
func bootstrap(src ml.FeatureVectorSource, seed int64) ml.FeatureVectorSource {
	rng := rand.New(rand.NewSource(seed ^ 0x5deece66d))
	n := src.NumVectors()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.Intn(n)
	}
	return ml.NewSubsetSource(src, indices)
}

func (tr *RandomForestTrainer) logSummary(logger nlplog.Interface, task string, forest *RandomForest, runs []trainStats, elapsed time.Duration) {
	var nodes int
	var accuracies stats.Float64Data
	for i, t := range forest.trees {
		nodes += t.NumNodes()
		if runs[i].heldOut > 0 {
			accuracies = append(accuracies, runs[i].accuracy)
		}
	}
	logger.Printf("task %q: trained %d trees with %s nodes on %d threads in %v",
		task, forest.NumTrees(), humanize.Comma(int64(nodes)), tr.opts.NumThreads, elapsed)
	if len(accuracies) > 0 {
		mean, _ := stats.Mean(accuracies)
		lo, _ := stats.Min(accuracies)
		hi, _ := stats.Max(accuracies)
		logger.Printf("task %q: held-out accuracy mean %.4f, min %.4f, max %.4f", task, mean, lo, hi)
	}
}
