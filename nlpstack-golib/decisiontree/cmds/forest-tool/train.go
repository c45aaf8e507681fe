package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/danyaljj/nlpstack/nlpstack-golib/cmdline"
	"github.com/danyaljj/nlpstack/nlpstack-golib/decisiontree"
	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/nlplog"
	humanize "github.com/dustin/go-humanize"
)

var trainCmd = cmdline.Command{
	Name:     "train",
	Synopsis: "train one classifier per task from JSON-lines examples",
	Args: &trainArgs{
		ModelDir: "models",
	},
}

type trainArgs struct {
	In       []string `arg:"positional,required" help:"JSON-lines example files or glob patterns, optionally gzipped"`
	ModelDir string   `arg:"--models" help:"directory to write models and indices to"`
	Task     string   `help:"task for examples that do not name one"`
	Config   string   `help:"YAML omnibus trainer config; the built-in routing is used if empty"`
	Threads  int      `help:"training threads for the built-in routing, 0 for the default"`
	Verbose  bool     `arg:"-v" help:"log training progress"`
}

func (args *trainArgs) Handle() (err error) {
	logger := nlplog.For("train").WithDurations()
	var progress nlplog.Interface
	if args.Verbose {
		progress = logger
	}

	start := time.Now()
	examples, err := readExampleFiles(args.In, args.Task)
	if err != nil {
		return err
	}
	tasks, byTask := groupByTask(examples)
	logger.Durations.Since("read examples", start)
	logger.Printf("read %s examples for %d tasks", humanize.Comma(int64(len(examples))), len(tasks))

	trainer, closers, err := args.trainer(progress)
	if err != nil {
		return err
	}
	for _, c := range closers {
		defer errors.Defer(&err, c.Close)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)
	go func() {
		select {
		case <-interrupt:
			logger.Println("interrupted, abandoning training")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := os.MkdirAll(args.ModelDir, 0755); err != nil {
		return err
	}
	for _, task := range tasks {
		start := time.Now()
		idx := newTaskIndex()
		src, err := idx.source(task, byTask[task])
		if err != nil {
			return err
		}
		model, err := trainer.Train(ctx, src)
		if err != nil {
			return err
		}
		if err := decisiontree.SaveFile(modelPath(args.ModelDir, task), model); err != nil {
			return errors.Wrapf(err, "saving model for task %q", task)
		}
		if err := idx.write(indexPath(args.ModelDir, task)); err != nil {
			return errors.Wrapf(err, "saving index for task %q", task)
		}
		logger.Durations.Since(task, start)
		logger.Printf("task %q: %s vectors, %d features, %d outcomes", task,
			humanize.Comma(int64(src.NumVectors())), idx.Features.Len(), len(src.AllOutcomes()))
	}

	logger.Durations.Flush(logger)
	return nil
}

func (args *trainArgs) trainer(logger nlplog.Interface) (decisiontree.Trainer, []io.Closer, error) {
	if args.Config == "" {
		trainer, err := decisiontree.DefaultOmnibusTrainer(args.Threads, logger)
		return trainer, nil, err
	}

	f, err := os.Open(args.Config)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	config, err := decisiontree.LoadOmnibusConfig(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "loading %s", args.Config)
	}
	return config.Build(logger)
}
