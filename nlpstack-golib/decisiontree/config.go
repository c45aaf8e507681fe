package decisiontree

import (
	"io"
	"io/ioutil"
	"strings"
	"time"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/nlplog"
	yaml "gopkg.in/yaml.v2"
)

// OmnibusConfig describes an OmnibusTrainer in YAML:
//
//	default: rf
//	trainers:
//	  - name: dt
//	    prefix: dt
//	    numTrees: 1
//	    gain: {metric: multinomial, minimum: 0.5}
//	  - name: rf
//	    numTrees: 10
//	    bagging: true
//	    featuresExaminedPerNode: 0.1
type OmnibusConfig struct {
	Default  string          `yaml:"default"`
	Trainers []TrainerConfig `yaml:"trainers"`
}

// TrainerConfig describes one RandomForestTrainer of an OmnibusConfig.
type TrainerConfig struct {
	Name   string `yaml:"name"`
	Prefix string `yaml:"prefix"`

	NumTrees                int        `yaml:"numTrees"`
	Threads                 int        `yaml:"threads"`
	Bagging                 bool       `yaml:"bagging"`
	FeaturesExaminedPerNode *float64   `yaml:"featuresExaminedPerNode"`
	ValidationFraction      float64    `yaml:"validationFraction"`
	MaxDepth                int        `yaml:"maxDepth"`
	MinSplit                int        `yaml:"minSplit"`
	Seed                    int64      `yaml:"seed"`
	Gain                    GainConfig `yaml:"gain"`
	// Timeout is a time.ParseDuration string; empty means DefaultTrainingTimeout.
	Timeout string `yaml:"timeout"`
	// Staging is "memory" (default) or "disk".
	Staging    string `yaml:"staging"`
	StagingDir string `yaml:"stagingDir"`
}

// GainConfig selects a GainMetric.
type GainConfig struct {
	// Metric is "entropy" (default) or "multinomial".
	Metric  string  `yaml:"metric"`
	Minimum float64 `yaml:"minimum"`
}

// LoadOmnibusConfig parses a YAML OmnibusConfig.
func LoadOmnibusConfig(r io.Reader) (*OmnibusConfig, error) {
	buf, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var config OmnibusConfig
	if err := yaml.UnmarshalStrict(buf, &config); err != nil {
		return nil, errors.Wrapf(err, "parsing omnibus trainer config")
	}
	return &config, nil
}

// Build constructs the configured OmnibusTrainer. Trainers with a prefix become
// routes; Default names the trainer used for everything else. The returned
// closers must be closed once training is done, they release disk staging
// areas.
func (c *OmnibusConfig) Build(logger nlplog.Interface) (*OmnibusTrainer, []io.Closer, error) {
	var closers []io.Closer
	fail := func(err error) (*OmnibusTrainer, []io.Closer, error) {
		for _, c := range closers {
			c.Close()
		}
		return nil, nil, err
	}

	omnibus := &OmnibusTrainer{}
	byName := make(map[string]Trainer)
	for _, tc := range c.Trainers {
		if _, dup := byName[tc.Name]; dup {
			return fail(invalidConfig("trainer %q defined twice", tc.Name))
		}
		opts, closer, err := tc.options(logger)
		if closer != nil {
			closers = append(closers, closer)
		}
		if err != nil {
			return fail(errors.Wrapf(err, "trainer %q", tc.Name))
		}
		tr, err := NewRandomForestTrainer(opts)
		if err != nil {
			return fail(errors.Wrapf(err, "trainer %q", tc.Name))
		}
		byName[tc.Name] = tr
		if tc.Prefix != "" {
			omnibus.Routes = append(omnibus.Routes, Route{Prefix: tc.Prefix, Trainer: tr})
		}
	}

	if c.Default != "" {
		tr, ok := byName[c.Default]
		if !ok {
			return fail(invalidConfig("default trainer %q is not defined", c.Default))
		}
		omnibus.Default = tr
	}
	if omnibus.Default == nil && len(omnibus.Routes) == 0 {
		return fail(invalidConfig("omnibus config defines no trainers"))
	}
	return omnibus, closers, nil
}

func (tc TrainerConfig) options(logger nlplog.Interface) (ForestTrainerOptions, io.Closer, error) {
	opts := ForestTrainerOptions{
		NumTrees:   tc.NumTrees,
		NumThreads: tc.Threads,
		UseBagging: tc.Bagging,
		Logger:     logger,
		Tree: TrainerOptions{
			FeaturesExaminedPerNode: 1,
			ValidationFraction:      tc.ValidationFraction,
			MaxDepth:                tc.MaxDepth,
			MinSplit:                tc.MinSplit,
			Seed:                    tc.Seed,
		},
	}
	if opts.NumTrees == 0 {
		opts.NumTrees = 1
	}
	if tc.FeaturesExaminedPerNode != nil {
		opts.Tree.FeaturesExaminedPerNode = *tc.FeaturesExaminedPerNode
	}

	switch strings.ToLower(tc.Gain.Metric) {
	case "", "entropy":
		opts.Tree.GainMetric = EntropyGainMetric{Minimum: tc.Gain.Minimum}
	case "multinomial":
		opts.Tree.GainMetric = MultinomialGainMetric{Minimum: tc.Gain.Minimum}
	default:
		return opts, nil, invalidConfig("unknown gain metric %q", tc.Gain.Metric)
	}

	if tc.Timeout != "" {
		d, err := time.ParseDuration(tc.Timeout)
		if err != nil {
			return opts, nil, invalidConfig("bad timeout %q: %v", tc.Timeout, err)
		}
		opts.Timeout = d
	}

	switch strings.ToLower(tc.Staging) {
	case "", "memory":
		opts.Stager = MemoryStager{}
	case "disk":
		stager, err := NewDiskStager(DiskStagerOptions{Dir: tc.StagingDir, Logger: logger})
		if err != nil {
			return opts, nil, err
		}
		opts.Stager = stager
		return opts, stager, nil
	default:
		return opts, nil, invalidConfig("unknown staging mode %q", tc.Staging)
	}
	return opts, nil, nil
}
