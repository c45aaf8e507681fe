package decisiontree

import (
	"io"

	"github.com/danyaljj/nlpstack/nlpstack-golib/diskcache"
	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/nlplog"
	humanize "github.com/dustin/go-humanize"
	"github.com/golang/snappy"
	uuid "github.com/satori/go.uuid"
)

// Stager hands each freshly trained tree of an ensemble off before the
// ensemble is assembled. Stage is called concurrently, with a distinct key
// per tree.
type Stager interface {
	Stage(key string, t *DecisionTree) (*DecisionTree, error)
}

// MemoryStager keeps trained trees in memory as they are.
type MemoryStager struct{}

// Stage implements Stager
func (MemoryStager) Stage(key string, t *DecisionTree) (*DecisionTree, error) {
	return t, nil
}

// DiskStager writes every trained tree to a directory, snappy compressed, and
// reloads it, so only the compact loaded form outlives the training job. Keys
// are namespaced by a per-stager run id, so stagers may share a directory.
type DiskStager struct {
	run    string
	cache  *diskcache.Cache
	keep   bool
	logger nlplog.Interface
}

// DiskStagerOptions configures a DiskStager.
type DiskStagerOptions struct {
	// Dir holds the staged trees; a temporary directory is used if empty.
	Dir string
	// Keep leaves staged files in place instead of deleting them once reloaded.
	Keep   bool
	Logger nlplog.Interface
}

// NewDiskStager opens the staging directory.
func NewDiskStager(opts DiskStagerOptions) (*DiskStager, error) {
	var cache *diskcache.Cache
	var err error
	if opts.Dir == "" {
		cache, err = diskcache.OpenTemp(diskcache.Options{})
	} else {
		cache, err = diskcache.Open(opts.Dir, diskcache.Options{})
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening tree staging area")
	}
	run, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrapf(err, "generating staging run id")
	}
	return &DiskStager{
		run:    run.String(),
		cache:  cache,
		keep:   opts.Keep,
		logger: nlplog.OrDiscard(opts.Logger),
	}, nil
}

// Dir returns the staging directory.
func (s *DiskStager) Dir() string {
	return s.cache.Path
}

// Run returns the id that namespaces this stager's keys.
func (s *DiskStager) Run() string {
	return s.run
}

// Stage implements Stager
func (s *DiskStager) Stage(key string, t *DecisionTree) (*DecisionTree, error) {
	name := []byte(s.run + "/" + key)
	n, err := s.write(name, t)
	if err != nil {
		return nil, errors.Wrapf(err, "staging %s", key)
	}

	r, err := s.cache.GetReader(name)
	if err != nil {
		return nil, errors.Wrapf(err, "reopening staged %s", key)
	}
	loaded, err := ReadTree(snappy.NewReader(r))
	r.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "reloading staged %s", key)
	}

	s.logger.Printf("staged %s in run %s: %d nodes, %s compressed", key, s.run, loaded.NumNodes(), humanize.Bytes(uint64(n)))
	if !s.keep {
		if err := s.cache.Delete(name); err != nil {
			return nil, errors.Wrapf(err, "removing staged %s", key)
		}
	}
	return loaded, nil
}

func (s *DiskStager) write(name []byte, t *DecisionTree) (n int64, err error) {
	w, err := s.cache.PutWriter(name)
	if err != nil {
		return 0, err
	}
	defer errors.Defer(&err, w.Close)

	cw := &countingWriter{w: w}
	sw := snappy.NewBufferedWriter(cw)
	if err := WriteTree(sw, t); err != nil {
		sw.Close()
		return 0, err
	}
	if err := sw.Close(); err != nil {
		return 0, err
	}
	return cw.n, nil
}

// Close removes the staging directory unless staged files are kept.
func (s *DiskStager) Close() error {
	if s.keep {
		return nil
	}
	return s.cache.RemoveAll()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
