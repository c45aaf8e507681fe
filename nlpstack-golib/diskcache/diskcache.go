// Package diskcache stores values as files in a directory, one file per key.
// It backs the disk-staged mode of random forest training, where each trained
// tree is written out and read back before the ensemble is assembled.
package diskcache

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	spooky "github.com/dgryski/go-spooky"
)

var (
	// ErrNoSuchKey is returned by Cache.Get when a key does not exist in the cache
	ErrNoSuchKey = errors.New("key does not exist in cache")
)

// Options represents options for a cache
type Options struct {
	// MaxSize is the maximum total size of the cache in bytes, 0 means unbounded
	MaxSize         int64
	BytesUntilFlush int64
}

// Cache represents a disk-based cache with least-recently-written eviction
type Cache struct {
	Path string
	opts Options

	m               sync.Mutex
	bytesSinceFlush int64
}

// Open creates a cache with contents stored as files in the given directory.
// It creates the directory if it does not already exist.
func Open(path string, opts Options) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating cache dir %s", path)
	}
	return &Cache{
		Path: path,
		opts: opts,
	}, nil
}

// OpenTemp creates a temporary directory and returns a cache backed by it.
// Call RemoveAll when done.
func OpenTemp(opts Options) (*Cache, error) {
	path, err := ioutil.TempDir("", "nlpstack-cache-")
	if err != nil {
		return nil, err
	}
	return Open(path, opts)
}

// Get looks up the value for the given key and returns it. If the key does not
// exist then ErrNoSuchKey is returned.
func (c *Cache) Get(key []byte) ([]byte, error) {
	r, err := c.GetReader(key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ioutil.ReadAll(r)
}

// GetReader looks up the value for the given key and returns a reader to it. If
// the key does not exist then ErrNoSuchKey is returned.
func (c *Cache) GetReader(key []byte) (io.ReadCloser, error) {
	r, err := os.Open(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSuchKey
		}
		return nil, err
	}
	return r, nil
}

// Exists reports whether the key exists.
func (c *Cache) Exists(key []byte) bool {
	_, err := os.Stat(c.path(key))
	return err == nil
}

// Put adds a key/value pair to the cache.
func (c *Cache) Put(key []byte, val []byte) error {
	if err := c.recordWrite(int64(len(val))); err != nil {
		return errors.Wrapf(err, "error cleaning up cache")
	}
	return ioutil.WriteFile(c.path(key), val, 0644)
}

// PutWriter adds a key/value pair to the cache via an io.WriteCloser. The value
// is visible to readers once Close returns.
func (c *Cache) PutWriter(key []byte) (io.WriteCloser, error) {
	final := c.path(key)
	f, err := ioutil.TempFile(c.Path, ".partial-")
	if err != nil {
		return nil, err
	}
	return &putWriter{f: f, c: c, final: final}, nil
}

// Delete removes the value for key, if any.
func (c *Cache) Delete(key []byte) error {
	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll deletes the cache directory and everything in it.
func (c *Cache) RemoveAll() error {
	return os.RemoveAll(c.Path)
}

func (c *Cache) path(key []byte) string {
	return filepath.Join(c.Path, hash(key))
}

type putWriter struct {
	f       *os.File
	c       *Cache
	final   string
	written int64
}

func (p *putWriter) Write(buf []byte) (int, error) {
	n, err := p.f.Write(buf)
	p.written += int64(n)
	return n, err
}

func (p *putWriter) Close() error {
	if err := p.f.Close(); err != nil {
		os.Remove(p.f.Name())
		return err
	}
	if err := p.c.recordWrite(p.written); err != nil {
		log.Printf("error cleaning up cache in putWriter: %v", err)
	}
	return os.Rename(p.f.Name(), p.final)
}

func (c *Cache) recordWrite(n int64) error {
	if c.opts.MaxSize <= 0 {
		return nil
	}
	c.m.Lock()
	defer c.m.Unlock()
	c.bytesSinceFlush += n
	if c.bytesSinceFlush <= c.opts.BytesUntilFlush {
		return nil
	}
	if err := c.flushCapacity(n); err != nil {
		return err
	}
	c.bytesSinceFlush = 0
	return nil
}

// flushCapacity deletes old entries until there are at least n bytes left
// in the cache budget.
func (c *Cache) flushCapacity(n int64) error {
	files, err := ioutil.ReadDir(c.Path)
	if err != nil {
		return err
	}

	var sum int64
	for _, f := range files {
		sum += f.Size()
	}

	if sum+n <= c.opts.MaxSize {
		return nil
	}

	sort.Sort(byModTime(files))

	for _, f := range files {
		if err := os.Remove(filepath.Join(c.Path, f.Name())); err != nil {
			return err
		}
		sum -= f.Size()
		if sum+n <= c.opts.MaxSize {
			break
		}
	}
	return nil
}

type byModTime []os.FileInfo

func (xs byModTime) Len() int           { return len(xs) }
func (xs byModTime) Swap(i, j int)      { xs[i], xs[j] = xs[j], xs[i] }
func (xs byModTime) Less(i, j int) bool { return xs[i].ModTime().Before(xs[j].ModTime()) }

func hash(key []byte) string {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], spooky.Hash64(key))
	return hex.EncodeToString(buf[:])
}
