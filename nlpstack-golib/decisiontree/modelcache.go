package decisiontree

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// ModelCache keeps the most recently used classifiers loaded from disk, keyed
// by path. It is safe for concurrent use; concurrent misses on the same path
// may load it more than once.
type ModelCache struct {
	cache *lru.Cache
	load  func(path string) (Classifier, error)

	m     sync.Mutex
	loads int
}

// NewModelCache returns a cache holding at most size classifiers.
func NewModelCache(size int) (*ModelCache, error) {
	if size < 1 {
		return nil, invalidConfig("model cache size must be positive, got %d", size)
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ModelCache{cache: cache, load: LoadFile}, nil
}

// Get returns the classifier stored at path, loading it on a miss.
func (c *ModelCache) Get(path string) (Classifier, error) {
	if v, ok := c.cache.Get(path); ok {
		return v.(Classifier), nil
	}
	model, err := c.load(path)
	if err != nil {
		return nil, err
	}
	c.m.Lock()
	c.loads++
	c.m.Unlock()
	c.cache.Add(path, model)
	return model, nil
}

// Purge drops every cached classifier.
func (c *ModelCache) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached classifiers.
func (c *ModelCache) Len() int {
	return c.cache.Len()
}

// Loads returns how many times a classifier was loaded from disk.
func (c *ModelCache) Loads() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.loads
}
