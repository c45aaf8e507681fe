package decisiontree

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelCache(t *testing.T) {
	dir, err := ioutil.TempDir("", "model-cache")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	a, b := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")
	require.NoError(t, SaveFile(a, fixtureTree(t)))
	require.NoError(t, SaveFile(b, stumpTree(t)))

	cache, err := NewModelCache(1)
	require.NoError(t, err)

	first, err := cache.Get(a)
	require.NoError(t, err)
	again, err := cache.Get(a)
	require.NoError(t, err)
	assert.True(t, first == again)
	assert.Equal(t, 1, cache.Loads())

	_, err = cache.Get(b)
	require.NoError(t, err)
	_, err = cache.Get(a)
	require.NoError(t, err)
	assert.Equal(t, 3, cache.Loads(), "a was evicted by b")
	assert.Equal(t, 1, cache.Len())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Get(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	_, err = NewModelCache(0)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}
