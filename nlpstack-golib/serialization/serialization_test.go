package serialization

import (
	"bytes"
	"compress/gzip"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct {
	Name  string
	Count int
}

func gzipString(x string) []byte {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	w.Write([]byte(x))
	w.Close()
	return b.Bytes()
}

func TestJSONLines(t *testing.T) {
	var ts []*transition
	d := []byte("{\"Name\": \"SHIFT\", \"Count\": 2}\n{\"Name\": \"REDUCE\", \"Count\": 3}\n")
	err := DecodeAs(bytes.NewBuffer(d), "arcs.jsonl", func(x *transition) {
		ts = append(ts, x)
	})
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, "REDUCE", ts[1].Name)
}

func TestGzippedJSON(t *testing.T) {
	var n int
	d := gzipString(`{"Name": "SHIFT"}{"Name": "REDUCE"}`)
	err := DecodeAs(bytes.NewBuffer(d), "arcs.json.gz", func(x *transition) error {
		n++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStopAndAbort(t *testing.T) {
	d := `{"Name": "SHIFT"}{"Name": "REDUCE"}`

	var n int
	err := DecodeAs(bytes.NewBufferString(d), "arcs.json", func(x *transition) error {
		n++
		return ErrStop
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	err = DecodeAs(bytes.NewBufferString(d), "arcs.json", func(x *transition) error {
		return errors.New("abort")
	})
	assert.EqualError(t, err, "error decoding arcs.json: abort")

	err = DecodeAs(bytes.NewBufferString(`{"Name": `), "arcs.json", func(x *transition) {})
	assert.Error(t, err)

	err = DecodeAs(bytes.NewBufferString(d), "arcs.csv", func(x *transition) {})
	assert.EqualError(t, err, "could not find decoder for arcs.csv")
}

func TestDecodeOne(t *testing.T) {
	var x transition
	require.NoError(t, DecodeAs(bytes.NewBufferString("name: SHIFT\ncount: 4\n"), "x.yaml", &x))
	assert.Equal(t, transition{Name: "SHIFT", Count: 4}, x)
}

func TestEncodeDecodeFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "serialization")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	for _, name := range []string{"t.json", "t.json.gz", "t.gob", "t.yaml.gz"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Encode(path, transition{Name: "LEFT-ARC", Count: 7}), name)

		var x transition
		require.NoError(t, Decode(path, &x), name)
		assert.Equal(t, transition{Name: "LEFT-ARC", Count: 7}, x, name)
	}

	_, err = NewEncoder(filepath.Join(dir, "t.txt"))
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(dir, "t.txt"))
	assert.True(t, os.IsNotExist(err))
}
