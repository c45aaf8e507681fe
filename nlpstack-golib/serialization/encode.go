package serialization

import (
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	yaml "gopkg.in/yaml.v2"
)

// Encode writes obj to path in the format given by the file extension, one of
// .json, .jsonl, .gob, .yaml or .yml, gzipped if the path ends in .gz.
func Encode(path string, obj interface{}) (err error) {
	enc, err := NewEncoder(path)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, enc.Close)
	return enc.Encode(obj)
}

// Encoder matches gob.Encoder, json.Encoder and yaml.Encoder
type Encoder interface {
	Encode(interface{}) error
}

// EncodeCloser is an Encoder that also closes its underlying stream
type EncodeCloser struct {
	encoder Encoder
	closers []io.Closer
}

// Encode writes x to the underlying stream
func (e *EncodeCloser) Encode(x interface{}) error {
	return e.encoder.Encode(x)
}

// Close flushes and closes the underlying streams, innermost first
func (e *EncodeCloser) Close() error {
	var err error
	for i := len(e.closers) - 1; i >= 0; i-- {
		err = errors.Combine(err, e.closers[i].Close())
	}
	return err
}

// NewEncoder creates path and returns an encoder writing in the format given by
// its extension; see Encode.
func NewEncoder(path string) (*EncodeCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	var w io.Writer = f
	closers := []io.Closer{f}

	name := path
	if strings.HasSuffix(name, ".gz") {
		name = strings.TrimSuffix(name, ".gz")
		gz := gzip.NewWriter(f)
		w = gz
		closers = append(closers, gz)
	}

	var e Encoder
	switch {
	case strings.HasSuffix(name, ".json"), strings.HasSuffix(name, ".jsonl"):
		e = json.NewEncoder(w)
	case strings.HasSuffix(name, ".gob"):
		e = gob.NewEncoder(w)
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		y := yaml.NewEncoder(w)
		e = y
		closers = append(closers, y)
	default:
		f.Close()
		os.Remove(path)
		return nil, errors.Errorf("could not find encoder for %s", path)
	}

	return &EncodeCloser{
		encoder: e,
		closers: closers,
	}, nil
}
