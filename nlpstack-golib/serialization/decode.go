package serialization

import (
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	yaml "gopkg.in/yaml.v2"
)

// Decoder matches gob.Decoder, json.Decoder and yaml.Decoder
type Decoder interface {
	Decode(interface{}) error
}

// ErrStop is returned from handlers to cease processing without an error
var ErrStop = errors.New("stop processing requested")

func decodeWith(d Decoder, elemType reflect.Type, handler func(interface{}) error) error {
	for {
		elem := reflect.New(elemType).Interface()
		err := d.Decode(elem)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		err = handler(elem)
		if err == ErrStop {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Decode loads a series of objects from a file. A .gz suffix means the
// contents are gzipped; the remaining extension picks the encoding, one of
// .json, .jsonl, .gob, .yaml or .yml.
//
// The handler is either a pointer, which receives the first object, or a
// function of one pointer argument returning nothing or an error, which is
// called for every object:
//
//	var examples []example
//	err := serialization.Decode("train.jsonl.gz", func(ex *example) {
//		examples = append(examples, *ex)
//	})
func Decode(path string, handler interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return DecodeAs(f, path, handler)
}

// DecodeAs is like Decode but reads from r, using path only to determine the
// compression and encoding.
func DecodeAs(r io.Reader, path string, handler interface{}) error {
	inpath := path
	if strings.HasSuffix(path, ".gz") {
		path = strings.TrimSuffix(path, ".gz")
		rd, err := gzip.NewReader(r)
		if err != nil {
			return errors.Wrapf(err, "error loading %s", inpath)
		}
		defer rd.Close()
		r = rd
	}

	var d Decoder
	switch {
	case strings.HasSuffix(path, ".json"), strings.HasSuffix(path, ".jsonl"):
		d = json.NewDecoder(r)
	case strings.HasSuffix(path, ".gob"):
		d = gob.NewDecoder(r)
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		d = yaml.NewDecoder(r)
	default:
		return errors.Errorf("could not find decoder for %s", inpath)
	}

	f := reflect.ValueOf(handler)
	if f.Kind() == reflect.Ptr {
		return d.Decode(handler)
	}
	if f.Kind() != reflect.Func {
		panic("expected a function or a pointer as last parameter")
	}

	funcType := f.Type()
	if funcType.NumIn() != 1 {
		panic("expected a function with one input parameter")
	}
	if funcType.NumOut() > 1 {
		panic("expected a function with zero or one output parameter")
	}
	ptrType := funcType.In(0)
	if ptrType.Kind() != reflect.Ptr {
		panic("expected function parameter to be a pointer")
	}

	err := decodeWith(d, ptrType.Elem(), func(x interface{}) error {
		ret := f.Call([]reflect.Value{reflect.ValueOf(x)})
		if len(ret) == 0 || ret[0].IsNil() {
			return nil
		}
		return ret[0].Interface().(error)
	})
	if err != nil {
		return errors.Wrapf(err, "error decoding %s", inpath)
	}
	return nil
}
