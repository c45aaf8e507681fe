package decisiontree

import (
	"encoding/json"
	"io"
	"os"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
	"github.com/danyaljj/nlpstack/nlpstack-golib/ml"
)

type jsonTree struct {
	Outcomes          []int          `json:"outcomes"`
	Child             []map[int]int  `json:"child"`
	SplittingFeature  []*int         `json:"splittingFeature"`
	OutcomeHistograms []ml.Histogram `json:"outcomeHistograms"`
}

// MarshalJSON serializes the tree's node arrays field for field.
func (t *DecisionTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonTree{
		Outcomes:          t.outcomes,
		Child:             t.child,
		SplittingFeature:  t.splittingFeature,
		OutcomeHistograms: t.histograms,
	})
}

// UnmarshalJSON loads a tree written by MarshalJSON and validates its
// structure, returning ErrInvalidTree for malformed trees.
func (t *DecisionTree) UnmarshalJSON(b []byte) error {
	var jt jsonTree
	if err := json.Unmarshal(b, &jt); err != nil {
		return err
	}
	return t.init(jt.Outcomes, jt.Child, jt.SplittingFeature, jt.OutcomeHistograms)
}

type jsonForest struct {
	AllOutcomes   []int           `json:"allOutcomes"`
	DecisionTrees []*DecisionTree `json:"decisionTrees"`
}

// MarshalJSON serializes the forest's outcomes and member trees.
func (f *RandomForest) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonForest{
		AllOutcomes:   f.outcomes,
		DecisionTrees: f.trees,
	})
}

// UnmarshalJSON loads a forest written by MarshalJSON.
func (f *RandomForest) UnmarshalJSON(b []byte) error {
	var jf jsonForest
	if err := json.Unmarshal(b, &jf); err != nil {
		return err
	}
	loaded, err := NewRandomForest(jf.AllOutcomes, jf.DecisionTrees)
	if err != nil {
		return err
	}
	f.outcomes, f.trees = loaded.outcomes, loaded.trees
	return nil
}

// WriteTree writes t as JSON.
func WriteTree(w io.Writer, t *DecisionTree) error {
	return json.NewEncoder(w).Encode(t)
}

// ReadTree reads a tree written by WriteTree.
func ReadTree(r io.Reader) (*DecisionTree, error) {
	var t DecisionTree
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrapf(err, "decoding decision tree")
	}
	return &t, nil
}

// WriteForest writes f as JSON.
func WriteForest(w io.Writer, f *RandomForest) error {
	return json.NewEncoder(w).Encode(f)
}

// ReadForest reads a forest written by WriteForest.
func ReadForest(r io.Reader) (*RandomForest, error) {
	var f RandomForest
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrapf(err, "decoding random forest")
	}
	return &f, nil
}

const (
	decisionTreeType = "decisionTree"
	randomForestType = "randomForest"
)

type envelope struct {
	Type  string          `json:"type"`
	Model json.RawMessage `json:"model"`
}

// Save writes c in a tagged envelope so Load can tell trees from forests.
func Save(w io.Writer, c Classifier) error {
	var typ string
	switch c.(type) {
	case *DecisionTree:
		typ = decisionTreeType
	case *RandomForest:
		typ = randomForestType
	default:
		return errors.Errorf("cannot save classifier of type %T", c)
	}
	model, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(envelope{Type: typ, Model: model})
}

// Load reads a classifier written by Save.
func Load(r io.Reader) (Classifier, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, errors.Wrapf(err, "decoding classifier envelope")
	}
	switch env.Type {
	case decisionTreeType:
		var t DecisionTree
		if err := json.Unmarshal(env.Model, &t); err != nil {
			return nil, errors.Wrapf(err, "decoding decision tree")
		}
		return &t, nil
	case randomForestType:
		var f RandomForest
		if err := json.Unmarshal(env.Model, &f); err != nil {
			return nil, errors.Wrapf(err, "decoding random forest")
		}
		return &f, nil
	default:
		return nil, errors.Errorf("unknown classifier type %q", env.Type)
	}
}

// SaveFile writes c to path.
func SaveFile(path string, c Classifier) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, f.Close)
	return Save(f, c)
}

// LoadFile reads a classifier from path.
func LoadFile(path string) (Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return c, nil
}
