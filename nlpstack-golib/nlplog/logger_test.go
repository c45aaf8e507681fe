package nlplog

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "forest")
	l.Printf("trained %d trees", 3)
	assert.Contains(t, buf.String(), "[forest] ")
	assert.Contains(t, buf.String(), "trained 3 trees")
}

func TestDurationsFlush(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "").WithDurations()
	l.Durations.Record("grow", 2*time.Second)
	l.Durations.Record("prune", time.Millisecond)
	require.Equal(t, 2, l.Durations.Len())

	l.Durations.Flush(l)
	out := buf.String()
	assert.Contains(t, out, "grow")
	assert.Contains(t, out, "2s")
	assert.Contains(t, out, "prune")
	assert.Equal(t, 0, l.Durations.Len())
}

func TestOrDiscard(t *testing.T) {
	assert.Equal(t, Interface(Discard), OrDiscard(nil))
	l := New(&bytes.Buffer{}, "x")
	assert.Equal(t, Interface(l), OrDiscard(l))
}
