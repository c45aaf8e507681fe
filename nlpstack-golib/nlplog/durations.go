package nlplog

import (
	"bytes"
	"fmt"
	"sync"
	"text/tabwriter"
	"time"
)

type duration struct {
	name     string
	duration time.Duration
}

// Durations tracks named durations; safe for concurrent Record calls
type Durations struct {
	m       sync.Mutex
	entries []duration
}

// Record records a duration
func (t *Durations) Record(name string, d time.Duration) {
	t.m.Lock()
	defer t.m.Unlock()
	t.entries = append(t.entries, duration{name, d})
}

// Since records the time elapsed since start
func (t *Durations) Since(name string, start time.Time) {
	t.Record(name, time.Since(start))
}

// Len returns the number of recorded durations
func (t *Durations) Len() int {
	t.m.Lock()
	defer t.m.Unlock()
	return len(t.entries)
}

// Flush writes the recorded durations as a table to the given handler and resets them
func (t *Durations) Flush(i Interface) {
	t.m.Lock()
	entries := t.entries
	t.entries = nil
	t.m.Unlock()

	var b bytes.Buffer
	tw := tabwriter.NewWriter(&b, 4, 4, 0, ' ', 0)
	for _, entry := range entries {
		fmt.Fprintf(tw, "   %s\t%s\n", entry.name, entry.duration)
	}
	tw.Flush()

	i.Println(b.String())
}

// WithDurations returns a derived Logger with a fresh Durations tracker
func (l *Logger) WithDurations() *Logger {
	return &Logger{Default: l.Default}
}
