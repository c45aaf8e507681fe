package nlplog

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
)

var flags = log.LstdFlags | log.Lshortfile | log.Lmicroseconds

// Discard drops every log line
var Discard = New(ioutil.Discard, "")

// Logger wraps a standard library logger with a component prefix and a
// timing table for multi-phase jobs such as training.
type Logger struct {
	Default   *log.Logger
	Durations Durations
}

// Interface encapsulates the relevant methods of log.Logger
type Interface interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// New returns a Logger writing to w; a non-empty component is rendered as
// "[component] " at the start of each line.
func New(w io.Writer, component string) *Logger {
	var prefix string
	if component != "" {
		prefix = fmt.Sprintf("[%s] ", component)
	}
	return &Logger{
		Default: log.New(w, prefix, flags),
	}
}

// For returns a stderr Logger for the given component
func For(component string) *Logger {
	return New(os.Stderr, component)
}

// OrDiscard returns i, or Discard if i is nil
func OrDiscard(i Interface) Interface {
	if i == nil {
		return Discard
	}
	return i
}

// Printf implements Interface
func (l *Logger) Printf(format string, v ...interface{}) {
	l.Default.Output(2, fmt.Sprintf(format, v...))
}

// Println implements Interface
func (l *Logger) Println(v ...interface{}) {
	l.Default.Output(2, fmt.Sprintln(v...))
}
