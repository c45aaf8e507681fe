// Package cmdline dispatches "prog COMMAND [ARGS]" style command lines to
// go-arg parsed handlers.
package cmdline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	arg "github.com/alexflint/go-arg"
	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
)

// Command is one action of a multi-command program. Args is a go-arg
// struct pointer holding the defaults; it is filled in place when parsed.
type Command struct {
	Name     string
	Synopsis string
	Args     Handler
}

// Handler runs a command once its arguments are parsed
type Handler interface {
	Handle() error
}

// Validator is implemented by Args that check their values beyond parsing
type Validator interface {
	Validate() error
}

// UsageError is returned by Dispatch when the command line itself is wrong;
// the usage has already been written.
type UsageError struct {
	msg string
}

func (e UsageError) Error() string {
	return e.msg
}

// Dispatch runs the command named by args[0] with the remaining args, writing
// usage and help text to w. It returns nil after printing help, a UsageError
// for bad command lines, and otherwise the handler's error.
func Dispatch(prog string, args []string, w io.Writer, cmds ...Command) error {
	if len(args) == 0 {
		writeUsage(w, prog, cmds)
		return UsageError{"no command provided"}
	}

	action, help := args[0], false
	if action == "help" {
		if len(args) < 2 {
			writeUsage(w, prog, cmds)
			fmt.Fprintf(w, "\nFor help on a specific command use %s help COMMAND\n", prog)
			return nil
		}
		action, help = args[1], true
	}

	cmd := Find(action, cmds...)
	if cmd == nil {
		writeUsage(w, prog, cmds)
		return UsageError{fmt.Sprintf("unknown command %s", action)}
	}

	parser, err := arg.NewParser(arg.Config{Program: prog + " " + action}, cmd.Args)
	if err != nil {
		return errors.Wrapf(err, "building parser for %s", action)
	}
	if help {
		parser.WriteHelp(w)
		return nil
	}

	switch err := parser.Parse(args[1:]); {
	case err == arg.ErrHelp:
		parser.WriteHelp(w)
		return nil
	case err != nil:
		parser.WriteUsage(w)
		return UsageError{err.Error()}
	}

	if v, ok := cmd.Args.(Validator); ok {
		if err := v.Validate(); err != nil {
			parser.WriteUsage(w)
			return UsageError{err.Error()}
		}
	}
	return cmd.Args.Handle()
}

// MustDispatch runs Dispatch on os.Args and exits the process with status 2
// for usage errors and 1 for failed commands.
func MustDispatch(cmds ...Command) {
	prog := "program"
	if len(os.Args) > 0 {
		prog = filepath.Base(os.Args[0])
	}
	err := Dispatch(prog, os.Args[1:], os.Stdout, cmds...)
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	if _, ok := err.(UsageError); ok {
		os.Exit(2)
	}
	os.Exit(1)
}

// Find returns the command with the given name, or nil
func Find(name string, cmds ...Command) *Command {
	for i := range cmds {
		if cmds[i].Name == name {
			return &cmds[i]
		}
	}
	return nil
}

func writeUsage(w io.Writer, prog string, cmds []Command) {
	fmt.Fprintf(w, "Usage: %s COMMAND [ARGS]\n", prog)
	fmt.Fprintf(w, "Command can be one of:\n")
	for _, cmd := range cmds {
		fmt.Fprintf(w, "  %-20s %s\n", cmd.Name, cmd.Synopsis)
	}
	fmt.Fprintf(w, "  %-20s %s\n", "help", "display this help and exit")
	fmt.Fprintf(w, "  %-20s %s\n", "help COMMAND", "display help for command and exit")
}
