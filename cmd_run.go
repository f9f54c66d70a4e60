package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"foxscript/value"
	"foxscript/stdlib"
)

// runCmd implements the `run` command: compile and execute a .fox file
// start to finish, driving lexer → parser → bytecode → vm.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute FoxScript code from a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Execute FoxScript code.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}

	s := NewScript()
	s.RegisterFunction("log", []value.Kind{}, true, stdlib.Log)

	if err := s.Load(args[0]); err != nil {
		for _, e := range s.Errors() {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}
	if err := s.Execute(); err != nil {
		for _, e := range s.Errors() {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
