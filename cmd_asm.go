package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"foxscript/bytecode"
	"foxscript/lexer"
	"foxscript/parser"
	"foxscript/x86asm"
)

// asmCmd implements the `asm` command: render a source file's compiled
// program as textual x86 assembly via x86asm.Render, optionally to a
// file instead of stdout.
type asmCmd struct {
	outPath string
}

func (*asmCmd) Name() string     { return "asm" }
func (*asmCmd) Synopsis() string { return "Render a source file's bytecode as x86 assembly" }
func (*asmCmd) Usage() string {
	return `asm <file>`
}

func (cmd *asmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.outPath, "o", "", "write assembly to this path instead of stdout")
}

func (cmd *asmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	tokens := lexer.New(string(data)).Scan()
	p := parser.New(tokens)
	stmts := p.Parse()
	if p.HasErrors() {
		for _, pErr := range p.Errors() {
			fmt.Fprintf(os.Stderr, "\t%v\n", pErr)
		}
		return subcommands.ExitFailure
	}

	e := bytecode.NewEmitter(nil)
	bc := e.Emit(stmts)
	if e.HasErrors() {
		for _, eErr := range e.Errors() {
			fmt.Fprintf(os.Stderr, "\t%v\n", eErr)
		}
		return subcommands.ExitFailure
	}

	asm := x86asm.Render(bc)
	if cmd.outPath == "" {
		fmt.Print(asm)
		return subcommands.ExitSuccess
	}
	outPath := cmd.outPath
	if !strings.HasSuffix(outPath, ".s") {
		outPath += ".s"
	}
	if err := os.WriteFile(outPath, []byte(asm), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to write assembly:\n\t%v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
