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
)

// emitCmd implements the `emit` command: dump a compiled file's
// human-readable IR, and optionally its raw bytecode image as hex.
type emitCmd struct {
	disassemble  bool
	dumpBytecode bool
}

func (*emitCmd) Name() string     { return "emit" }
func (*emitCmd) Synopsis() string { return "Emit the bytecode representation of a source file" }
func (*emitCmd) Usage() string {
	return `emit <file>`
}

func (cmd *emitCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", true, "print the IR disassembly to stdout")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", false, "write the encoded bytecode image as hex to a .foxc file")
}

func (cmd *emitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
		fmt.Fprintf(os.Stderr, "💥 Parsing error:\n")
		for _, pErr := range p.Errors() {
			fmt.Fprintf(os.Stderr, "\t%v\n", pErr)
		}
		return subcommands.ExitFailure
	}

	e := bytecode.NewEmitter(nil)
	bc := e.Emit(stmts)
	if e.HasErrors() {
		fmt.Fprintf(os.Stderr, "💥 Emit error:\n")
		for _, eErr := range e.Errors() {
			fmt.Fprintf(os.Stderr, "\t%v\n", eErr)
		}
		return subcommands.ExitFailure
	}

	if cmd.disassemble {
		fmt.Print(bytecode.DumpIR(bc.IR))
	}

	if cmd.dumpBytecode {
		base := strings.TrimSuffix(path, ".fox")
		outPath := base + ".foxc"
		if err := os.WriteFile(outPath, []byte(fmt.Sprintf("%x", bc.Image)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump bytecode error:\n\t%v\n", err)
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}
