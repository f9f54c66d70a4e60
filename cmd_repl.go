package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"foxscript/ast"
	"foxscript/bytecode"
	"foxscript/lexer"
	"foxscript/parser"
	"foxscript/stdlib"
	"foxscript/token"
	"foxscript/vm"
)

// replCmd implements the `repl` command: an interactive session with
// history and line editing via readline, buffering input until braces
// balance, then recompiling and re-running the whole accumulated program
// on each line.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive FoxScript session" }
func (*replCmd) Usage() string {
	return `repl:
  Start interactive REPL session.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to FoxScript!")

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Printf("💥 failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	externals := map[uint32]bytecode.ExternalFunc{
		bytecode.Hash32(token.FNV1a([]byte("log"))): stdlib.Log,
	}

	var buffer strings.Builder
	var accumulated []ast.Stmt

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Printf("💥 %v\n", err)
			return subcommands.ExitFailure
		}
		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens := lexer.New(source).Scan()
		if !braceBalanced(tokens) {
			continue
		}

		p := parser.New(tokens)
		p.RegisterExternalFunction("log")
		stmts := p.Parse()
		if p.HasErrors() {
			if allErrorsAtEOF(p, tokens) {
				continue
			}
			for _, e := range p.Errors() {
				fmt.Println(e)
			}
			buffer.Reset()
			continue
		}

		accumulated = append(accumulated, stmts...)
		e := bytecode.NewEmitter(nil)
		bc := e.Emit(accumulated)
		if e.HasErrors() {
			for _, e := range e.Errors() {
				fmt.Println(e)
			}
			accumulated = accumulated[:len(accumulated)-len(stmts)]
			buffer.Reset()
			continue
		}

		m := vm.New(bc, externals)
		if runErr := m.Run(); runErr != nil {
			fmt.Println(runErr)
		}
		for _, diag := range m.Errors() {
			fmt.Println(diag)
		}
		buffer.Reset()
	}
}

// braceBalanced reports whether tokens contains no more `{` than `}` —
// the REPL waits for more input rather than reporting a syntax error when
// the user is still mid-block.
func braceBalanced(tokens []token.Token) bool {
	depth := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		}
	}
	return depth <= 0
}

// allErrorsAtEOF reports whether every parse error points at the final
// (EOF) token — a signal the user hasn't finished typing, not a genuine
// syntax error.
func allErrorsAtEOF(p *parser.Parser, tokens []token.Token) bool {
	if len(tokens) == 0 {
		return false
	}
	eof := tokens[len(tokens)-1]
	for _, err := range p.Errors() {
		syntaxErr, ok := err.(parser.SyntaxError)
		if !ok {
			return false
		}
		if syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return len(p.Errors()) > 0
}
