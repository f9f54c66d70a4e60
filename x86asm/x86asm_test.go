package x86asm

import (
	"strings"
	"testing"

	"foxscript/bytecode"
	"foxscript/lexer"
	"foxscript/parser"
)

func TestRenderProducesOneLinePerInstruction(t *testing.T) {
	tokens := lexer.New(`global int x = 1 + 2;`).Scan()
	p := parser.New(tokens)
	stmts := p.Parse()
	if p.HasErrors() {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	bc := bytecode.NewEmitter(nil).Emit(stmts)

	out := Render(bc)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != len(bc.IR) {
		t.Fatalf("got %d lines, want %d (one per IR instruction)", len(lines), len(bc.IR))
	}
	if !strings.Contains(out, "mov $1, %eax") {
		t.Errorf("expected a rendered move of the literal 1 into a register, got:\n%s", out)
	}
}
