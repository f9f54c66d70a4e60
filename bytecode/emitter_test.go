package bytecode

import (
	"testing"

	"foxscript/lexer"
	"foxscript/parser"
)

func compile(t *testing.T, src string) *Bytecode {
	t.Helper()
	tokens := lexer.New(src).Scan()
	p := parser.New(tokens)
	stmts := p.Parse()
	if p.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, p.Errors())
	}
	return NewEmitter(nil).Emit(stmts)
}

// TestBigEndianEncoding checks that a save32 rel,imm instruction's four
// operand bytes are big-endian.
func TestBigEndianEncoding(t *testing.T) {
	e := NewEmitter(nil)
	e.emitSaveRelativeImm(0, 0x01020304)
	img := e.image
	if len(img) != 2+2+4 {
		t.Fatalf("unexpected instruction length %d", len(img))
	}
	got := img[4:8]
	want := []byte{0x01, 0x02, 0x03, 0x04}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("operand bytes = %v, want %v", got, want)
		}
	}
}

// TestForwardJumpPatching checks that, immediately after emitting a
// function, the header jump's 16-bit operand equals
// end-of-function − (start + 4).
func TestForwardJumpPatching(t *testing.T) {
	bc := compile(t, `fn f(int x) int { return x + x; }`)
	// The jump operand sits at image[2:4] (right after the 2-byte header);
	// verify it matches the distance formula directly against the image.
	if len(bc.Image) < 4 {
		t.Fatalf("image too short: %d bytes", len(bc.Image))
	}
	operand := int16(uint16(bc.Image[2])<<8 | uint16(bc.Image[3]))
	bodyStart := int32(4)
	wantDistance := int32(len(bc.Image)) - bodyStart
	if int32(operand) != wantDistance {
		t.Errorf("jump operand = %d, want %d", operand, wantDistance)
	}
}

// TestFunctionEntryPointSkipsHeader checks the recorded entry point is
// exactly past the header jump.
func TestFunctionEntryPointSkipsHeader(t *testing.T) {
	bc := compile(t, `fn f() { return; }`)
	var handle *FunctionHandle
	for _, h := range bc.Functions {
		handle = h
	}
	if handle == nil {
		t.Fatal("expected one function handle")
	}
	if handle.EntryPoint != 4 {
		t.Errorf("entry point = %d, want 4 (past the 2-byte header + 2-byte jump operand)", handle.EntryPoint)
	}
}

// TestGlobalDeclEmitsPush verifies a simple global literal declaration
// emits a push.int32 at offset 0.
func TestGlobalDeclEmitsPush(t *testing.T) {
	bc := compile(t, `global int x = 42;`)
	if len(bc.Globals) != 1 {
		t.Fatalf("got %d globals, want 1", len(bc.Globals))
	}
	var handle *VariableHandle
	for _, h := range bc.Globals {
		handle = h
	}
	if handle.Offset != 0 {
		t.Errorf("x offset = %d, want 0", handle.Offset)
	}
	if len(bc.Image) < 6 {
		t.Fatalf("image too short: %d", len(bc.Image))
	}
	if Base(bc.Image[0]) != BasePush || Specifier(bc.Image[1]) != SpecPushInt32 {
		t.Fatalf("expected push.int32 as first instruction, got base=%d spec=%d", bc.Image[0], bc.Image[1])
	}
	value := int32(uint32(bc.Image[2])<<24 | uint32(bc.Image[3])<<16 | uint32(bc.Image[4])<<8 | uint32(bc.Image[5]))
	if value != 42 {
		t.Errorf("pushed value = %d, want 42", value)
	}
}

// TestExternalCallCompensatesStackOffset checks that, after a call to an
// unresolved (external) name, the emitter's tracked stack offset returns
// to its pre-call value.
func TestExternalCallCompensatesStackOffset(t *testing.T) {
	tokens := lexer.New(`log("hi", 2);`).Scan()
	p := parser.New(tokens)
	p.RegisterExternalFunction("log")
	stmts := p.Parse()
	if p.HasErrors() {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	e := NewEmitter(nil)
	e.Emit(stmts)
	if e.stackOffset != 0 {
		t.Errorf("tracked stack offset after external call = %d, want 0", e.stackOffset)
	}
}
