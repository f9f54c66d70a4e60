package vm

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"foxscript/bytecode"
	"foxscript/lexer"
	"foxscript/parser"
	"foxscript/stdlib"
	"foxscript/token"
	"foxscript/value"
)

// compile lexes, parses and emits src, registering externalNames with the
// parser the same way Script.Load does for names given to
// Script.RegisterFunction.
func compile(t *testing.T, src string, externalNames ...string) *bytecode.Bytecode {
	t.Helper()
	tokens := lexer.New(src).Scan()
	p := parser.New(tokens)
	for _, name := range externalNames {
		p.RegisterExternalFunction(name)
	}
	stmts := p.Parse()
	if p.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, p.Errors())
	}
	e := bytecode.NewEmitter(nil)
	bc := e.Emit(stmts)
	if e.HasErrors() {
		t.Fatalf("emit errors for %q: %v", src, e.Errors())
	}
	return bc
}

// run compiles and executes src with the given external callbacks keyed by
// name (hashed the same way the parser/emitter hash call targets).
func run(t *testing.T, src string, externals map[string]bytecode.ExternalFunc) *VM {
	t.Helper()
	names := make([]string, 0, len(externals))
	for name := range externals {
		names = append(names, name)
	}
	bc := compile(t, src, names...)
	keyed := make(map[uint32]bytecode.ExternalFunc, len(externals))
	for name, fn := range externals {
		keyed[bytecode.Hash32(token.FNV1a([]byte(name)))] = fn
	}
	m := New(bc, keyed)
	if err := m.Run(); err != nil {
		t.Fatalf("run error for %q: %v", src, err)
	}
	return m
}

// A global literal declaration is readable after Run via its handle.
func TestGlobalDeclarationIsReadableAfterRun(t *testing.T) {
	m := run(t, `global int x = 42;`, nil)
	v, ok := m.Global("x")
	if !ok {
		t.Fatal("expected global x to exist")
	}
	if v.Kind != value.Int32 || v.Int != 42 {
		t.Errorf("x = %+v, want int 42", v)
	}
}

// Addition lowers through arith.add and lands in the assigned global's
// storage.
func TestAdditionAssignsSum(t *testing.T) {
	m := run(t, `global int x = 1 + 2;`, nil)
	v, _ := m.Global("x")
	if v.Int != 3 {
		t.Errorf("x = %d, want 3", v.Int)
	}
}

// Subtraction via the arith.sub extension.
func TestSubtractionAssignsDifference(t *testing.T) {
	m := run(t, `global int x = 10 - 4;`, nil)
	v, _ := m.Global("x")
	if v.Int != 6 {
		t.Errorf("x = %d, want 6", v.Int)
	}
}

// A user-defined function call resolves via call-absolute and
// returns through XR into the assigning global.
func TestFunctionCallReturnsValueInXR(t *testing.T) {
	m := run(t, `
		fn double(int n) int { return n + n; }
		global int x = double(21);
	`, nil)
	v, _ := m.Global("x")
	if v.Int != 42 {
		t.Errorf("x = %d, want 42", v.Int)
	}
}

// A nested call argument is evaluated into a temporary before
// the outer call's params-start, per the emitter's argument-ordering plan.
func TestNestedFunctionCallAsArgument(t *testing.T) {
	m := run(t, `
		fn inc(int n) int { return n + 1; }
		fn sum(int a, int b) int { return a + b; }
		global int x = sum(inc(1), inc(2));
	`, nil)
	v, _ := m.Global("x")
	if v.Int != 5 {
		t.Errorf("x = %d, want 5", v.Int)
	}
}

// An internal call made with a non-empty argument list must restore the
// caller's own saved return address correctly, not the call's last pushed
// argument value — otherwise the caller's own later return-to-caller jumps
// to a garbage PC instead of back to its caller.
func TestCallWithArgsPreservesCallerReturnAddress(t *testing.T) {
	m := run(t, `
		fn dbl(int x) int { return x + x; }
		fn q(int x) int { return dbl(x) + 1; }
		global int r = q(5);
	`, nil)
	v, _ := m.Global("r")
	if v.Int != 11 {
		t.Errorf("r = %d, want 11", v.Int)
	}
}

// An external call's arguments are reconstructed
// in declared order (not reverse-push order) before reaching the callback.
func TestExternalCallReceivesArgsInDeclaredOrder(t *testing.T) {
	var seen []value.Value
	m := run(t, `log("a", 2);`, map[string]bytecode.ExternalFunc{
		"log": func(args []value.Value) value.Value {
			seen = append([]value.Value(nil), args...)
			return value.None_()
		},
	})
	if len(seen) != 2 {
		t.Fatalf("got %d args, want 2", len(seen))
	}
	if seen[0].Kind != value.String || seen[0].Str != "a" {
		t.Errorf("args[0] = %+v, want string \"a\"", seen[0])
	}
	if seen[1].Kind != value.Int32 || seen[1].Int != 2 {
		t.Errorf("args[1] = %+v, want int 2", seen[1])
	}
	_ = m
}

// Property 5: a call to a name with no registered external callback still
// reports a RuntimeError but leaves the data stack balanced, since its
// arguments are popped regardless of whether the callback exists.
func TestMissingExternalStillBalancesStack(t *testing.T) {
	bc := compile(t, `missing_fn(1, 2); global int after = 9;`, "missing_fn")
	m := New(bc, nil)
	if err := m.Run(); err != nil {
		t.Fatalf("unexpected halting error: %v", err)
	}
	if len(m.Errors()) == 0 {
		t.Fatal("expected a RuntimeError for the missing external function")
	}
	v, ok := m.Global("after")
	if !ok || v.Int != 9 {
		t.Errorf("after = %+v, ok=%v, want int 9", v, ok)
	}
}

// Property 6 at runtime: the forward jump the emitter patches around a
// function body is actually taken, so top-level execution never falls
// into a function's body unless called.
func TestFunctionBodyIsSkippedWhenNotCalled(t *testing.T) {
	m := run(t, `
		fn unused(int n) int { return n + n; }
		global int x = 7;
	`, nil)
	v, _ := m.Global("x")
	if v.Int != 7 {
		t.Errorf("x = %d, want 7 (function body must not fall through into top level)", v.Int)
	}
}

// mapOpener resolves @include paths from an in-memory map, so Scenario E
// can be exercised without touching the filesystem.
type mapOpener map[string]string

func (m mapOpener) Open(path string) (string, error) {
	content, ok := m[path]
	if !ok {
		return "", fmt.Errorf("no such file: %q", path)
	}
	return content, nil
}

// Scenario E: file A includes file B, which declares a global; A then
// logs it. Exercised end to end through the real lexer->parser->
// bytecode->vm pipeline (not just at the lexer-token level) with
// stdlib.Log as the external, asserting the included global's value
// reaches the printed output.
func TestIncludeEndToEnd(t *testing.T) {
	opener := mapOpener{"B.fox": `global int n = 9;`}
	src := "@include \"B.fox\"\nlog(n);"

	tokens := lexer.NewWithIncludes(src, opener).Scan()
	p := parser.New(tokens)
	p.RegisterExternalFunction("log")
	stmts := p.Parse()
	if p.HasErrors() {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	e := bytecode.NewEmitter(nil)
	bc := e.Emit(stmts)
	if e.HasErrors() {
		t.Fatalf("emit errors: %v", e.Errors())
	}

	externals := map[uint32]bytecode.ExternalFunc{
		bytecode.Hash32(token.FNV1a([]byte("log"))): stdlib.Log,
	}
	m := New(bc, externals)

	out := captureStdout(t, func() {
		if err := m.Run(); err != nil {
			t.Fatalf("run error: %v", err)
		}
	})

	if !strings.Contains(out, "[SCRIPT]: ") || !strings.Contains(out, "9") {
		t.Errorf("included global's value missing from printed output: %q", out)
	}
	n, ok := m.Global("n")
	if !ok || n.Int != 9 {
		t.Errorf("n = %+v, ok=%v, want int 9", n, ok)
	}
}

// Scenario F: a local parameter named the same as a global shadows it
// inside the function body; the global itself is untouched by the call.
// Checked end to end (compile+run), not just at parse-time resolution.
func TestShadowedGlobalRetainsValueAfterCall(t *testing.T) {
	m := run(t, `
		global int x = 1;
		fn f(int x) int { return x; }
		global int r = f(7);
	`, nil)

	r, _ := m.Global("r")
	if r.Int != 7 {
		t.Errorf("r = %d, want 7", r.Int)
	}
	x, _ := m.Global("x")
	if x.Int != 1 {
		t.Errorf("x = %d, want 1 (global must be unaffected by the shadowing parameter)", x.Int)
	}
}

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}
