package parser

import (
	"bytes"
	"io"
	"os"
	"testing"

	"foxscript/ast"
	"foxscript/lexer"
	"foxscript/token"
)

func parseTokens(src string) []token.Token {
	return lexer.New(src).Scan()
}

func parseSource(src string) (*Parser, []ast.Stmt) {
	p := New(parseTokens(src))
	return p, p.Parse()
}

func TestGlobalDecl(t *testing.T) {
	_, stmts := parseSource(`global int x = 42;`)
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	decl, ok := stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("got %T, want *ast.VarDecl", stmts[0])
	}
	if !decl.IsGlobal || decl.Var == nil {
		t.Fatalf("decl = %+v, want global with resolved Var", decl)
	}
}

func TestFunctionCallResolvesAcrossDecls(t *testing.T) {
	_, stmts := parseSource(`
fn dbl(int x) int { return x + x; }
fn q(int x) int { return dbl(x) + 1; }
global int r = q(5);
`)
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3: %v", len(stmts), stmts)
	}
	qDecl := stmts[1].(*ast.FuncDecl)
	inner := qDecl.Body.Stmts[0].(*ast.Assign) // __ReturnVal__ = dbl(x) + 1;
	bin := inner.Value.(*ast.Binary)
	call := bin.Left.(*ast.Call)
	if call.Func == nil || call.Func.NameTok.Lexeme != "dbl" {
		t.Errorf("call to dbl did not resolve: %+v", call)
	}
}

// TestScopeShadowing checks that a parameter shadows a global of the same
// name inside a function body, and that a call after the body resolves to
// the function.
func TestScopeShadowing(t *testing.T) {
	_, stmts := parseSource(`
global int x = 1;
fn f(int x) int { return x; }
global int r = f(7);
`)
	fnDecl := stmts[1].(*ast.FuncDecl)
	ret := fnDecl.Body.Stmts[0].(*ast.Assign)
	ref := ret.Value.(*ast.VariableRef)
	if ref.Var == nil || ref.Var.Scope != fnDecl.Body.Scope {
		t.Errorf("reference to x inside f did not resolve to the parameter, got %+v", ref.Var)
	}

	rDecl := stmts[2].(*ast.VarDecl)
	call := rDecl.Init.(*ast.Call)
	if call.Func == nil || call.Func.NameTok.Lexeme != "f" {
		t.Errorf("call to f did not resolve")
	}
}

func TestUndefinedReferenceSetsHasErrors(t *testing.T) {
	p, _ := parseSource(`global int r = y;`)
	if !p.HasErrors() {
		t.Errorf("expected HasErrors() true for an undefined reference")
	}
}

func TestRightAssociativeChain(t *testing.T) {
	_, stmts := parseSource(`global int r = a + b - c;`)
	decl := stmts[0].(*ast.VarDecl)
	outer := decl.Init.(*ast.Binary)
	if outer.Operator.Kind != token.PLUS {
		t.Fatalf("outer operator = %v, want PLUS", outer.Operator.Kind)
	}
	inner, ok := outer.Right.(*ast.Binary)
	if !ok || inner.Operator.Kind != token.MINUS {
		t.Fatalf("a + b - c should parse as a + (b - c), got %+v", outer)
	}
}

func TestCommandModeWhitespaceArgs(t *testing.T) {
	_, stmts := parseSource(`$ log "hi" 2;`)
	cmd := stmts[0].(*ast.CommandStmt)
	exprStmt := cmd.Inner.(*ast.ExprStmt)
	call := exprStmt.X.(*ast.Call)
	if len(call.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(call.Args))
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

func TestHelpResolvesFunction(t *testing.T) {
	var stmts []ast.Stmt
	out := captureStdout(t, func() {
		_, stmts = parseSource(`
//? does a thing
fn f() { return; }
help f;
`)
	})
	help := stmts[1].(*ast.HelpStmt)
	if help.Func == nil {
		t.Fatalf("help statement did not resolve function f")
	}
	want := "[DOC] f:  does a thing\n"
	if out != want {
		t.Errorf("help f; printed %q, want %q", out, want)
	}
}
