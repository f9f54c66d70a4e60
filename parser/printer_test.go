package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"foxscript/ast"
	"foxscript/value"
)

func TestPrintASTJSON_Literal(t *testing.T) {
	stmts := []ast.Stmt{
		&ast.ExprStmt{X: &ast.Literal{Val: value.Int(42)}},
	}

	jsonString, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonString), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}
	if len(out) != 1 || out[0]["type"] != "ExprStmt" {
		t.Fatalf("got %v", out)
	}
}

func TestWriteASTJSONToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ast.json")

	stmts := []ast.Stmt{
		&ast.ExprStmt{X: &ast.Literal{Val: value.Str("hi")}},
	}
	if err := WriteASTJSONToFile(stmts, path); err != nil {
		t.Fatalf("WriteASTJSONToFile error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty AST JSON file")
	}
}

func TestPrintFuncDeclWithDocs(t *testing.T) {
	src := "//? adds two ints\nfn add(int a, int b) int { return a + b; }"
	tokens := parseTokens(src)
	p := New(tokens)
	stmts := p.Parse()

	jsonString, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonString), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}
	if len(out) != 1 || out[0]["type"] != "FuncDecl" {
		t.Fatalf("got %v", out)
	}
	docs, ok := out[0]["doc"].([]any)
	if !ok || len(docs) != 1 {
		t.Fatalf("expected one doc-comment, got %v", out[0]["doc"])
	}
}
