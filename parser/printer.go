package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"foxscript/ast"
)

const (
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// astPrinter implements ast.ExprVisitor/ast.StmtVisitor and builds a
// JSON-friendly representation of the tree using maps and slices — a
// thin, non-mutating consumer of the published node types.
type astPrinter struct{}

func (p astPrinter) VisitLiteral(lit *ast.Literal) any {
	return map[string]any{"type": "Literal", "value": lit.Val.String(), "kind": lit.Val.Kind.String()}
}

func (p astPrinter) VisitBinary(bin *ast.Binary) any {
	return map[string]any{
		"type":     "Binary",
		"operator": bin.Operator.Lexeme,
		"left":     bin.Left.Accept(p),
		"right":    bin.Right.Accept(p),
	}
}

func (p astPrinter) VisitVariableRef(ref *ast.VariableRef) any {
	return map[string]any{"type": "VariableRef", "name": ref.Name.Lexeme}
}

func (p astPrinter) VisitCall(call *ast.Call) any {
	args := make([]any, 0, len(call.Args))
	for _, a := range call.Args {
		args = append(args, a.Accept(p))
	}
	return map[string]any{
		"type":     "Call",
		"name":     call.Name.Lexeme,
		"resolved": call.Func != nil,
		"args":     args,
	}
}

func (p astPrinter) VisitBlock(b *ast.Block) any {
	stmts := make([]any, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		stmts = append(stmts, s.Accept(p))
	}
	return map[string]any{"type": "Block", "statements": stmts}
}

func (p astPrinter) VisitVarDecl(d *ast.VarDecl) any {
	var init any
	if d.Init != nil {
		init = d.Init.Accept(p)
	}
	return map[string]any{
		"type":     "VarDecl",
		"name":     d.NameTok.Lexeme,
		"typeName": d.TypeTok.Lexeme,
		"global":   d.IsGlobal,
		"init":     init,
	}
}

func (p astPrinter) VisitAssign(a *ast.Assign) any {
	return map[string]any{"type": "Assign", "name": a.Name.Lexeme, "value": a.Value.Accept(p)}
}

func (p astPrinter) VisitExprStmt(s *ast.ExprStmt) any {
	return map[string]any{"type": "ExprStmt", "expression": s.X.Accept(p)}
}

func (p astPrinter) VisitFuncDecl(d *ast.FuncDecl) any {
	params := make([]any, 0, len(d.Params))
	for _, param := range d.Params {
		params = append(params, map[string]any{"name": param.NameTok.Lexeme, "typeName": param.TypeTok.Lexeme})
	}
	var ret any
	if d.ReturnType != nil {
		ret = d.ReturnType.Lexeme
	}
	docs := make([]string, 0, len(d.Doc))
	for _, doc := range d.Doc {
		docs = append(docs, doc.Lexeme)
	}
	return map[string]any{
		"type":       "FuncDecl",
		"name":       d.NameTok.Lexeme,
		"params":     params,
		"returnType": ret,
		"doc":        docs,
		"body":       d.Body.Accept(p),
	}
}

func (p astPrinter) VisitReturn(r *ast.Return) any {
	var val any
	if r.Value != nil {
		val = r.Value.Accept(p)
	}
	return map[string]any{"type": "Return", "value": val}
}

func (p astPrinter) VisitDocComment(d *ast.DocComment) any {
	return map[string]any{"type": "DocComment", "text": d.Tok.Lexeme}
}

func (p astPrinter) VisitCommand(c *ast.CommandStmt) any {
	return map[string]any{"type": "CommandStmt", "inner": c.Inner.Accept(p)}
}

func (p astPrinter) VisitHelp(h *ast.HelpStmt) any {
	return map[string]any{"type": "HelpStmt", "name": h.Name.Lexeme, "resolved": h.Func != nil}
}

// PrintASTJSON converts a slice of statements into prettified JSON,
// printing it to stdout, and also returns the JSON string.
func PrintASTJSON(statements []ast.Stmt) (string, error) {
	printer := astPrinter{}
	out := make([]any, 0, len(statements))
	for _, s := range statements {
		out = append(out, s.Accept(printer))
	}
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	fmt.Println(colorYellow + "----- AST JSON -----")
	fmt.Println(colorYellow + jsonStr)
	fmt.Println(colorYellow + "-----" + colorReset)
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(statements []ast.Stmt, path string) error {
	s, err := PrintASTJSON(statements)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}
	defer f.Close()
	if _, err := f.Write([]byte(s)); err != nil {
		return fmt.Errorf("error writing AST to file: %s", err.Error())
	}
	return nil
}

// Print prints the AST as prettified JSON to standard output.
func (p *Parser) Print(statements []ast.Stmt) {
	if _, err := PrintASTJSON(statements); err != nil {
		fmt.Println("error producing AST JSON:", err)
	}
}

// PrintToFile writes the AST for the provided statements to a JSON file.
func (p *Parser) PrintToFile(statements []ast.Stmt, path string) error {
	return WriteASTJSONToFile(statements, path)
}
