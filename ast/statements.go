// statements.go contains every statement AST node kind.
package ast

import "foxscript/token"

// Block is an ordered list of statements sharing a lexical scope.
type Block struct {
	Stmts []Stmt
	Scope *Scope
}

func (b *Block) Accept(v StmtVisitor) any { return v.VisitBlock(b) }

// VarDecl declares a variable, optionally with an initializer rhs.
// IsGlobal is set by the `global` keyword form and forces the declaration
// into scope 0 regardless of the parser's current scope.
type VarDecl struct {
	NameTok  token.Token
	TypeTok  token.Token
	Init     Expr
	IsGlobal bool
	Var      *Variable
}

func (d *VarDecl) Accept(v StmtVisitor) any { return v.VisitVarDecl(d) }

// Assign is the statement form `identifier = rhs;`.
type Assign struct {
	Name  token.Token
	Hash  uint64
	Var   *Variable
	Value Expr
}

func (a *Assign) Accept(v StmtVisitor) any { return v.VisitAssign(a) }

// ExprStmt wraps an expression evaluated for its side effect and discarded
// — in practice always a bare function call at statement position.
type ExprStmt struct {
	X Expr
}

func (s *ExprStmt) Accept(v StmtVisitor) any { return v.VisitExprStmt(s) }

// FuncDecl declares a function: parameters, an optional return type (which
// implicitly declares `__ReturnVal__` in the function's scope), a body,
// and any doc-comments attached immediately above it in source.
type FuncDecl struct {
	NameTok    token.Token
	Params     []*VarDecl
	ReturnType *token.Token
	Body       *Block
	Doc        []token.Token
	Func       *Function
}

func (d *FuncDecl) Accept(v StmtVisitor) any { return v.VisitFuncDecl(d) }

// Return is `return;` or `return rhs;`. The parser desugars the rhs form
// into an assignment to `__ReturnVal__` followed by a bare Return — so by
// the time this node is built, Value is always nil (see parser.parseReturnInto).
type Return struct {
	Value Expr
}

func (r *Return) Accept(v StmtVisitor) any { return v.VisitReturn(r) }

// DocComment is a standalone `//?` line. The parser accumulates these and
// attaches them to the next FuncDecl rather than leaving them as
// standalone statements in a function body, but a DocComment appearing
// with nothing following it (e.g. at end of file) is kept as a node so no
// source text is silently dropped.
type DocComment struct {
	Tok token.Token
}

func (d *DocComment) Accept(v StmtVisitor) any { return v.VisitDocComment(d) }

// CommandStmt wraps a single statement parsed under the relaxed
// command-mode grammar (`$ stmt`): call arguments may be whitespace
// separated and the form is closed by `;` instead of `)`.
type CommandStmt struct {
	Inner Stmt
}

func (c *CommandStmt) Accept(v StmtVisitor) any { return v.VisitCommand(c) }

// HelpStmt is the `help name;` meta-form. The parser prints Func's
// attached doc-comments to stdout as a parse-time side effect (matching
// the original's FindFunction-then-printf handling of `help`); the node
// itself carries nothing further and the emitter treats it as a no-op.
type HelpStmt struct {
	Name token.Token
	Func *Function
}

func (h *HelpStmt) Accept(v StmtVisitor) any { return v.VisitHelp(h) }
