// interfaces.go contains the visitor interfaces that any code traversing
// expression and statement AST nodes must implement, plus the base
// interfaces every expression/statement node type implements.
package ast

// ExprVisitor is implemented by anything that operates on every Expr kind —
// in this repo, the AST printer (parser/printer.go). The bytecode emitter
// switches on node types directly instead.
type ExprVisitor interface {
	VisitLiteral(lit *Literal) any
	VisitBinary(bin *Binary) any
	VisitVariableRef(ref *VariableRef) any
	VisitCall(call *Call) any
}

// StmtVisitor is implemented by anything that operates on every Stmt kind.
type StmtVisitor interface {
	VisitBlock(block *Block) any
	VisitVarDecl(decl *VarDecl) any
	VisitAssign(assign *Assign) any
	VisitExprStmt(stmt *ExprStmt) any
	VisitFuncDecl(decl *FuncDecl) any
	VisitReturn(ret *Return) any
	VisitDocComment(doc *DocComment) any
	VisitCommand(cmd *CommandStmt) any
	VisitHelp(help *HelpStmt) any
}

// Expr is the base interface for every expression node. Expression nodes
// always evaluate to a Value at emission time.
type Expr interface {
	Accept(v ExprVisitor) any
}

// Stmt is the base interface for every statement node.
type Stmt interface {
	Accept(v StmtVisitor) any
}
