// expressions.go contains every expression AST node kind.
package ast

import (
	"foxscript/token"
	"foxscript/value"
)

// Literal carries a constant Value fixed at parse time — an int, float, or
// string literal from the source text.
type Literal struct {
	Tok token.Token
	Val value.Value
}

func (lit *Literal) Accept(v ExprVisitor) any { return v.VisitLiteral(lit) }

// Binary is a two-operand arithmetic expression. The parser only ever
// builds right-associative chains: `a + b - c` parses as `a + (b - c)`,
// which this node shape preserves as-is — there is no separate
// precedence-climbing ladder to flatten it.
type Binary struct {
	Left     Expr
	Right    Expr
	Operator token.Token // PLUS or MINUS
}

func (bin *Binary) Accept(v ExprVisitor) any { return v.VisitBinary(bin) }

// VariableRef names a variable read in value position. Var is resolved by
// the parser during scope walking; it is nil only if resolution failed
// (an undefined-reference diagnostic was already recorded).
type VariableRef struct {
	Name token.Token
	Hash uint64
	Var  *Variable
}

func (ref *VariableRef) Accept(v ExprVisitor) any { return v.VisitVariableRef(ref) }

// Call is a function-call expression. Func is the resolved script-defined
// function, or nil when the name did not resolve inside any scope — an
// unresolved call is emitted as a call to a host-registered external
// function instead (see bytecode.Emitter).
type Call struct {
	Name token.Token
	Hash uint64
	Func *Function
	Args []Expr
}

func (call *Call) Accept(v ExprVisitor) any { return v.VisitCall(call) }
