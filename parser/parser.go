// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// A recursive descent parser is a top-down parser: it starts from the top
// grammar rule and works its way down into nested sub-expressions before
// reaching the leaves of the syntax tree (terminal rules). FoxScript's
// grammar has no operator precedence ladder beyond a right-associative
// `+`/`-` chain, so this parser is a single pass driven by one token of
// lookahead (peek(0), peek(1)).
package parser

import (
	"fmt"

	"foxscript/ast"
	"foxscript/token"
	"foxscript/value"
)

// returnValName is the synthesized variable every function with a
// declared return type gets in its own scope.
const returnValName = "__ReturnVal__"

var returnValHash = token.FNV1a([]byte(returnValName))

// Parser drives tokens into an AST, resolving variable/function
// references against a lexical scope stack as it goes.
type Parser struct {
	tokens []token.Token
	pos    int

	global       *ast.Scope
	currentScope *ast.Scope

	inCommandMode bool
	hasErrors     bool
	errors        []error

	pendingDocs []token.Token

	// externals records the name-hashes of host-registered external
	// functions. Nothing in the parser reads it: resolution never consults
	// it, and an unresolved call becomes a call-external whether or not its
	// name was registered here.
	externals map[uint64]bool
}

// New creates a Parser over tokens, seeded with a fresh global scope.
func New(tokens []token.Token) *Parser {
	return &Parser{
		tokens:    tokens,
		global:    ast.NewScope(nil),
		externals: make(map[uint64]bool),
	}
}

// GlobalScope returns the parser's scope 0, shared with the bytecode
// emitter and the VM's external-function table owner.
func (p *Parser) GlobalScope() *ast.Scope {
	return p.global
}

// RegisterExternalFunction records name as a host-registered external
// function, available before Parse runs.
func (p *Parser) RegisterExternalFunction(name string) {
	p.externals[token.FNV1a([]byte(name))] = true
}

// HasErrors reports whether any diagnostic was recorded. A true value
// here suppresses the emit+execute stages.
func (p *Parser) HasErrors() bool {
	return p.hasErrors
}

// Errors returns every diagnostic recorded during Parse, in order.
func (p *Parser) Errors() []error {
	return p.errors
}

func (p *Parser) recordError(tok token.Token, message string) {
	p.hasErrors = true
	p.errors = append(p.errors, CreateSyntaxError(tok.Line, tok.Column, message))
}

// --- token stream primitives -------------------------------------------------

func (p *Parser) isFinished() bool {
	return p.peek(0).Kind == token.EOF
}

func (p *Parser) peek(offset int) token.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() token.Token {
	tok := p.peek(0)
	if !p.isFinished() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.TokenKind) bool {
	return p.peek(0).Kind == kind
}

func (p *Parser) match(kind token.TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

// consume advances past the current token if it has kind, otherwise
// records a syntax error and returns the current (unexpected) token without
// advancing — the caller keeps going so later diagnostics can still surface.
func (p *Parser) consume(kind token.TokenKind, context string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	got := p.peek(0)
	p.recordError(got, fmt.Sprintf("expected %s %s, got %q", kind, context, got.Lexeme))
	return got
}

// --- program / statements ----------------------------------------------------

// Parse drives the whole token stream into a flat list of top-level
// statements (FoxScript has no block scoping outside function bodies).
func (p *Parser) Parse() []ast.Stmt {
	p.currentScope = p.global
	var out []ast.Stmt
	for !p.isFinished() {
		before := p.pos
		p.parseStatementInto(&out)
		if p.pos == before {
			// Safety valve: nothing was consumed (e.g. consume() failed on
			// the very first token of a construct) — force progress so a
			// malformed file can't hang the parser.
			p.advance()
		}
	}
	for _, d := range p.pendingDocs {
		out = append(out, &ast.DocComment{Tok: d})
	}
	p.pendingDocs = nil
	return out
}

func (p *Parser) parseStatementInto(out *[]ast.Stmt) {
	for p.check(token.DOC_COMMENT) {
		p.pendingDocs = append(p.pendingDocs, p.advance())
	}
	if p.isFinished() {
		return
	}

	if p.check(token.DOLLAR) {
		p.advance()
		prev := p.inCommandMode
		p.inCommandMode = true
		var inner []ast.Stmt
		p.parseStatementInto(&inner)
		p.inCommandMode = prev
		for _, s := range inner {
			*out = append(*out, &ast.CommandStmt{Inner: s})
		}
		return
	}

	if p.check(token.FN) {
		*out = append(*out, p.parseFuncDecl())
		return
	}

	// Every other statement form is not a function declaration, so any
	// doc-comments collected above were not immediately followed by `fn`
	// and are orphaned — flush them as standalone nodes rather than
	// silently dropping source text.
	for _, d := range p.pendingDocs {
		*out = append(*out, &ast.DocComment{Tok: d})
	}
	p.pendingDocs = nil

	switch {
	case p.check(token.LOCAL):
		p.advance()
		*out = append(*out, p.parseVarDecl(false))
	case p.check(token.GLOBAL):
		p.advance()
		*out = append(*out, p.parseVarDecl(true))
	case p.check(token.RETURN):
		p.parseReturnInto(out)
	case p.check(token.HELP):
		*out = append(*out, p.parseHelp())
	case p.check(token.IDENTIFIER):
		*out = append(*out, p.parseIdentifierStmt())
	default:
		tok := p.peek(0)
		p.recordError(tok, fmt.Sprintf("unexpected token %q", tok.Lexeme))
		p.advance()
	}
}

// parseFuncDecl parses `fn name ( params ) [return-type] { body }`.
func (p *Parser) parseFuncDecl() ast.Stmt {
	p.advance() // 'fn'
	nameTok := p.consume(token.IDENTIFIER, "function name")

	// The doc-comments collected before `fn` belong to this declaration;
	// take them now, before parsing the body can flush them into it.
	docs := p.pendingDocs
	p.pendingDocs = nil

	outer := p.currentScope

	// Declared before the body is parsed so a call to the function (or a
	// `help` on it) from inside its own body resolves to it.
	fn := &ast.Function{NameHash: nameTok.Hash, NameTok: nameTok}
	decl := &ast.FuncDecl{NameTok: nameTok, Doc: docs, Func: fn}
	fn.Decl = decl
	outer.DeclareFunction(fn)

	scope := ast.NewScope(outer)
	p.currentScope = scope

	p.consume(token.LPAREN, "after function name")
	var params []*ast.VarDecl
	if !p.check(token.RPAREN) {
		params = append(params, p.parseParam())
		for p.match(token.COMMA) {
			params = append(params, p.parseParam())
		}
	}
	p.consume(token.RPAREN, "to close parameter list")

	var returnType *token.Token
	if p.check(token.IDENTIFIER) {
		rt := p.advance()
		returnType = &rt
		kind, ok := value.TypeKindForTypeName(rt.Lexeme)
		if !ok {
			p.recordError(rt, fmt.Sprintf("unknown type name %q", rt.Lexeme))
			kind = value.None
		}
		retVar := &ast.Variable{
			NameHash: returnValHash,
			NameTok:  token.MakeLiteral(token.IDENTIFIER, returnValName, returnValName, rt.Line, rt.Column),
			TypeTok:  rt,
			Value:    zeroValue(kind),
		}
		scope.Declare(retVar)
	}

	p.consume(token.LBRACE, "to open function body")
	var body []ast.Stmt
	for !p.check(token.RBRACE) && !p.isFinished() {
		p.parseStatementInto(&body)
	}
	p.consume(token.RBRACE, "to close function body")

	block := &ast.Block{Stmts: body, Scope: scope}
	p.currentScope = outer

	fn.Body = block
	decl.Params = params
	decl.ReturnType = returnType
	decl.Body = block
	p.pendingDocs = nil
	return decl
}

func (p *Parser) parseParam() *ast.VarDecl {
	typeTok := p.consume(token.IDENTIFIER, "parameter type")
	nameTok := p.consume(token.IDENTIFIER, "parameter name")
	kind, ok := value.TypeKindForTypeName(typeTok.Lexeme)
	if !ok {
		p.recordError(typeTok, fmt.Sprintf("unknown type name %q", typeTok.Lexeme))
	}
	v := &ast.Variable{
		NameHash: nameTok.Hash,
		NameTok:  nameTok,
		TypeTok:  typeTok,
		Value:    zeroValue(kind),
	}
	p.currentScope.Declare(v)
	return &ast.VarDecl{NameTok: nameTok, TypeTok: typeTok, Var: v}
}

// parseVarDecl parses `[local|global] type name [= rhs];`. isGlobal
// forces the declaration into scope 0 regardless of p.currentScope.
func (p *Parser) parseVarDecl(isGlobal bool) ast.Stmt {
	typeTok := p.consume(token.IDENTIFIER, "variable type")
	nameTok := p.consume(token.IDENTIFIER, "variable name")

	var init ast.Expr
	if p.match(token.ASSIGN) {
		init = p.parseRHS()
	}
	p.consume(token.SEMICOLON, "to end declaration")

	kind, ok := value.TypeKindForTypeName(typeTok.Lexeme)
	if !ok {
		p.recordError(typeTok, fmt.Sprintf("unknown type name %q", typeTok.Lexeme))
	}

	declScope := p.currentScope
	if isGlobal {
		declScope = p.global
	}
	v := &ast.Variable{
		NameHash: nameTok.Hash,
		NameTok:  nameTok,
		TypeTok:  typeTok,
		Value:    zeroValue(kind),
	}
	declScope.Declare(v)

	return &ast.VarDecl{
		NameTok:  nameTok,
		TypeTok:  typeTok,
		Init:     init,
		IsGlobal: isGlobal,
		Var:      v,
	}
}

// parseReturnInto parses `return [rhs];`. A present rhs is desugared into
// `__ReturnVal__ = rhs;` followed by a bare `return;` — both nodes are
// appended to out.
func (p *Parser) parseReturnInto(out *[]ast.Stmt) {
	retTok := p.advance() // 'return'
	if p.match(token.SEMICOLON) {
		*out = append(*out, &ast.Return{})
		return
	}

	rhs := p.parseRHS()
	p.consume(token.SEMICOLON, "to end return statement")

	v, found := p.currentScope.Lookup(returnValHash)
	if !found {
		p.recordError(retTok, "return with a value outside a function declaring a return type")
	}
	assignName := token.MakeLiteral(token.IDENTIFIER, returnValName, returnValName, retTok.Line, retTok.Column)
	*out = append(*out, &ast.Assign{Name: assignName, Hash: returnValHash, Var: v, Value: rhs})
	*out = append(*out, &ast.Return{})
}

// parseHelp parses `help name;` and, as a parse-time side effect, prints
// the resolved function's attached doc-comments to stdout — matching the
// original's FindFunction-then-printf handling of `help` rather than
// deferring the print to emit or execute time.
func (p *Parser) parseHelp() ast.Stmt {
	p.advance() // 'help'
	nameTok := p.consume(token.IDENTIFIER, "function name")
	p.consume(token.SEMICOLON, "to end help statement")
	fn, _ := p.currentScope.LookupFunction(nameTok.Hash)
	if fn != nil {
		printDocComments(fn.NameTok.Lexeme, fn.Decl.Doc)
	}
	return &ast.HelpStmt{Name: nameTok, Func: fn}
}

// printDocComments writes one "[DOC] <name>: <comment>" line per
// doc-comment attached to a function declaration.
func printDocComments(name string, docs []token.Token) {
	for _, d := range docs {
		fmt.Printf("[DOC] %s: %s\n", name, d.Lexeme)
	}
}

// parseIdentifierStmt parses `identifier ( args );`, `identifier = rhs;`,
// or (in command mode) `identifier args...;`.
func (p *Parser) parseIdentifierStmt() ast.Stmt {
	nameTok := p.advance()

	if p.check(token.ASSIGN) {
		p.advance()
		rhs := p.parseRHS()
		p.consume(token.SEMICOLON, "to end assignment")
		v, found := p.currentScope.Lookup(nameTok.Hash)
		if !found {
			p.recordError(nameTok, fmt.Sprintf("undefined reference: %q", nameTok.Lexeme))
		}
		return &ast.Assign{Name: nameTok, Hash: nameTok.Hash, Var: v, Value: rhs}
	}

	call := p.finishCall(nameTok)
	if p.inCommandMode {
		p.consume(token.SEMICOLON, "to end command")
	} else {
		p.consume(token.SEMICOLON, "to end statement")
	}
	return &ast.ExprStmt{X: call}
}

// finishCall parses a call's argument list once the callee name has
// already been consumed, using parenthesized/comma syntax normally or
// FoxScript's relaxed whitespace/`;`-terminated syntax in command mode.
func (p *Parser) finishCall(nameTok token.Token) *ast.Call {
	fn, _ := p.currentScope.LookupFunction(nameTok.Hash)

	var args []ast.Expr
	if p.inCommandMode && !p.check(token.LPAREN) {
		for !p.check(token.SEMICOLON) && !p.isFinished() {
			args = append(args, p.parsePrimary())
		}
	} else {
		p.consume(token.LPAREN, "to open argument list")
		if !p.check(token.RPAREN) {
			args = append(args, p.parseRHS())
			for p.match(token.COMMA) {
				args = append(args, p.parseRHS())
			}
		}
		p.consume(token.RPAREN, "to close argument list")
	}

	return &ast.Call{Name: nameTok, Hash: nameTok.Hash, Func: fn, Args: args}
}

// --- expressions --------------------------------------------------------

// parseRHS parses one primary, then — if followed by `+` or `-` — wraps
// it in a right-associative Binary chain: `a + b - c` parses as
// `a + (b - c)`. This is intentional, not a bug.
func (p *Parser) parseRHS() ast.Expr {
	left := p.parsePrimary()
	if p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.advance()
		right := p.parseRHS()
		return &ast.Binary{Left: left, Right: right, Operator: op}
	}
	return left
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek(0)
	switch tok.Kind {
	case token.INT:
		p.advance()
		return &ast.Literal{Tok: tok, Val: value.Int(tok.Literal.(int32))}
	case token.FLOAT:
		p.advance()
		return &ast.Literal{Tok: tok, Val: value.Float(tok.Literal.(float32))}
	case token.STRING:
		p.advance()
		return &ast.Literal{Tok: tok, Val: value.Str(tok.Literal.(string))}
	case token.IDENTIFIER:
		p.advance()
		_, hasFn := p.currentScope.LookupFunction(tok.Hash)
		if hasFn || p.check(token.LPAREN) {
			return p.finishCall(tok)
		}
		v, ok := p.currentScope.Lookup(tok.Hash)
		if !ok {
			p.recordError(tok, fmt.Sprintf("undefined reference: %q", tok.Lexeme))
		}
		return &ast.VariableRef{Name: tok, Hash: tok.Hash, Var: v}
	default:
		p.recordError(tok, fmt.Sprintf("expected a value, got %q", tok.Lexeme))
		p.advance()
		return &ast.Literal{Tok: tok, Val: value.None_()}
	}
}

func zeroValue(kind value.Kind) value.Value {
	switch kind {
	case value.Int32:
		return value.Int(0)
	case value.Float32:
		return value.Float(0)
	case value.String:
		return value.Str("")
	default:
		return value.None_()
	}
}
