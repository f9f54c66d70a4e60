// Package main hosts the foxscript CLI, built around the Script facade:
// the minimal surface sequencing tokenize → parse → emit → execute and
// letting a host register variables/functions before running a file.
package main

import (
	"fmt"
	"os"

	"foxscript/ast"
	"foxscript/bytecode"
	"foxscript/lexer"
	"foxscript/parser"
	"foxscript/token"
	"foxscript/value"
	"foxscript/vm"
)

// Script ties one compiled program to its host bindings. Create one per
// file; it is not reusable across a second Load.
type Script struct {
	path  string
	stmts []ast.Stmt
	bc    *bytecode.Bytecode
	m     *vm.VM

	externalNames map[string]bool
	externalFns   map[uint32]bytecode.ExternalFunc
	presetValues  map[string]value.Value

	errors []error
}

// NewScript returns an empty, unloaded Script ready for registration
// calls and then Load.
func NewScript() *Script {
	return &Script{
		externalNames: make(map[string]bool),
		externalFns:   make(map[uint32]bytecode.ExternalFunc),
		presetValues:  make(map[string]value.Value),
	}
}

// HasErrors reports whether Load or Execute recorded any diagnostic.
func (s *Script) HasErrors() bool { return len(s.errors) > 0 }

// Errors returns every diagnostic recorded across Load and Execute.
func (s *Script) Errors() []error { return s.errors }

// RegisterFunction binds name to fn as an external function callable from
// script source. argKinds and variadic are recorded for host
// documentation only — the VM's call-external protocol trusts the
// pushed-types stack it reconstructs at call time over any declared
// signature, performing no arg-type check of its own.
func (s *Script) RegisterFunction(name string, argKinds []value.Kind, variadic bool, fn bytecode.ExternalFunc) error {
	s.externalNames[name] = true
	s.externalFns[bytecode.Hash32(token.FNV1a([]byte(name)))] = fn
	return nil
}

// RegisterVariable records a host-provided initial value for a global
// variable the script declares, overriding whatever literal initializer
// the source gives it. kind must match value's kind.
func (s *Script) RegisterVariable(kind, name string, val value.Value) error {
	wantKind, ok := value.TypeKindForTypeName(kind)
	if !ok {
		return fmt.Errorf("💥 unknown variable kind %q for %q", kind, name)
	}
	if wantKind != val.Kind {
		return fmt.Errorf("💥 variable %q declared as %s but given a %s value", name, kind, val.Kind)
	}
	s.presetValues[name] = val
	return nil
}

// Load reads, lexes and parses path. Names given to RegisterFunction
// before Load are passed on to parser.RegisterExternalFunction; the parser
// reports no error for an unresolved call either way, and such a call
// compiles to a call-external by name-hash. The source is lexed with
// lexer.New, so an `@include` directive in it is skipped.
func (s *Script) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("💥 failed to read %q: %w", path, err)
		s.errors = append(s.errors, err)
		return err
	}
	s.path = path

	tokens := lexer.New(string(data)).Scan()
	p := parser.New(tokens)
	for name := range s.externalNames {
		p.RegisterExternalFunction(name)
	}
	stmts := p.Parse()
	if p.HasErrors() {
		s.errors = append(s.errors, p.Errors()...)
		return fmt.Errorf("💥 %d parse error(s) in %q", len(p.Errors()), path)
	}
	s.applyPresetInitializers(stmts)
	s.stmts = stmts
	return nil
}

// applyPresetInitializers swaps a registered global's source initializer
// for the host-provided value, so Execute runs with the host's override
// rather than the script's own literal.
func (s *Script) applyPresetInitializers(stmts []ast.Stmt) {
	if len(s.presetValues) == 0 {
		return
	}
	for _, stmt := range stmts {
		decl, ok := stmt.(*ast.VarDecl)
		if !ok || !decl.IsGlobal {
			continue
		}
		val, ok := s.presetValues[decl.NameTok.Lexeme]
		if !ok {
			continue
		}
		decl.Init = &ast.Literal{Tok: decl.NameTok, Val: val}
	}
}

// Execute emits bytecode from the loaded program and runs it to
// completion. Runtime diagnostics (RuntimeError) are appended to Errors
// without necessarily halting the run — only an out-of-bounds program
// counter does that.
func (s *Script) Execute() error {
	if s.stmts == nil {
		err := fmt.Errorf("💥 Execute called before a successful Load")
		s.errors = append(s.errors, err)
		return err
	}
	e := bytecode.NewEmitter(nil)
	bc := e.Emit(s.stmts)
	if e.HasErrors() {
		s.errors = append(s.errors, e.Errors()...)
		return fmt.Errorf("💥 %d emit error(s) in %q", len(e.Errors()), s.path)
	}
	s.bc = bc

	m := vm.New(bc, s.externalFns)
	if err := m.Run(); err != nil {
		s.errors = append(s.errors, err)
		return err
	}
	s.errors = append(s.errors, m.Errors()...)
	s.m = m
	return nil
}

// Global returns a global variable's value after Execute has run.
func (s *Script) Global(name string) (value.Value, bool) {
	if s.m == nil {
		return value.None_(), false
	}
	return s.m.Global(name)
}

// Bytecode returns the compiled program, valid only after a successful
// Execute. The emit and asm commands do not use it; they run their own
// bytecode.Emitter.
func (s *Script) Bytecode() *bytecode.Bytecode { return s.bc }
