package bytecode

import "foxscript/value"

// VariableHandle is the emitter/VM-facing record of one declared
// variable's storage: its name-hash, value kind, stack offset in bytes,
// size on stack (always 4 in this language), the scope-depth index at
// emission time, and its ordinal within that scope.
type VariableHandle struct {
	NameHash uint64
	Name     string
	Kind     value.Kind
	Offset   int32
	Size     int32
	Depth    int
	VarIndex int
}

// FunctionHandle is the emitter-facing record of a compiled function: its
// callable entry point (just past the header jump that skips the body),
// its parameter kinds in declared order, and its return kind if any.
type FunctionHandle struct {
	NameHash   uint64
	Name       string
	EntryPoint int32
	ParamKinds []value.Kind
	ReturnKind value.Kind
	HasReturn  bool
}

// ExternalFunc is a host-registered callback. It receives the call's
// arguments in declared order (the VM un-reverses them from pop order
// before invoking it) and may return a value for scripts that capture it
// — unused by the default stdlib but part of the host-embedding contract.
type ExternalFunc func(args []value.Value) value.Value

// Bytecode is a finished emitted program: the byte image, the function
// table callers dispatch through, the global variable layout, and the
// parallel IR log kept for disassembly.
type Bytecode struct {
	Image     []byte
	Functions map[uint64]*FunctionHandle
	Globals   map[uint64]*VariableHandle
	IR        []IRInstruction
}
