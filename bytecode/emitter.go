// emitter.go implements the bytecode/IR emitter: a single AST walk that
// produces a byte-addressable instruction image plus a parallel,
// human-readable IR log, built around a register allocation, stack-offset
// tracking, and forward-jump patching scheme, following a
// MakeInstruction-style idiom (Instructions []byte, big-endian operands)
// generalized to the full opcode table.
package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"foxscript/ast"
	"foxscript/token"
	"foxscript/value"
)

// lowerMode selects where a computed expression's value ends up: left in
// a register, stored into a freshly-declared variable's slot, or stored
// through an existing variable's handle.
type lowerMode int

const (
	modeFetchRegister  lowerMode = iota // leave the value in a register
	modeDefineInMemory                  // push it as a fresh variable's live storage
	modeAssignHandle                    // write it back into a declared variable
)

const numRegisters = 4

var returnValHash = token.FNV1a([]byte("__ReturnVal__"))

// patchSite is a recorded forward-jump operand waiting to be backpatched
// once the jump's target offset is known.
type patchSite struct {
	operandOffset int32
	bodyStart     int32
}

// Emitter walks a parsed FoxScript AST and produces a Bytecode image. One
// Emitter compiles exactly one program; it is not reusable across scripts.
type Emitter struct {
	image []byte
	ir    []IRInstruction

	regsUsed [numRegisters]bool

	stackOffset int32

	// scopeVars is depth-indexed; scopeVars[0] is the global scope.
	// varOrdinal tracks the next per-scope ordinal (var-index) to assign.
	scopeVars  []map[uint64]*VariableHandle
	varOrdinal []int

	currentReturnHandle *VariableHandle

	functions map[uint64]*FunctionHandle
	externals map[uint64]bool

	diagnostics []error
}

// NewEmitter creates an Emitter. externals is stored but never read: an
// unresolved call always becomes a call-external regardless of whether
// its name was pre-registered.
func NewEmitter(externals map[uint64]bool) *Emitter {
	if externals == nil {
		externals = make(map[uint64]bool)
	}
	return &Emitter{
		scopeVars:  []map[uint64]*VariableHandle{make(map[uint64]*VariableHandle)},
		varOrdinal: []int{0},
		functions:  make(map[uint64]*FunctionHandle),
		externals:  externals,
	}
}

func (e *Emitter) HasErrors() bool { return len(e.diagnostics) != 0 }
func (e *Emitter) Errors() []error { return e.diagnostics }

func (e *Emitter) diagnose(line int32, column int, message string) {
	e.diagnostics = append(e.diagnostics, CreateSemanticError(line, column, message))
}

// Emit walks every top-level statement and returns the finished image.
func (e *Emitter) Emit(stmts []ast.Stmt) *Bytecode {
	for _, s := range stmts {
		e.emitStmt(s)
	}
	return &Bytecode{
		Image:     e.image,
		Functions: e.functions,
		Globals:   e.scopeVars[0],
		IR:        e.ir,
	}
}

// --- low-level image writers -------------------------------------------

func (e *Emitter) offset() int32 { return int32(len(e.image)) }

func (e *Emitter) emitHeader(base Base, spec Specifier) {
	e.image = append(e.image, byte(base), byte(spec))
}

func (e *Emitter) emitHeaderReg(base Base, variant Specifier, reg int) {
	e.image = append(e.image, byte(base), (byte(variant)<<4)|byte(reg&0xF))
}

func (e *Emitter) emitInt32(v int32) { e.emitUint32(uint32(v)) }

func (e *Emitter) emitUint32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	e.image = append(e.image, buf[:]...)
}

func (e *Emitter) emitInt16(v int16) { e.emitUint16(uint16(v)) }

func (e *Emitter) emitUint16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	e.image = append(e.image, buf[:]...)
}

func (e *Emitter) patchInt16At(pos int32, v int16) {
	binary.BigEndian.PutUint16(e.image[pos:pos+2], uint16(v))
}

func (e *Emitter) logIR(offset int32, op string, operands ...string) {
	e.ir = append(e.ir, IRInstruction{Offset: offset, Op: op, Operands: operands})
}

// --- register allocation -------------------------------------------------

func (e *Emitter) allocReg() (int, bool) {
	for i := 0; i < numRegisters; i++ {
		if !e.regsUsed[i] {
			e.regsUsed[i] = true
			return i, true
		}
	}
	return -1, false
}

func (e *Emitter) freeReg(reg int) {
	if reg >= 0 && reg < numRegisters {
		e.regsUsed[reg] = false
	}
}

// --- scope / handle bookkeeping -------------------------------------------

func (e *Emitter) scopeDepth() int { return len(e.scopeVars) - 1 }

func (e *Emitter) pushScope() {
	e.scopeVars = append(e.scopeVars, make(map[uint64]*VariableHandle))
	e.varOrdinal = append(e.varOrdinal, 0)
}

func (e *Emitter) popScope() []*VariableHandle {
	d := len(e.scopeVars) - 1
	top := e.scopeVars[d]
	e.scopeVars = e.scopeVars[:d]
	e.varOrdinal = e.varOrdinal[:d]
	handles := make([]*VariableHandle, 0, len(top))
	for _, h := range top {
		handles = append(handles, h)
	}
	return handles
}

func (e *Emitter) lookupHandle(hash uint64) (*VariableHandle, bool) {
	for d := len(e.scopeVars) - 1; d >= 0; d-- {
		if h, ok := e.scopeVars[d][hash]; ok {
			return h, true
		}
	}
	return nil, false
}

func (e *Emitter) declareHandle(nameHash uint64, name string, kind value.Kind) *VariableHandle {
	d := e.scopeDepth()
	h := &VariableHandle{
		NameHash: nameHash,
		Name:     name,
		Kind:     kind,
		Offset:   e.stackOffset,
		Size:     4,
		Depth:    d,
		VarIndex: e.varOrdinal[d],
	}
	e.varOrdinal[d]++
	e.scopeVars[d][nameHash] = h
	return h
}

func (e *Emitter) declareHandleGlobal(nameHash uint64, name string, kind value.Kind) *VariableHandle {
	h := &VariableHandle{
		NameHash: nameHash,
		Name:     name,
		Kind:     kind,
		Offset:   e.stackOffset,
		Size:     4,
		Depth:    0,
		VarIndex: e.varOrdinal[0],
	}
	e.varOrdinal[0]++
	e.scopeVars[0][nameHash] = h
	return h
}

// relOffset decides relative-vs-absolute addressing for a handle: absolute
// when it was declared in an outer scope than the current emission scope,
// or when the relative distance would overflow a signed 16-bit immediate.
func (e *Emitter) relOffset(h *VariableHandle) (int16, bool) {
	if h.Depth < e.scopeDepth() {
		return 0, false
	}
	rel := h.Offset - e.stackOffset
	if rel > 32767 || rel < -32768 {
		return 0, false
	}
	return int16(rel), true
}

// --- instruction emitters --------------------------------------------------

func (e *Emitter) EmitPushInt32(v int32) {
	start := e.offset()
	e.emitHeader(BasePush, SpecPushInt32)
	e.emitInt32(v)
	e.stackOffset += 4
	e.logIR(start, "push.int32", fmt.Sprintf("%d", v))
}

func (e *Emitter) EmitPushReg(reg int) {
	start := e.offset()
	e.emitHeader(BasePush, SpecPushReg32)
	e.emitInt16(int16(reg))
	e.stackOffset += 4
	e.logIR(start, "push.reg32", RegisterName(reg))
}

func (e *Emitter) EmitPopReg(reg int) {
	start := e.offset()
	e.emitHeaderReg(BasePop, SpecPopInt32, reg)
	e.stackOffset -= 4
	e.logIR(start, "pop.int32", RegisterName(reg))
}

func (e *Emitter) emitLoadRelative(reg int, off int16) {
	start := e.offset()
	e.emitHeaderReg(BaseLoad, SpecLoadInt32, reg)
	e.emitInt16(off)
	e.logIR(start, "load.rel", RegisterName(reg), fmt.Sprintf("%d", off))
}

func (e *Emitter) emitLoadAbsolute(reg int, abs int32) {
	start := e.offset()
	e.emitHeaderReg(BaseLoad, SpecLoadAbsInt32, reg)
	e.emitInt32(abs)
	e.logIR(start, "load.abs", RegisterName(reg), fmt.Sprintf("%d", abs))
}

func (e *Emitter) emitLoadHandle(h *VariableHandle, reg int) {
	if rel, ok := e.relOffset(h); ok {
		e.emitLoadRelative(reg, rel)
	} else {
		e.emitLoadAbsolute(reg, h.Offset)
	}
}

func (e *Emitter) emitSaveRelativeImm(off int16, imm int32) {
	start := e.offset()
	e.emitHeader(BaseSave, SpecSaveInt32)
	e.emitInt16(off)
	e.emitInt32(imm)
	e.logIR(start, "save.rel.imm", fmt.Sprintf("%d", off), fmt.Sprintf("%d", imm))
}

func (e *Emitter) emitSaveRelativeReg(off int16, reg int) {
	start := e.offset()
	e.emitHeader(BaseSave, SpecSaveReg32)
	e.emitInt16(off)
	e.emitInt16(int16(reg))
	e.logIR(start, "save.rel.reg", fmt.Sprintf("%d", off), RegisterName(reg))
}

func (e *Emitter) emitSaveAbsoluteImm(abs int32, imm int32) {
	start := e.offset()
	e.emitHeader(BaseSave, SpecSaveAbsInt32)
	e.emitInt32(abs)
	e.emitInt32(imm)
	e.logIR(start, "save.abs.imm", fmt.Sprintf("%d", abs), fmt.Sprintf("%d", imm))
}

func (e *Emitter) emitSaveAbsoluteReg(abs int32, reg int) {
	start := e.offset()
	e.emitHeader(BaseSave, SpecSaveAbsReg32)
	e.emitInt32(abs)
	e.emitInt16(int16(reg))
	e.logIR(start, "save.abs.reg", fmt.Sprintf("%d", abs), RegisterName(reg))
}

func (e *Emitter) emitSaveHandleImm(h *VariableHandle, imm int32) {
	if rel, ok := e.relOffset(h); ok {
		e.emitSaveRelativeImm(rel, imm)
	} else {
		e.emitSaveAbsoluteImm(h.Offset, imm)
	}
}

func (e *Emitter) emitSaveHandleReg(h *VariableHandle, reg int) {
	if rel, ok := e.relOffset(h); ok {
		e.emitSaveRelativeReg(rel, reg)
	} else {
		e.emitSaveAbsoluteReg(h.Offset, reg)
	}
}

func (e *Emitter) EmitArithAdd(lhs, rhs int) {
	start := e.offset()
	e.emitHeader(BaseArith, SpecArithAdd)
	e.image = append(e.image, byte(lhs), byte(rhs))
	e.logIR(start, "arith.add", RegisterName(lhs), RegisterName(rhs))
}

func (e *Emitter) EmitArithSub(lhs, rhs int) {
	start := e.offset()
	e.emitHeader(BaseArith, SpecArithSub)
	e.image = append(e.image, byte(lhs), byte(rhs))
	e.logIR(start, "arith.sub", RegisterName(lhs), RegisterName(rhs))
}

// EmitJumpRelativePlaceholder emits a forward jump with a zero operand,
// returning the site PatchJump later resolves once the target is known.
func (e *Emitter) EmitJumpRelativePlaceholder() patchSite {
	start := e.offset()
	e.emitHeader(BaseJump, SpecJumpRelative)
	operandOffset := e.offset()
	e.emitInt16(0)
	e.logIR(start, "jump.rel", "?")
	return patchSite{operandOffset: operandOffset, bodyStart: e.offset()}
}

// PatchJump resolves a forward jump to the current offset, writing the
// distance from after the jump operand to the current offset.
func (e *Emitter) PatchJump(site patchSite) {
	distance := e.offset() - site.bodyStart
	e.patchInt16At(site.operandOffset, int16(distance))
}

func (e *Emitter) EmitCallAbsolute(target int32) {
	start := e.offset()
	e.emitHeader(BaseJump, SpecJumpCallAbsolute)
	e.emitInt32(target)
	e.logIR(start, "call.abs", fmt.Sprintf("0x%08x", target))
}

func (e *Emitter) EmitReturnToCaller() {
	start := e.offset()
	e.emitHeader(BaseJump, SpecJumpReturnToCaller)
	e.logIR(start, "return")
}

func (e *Emitter) EmitCallExternal(hash uint64) {
	start := e.offset()
	e.emitHeader(BaseJump, SpecJumpCallExternal)
	e.emitUint32(Hash32(hash))
	e.logIR(start, "call.external", fmt.Sprintf("0x%08x", Hash32(hash)))
}

// EmitDataString emits a length-prefixed inline string-data block and
// returns the offset of its length prefix — the value callers treat as
// the string's 32-bit "address" into the bytecode image. The stored
// length is the string's true byte length; a single zero pad byte is
// appended after odd-length data so every block occupies an even number
// of bytes.
func (e *Emitter) EmitDataString(s string) int32 {
	start := e.offset()
	e.emitHeader(BaseData, SpecDataString)
	blockOffset := e.offset()
	data := []byte(s)
	e.emitUint16(uint16(len(data)))
	e.image = append(e.image, data...)
	if len(data)%2 != 0 {
		e.image = append(e.image, 0)
	}
	e.logIR(start, "data.string", fmt.Sprintf("%q", s))
	return blockOffset
}

func (e *Emitter) EmitParamsStart() {
	start := e.offset()
	e.emitHeader(BaseData, SpecDataParamsStart)
	e.logIR(start, "params.start")
}

func (e *Emitter) EmitTypeInt() {
	start := e.offset()
	e.emitHeader(BaseType, SpecTypeInt)
	e.logIR(start, "type.int")
}

func (e *Emitter) EmitTypeString() {
	start := e.offset()
	e.emitHeader(BaseType, SpecTypeString)
	e.logIR(start, "type.string")
}

func (e *Emitter) EmitMoveInt32(reg int, imm int32) {
	start := e.offset()
	e.emitHeaderReg(BaseMove, SpecMoveInt32, reg)
	e.emitInt32(imm)
	e.logIR(start, "move.int32", RegisterName(reg), fmt.Sprintf("%d", imm))
}

// --- expression lowering ---------------------------------------------------

func isSimpleLiteral(expr ast.Expr) bool {
	_, ok := expr.(*ast.Literal)
	return ok
}

func (e *Emitter) lowerExpr(expr ast.Expr, mode lowerMode, target *VariableHandle) int {
	switch node := expr.(type) {
	case *ast.Literal:
		return e.lowerLiteral(node, mode, target)
	case *ast.Binary:
		return e.lowerBinary(node, mode, target)
	case *ast.VariableRef:
		return e.lowerVariableRef(node, mode, target)
	case *ast.Call:
		return e.lowerCall(node, mode, target)
	default:
		e.diagnose(0, 0, fmt.Sprintf("unsupported expression node %T", expr))
		return e.lowerRaw32(0, mode, target)
	}
}

// lowerRaw32 pushes/moves/saves a raw 32-bit pattern per mode — shared by
// int literals, float bit patterns, and string-literal data offsets.
func (e *Emitter) lowerRaw32(bits int32, mode lowerMode, target *VariableHandle) int {
	switch mode {
	case modeFetchRegister:
		reg, ok := e.allocReg()
		if !ok {
			e.diagnose(0, 0, "no free register for immediate load")
			return -1
		}
		e.EmitMoveInt32(reg, bits)
		return reg
	case modeDefineInMemory:
		e.EmitPushInt32(bits)
		return -1
	case modeAssignHandle:
		if target != nil {
			e.emitSaveHandleImm(target, bits)
		}
		return -1
	}
	return -1
}

func (e *Emitter) lowerLiteral(lit *ast.Literal, mode lowerMode, target *VariableHandle) int {
	switch lit.Val.Kind {
	case value.Int32:
		return e.lowerRaw32(lit.Val.Int, mode, target)
	case value.Float32:
		return e.lowerRaw32(int32(math.Float32bits(lit.Val.Float)), mode, target)
	case value.String:
		blockOffset := e.EmitDataString(lit.Val.Str)
		e.EmitTypeString()
		return e.lowerRaw32(blockOffset, mode, target)
	default:
		e.diagnose(lit.Tok.Line, lit.Tok.Column, "unsupported literal kind at emit time")
		return e.lowerRaw32(0, mode, target)
	}
}

func (e *Emitter) lowerVariableRef(ref *ast.VariableRef, mode lowerMode, target *VariableHandle) int {
	handle, ok := e.lookupHandle(ref.Hash)
	if !ok {
		e.diagnose(ref.Name.Line, ref.Name.Column, fmt.Sprintf("unknown variable '%s' at emit time", ref.Name.Lexeme))
		return e.lowerRaw32(0, mode, target)
	}
	switch mode {
	case modeFetchRegister:
		reg, ok := e.allocReg()
		if !ok {
			e.diagnose(ref.Name.Line, ref.Name.Column, "no free register to load variable")
			return -1
		}
		e.emitLoadHandle(handle, reg)
		return reg
	case modeDefineInMemory:
		reg, ok := e.allocReg()
		if !ok {
			e.diagnose(ref.Name.Line, ref.Name.Column, "no free register to load variable")
			e.EmitPushInt32(0)
			return -1
		}
		e.emitLoadHandle(handle, reg)
		e.EmitPushReg(reg)
		e.freeReg(reg)
		return -1
	case modeAssignHandle:
		reg, ok := e.allocReg()
		if !ok {
			e.diagnose(ref.Name.Line, ref.Name.Column, "no free register to load variable")
			return -1
		}
		e.emitLoadHandle(handle, reg)
		if target != nil {
			e.emitSaveHandleReg(target, reg)
		}
		e.freeReg(reg)
		return -1
	}
	return -1
}

func (e *Emitter) lowerBinary(bin *ast.Binary, mode lowerMode, target *VariableHandle) int {
	lhsReg := e.lowerExpr(bin.Left, modeFetchRegister, nil)
	if lhsReg < 0 {
		return e.lowerRaw32(0, mode, target)
	}

	spill := !isSimpleLiteral(bin.Right)
	if spill {
		e.EmitPushReg(lhsReg)
		e.freeReg(lhsReg)
	}

	rhsReg := e.lowerExpr(bin.Right, modeFetchRegister, nil)
	if rhsReg < 0 {
		if spill {
			e.stackOffset -= 4
		}
		return e.lowerRaw32(0, mode, target)
	}

	if spill {
		restored, ok := e.allocReg()
		if !ok {
			e.diagnose(bin.Operator.Line, bin.Operator.Column, "no free register to restore spilled operand")
			return e.lowerRaw32(0, mode, target)
		}
		e.EmitPopReg(restored)
		lhsReg = restored
	}

	if bin.Operator.Kind == token.MINUS {
		e.EmitArithSub(lhsReg, rhsReg)
	} else {
		e.EmitArithAdd(lhsReg, rhsReg)
	}
	e.freeReg(lhsReg)
	e.freeReg(rhsReg)

	return e.materializeFromXR(mode, target)
}

// materializeFromXR disposes of a result landed in XR (the fixed-purpose
// result register every binary op and function call targets by
// convention) according to the lowering mode in play.
func (e *Emitter) materializeFromXR(mode lowerMode, target *VariableHandle) int {
	switch mode {
	case modeFetchRegister:
		return XR
	case modeDefineInMemory:
		e.EmitPushReg(XR)
		return -1
	case modeAssignHandle:
		if target != nil {
			e.emitSaveHandleReg(target, XR)
		}
		return -1
	}
	return -1
}

// callArgPlan records, for one call argument, whether it is itself a
// nested call (evaluated early, before params-start) and the temporary
// it was saved into if so.
type callArgPlan struct {
	expr       ast.Expr
	isNested   bool
	tempHandle *VariableHandle
}

func (e *Emitter) lowerCall(call *ast.Call, mode lowerMode, target *VariableHandle) int {
	plans := make([]callArgPlan, len(call.Args))
	for i, arg := range call.Args {
		_, isCall := arg.(*ast.Call)
		plans[i] = callArgPlan{expr: arg, isNested: isCall}
	}

	// Step 1: evaluate nested-call arguments first, into fresh temporaries,
	// before touching RA or params-start — avoids the nested call clobbering
	// registers this call still needs.
	for i := range plans {
		if !plans[i].isNested {
			continue
		}
		tempName := fmt.Sprintf("__callarg_%d_%d__", e.offset(), i)
		tempHash := token.FNV1a([]byte(tempName))
		handle := e.declareHandle(tempHash, tempName, value.Int32)
		e.lowerExpr(plans[i].expr, modeDefineInMemory, nil)
		plans[i].tempHandle = handle
	}

	// Step 2: push RA.
	e.EmitPushReg(RA)

	// Step 3: params-start — begins the VM's argument-type tracking.
	e.EmitParamsStart()

	// Step 4: push each argument in declared order.
	for _, plan := range plans {
		if plan.isNested {
			reg, ok := e.allocReg()
			if !ok {
				e.diagnose(call.Name.Line, call.Name.Column, "no free register to re-load nested call result")
				continue
			}
			e.emitLoadHandle(plan.tempHandle, reg)
			e.EmitPushReg(reg)
			e.freeReg(reg)
		} else {
			e.lowerExpr(plan.expr, modeDefineInMemory, nil)
		}
	}

	argCount := int32(len(call.Args))

	// Step 5: dispatch — call-absolute for a resolved script function,
	// call-external (by name-hash) otherwise.
	isInternalCall := false
	if call.Func != nil {
		if handle, ok := e.functions[call.Func.NameHash]; ok {
			e.EmitCallAbsolute(handle.EntryPoint)
			isInternalCall = true
		} else {
			e.diagnose(call.Name.Line, call.Name.Column, fmt.Sprintf("function '%s' has no handle at emit time", call.Name.Lexeme))
			e.EmitCallExternal(call.Hash)
			e.stackOffset -= 4 * argCount
		}
	} else {
		e.EmitCallExternal(call.Hash)
		e.stackOffset -= 4 * argCount
	}

	// Step 6: an internal call's return-to-caller only truncates the stack
	// back to the SP recorded right after the pushed RA+args, so those
	// argument slots are still physically on top of RA when control comes
	// back here — discard them before popping the real RA back off.
	if isInternalCall {
		for i := int32(0); i < argCount; i++ {
			e.EmitPopReg(RX0)
		}
	}
	e.EmitPopReg(RA)

	return e.materializeFromXR(mode, target)
}

// --- statement emission -----------------------------------------------------

func (e *Emitter) emitStmt(stmt ast.Stmt) {
	switch node := stmt.(type) {
	case *ast.VarDecl:
		e.emitVarDecl(node)
	case *ast.Assign:
		e.emitAssign(node)
	case *ast.ExprStmt:
		reg := e.lowerExpr(node.X, modeFetchRegister, nil)
		e.freeReg(reg)
	case *ast.FuncDecl:
		e.emitFuncDecl(node)
	case *ast.Return:
		e.emitReturn()
	case *ast.DocComment:
		// no bytecode — documentation only.
	case *ast.CommandStmt:
		e.emitStmt(node.Inner)
	case *ast.HelpStmt:
		// no bytecode — resolved and printed at parse/print time.
	case *ast.Block:
		for _, s := range node.Stmts {
			e.emitStmt(s)
		}
	default:
		e.diagnose(0, 0, fmt.Sprintf("unsupported statement node %T", stmt))
	}
}

func (e *Emitter) emitZeroValue(kind value.Kind) {
	if kind == value.String {
		offset := e.EmitDataString("")
		e.EmitTypeString()
		e.EmitPushInt32(offset)
		return
	}
	e.EmitPushInt32(0)
}

func (e *Emitter) emitVarDecl(decl *ast.VarDecl) {
	if decl.Var == nil {
		e.diagnose(decl.NameTok.Line, decl.NameTok.Column, "variable declaration missing resolved scope entry")
		return
	}
	kind, _ := value.TypeKindForTypeName(decl.TypeTok.Lexeme)
	// The initializer is lowered first: a nested call inside it pushes its
	// temporaries before the value itself, so the variable's slot is the
	// last word pushed here, not the stack offset the statement started at.
	if decl.Init != nil {
		e.lowerExpr(decl.Init, modeDefineInMemory, nil)
	} else {
		e.emitZeroValue(kind)
	}
	var h *VariableHandle
	if decl.IsGlobal {
		h = e.declareHandleGlobal(decl.Var.NameHash, decl.NameTok.Lexeme, kind)
	} else {
		h = e.declareHandle(decl.Var.NameHash, decl.NameTok.Lexeme, kind)
	}
	h.Offset -= h.Size
}

func (e *Emitter) emitAssign(a *ast.Assign) {
	if a.Var == nil {
		e.diagnose(a.Name.Line, a.Name.Column, fmt.Sprintf("unknown variable '%s' at emit time", a.Name.Lexeme))
		return
	}
	handle, ok := e.lookupHandle(a.Var.NameHash)
	if !ok {
		e.diagnose(a.Name.Line, a.Name.Column, fmt.Sprintf("variable '%s' has no storage handle at emit time", a.Name.Lexeme))
		return
	}
	e.lowerExpr(a.Value, modeAssignHandle, handle)
}

// emitReturn loads the enclosing function's return value (if any) into
// XR, then emits return-to-caller — shared by an explicit `return;`
// statement and the synthesized tail return a body without one gets.
func (e *Emitter) emitReturn() {
	if e.currentReturnHandle != nil {
		e.emitLoadHandle(e.currentReturnHandle, XR)
	}
	e.EmitReturnToCaller()
}

// emitFuncDecl emits a function declaration's compiled sequence:
// a forward jump skipping the body, the body emitted at depth+1 with
// parameters already addressable (they arrive pre-pushed by the caller),
// a synthesized tail return if the body lacks one, then backpatching the
// header jump once the body's end offset is known.
func (e *Emitter) emitFuncDecl(decl *ast.FuncDecl) {
	fn := decl.Func
	if fn == nil {
		e.diagnose(decl.NameTok.Line, decl.NameTok.Column, "function declaration missing resolved scope entry")
		return
	}

	jumpSite := e.EmitJumpRelativePlaceholder()
	entryPoint := e.offset()

	// Register a provisional handle immediately so a self-recursive call
	// inside the body can resolve its own entry point before the body
	// finishes emitting.
	e.functions[fn.NameHash] = &FunctionHandle{NameHash: fn.NameHash, Name: decl.NameTok.Lexeme, EntryPoint: entryPoint}

	e.pushScope()
	e.stackOffset += 4 // reserved for the pushed return address at call time

	paramKinds := make([]value.Kind, 0, len(decl.Params))
	for _, param := range decl.Params {
		if param.Var == nil {
			continue
		}
		kind, _ := value.TypeKindForTypeName(param.Var.TypeTok.Lexeme)
		h := e.declareHandle(param.Var.NameHash, param.NameTok.Lexeme, kind)
		paramKinds = append(paramKinds, kind)
		e.stackOffset += h.Size
	}

	var returnKind value.Kind
	hasReturn := decl.ReturnType != nil
	prevReturnHandle := e.currentReturnHandle
	e.currentReturnHandle = nil
	if hasReturn {
		if retVar, ok := decl.Body.Scope.Lookup(returnValHash); ok {
			returnKind, _ = value.TypeKindForTypeName(retVar.TypeTok.Lexeme)
			h := e.declareHandle(retVar.NameHash, "__ReturnVal__", returnKind)
			// Unlike a parameter (already pushed by the caller before the
			// jump into the body), nothing has pushed the return slot yet —
			// emit a real zero-value push so the real stack matches this
			// handle's offset.
			e.emitZeroValue(returnKind)
			e.currentReturnHandle = h
		}
	}

	for _, stmt := range decl.Body.Stmts {
		e.emitStmt(stmt)
	}

	endsInReturn := false
	if n := len(decl.Body.Stmts); n > 0 {
		_, endsInReturn = decl.Body.Stmts[n-1].(*ast.Return)
	}
	if !endsInReturn {
		e.emitReturn()
	}

	e.currentReturnHandle = prevReturnHandle

	// Return offset back to pre-call: undoes the RA slot reserved above,
	// before popScope below undoes the param/retval slots.
	e.stackOffset -= 4

	for _, h := range e.popScope() {
		e.stackOffset -= h.Size
	}

	e.PatchJump(jumpSite)

	e.functions[fn.NameHash] = &FunctionHandle{
		NameHash:   fn.NameHash,
		Name:       decl.NameTok.Lexeme,
		EntryPoint: entryPoint,
		ParamKinds: paramKinds,
		ReturnKind: returnKind,
		HasReturn:  hasReturn,
	}
}
