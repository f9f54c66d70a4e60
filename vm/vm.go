// Package vm interprets a compiled FoxScript bytecode.Bytecode image: a
// byte-addressable data stack, a fixed register file, a small call-frame
// ring, and external-function dispatch, dispatched by a single top-level
// switch over the full opcode table.
package vm

import (
	"encoding/binary"
	"fmt"
	"math"

	"foxscript/bytecode"
	"foxscript/value"
)

const numGPRegisters = 4

// callFrame records the data-stack SP a call-absolute was issued at, so
// return-to-caller can unwind everything the callee pushed in one step.
type callFrame struct {
	returnSP int32
}

// VM is a single run of one compiled program. It is not reusable across
// programs — construct a fresh VM per Bytecode.
type VM struct {
	image []byte
	pc    int32

	stack *DataStack
	regs  [7]int32 // indexed by bytecode.RX0..SP

	frames   [bytecode.CallFrameCapacity]callFrame
	frameTop int

	pushedTypes []value.Kind
	paramsBase  int
	inParams    bool
	currentType value.Kind

	externals map[uint32]bytecode.ExternalFunc

	globals map[uint64]*bytecode.VariableHandle

	errors []error
	halted bool
}

// New creates a VM over a compiled program and the external functions
// registered with it (see Script.RegisterFunction).
func New(program *bytecode.Bytecode, externals map[uint32]bytecode.ExternalFunc) *VM {
	if externals == nil {
		externals = make(map[uint32]bytecode.ExternalFunc)
	}
	return &VM{
		image:       program.Image,
		stack:       NewDataStack(),
		externals:   externals,
		globals:     program.Globals,
		currentType: value.Int32,
	}
}

// Errors returns every runtime diagnostic recorded during Run, in order.
func (vm *VM) Errors() []error { return vm.errors }

func (vm *VM) reportError(err error) {
	vm.errors = append(vm.errors, err)
}

// Global reads a global variable's current value off the data stack by
// its handle — the host-embedding surface's read path after Execute.
func (vm *VM) Global(name string) (value.Value, bool) {
	for _, h := range vm.globals {
		if h.Name == name {
			return vm.readHandle(h), true
		}
	}
	return value.None_(), false
}

func (vm *VM) readHandle(h *bytecode.VariableHandle) value.Value {
	raw := vm.stack.ReadAt(h.Offset)
	return vm.valueFromRaw(h.Kind, raw)
}

func (vm *VM) valueFromRaw(kind value.Kind, raw int32) value.Value {
	switch kind {
	case value.Float32:
		return value.Float(math.Float32frombits(uint32(raw)))
	case value.String:
		return value.Str(vm.readString(raw))
	default:
		return value.Int(raw)
	}
}

// readString reconstructs a string from a data-string block's recorded
// offset: a 16-bit length prefix followed by that many raw bytes.
func (vm *VM) readString(blockOffset int32) string {
	if blockOffset < 0 || int(blockOffset)+2 > len(vm.image) {
		return ""
	}
	length := int(binary.BigEndian.Uint16(vm.image[blockOffset : blockOffset+2]))
	start := int(blockOffset) + 2
	end := start + length
	if end > len(vm.image) {
		return ""
	}
	return string(vm.image[start:end])
}

// Run dispatches instructions from PC 0 until it runs off the end of the
// image or an out-of-bounds PC is reached.
func (vm *VM) Run() error {
	vm.pc = 0
	for int(vm.pc) < len(vm.image) && !vm.halted {
		if vm.pc < 0 || int(vm.pc)+bytecode.HeaderSize > len(vm.image) {
			return &RuntimeError{Message: fmt.Sprintf("program counter %d out of bounds", vm.pc)}
		}
		base := bytecode.Base(vm.image[vm.pc])
		spec := bytecode.Specifier(vm.image[vm.pc+1])
		vm.pc += bytecode.HeaderSize
		vm.dispatch(base, spec)
	}
	return nil
}

func (vm *VM) dispatch(base bytecode.Base, spec bytecode.Specifier) {
	switch base {
	case bytecode.BasePush:
		vm.doPush(spec)
	case bytecode.BasePop:
		vm.doPop(spec)
	case bytecode.BaseLoad:
		vm.doLoad(spec)
	case bytecode.BaseSave:
		vm.doSave(spec)
	case bytecode.BaseArith:
		vm.doArith(spec)
	case bytecode.BaseJump:
		vm.doJump(spec)
	case bytecode.BaseData:
		vm.doData(spec)
	case bytecode.BaseType:
		vm.doType(spec)
	case bytecode.BaseMove:
		vm.doMove(spec)
	default:
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("unknown opcode base %d at pc %d", base, vm.pc)})
	}
}

// --- operand readers (advance PC as they consume bytes) -------------------

func (vm *VM) readInt32() int32 {
	v := int32(binary.BigEndian.Uint32(vm.image[vm.pc : vm.pc+4]))
	vm.pc += 4
	return v
}

func (vm *VM) readUint32() uint32 {
	v := binary.BigEndian.Uint32(vm.image[vm.pc : vm.pc+4])
	vm.pc += 4
	return v
}

func (vm *VM) readInt16() int16 {
	v := int16(binary.BigEndian.Uint16(vm.image[vm.pc : vm.pc+2]))
	vm.pc += 2
	return v
}

func (vm *VM) readReg16() int {
	v := int(binary.BigEndian.Uint16(vm.image[vm.pc : vm.pc+2]))
	vm.pc += 2
	return v
}

func regFromSpecifier(spec bytecode.Specifier) (variant bytecode.Specifier, reg int) {
	b := byte(spec)
	return bytecode.Specifier(b >> 4), int(b & 0xF)
}

// --- push / pop -------------------------------------------------------------

// trackPush records the kind of a just-pushed value in the typed-argument
// protocol when a params-start is active, then reverts the latched
// "current type" to the int default per the "next push consumes it" rule.
func (vm *VM) trackPush() {
	if vm.inParams {
		vm.pushedTypes = append(vm.pushedTypes, vm.currentType)
	}
	vm.currentType = value.Int32
}

func (vm *VM) doPush(spec bytecode.Specifier) {
	switch spec {
	case bytecode.SpecPushInt32:
		v := vm.readInt32()
		if !vm.stack.Push32(v) {
			vm.reportError(&RuntimeError{Message: "stack overflow on push"})
			return
		}
		vm.trackPush()
	case bytecode.SpecPushReg32:
		reg := vm.readReg16()
		if !vm.stack.Push32(vm.readReg(reg)) {
			vm.reportError(&RuntimeError{Message: "stack overflow on push"})
			return
		}
		vm.trackPush()
	default:
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("unknown push specifier %d", spec)})
	}
}

func (vm *VM) doPop(spec bytecode.Specifier) {
	variant, reg := regFromSpecifier(spec)
	switch variant {
	case bytecode.SpecPopInt32:
		v, ok := vm.stack.Pop32()
		if !ok {
			vm.reportError(&RuntimeError{Message: "stack underflow on pop"})
			return
		}
		vm.writeReg(reg, v)
	default:
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("unknown pop specifier %d", spec)})
	}
}

// --- load / save ------------------------------------------------------------

func (vm *VM) doLoad(spec bytecode.Specifier) {
	variant, reg := regFromSpecifier(spec)
	switch variant {
	case bytecode.SpecLoadInt32:
		off := vm.readInt16()
		addr := vm.stack.SP() + int32(off)
		vm.writeReg(reg, vm.stack.ReadAt(addr))
	case bytecode.SpecLoadAbsInt32:
		addr := vm.readInt32()
		vm.writeReg(reg, vm.stack.ReadAt(addr))
	default:
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("unknown load specifier %d", spec)})
	}
}

func (vm *VM) doSave(spec bytecode.Specifier) {
	switch spec {
	case bytecode.SpecSaveInt32:
		off := vm.readInt16()
		imm := vm.readInt32()
		vm.stack.WriteAt(vm.stack.SP()+int32(off), imm)
	case bytecode.SpecSaveReg32:
		off := vm.readInt16()
		reg := vm.readReg16()
		vm.stack.WriteAt(vm.stack.SP()+int32(off), vm.readReg(reg))
	case bytecode.SpecSaveAbsInt32:
		addr := vm.readInt32()
		imm := vm.readInt32()
		vm.stack.WriteAt(addr, imm)
	case bytecode.SpecSaveAbsReg32:
		addr := vm.readInt32()
		reg := vm.readReg16()
		vm.stack.WriteAt(addr, vm.readReg(reg))
	default:
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("unknown save specifier %d", spec)})
	}
}

// --- arithmetic --------------------------------------------------------------

func (vm *VM) doArith(spec bytecode.Specifier) {
	lhs := int(vm.image[vm.pc])
	rhs := int(vm.image[vm.pc+1])
	vm.pc += 2
	switch spec {
	case bytecode.SpecArithAdd:
		vm.writeReg(bytecode.XR, vm.readReg(lhs)+vm.readReg(rhs))
	case bytecode.SpecArithSub:
		vm.writeReg(bytecode.XR, vm.readReg(lhs)-vm.readReg(rhs))
	default:
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("unknown arith specifier %d", spec)})
	}
}

// --- jump / call -------------------------------------------------------------

func (vm *VM) doJump(spec bytecode.Specifier) {
	switch spec {
	case bytecode.SpecJumpRelative:
		off := vm.readInt16()
		vm.pc += int32(off)
	case bytecode.SpecJumpAbsolute:
		target := vm.readInt32()
		vm.pc = target
	case bytecode.SpecJumpAbsReg32:
		reg := vm.readReg16()
		vm.pc = vm.readReg(reg)
	case bytecode.SpecJumpCallAbsolute:
		target := vm.readInt32()
		vm.doCallAbsolute(target)
	case bytecode.SpecJumpReturnToCaller:
		vm.doReturnToCaller()
	case bytecode.SpecJumpCallExternal:
		hash := vm.readUint32()
		vm.doCallExternal(hash)
	default:
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("unknown jump specifier %d", spec)})
	}
}

func (vm *VM) doCallAbsolute(target int32) {
	vm.writeReg(bytecode.RA, vm.pc)
	if vm.frameTop >= bytecode.CallFrameCapacity {
		vm.reportError(&RuntimeError{Message: "call frame ring overflow"})
		return
	}
	vm.frames[vm.frameTop] = callFrame{returnSP: vm.stack.SP()}
	vm.frameTop++
	vm.pushedTypes = vm.pushedTypes[:0]
	vm.inParams = false
	vm.currentType = value.Int32
	vm.pc = target
}

func (vm *VM) doReturnToCaller() {
	if vm.frameTop == 0 {
		vm.reportError(&RuntimeError{Message: "return-to-caller with no active call frame"})
		return
	}
	vm.frameTop--
	frame := vm.frames[vm.frameTop]
	vm.stack.Truncate(frame.returnSP)
	vm.pushedTypes = vm.pushedTypes[:0]
	vm.inParams = false
	vm.pc = vm.readReg(bytecode.RA)
}

func (vm *VM) doCallExternal(hash32 uint32) {
	if vm.inParams && len(vm.pushedTypes) < vm.paramsBase {
		vm.reportError(&RuntimeError{Message: "params-start/call-external imbalance"})
	}
	types := append([]value.Kind(nil), vm.pushedTypes[vm.paramsBase:]...)
	vm.pushedTypes = vm.pushedTypes[:vm.paramsBase]
	vm.inParams = false
	vm.currentType = value.Int32

	args := make([]value.Value, len(types))
	for i := len(types) - 1; i >= 0; i-- {
		raw, ok := vm.stack.Pop32()
		if !ok {
			vm.reportError(&RuntimeError{Message: "stack underflow during external call"})
			break
		}
		args[i] = vm.valueFromRaw(types[i], raw)
	}

	fn, ok := vm.externals[hash32]
	if !ok {
		// REDESIGN FLAGS: arguments are still popped above even though the
		// callback is missing, keeping the emitter's and VM's stack-offset
		// bookkeeping in agreement after the call returns.
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("missing external function 0x%08x", hash32)})
		return
	}
	result := fn(args)
	vm.writeReg(bytecode.XR, result.Int)
}

// --- data / type / move -------------------------------------------------------

func (vm *VM) doData(spec bytecode.Specifier) {
	switch spec {
	case bytecode.SpecDataString:
		length := int(binary.BigEndian.Uint16(vm.image[vm.pc : vm.pc+2]))
		skip := 2 + length
		if length%2 != 0 {
			skip++
		}
		vm.pc += int32(skip)
	case bytecode.SpecDataParamsStart:
		vm.inParams = true
		vm.paramsBase = len(vm.pushedTypes)
	default:
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("unknown data specifier %d", spec)})
	}
}

func (vm *VM) doType(spec bytecode.Specifier) {
	switch spec {
	case bytecode.SpecTypeInt:
		vm.currentType = value.Int32
	case bytecode.SpecTypeString:
		vm.currentType = value.String
	default:
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("unknown type specifier %d", spec)})
	}
}

func (vm *VM) doMove(spec bytecode.Specifier) {
	variant, reg := regFromSpecifier(spec)
	switch variant {
	case bytecode.SpecMoveInt32:
		imm := vm.readInt32()
		vm.writeReg(reg, imm)
	default:
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("unknown move specifier %d", spec)})
	}
}

// --- registers ----------------------------------------------------------------

func (vm *VM) readReg(reg int) int32 {
	if reg < 0 || reg >= len(vm.regs) {
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("register index %d out of range", reg)})
		return 0
	}
	return vm.regs[reg]
}

func (vm *VM) writeReg(reg int, v int32) {
	if reg < 0 || reg >= len(vm.regs) {
		vm.reportError(&RuntimeError{Message: fmt.Sprintf("register index %d out of range", reg)})
		return
	}
	vm.regs[reg] = v
}
