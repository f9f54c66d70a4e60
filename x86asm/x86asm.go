// Package x86asm renders a finished bytecode.Bytecode as textual,
// AT&T-ish x86 assembly: a single linear, non-mutating walk over the
// emitter's IR log, one mnemonic per instruction, register numbers
// mapped to their names the way bytecode.RegisterName already does.
// The codegen shape (a switch keyed on opcode, building output with
// strings.Builder) follows common assembly-emission passes.
package x86asm

import (
	"fmt"
	"strings"

	"foxscript/bytecode"
)

// gpName maps a bytecode register number to the x86 general-purpose
// register this package pretends to target. There's no real register
// allocator here: every bytecode register gets a fixed home, since the
// point of this pass is a readable transcription, not a working binary.
func gpName(reg int) string {
	switch reg {
	case bytecode.RX0:
		return "%eax"
	case bytecode.RX1:
		return "%ebx"
	case bytecode.RX2:
		return "%ecx"
	case bytecode.RX3:
		return "%edx"
	case bytecode.RA:
		return "%r12d"
	case bytecode.XR:
		return "%r13d"
	case bytecode.SP:
		return "%esp"
	default:
		return "%r?"
	}
}

// Render walks a compiled program's IR log in order and returns one
// assembly-ish line per instruction.
func Render(program *bytecode.Bytecode) string {
	var b strings.Builder
	for _, inst := range program.IR {
		fmt.Fprintf(&b, "%s\n", renderInstruction(inst))
	}
	return b.String()
}

func renderInstruction(inst bytecode.IRInstruction) string {
	label := fmt.Sprintf("L0x%08x:", inst.Offset)
	switch inst.Op {
	case "push.int32":
		return fmt.Sprintf("%-14s push $%s", label, inst.Operands[0])
	case "push.reg32":
		return fmt.Sprintf("%-14s push %s", label, regOperand(inst.Operands[0]))
	case "pop.int32":
		return fmt.Sprintf("%-14s pop %s", label, regOperand(inst.Operands[0]))
	case "load.rel":
		return fmt.Sprintf("%-14s mov %s(%%esp), %s", label, inst.Operands[1], regOperand(inst.Operands[0]))
	case "load.abs":
		return fmt.Sprintf("%-14s mov 0x%s, %s", label, inst.Operands[1], regOperand(inst.Operands[0]))
	case "save.rel.imm":
		return fmt.Sprintf("%-14s movl $%s, %s(%%esp)", label, inst.Operands[1], inst.Operands[0])
	case "save.rel.reg":
		return fmt.Sprintf("%-14s mov %s, %s(%%esp)", label, regOperand(inst.Operands[1]), inst.Operands[0])
	case "save.abs.imm":
		return fmt.Sprintf("%-14s movl $%s, 0x%s", label, inst.Operands[1], inst.Operands[0])
	case "save.abs.reg":
		return fmt.Sprintf("%-14s mov %s, 0x%s", label, regOperand(inst.Operands[1]), inst.Operands[0])
	case "arith.add":
		return fmt.Sprintf("%-14s add %s, %s ; -> %s", label, regOperand(inst.Operands[1]), regOperand(inst.Operands[0]), gpName(bytecode.XR))
	case "arith.sub":
		return fmt.Sprintf("%-14s sub %s, %s ; -> %s", label, regOperand(inst.Operands[1]), regOperand(inst.Operands[0]), gpName(bytecode.XR))
	case "jump.rel":
		return fmt.Sprintf("%-14s jmp .%s", label, inst.Operands[0])
	case "call.abs":
		return fmt.Sprintf("%-14s call 0x%s", label, inst.Operands[0])
	case "call.external":
		return fmt.Sprintf("%-14s call *extern_0x%s", label, inst.Operands[0])
	case "return":
		return fmt.Sprintf("%-14s ret", label)
	case "data.string":
		return fmt.Sprintf("%-14s .asciz %s", label, inst.Operands[0])
	case "params.start":
		return fmt.Sprintf("%-14s ; params-start", label)
	case "type.int":
		return fmt.Sprintf("%-14s ; type int", label)
	case "type.string":
		return fmt.Sprintf("%-14s ; type string", label)
	case "move.int32":
		return fmt.Sprintf("%-14s mov $%s, %s", label, inst.Operands[1], regOperand(inst.Operands[0]))
	default:
		return fmt.Sprintf("%-14s ; unrecognized op %s %v", label, inst.Op, inst.Operands)
	}
}

// regOperand converts an IR register name (as bytecode.RegisterName
// renders it, e.g. "RX0") to its x86 register.
func regOperand(name string) string {
	switch name {
	case "RX0":
		return gpName(bytecode.RX0)
	case "RX1":
		return gpName(bytecode.RX1)
	case "RX2":
		return gpName(bytecode.RX2)
	case "RX3":
		return gpName(bytecode.RX3)
	case "RA":
		return gpName(bytecode.RA)
	case "XR":
		return gpName(bytecode.XR)
	case "SP":
		return gpName(bytecode.SP)
	default:
		return "%r?"
	}
}
