// Package bytecode implements FoxScript's bytecode/IR emitter: it walks
// the ast package's tree and produces the byte-addressable instruction
// stream the vm package interprets, plus a parallel, human-readable IR
// log of the same instruction sequence for inspection (cmd_emit.go,
// x86asm). All multi-byte operands are big-endian.
package bytecode

// Base is the first byte of every instruction header.
type Base byte

const (
	BasePush Base = iota
	BasePop
	BaseLoad
	BaseSave
	BaseArith
	BaseJump
	BaseData
	BaseType
	BaseMove
)

func (b Base) String() string {
	switch b {
	case BasePush:
		return "push"
	case BasePop:
		return "pop"
	case BaseLoad:
		return "load"
	case BaseSave:
		return "save"
	case BaseArith:
		return "arith"
	case BaseJump:
		return "jump"
	case BaseData:
		return "data"
	case BaseType:
		return "type"
	case BaseMove:
		return "move"
	default:
		return "unknown"
	}
}

// Specifier is the second byte of every instruction header. Only pop,
// load and move pack a register number into the low nibble alongside
// their variant (high nibble); every other base's specifier byte is the
// variant value outright, and any register operand those bases need
// (push reg32, save reg32/abs-reg32, arith, jump abs-reg32) is a plain
// trailing operand instead.
type Specifier byte

const (
	// push — reg32's register is a trailing reg16 operand, not packed.
	SpecPushInt32 Specifier = iota
	SpecPushReg32
)

const (
	// pop — register packed into the low nibble alongside this variant.
	SpecPopInt32 Specifier = iota
)

const (
	// load — register packed into the low nibble alongside the variant.
	SpecLoadInt32    Specifier = iota // relative: SP + sign-extend(off16)
	SpecLoadAbsInt32                  // absolute: abs32 verbatim
)

const (
	// save — the register operand (where present) is a trailing reg16,
	// not packed into the specifier.
	SpecSaveInt32    Specifier = iota // off16, imm32
	SpecSaveReg32                     // off16, reg16
	SpecSaveAbsInt32                  // abs32, imm32
	SpecSaveAbsReg32                  // abs32, reg16
)

const (
	// arith — two trailing one-byte register operands, result in XR.
	// Sub is the natural counterpart the emitter needs for the `-` half
	// of a right-associative `+`/`-` chain.
	SpecArithAdd Specifier = iota
	SpecArithSub
)

const (
	SpecJumpRelative      Specifier = iota // off16
	SpecJumpAbsolute                       // abs32
	SpecJumpAbsReg32                       // reg16
	SpecJumpCallAbsolute                   // abs32
	SpecJumpReturnToCaller                 // —
	SpecJumpCallExternal                   // hash32
)

const (
	SpecDataString      Specifier = iota // len16 + bytes
	SpecDataParamsStart                  // —
)

const (
	SpecTypeInt Specifier = iota
	SpecTypeString
)

const (
	// move — register packed into the low nibble alongside this variant.
	SpecMoveInt32 Specifier = iota
)

// Register numbers. RX0..RX3 are the four general-purpose registers the
// allocator hands out; RA, XR and SP are fixed-purpose and never
// allocated.
const (
	RX0 = 0
	RX1 = 1
	RX2 = 2
	RX3 = 3
	RA  = 4
	XR  = 5
	SP  = 6
)

// RegisterName renders a register number the way disassembly output and
// x86asm do.
func RegisterName(reg int) string {
	switch reg {
	case RX0:
		return "RX0"
	case RX1:
		return "RX1"
	case RX2:
		return "RX2"
	case RX3:
		return "RX3"
	case RA:
		return "RA"
	case XR:
		return "XR"
	case SP:
		return "SP"
	default:
		return "R?"
	}
}

// HeaderSize is the number of bytes every instruction's (base, specifier)
// header occupies.
const HeaderSize = 2

// StackSize is the VM's flat data-stack size in bytes.
const StackSize = 1024

// CallFrameCapacity bounds the VM's ring of call frames.
const CallFrameCapacity = 8

// Hash32 truncates a 64-bit FNV-1a hash to the 32-bit form the
// call-external instruction's hash32 operand, and the VM's/Script's
// external dispatch tables, both key on.
func Hash32(h uint64) uint32 { return uint32(h) }
