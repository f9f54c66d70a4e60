package bytecode

import (
	"fmt"
	"strings"
)

// IRInstruction is one entry of the emitter's parallel, human-readable
// log of the same instruction sequence written into the byte image,
// useful for cmd_emit's dump and for debugging the emitter itself
// without hand-decoding big-endian bytes.
type IRInstruction struct {
	Offset   int32
	Op       string
	Operands []string
}

func (ir IRInstruction) String() string {
	body := ir.Op
	if len(ir.Operands) != 0 {
		body += " " + strings.Join(ir.Operands, ", ")
	}
	return body
}

// DumpIR renders a full IR log as one line per instruction, offsets
// included, matching the style of a disassembly listing.
func DumpIR(ir []IRInstruction) string {
	var b strings.Builder
	for _, inst := range ir {
		fmt.Fprintf(&b, "0x%08x  %s\n", inst.Offset, inst.String())
	}
	return b.String()
}
