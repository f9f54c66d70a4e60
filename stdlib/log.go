// Package stdlib holds the external functions FoxScript programs can call
// without a host registering them explicitly, wired in as a default
// bytecode.ExternalFunc through the Script facade.
package stdlib

import (
	"fmt"
	"strings"

	"foxscript/value"
)

// Log implements the `log(args...)` builtin: variadic, no arg-type check,
// one line prefixed "[SCRIPT]: ", each argument formatted per its kind and
// space-separated. Arguments are printed in reverse of the declared
// (already un-reversed) order the VM hands to every external function —
// a quirk specific to this one function rather than a VM-wide rule, so
// it is reproduced here rather than in the VM's general call-external
// protocol.
func Log(args []value.Value) value.Value {
	var b strings.Builder
	b.WriteString("[SCRIPT]: ")
	for i := len(args) - 1; i >= 0; i-- {
		b.WriteString(args[i].String())
		if i > 0 {
			b.WriteByte(' ')
		}
	}
	fmt.Println(b.String())
	return value.None_()
}
