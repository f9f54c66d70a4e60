package vm

import (
	"encoding/binary"

	"foxscript/bytecode"
)

// DataStack is the VM's flat, byte-addressable data stack: a fixed-size
// buffer plus a stack pointer, holding raw 4-byte slots addressed by
// absolute byte offset rather than tagged Go values.
type DataStack struct {
	bytes [bytecode.StackSize]byte
	sp    int32
}

// NewDataStack returns an empty data stack.
func NewDataStack() *DataStack {
	return &DataStack{}
}

// SP returns the current stack pointer.
func (s *DataStack) SP() int32 { return s.sp }

// Push32 writes v at the current SP and advances it by 4.
func (s *DataStack) Push32(v int32) bool {
	if s.sp+4 > bytecode.StackSize {
		return false
	}
	binary.BigEndian.PutUint32(s.bytes[s.sp:s.sp+4], uint32(v))
	s.sp += 4
	return true
}

// Pop32 retreats SP by 4 and returns the 4 bytes it passed over. Reports
// false (stack underflow) without modifying SP if it is already 0.
func (s *DataStack) Pop32() (int32, bool) {
	if s.sp < 4 {
		return 0, false
	}
	s.sp -= 4
	return int32(binary.BigEndian.Uint32(s.bytes[s.sp : s.sp+4])), true
}

// ReadAt reads 4 bytes at an absolute offset without moving SP.
func (s *DataStack) ReadAt(off int32) int32 {
	if off < 0 || off+4 > bytecode.StackSize {
		return 0
	}
	return int32(binary.BigEndian.Uint32(s.bytes[off : off+4]))
}

// WriteAt writes 4 bytes at an absolute offset without moving SP.
func (s *DataStack) WriteAt(off int32, v int32) {
	if off < 0 || off+4 > bytecode.StackSize {
		return
	}
	binary.BigEndian.PutUint32(s.bytes[off:off+4], uint32(v))
}

// Truncate resets SP to sp, discarding everything above it — used by
// return-to-caller to unwind a call frame in one step.
func (s *DataStack) Truncate(sp int32) {
	if sp >= 0 && sp <= s.sp {
		s.sp = sp
	}
}
