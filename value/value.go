// Package value defines the tagged-sum runtime value shared by the AST,
// the scope tables, the bytecode emitter and the VM.
package value

import "fmt"

// Kind discriminates the payload carried by a Value.
type Kind uint8

const (
	None Kind = iota
	Int32
	Float32
	Vec3
	String
	Reference
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Int32:
		return "int"
	case Float32:
		return "float"
	case Vec3:
		return "vec3"
	case String:
		return "string"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

// Value is a tagged sum over {none, int32, float32, vec3, string,
// reference}. String payloads are ordinary Go strings, copied from the
// source text by the lexer or from the bytecode image's inline data block
// by the VM.
type Value struct {
	Kind Kind

	Int   int32
	Float float32
	Vec3  [3]float32
	Str   string

	// RefHash and RefName, when Kind is Reference, name the variable this value refers to
	// (by name-hash) rather than carrying its value directly.
	RefHash uint64
	RefName string
}

func Int(v int32) Value    { return Value{Kind: Int32, Int: v} }
func Float(v float32) Value { return Value{Kind: Float32, Float: v} }
func Str(v string) Value   { return Value{Kind: String, Str: v} }
func None_() Value         { return Value{Kind: None} }

// String renders the value the way the default `log` external function
// does: int as decimal, float with Go's default formatting, string as its
// raw bytes, none as the literal "[none]".
func (v Value) String() string {
	switch v.Kind {
	case Int32:
		return fmt.Sprintf("%d", v.Int)
	case Float32:
		return fmt.Sprintf("%v", v.Float)
	case Vec3:
		return fmt.Sprintf("(%v, %v, %v)", v.Vec3[0], v.Vec3[1], v.Vec3[2])
	case String:
		return v.Str
	case Reference:
		return v.RefName
	default:
		return "[none]"
	}
}

// TypeKindForTypeName maps a declared type token's spelling to a value
// Kind. "playerid" is an alias for "int", per the language surface.
func TypeKindForTypeName(typeName string) (Kind, bool) {
	switch typeName {
	case "int", "playerid":
		return Int32, true
	case "float":
		return Float32, true
	case "string":
		return String, true
	default:
		return None, false
	}
}
