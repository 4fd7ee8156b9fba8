package ir

import (
	"math"
	"strconv"
)

// PrimitiveKind identifies the category of a primitive type.
type PrimitiveKind int

const (
	PrimitiveString PrimitiveKind = iota
	PrimitiveNumber
	PrimitiveBoolean
	PrimitiveNull
	PrimitiveUndefined
	PrimitiveVoid
	PrimitiveNever
	PrimitiveAny
	PrimitiveUnknown
)

// String returns the TypeScript spelling of the primitive kind.
func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveString:
		return "string"
	case PrimitiveNumber:
		return "number"
	case PrimitiveBoolean:
		return "boolean"
	case PrimitiveNull:
		return "null"
	case PrimitiveUndefined:
		return "undefined"
	case PrimitiveVoid:
		return "void"
	case PrimitiveNever:
		return "never"
	case PrimitiveAny:
		return "any"
	case PrimitiveUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// PrimitiveDescriptor represents a built-in primitive type.
type PrimitiveDescriptor struct {
	exprBase
	PrimitiveKind PrimitiveKind
}

// Kind returns KindPrimitive.
func (d *PrimitiveDescriptor) Kind() DescriptorKind { return KindPrimitive }

// Convenience constructors for the primitives.

// String returns a PrimitiveDescriptor for string.
func String() *PrimitiveDescriptor { return &PrimitiveDescriptor{PrimitiveKind: PrimitiveString} }

// Number returns a PrimitiveDescriptor for number.
func Number() *PrimitiveDescriptor { return &PrimitiveDescriptor{PrimitiveKind: PrimitiveNumber} }

// Boolean returns a PrimitiveDescriptor for boolean.
func Boolean() *PrimitiveDescriptor { return &PrimitiveDescriptor{PrimitiveKind: PrimitiveBoolean} }

// Null returns a PrimitiveDescriptor for null.
func Null() *PrimitiveDescriptor { return &PrimitiveDescriptor{PrimitiveKind: PrimitiveNull} }

// Undefined returns a PrimitiveDescriptor for undefined.
func Undefined() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveUndefined}
}

// Void returns a PrimitiveDescriptor for void.
func Void() *PrimitiveDescriptor { return &PrimitiveDescriptor{PrimitiveKind: PrimitiveVoid} }

// Never returns a PrimitiveDescriptor for never.
func Never() *PrimitiveDescriptor { return &PrimitiveDescriptor{PrimitiveKind: PrimitiveNever} }

// Any returns a PrimitiveDescriptor for any.
func Any() *PrimitiveDescriptor { return &PrimitiveDescriptor{PrimitiveKind: PrimitiveAny} }

// Unknown returns a PrimitiveDescriptor for unknown.
func Unknown() *PrimitiveDescriptor { return &PrimitiveDescriptor{PrimitiveKind: PrimitiveUnknown} }

// IsPrimitive reports whether td is a primitive of the given kind.
func IsPrimitive(td TypeDescriptor, kind PrimitiveKind) bool {
	p, ok := td.(*PrimitiveDescriptor)
	return ok && p.PrimitiveKind == kind
}

// IsDynamic reports whether td is the dynamic-type escape hatch: any, unknown,
// or a construct the pipeline cannot represent.
func IsDynamic(td TypeDescriptor) bool {
	switch d := td.(type) {
	case nil:
		return true
	case *PrimitiveDescriptor:
		return d.PrimitiveKind == PrimitiveAny || d.PrimitiveKind == PrimitiveUnknown
	case *UnsupportedDescriptor:
		return true
	}
	return false
}

// IsAbsence reports whether td is null or undefined.
func IsAbsence(td TypeDescriptor) bool {
	return IsPrimitive(td, PrimitiveNull) || IsPrimitive(td, PrimitiveUndefined)
}

// Primitive returns the descriptor for kind.
func Primitive(kind PrimitiveKind) *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: kind}
}

// FormatNumber renders a number the way JavaScript converts it to a string
// for the common cases: integers without a fraction, other values in the
// shortest round-tripping form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
