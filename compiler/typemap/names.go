package typemap

import (
	"strings"
	"unicode"

	"github.com/ts2rs/ts2rs/compiler/ir"
)

// Hint turns a field, parameter or variable name into a type name hint:
// "shipping_address" and "shippingAddress" both give "ShippingAddress".
func Hint(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case r == '_' || r == '$' || r == '-' || r == ' ':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out != "" && unicode.IsDigit([]rune(out)[0]) {
		out = "T" + out
	}
	return out
}

// Singular derives an element hint from a collection hint ("Items" → "Item").
func Singular(hint string) string {
	switch {
	case hint == "":
		return ""
	case strings.HasSuffix(hint, "ies") && len(hint) > 3:
		return hint[:len(hint)-3] + "y"
	case strings.HasSuffix(hint, "ss"):
		return hint + "Item"
	case strings.HasSuffix(hint, "s") && len(hint) > 1:
		return hint[:len(hint)-1]
	default:
		return hint + "Item"
	}
}

// Label returns a short PascalCase name describing td. It is used to name
// unions and intersections without a hint and their enum variants.
func Label(td ir.TypeDescriptor) string {
	switch d := td.(type) {
	case *ir.PrimitiveDescriptor:
		switch d.PrimitiveKind {
		case ir.PrimitiveString:
			return "String"
		case ir.PrimitiveNumber:
			return "Number"
		case ir.PrimitiveBoolean:
			return "Bool"
		case ir.PrimitiveAny, ir.PrimitiveUnknown:
			return "Dynamic"
		default:
			return Hint(d.PrimitiveKind.String())
		}
	case *ir.ArrayDescriptor:
		return Label(d.Element) + "List"
	case *ir.TupleDescriptor:
		return "Tuple"
	case *ir.ShapeDescriptor:
		return d.Name
	case *ir.UnionDescriptor:
		return d.Name
	case *ir.IntersectionDescriptor:
		return d.Name
	case *ir.NamedDescriptor:
		name := d.Name
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		return Hint(name)
	case *ir.FunctionDescriptor:
		return "Func"
	case *ir.TypeParamDescriptor:
		return d.ParamName
	case *ir.NullableDescriptor:
		return "Optional" + Label(d.Element)
	default:
		return "Dynamic"
	}
}
