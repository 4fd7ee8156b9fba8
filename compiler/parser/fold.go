package parser

import (
	"math"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// constant is a folded enum initializer.
type constant struct {
	kind ast.EnumValueKind
	num  float64
	text string
}

// foldConstant evaluates a constant enum expression: literals, references
// resolved by lookup, unary and binary arithmetic, and string
// concatenation.
func foldConstant(x ast.Expr, lookup func(ast.Expr) (constant, bool)) (constant, bool) {
	switch x := x.(type) {
	case *ast.ParenExpr:
		return foldConstant(x.X, lookup)
	case *ast.NumberLit:
		return constant{kind: ast.EnumNumber, num: x.Value}, true
	case *ast.StringLit:
		return constant{kind: ast.EnumString, text: x.Value}, true
	case *ast.TemplateLit:
		if len(x.Exprs) == 0 {
			return constant{kind: ast.EnumString, text: x.Segments[0]}, true
		}
	case *ast.Ident, *ast.MemberExpr:
		return lookup(x)
	case *ast.UnaryExpr:
		c, ok := foldConstant(x.X, lookup)
		if !ok || c.kind != ast.EnumNumber {
			return constant{}, false
		}
		switch x.Op {
		case "-":
			c.num = -c.num
		case "+":
		case "~":
			c.num = float64(^toInt32(c.num))
		default:
			return constant{}, false
		}
		return c, true
	case *ast.BinaryExpr:
		l, ok := foldConstant(x.X, lookup)
		if !ok {
			return constant{}, false
		}
		r, ok := foldConstant(x.Y, lookup)
		if !ok {
			return constant{}, false
		}
		return foldBinary(x.Op, l, r)
	}
	return constant{}, false
}

func foldBinary(op string, l, r constant) (constant, bool) {
	if l.kind == ast.EnumString || r.kind == ast.EnumString {
		if op != "+" {
			return constant{}, false
		}
		return constant{kind: ast.EnumString, text: l.String() + r.String()}, true
	}
	a, b := l.num, r.num
	var v float64
	switch op {
	case "+":
		v = a + b
	case "-":
		v = a - b
	case "*":
		v = a * b
	case "/":
		v = a / b
	case "%":
		v = math.Mod(a, b)
	case "**":
		v = math.Pow(a, b)
	case "|":
		v = float64(toInt32(a) | toInt32(b))
	case "&":
		v = float64(toInt32(a) & toInt32(b))
	case "^":
		v = float64(toInt32(a) ^ toInt32(b))
	case "<<":
		v = float64(toInt32(a) << (uint32(toInt32(b)) & 31))
	case ">>":
		v = float64(toInt32(a) >> (uint32(toInt32(b)) & 31))
	case ">>>":
		v = float64(uint32(toInt32(a)) >> (uint32(toInt32(b)) & 31))
	default:
		return constant{}, false
	}
	return constant{kind: ast.EnumNumber, num: v}, true
}

// toInt32 applies the ECMAScript ToInt32 conversion.
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Mod(math.Trunc(f), 1<<32))))
}

func (c constant) String() string {
	if c.kind == ast.EnumString {
		return c.text
	}
	return ir.FormatNumber(c.num)
}
