package rust

import (
	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// typeOf returns the static type of x as far as local information allows,
// or nil. It never reports diagnostics.
func (g *Generator) typeOf(x ast.Expr) ir.TypeDescriptor {
	switch x := x.(type) {
	case nil:
		return nil
	case *ast.NumberLit, *ast.UpdateExpr:
		return ir.Number()
	case *ast.StringLit, *ast.TemplateLit:
		return ir.String()
	case *ast.BoolLit:
		return ir.Boolean()
	case *ast.RegexLit:
		return ir.Named("RegExp")
	case *ast.Ident:
		return g.identType(x.Name)
	case *ast.ThisExpr:
		if g.fn != nil && g.fn.class != nil {
			return ir.Named(g.fn.class.decl.Name)
		}
	case *ast.ParenExpr:
		return g.typeOf(x.X)
	case *ast.AsExpr:
		return x.Type
	case *ast.NonNullExpr:
		td, _ := ir.Unwrap(g.typeOf(x.X))
		return td
	case *ast.ArrayLit:
		for _, e := range x.Elems {
			if s, ok := e.(*ast.SpreadExpr); ok {
				if td := g.typeOf(s.X); td != nil {
					return td
				}
				continue
			}
			if td := g.typeOf(e); td != nil {
				return ir.ArrayOf(td)
			}
		}
	case *ast.UnaryExpr:
		switch x.Op {
		case "!", "delete":
			return ir.Boolean()
		case "-", "+", "~":
			return ir.Number()
		case "typeof":
			return ir.String()
		case "void":
			return ir.Void()
		case "await":
			if n, ok := g.typeOf(x.X).(*ir.NamedDescriptor); ok && n.Name == "Promise" && len(n.Args) == 1 {
				return n.Args[0]
			}
		}
	case *ast.BinaryExpr:
		return g.binaryType(x)
	case *ast.AssignExpr:
		return g.typeOf(x.Value)
	case *ast.CondExpr:
		if td := g.typeOf(x.Then); td != nil {
			return td
		}
		return g.typeOf(x.Else)
	case *ast.MemberExpr:
		td := g.memberType(x)
		if td != nil && x.Optional {
			return ir.Nullable(td)
		}
		return td
	case *ast.IndexExpr:
		return g.indexType(x)
	case *ast.CallExpr:
		return g.callType(x)
	case *ast.NewExpr:
		id, ok := x.Ctor.(*ast.Ident)
		if !ok {
			return nil
		}
		switch id.Name {
		case "Error":
			return ir.String()
		case "Array":
			return ir.ArrayOf(firstArg(x.TypeArgs))
		}
		if g.syms.classes[id.Name] != nil || builtinTypes[id.Name].name != "" {
			return ir.Named(id.Name, x.TypeArgs...)
		}
	case *ast.FuncLit:
		params := make([]ir.TypeDescriptor, len(x.Params))
		for i, p := range x.Params {
			params[i] = fieldType(p.Type)
		}
		ret := x.Return
		if ret == nil && x.ExprBody != nil {
			ret = g.typeOf(x.ExprBody)
		}
		if ret == nil {
			ret = ir.Void()
		}
		return ir.Func(ret, params...)
	}
	return nil
}

func firstArg(args []ir.TypeDescriptor) ir.TypeDescriptor {
	if len(args) > 0 {
		return args[0]
	}
	return ir.Any()
}

func (g *Generator) identType(name string) ir.TypeDescriptor {
	if td, ok := g.lookup(name); ok {
		return td
	}
	switch name {
	case "NaN", "Infinity":
		return ir.Number()
	case "undefined":
		return nil
	}
	if c := g.syms.consts[name]; c != nil {
		return c.typ
	}
	if f := g.syms.funcs[name]; f != nil {
		params := make([]ir.TypeDescriptor, len(f.Params))
		for i, p := range f.Params {
			params[i] = fieldType(p.Type)
		}
		ret := f.Return
		if ret == nil {
			ret = ir.Void()
		}
		return ir.Func(ret, params...)
	}
	return nil
}

func (g *Generator) binaryType(x *ast.BinaryExpr) ir.TypeDescriptor {
	switch x.Op {
	case "==", "===", "!=", "!==", "<", ">", "<=", ">=", "instanceof", "in":
		return ir.Boolean()
	case "&&", "||":
		if l := g.typeOf(x.X); ir.IsPrimitive(l, ir.PrimitiveBoolean) {
			return l
		}
		return g.typeOf(x.Y)
	case "??":
		if r := g.typeOf(x.Y); r != nil {
			return r
		}
		l, _ := ir.Unwrap(g.typeOf(x.X))
		return l
	case "+":
		if g.isString(x.X) || g.isString(x.Y) {
			return ir.String()
		}
	}
	return ir.Number()
}

// memberType resolves the type of x.name for classes, struct-like types,
// enums and well-known globals.
func (g *Generator) memberType(x *ast.MemberExpr) ir.TypeDescriptor {
	if id, ok := x.X.(*ast.Ident); ok {
		if _, local := g.lookup(id.Name); !local {
			switch {
			case g.syms.enums[id.Name] != nil:
				return ir.Named(id.Name)
			case g.syms.classes[id.Name] != nil:
				if p := g.syms.classes[id.Name].static(x.Name); p != nil {
					return g.propertyType(p)
				}
				return nil
			case id.Name == "Math" || id.Name == "Number":
				return ir.Number()
			}
		}
	}
	if x.Name == "length" || x.Name == "size" {
		return ir.Number()
	}
	recv, _ := ir.Unwrap(g.typeOf(x.X))
	return g.fieldOf(recv, x.Name)
}

// fieldOf returns the type of the data member name of recv, or nil.
func (g *Generator) fieldOf(recv ir.TypeDescriptor, name string) ir.TypeDescriptor {
	n, _ := g.resolve(recv).(*ir.NamedDescriptor)
	if n != nil {
		if ci := g.syms.classes[n.Name]; ci != nil {
			if p := ci.field(name); p != nil {
				return optional(g.propertyType(p), p.Optional)
			}
			if a := ci.getters[name]; a != nil {
				return a.Return
			}
			return nil
		}
	}
	if _, fields, ok := g.structFields(recv); ok {
		for _, f := range fields {
			if f.Name == name {
				return optional(f.Type, f.Optional)
			}
		}
	}
	return nil
}

func optional(td ir.TypeDescriptor, opt bool) ir.TypeDescriptor {
	if opt && td != nil {
		return ir.Nullable(td)
	}
	return td
}

// propertyType is the declared type of a class property, or the type of
// its initializer.
func (g *Generator) propertyType(p *ast.Property) ir.TypeDescriptor {
	if p.Type != nil {
		td, _ := ir.Unwrap(p.Type)
		return td
	}
	if td := g.typeOf(p.Init); td != nil {
		return td
	}
	return ir.Any()
}

func (g *Generator) indexType(x *ast.IndexExpr) ir.TypeDescriptor {
	recv, _ := ir.Unwrap(g.typeOf(x.X))
	switch d := g.resolve(recv).(type) {
	case *ir.ArrayDescriptor:
		return d.Element
	case *ir.TupleDescriptor:
		if n, ok := x.Index.(*ast.NumberLit); ok && int(n.Value) < len(d.Elements) && n.Value >= 0 {
			return d.Elements[int(n.Value)]
		}
	case *ir.PrimitiveDescriptor:
		if d.PrimitiveKind == ir.PrimitiveString {
			return ir.String()
		}
	case *ir.NamedDescriptor:
		if builtinTypes[d.Name].name == "HashMap" && len(d.Args) == 2 {
			return d.Args[1]
		}
	}
	return nil
}

// stringResults and boolResults are the built-in methods whose result type
// does not depend on the receiver.
var (
	stringResults = map[string]bool{
		"toUpperCase": true, "toLowerCase": true, "trim": true, "trimStart": true, "trimEnd": true,
		"join": true, "toString": true, "toFixed": true, "repeat": true, "replace": true,
		"replaceAll": true, "charAt": true, "padStart": true, "padEnd": true, "substring": true,
		"stringify": true,
	}
	boolResults = map[string]bool{
		"includes": true, "startsWith": true, "endsWith": true, "has": true, "some": true,
		"every": true, "test": true, "isNaN": true, "isArray": true, "isInteger": true,
	}
)

func (g *Generator) callType(x *ast.CallExpr) ir.TypeDescriptor {
	switch fn := ast.Unparen(x.Fn).(type) {
	case *ast.Ident:
		if _, local := g.lookup(fn.Name); !local {
			if f := g.syms.funcs[fn.Name]; f != nil {
				return f.Return
			}
			switch fn.Name {
			case "parseInt", "parseFloat", "Number":
				return ir.Number()
			case "String":
				return ir.String()
			case "Boolean", "isNaN":
				return ir.Boolean()
			}
		}
		if f, ok := g.identType(fn.Name).(*ir.FunctionDescriptor); ok {
			return f.Return
		}
	case *ast.MemberExpr:
		if id, ok := fn.X.(*ast.Ident); ok {
			if ci := g.syms.classes[id.Name]; ci != nil {
				if m := ci.method(fn.Name); m != nil {
					return m.Return
				}
			}
			if id.Name == "Math" {
				return ir.Number()
			}
		}
		recv, _ := ir.Unwrap(g.typeOf(fn.X))
		if n, ok := g.resolve(recv).(*ir.NamedDescriptor); ok {
			if ci := g.syms.classes[n.Name]; ci != nil {
				if m := ci.method(fn.Name); m != nil {
					if ci.kinds[m.Name] == Chainable {
						return n
					}
					return m.Return
				}
			}
			if ii := g.syms.interfaces[n.Name]; ii != nil {
				for _, m := range ii.methods {
					if m.Name == fn.Name {
						return m.Return
					}
				}
			}
			if builtinTypes[n.Name].name == "HashMap" && fn.Name == "get" && len(n.Args) == 2 {
				return ir.Nullable(n.Args[1])
			}
		}
		switch {
		case stringResults[fn.Name]:
			return ir.String()
		case boolResults[fn.Name]:
			return ir.Boolean()
		case fn.Name == "indexOf" || fn.Name == "push" || fn.Name == "charCodeAt":
			return ir.Number()
		case fn.Name == "split":
			return ir.ArrayOf(ir.String())
		}
		if arr, ok := g.resolve(recv).(*ir.ArrayDescriptor); ok {
			switch fn.Name {
			case "filter", "slice", "concat", "reverse", "sort":
				return arr
			case "pop", "shift", "find":
				return ir.Nullable(arr.Element)
			case "map":
				if len(x.Args) == 1 {
					if f, ok := g.typeOf(x.Args[0]).(*ir.FunctionDescriptor); ok && !ir.IsPrimitive(f.Return, ir.PrimitiveVoid) {
						return ir.ArrayOf(f.Return)
					}
				}
			}
		}
		if ir.IsPrimitive(recv, ir.PrimitiveString) && (fn.Name == "slice" || fn.Name == "substring") {
			return ir.String()
		}
	}
	return nil
}

// isString reports whether x is statically a string.
func (g *Generator) isString(x ast.Expr) bool {
	return ir.IsPrimitive(g.resolve(g.typeOf(x)), ir.PrimitiveString)
}

func (g *Generator) isNullable(x ast.Expr) bool {
	_, ok := g.typeOf(x).(*ir.NullableDescriptor)
	return ok
}

// classOf returns the same-file class that x is an instance of.
func (g *Generator) classOf(x ast.Expr) *classInfo {
	if _, ok := ast.Unparen(x).(*ast.ThisExpr); ok && g.fn != nil {
		return g.fn.class
	}
	n, ok := g.resolve(g.typeOf(x)).(*ir.NamedDescriptor)
	if !ok {
		return nil
	}
	return g.syms.classes[n.Name]
}

// isDisplay reports whether values of td implement Display in the
// generated code and can use {} in format strings.
func (g *Generator) isDisplay(td ir.TypeDescriptor) bool {
	switch d := g.resolve(td).(type) {
	case *ir.PrimitiveDescriptor:
		switch d.PrimitiveKind {
		case ir.PrimitiveString, ir.PrimitiveNumber, ir.PrimitiveBoolean:
			return true
		}
		return g.opts.Runtime && ir.IsDynamic(d)
	case *ir.NamedDescriptor:
		e := g.syms.enums[d.Name]
		return e != nil && e.Class == ast.ValuedEnum
	}
	return false
}
