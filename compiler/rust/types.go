package rust

import (
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ir"
)

// typePos is the position a type is emitted in. Some Rust types are only
// valid in some positions.
type typePos int

const (
	posValue typePos = iota
	posReturn
)

// dynamicType is the Rust spelling of any, unknown and unsupported types.
func (g *Generator) dynamicType() string {
	switch {
	case g.opts.Runtime:
		return "Dynamic"
	case g.opts.Serde:
		return "serde_json::Value"
	default:
		g.use("std::any::Any")
		return "Box<dyn Any>"
	}
}

// rustType returns the Rust spelling of td.
func (g *Generator) rustType(td ir.TypeDescriptor) string {
	return g.rustTypeAt(td, posValue)
}

func (g *Generator) rustTypeAt(td ir.TypeDescriptor, pos typePos) string {
	switch d := td.(type) {
	case nil:
		return g.dynamicType()
	case *ir.PrimitiveDescriptor:
		switch d.PrimitiveKind {
		case ir.PrimitiveString:
			return "String"
		case ir.PrimitiveNumber:
			return "f64"
		case ir.PrimitiveBoolean:
			return "bool"
		case ir.PrimitiveNull, ir.PrimitiveUndefined:
			return "Option<()>"
		case ir.PrimitiveVoid:
			return "()"
		case ir.PrimitiveNever:
			if pos == posReturn {
				return "!"
			}
			return "std::convert::Infallible"
		default:
			return g.dynamicType()
		}
	case *ir.ArrayDescriptor:
		return "Vec<" + g.rustType(d.Element) + ">"
	case *ir.TupleDescriptor:
		parts := g.rustTypes(d.Elements)
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ir.ShapeDescriptor:
		g.reference(d)
		return typeName(d.Name)
	case *ir.UnionDescriptor:
		g.reference(d)
		return typeName(d.Name)
	case *ir.IntersectionDescriptor:
		g.reference(d)
		return typeName(d.Name)
	case *ir.NamedDescriptor:
		return g.namedType(d, pos)
	case *ir.FunctionDescriptor:
		ret := ""
		if !ir.IsPrimitive(d.Return, ir.PrimitiveVoid) {
			ret = " -> " + g.rustTypeAt(d.Return, posReturn)
		}
		return "Box<dyn Fn(" + strings.Join(g.rustTypes(d.Params), ", ") + ")" + ret + ">"
	case *ir.TypeParamDescriptor:
		return d.ParamName
	case *ir.NullableDescriptor:
		return "Option<" + g.rustType(d.Element) + ">"
	case *ir.UnsupportedDescriptor:
		return g.dynamicType()
	}
	return g.dynamicType()
}

func (g *Generator) rustTypes(tds []ir.TypeDescriptor) []string {
	out := make([]string, len(tds))
	for i, td := range tds {
		out[i] = g.rustType(td)
	}
	return out
}

// builtinTypes maps global library types to their std equivalents.
var builtinTypes = map[string]struct {
	name  string
	use   string
	arity int
}{
	"Map":         {"HashMap", "std::collections::HashMap", 2},
	"Record":      {"HashMap", "std::collections::HashMap", 2},
	"ReadonlyMap": {"HashMap", "std::collections::HashMap", 2},
	"WeakMap":     {"HashMap", "std::collections::HashMap", 2},
	"Set":         {"HashSet", "std::collections::HashSet", 1},
	"ReadonlySet": {"HashSet", "std::collections::HashSet", 1},
	"RegExp":      {"Regex", "regex::Regex", 0},
	"Date":        {"std::time::SystemTime", "", 0},
	"Error":       {"String", "", 0},
}

func (g *Generator) namedType(d *ir.NamedDescriptor, pos typePos) string {
	args := ""
	if len(d.Args) > 0 {
		args = "<" + strings.Join(g.rustTypes(d.Args), ", ") + ">"
	}
	switch {
	case d.Name == "this":
		return "Self"
	case d.Name == "Promise":
		inner := "()"
		if len(d.Args) == 1 {
			inner = g.rustTypeAt(d.Args[0], pos)
		}
		if pos == posReturn && g.fn != nil && g.fn.async {
			return inner
		}
		return "std::pin::Pin<Box<dyn std::future::Future<Output = " + inner + ">>>"
	case g.syms.classes[d.Name] != nil, g.syms.enums[d.Name] != nil:
		return typeName(d.Name) + args
	case g.syms.interfaces[d.Name] != nil:
		ii := g.syms.interfaces[d.Name]
		if ii.structName != "" {
			return ii.structName + args
		}
		return "Box<dyn " + ii.traitName + args + ">"
	case g.syms.aliases[d.Name] != nil:
		a := g.syms.aliases[d.Name]
		if syn, ok := a.Type.(ir.Synthesized); ok && syn.TypeName() == a.Name {
			g.reference(syn)
		}
		return typeName(d.Name) + args
	case g.syms.synth[d.Name] != nil:
		g.reference(g.syms.synth[d.Name])
		return typeName(d.Name)
	}
	if b, ok := builtinTypes[d.Name]; ok {
		if b.use == "regex::Regex" {
			g.usesRegex = true
		}
		if b.use != "" {
			g.use(b.use)
		}
		if b.arity == 0 {
			return b.name
		}
		parts := g.rustTypes(d.Args)
		for len(parts) < b.arity {
			parts = append(parts, g.dynamicType())
		}
		return b.name + "<" + strings.Join(parts[:b.arity], ", ") + ">"
	}
	return g.dynamicType()
}

// isCopy reports whether values of td are Copy in Rust and can be read out
// of a borrowed receiver without cloning.
func (g *Generator) isCopy(td ir.TypeDescriptor) bool {
	switch d := g.resolve(td).(type) {
	case *ir.PrimitiveDescriptor:
		switch d.PrimitiveKind {
		case ir.PrimitiveNumber, ir.PrimitiveBoolean, ir.PrimitiveVoid, ir.PrimitiveNull, ir.PrimitiveUndefined:
			return true
		}
	case *ir.NamedDescriptor:
		return g.syms.enums[d.Name] != nil
	case *ir.NullableDescriptor:
		return g.isCopy(d.Element)
	case *ir.TupleDescriptor:
		for _, e := range d.Elements {
			if !g.isCopy(e) {
				return false
			}
		}
		return true
	}
	return false
}

// traits records which derivable traits a type supports.
type traits struct {
	clone, debug, serde bool
}

// traitsOf reports which of Clone, Debug and the serde traits every value
// of td implements. Boxed trait objects implement none of them.
func (g *Generator) traitsOf(td ir.TypeDescriptor, seen map[string]bool) traits {
	all := traits{clone: true, debug: true, serde: true}
	switch d := td.(type) {
	case nil, *ir.UnsupportedDescriptor:
		return g.dynamicTraits()
	case *ir.PrimitiveDescriptor:
		if ir.IsDynamic(d) {
			return g.dynamicTraits()
		}
		if d.PrimitiveKind == ir.PrimitiveNever {
			all.serde = false
		}
		return all
	case *ir.ArrayDescriptor:
		return g.traitsOf(d.Element, seen)
	case *ir.NullableDescriptor:
		return g.traitsOf(d.Element, seen)
	case *ir.TupleDescriptor:
		return g.traitsOfAll(d.Elements, seen)
	case *ir.FunctionDescriptor:
		return traits{}
	case *ir.ShapeDescriptor:
		return g.traitsOfFields(d.Name, d.Fields, seen)
	case *ir.IntersectionDescriptor:
		return g.traitsOfFields(d.Name, g.intersectionFields(d), seen)
	case *ir.UnionDescriptor:
		if seen[d.Name] {
			return all
		}
		seen[d.Name] = true
		return g.traitsOfAll(d.Members, seen)
	case *ir.NamedDescriptor:
		t := g.traitsOfAll(d.Args, seen)
		switch {
		case d.Name == "this" || g.syms.enums[d.Name] != nil:
			return t
		case g.syms.aliases[d.Name] != nil:
			if seen[d.Name] {
				return t
			}
			seen[d.Name] = true
			return meet(t, g.traitsOf(g.syms.aliases[d.Name].Type, seen))
		case g.syms.interfaces[d.Name] != nil && g.syms.interfaces[d.Name].structName == "":
			return traits{}
		}
		if name, fields, ok := g.structFields(d); ok {
			return meet(t, g.traitsOfFields(name, fields, seen))
		}
		if b, ok := builtinTypes[d.Name]; ok {
			if b.name == "Regex" || b.name == "std::time::SystemTime" {
				t.serde = false
			}
			return t
		}
		return meet(t, g.dynamicTraits())
	}
	return all
}

func (g *Generator) traitsOfAll(tds []ir.TypeDescriptor, seen map[string]bool) traits {
	t := traits{clone: true, debug: true, serde: true}
	for _, td := range tds {
		t = meet(t, g.traitsOf(td, seen))
	}
	return t
}

func (g *Generator) traitsOfFields(name string, fields []ir.Field, seen map[string]bool) traits {
	t := traits{clone: true, debug: true, serde: true}
	if seen[name] {
		return t
	}
	seen[name] = true
	for _, f := range fields {
		t = meet(t, g.traitsOf(f.Type, seen))
	}
	return t
}

func (g *Generator) dynamicTraits() traits {
	switch {
	case g.opts.Runtime, g.opts.Serde:
		return traits{clone: true, debug: true, serde: true}
	default:
		return traits{debug: true}
	}
}

func meet(a, b traits) traits {
	return traits{clone: a.clone && b.clone, debug: a.debug && b.debug, serde: a.serde && b.serde}
}

// derives returns the derive list for an item whose fields have the given
// traits.
func (g *Generator) derives(t traits) string {
	var out []string
	for _, d := range g.opts.Derives {
		switch d {
		case "Clone":
			if !t.clone {
				continue
			}
		case "Debug":
			if !t.debug {
				continue
			}
		case "Default", "PartialEq":
			if !t.clone {
				continue
			}
		}
		out = append(out, d)
	}
	if g.opts.Serde && t.serde {
		g.use("serde::{Deserialize, Serialize}")
		out = append(out, "Serialize", "Deserialize")
	}
	if len(out) == 0 {
		return ""
	}
	return "#[derive(" + strings.Join(out, ", ") + ")]"
}
