package rust

import (
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// structField is one field of a generated struct.
type structField struct {
	name     string
	orig     string
	vis      string
	typ      string
	optional bool
}

// writeStruct writes a struct item. Serde attributes are added when the
// derive list includes the serde traits.
func (g *Generator) writeStruct(head, derive string, fields []structField) {
	if derive != "" {
		g.w.line(derive)
	}
	if len(fields) == 0 {
		g.w.line(head + " {}")
		return
	}
	serde := strings.Contains(derive, "Serialize")
	g.w.open(head + " {")
	for _, f := range fields {
		if serde {
			if f.orig != "" && f.orig != f.name && strings.TrimPrefix(f.name, "r#") != f.orig {
				g.w.linef("#[serde(rename = %s)]", quote(f.orig))
			}
			if f.optional {
				g.w.line(`#[serde(default, skip_serializing_if = "Option::is_none")]`)
			}
		}
		g.w.line(f.vis + f.name + ": " + f.typ + ",")
	}
	g.w.close("}")
}

// fieldTypeString renders the type of a field of the struct self, boxing
// direct self references that would make the type infinitely sized.
func (g *Generator) fieldTypeString(td ir.TypeDescriptor, optional bool, self string) string {
	inner, nullable := ir.Unwrap(td)
	s := g.rustType(inner)
	if n, ok := inner.(*ir.NamedDescriptor); ok && typeName(n.Name) == self {
		s = "Box<" + s + ">"
	}
	if s2, ok := inner.(ir.Synthesized); ok && typeName(s2.TypeName()) == self {
		s = "Box<" + s + ">"
	}
	if optional || nullable {
		return "Option<" + s + ">"
	}
	return s
}

// emitStruct writes a struct for a shape, an intersection or the data
// members of an interface.
func (g *Generator) emitStruct(name, generics, vis string, fields []ir.Field) {
	t := g.traitsOfFields(name, fields, make(map[string]bool))
	var out []structField
	for _, f := range fields {
		_, nullable := ir.Unwrap(f.Type)
		out = append(out, structField{
			name:     snakeCase(f.Name),
			orig:     f.Name,
			vis:      g.memberVis(ast.Public),
			typ:      g.fieldTypeString(f.Type, f.Optional, name),
			optional: f.Optional || nullable,
		})
	}
	g.writeStruct(vis+"struct "+name+generics, g.derives(t), out)
}

// emitUnion writes an enum with one tuple variant per member type.
func (g *Generator) emitUnion(d *ir.UnionDescriptor, vis, generics string) {
	name := typeName(d.Name)
	derive := g.derives(g.traitsOf(d, make(map[string]bool)))
	if derive != "" {
		g.w.line(derive)
	}
	if strings.Contains(derive, "Serialize") {
		g.w.line("#[serde(untagged)]")
	}
	g.w.open(vis + "enum " + name + generics + " {")
	for i, v := range unionVariants(d) {
		m := d.Members[i]
		if ir.IsAbsence(m) || ir.IsPrimitive(m, ir.PrimitiveVoid) {
			g.w.line(v + ",")
			continue
		}
		typ := g.rustType(m)
		if typ == name {
			typ = "Box<" + typ + ">"
		}
		g.w.line(v + "(" + typ + "),")
	}
	g.w.close("}")
}

func (g *Generator) emitInterface(d *ast.InterfaceDecl) {
	if g.ifaceDone[d.Name] {
		return
	}
	g.ifaceDone[d.Name] = true
	vis := g.vis(d)
	ii := g.syms.interfaces[d.Name]
	d = ii.decl
	generics := g.typeParams(d.TypeParams, false)

	for _, m := range d.Members {
		switch m := m.(type) {
		case *ast.SpecialSig:
			g.warn(ir.CodeUnsupportedConstruct, m.Span, "%s in interface %s is not supported; omitted from output", m.Kind, d.Name)
			g.w.linef("// unsupported: %s in %s (line %d)", m.Kind, d.Name, m.Span.Line)
		case *ast.Unsupported:
			g.unsupported(m)
		}
	}

	if ii.structName != "" {
		var fields []ir.Field
		for _, f := range ii.fields {
			fields = append(fields, ir.Field{Name: f.Name, Type: fieldType(f.Type), Optional: f.Optional, Readonly: f.Readonly})
		}
		if ii.traitName != "" {
			g.w.linef("// %s has data and methods: the data is struct %s and the methods are trait %s.", d.Name, ii.structName, ii.traitName)
		}
		g.emitStruct(ii.structName, generics, vis, fields)
	}
	if ii.traitName == "" {
		return
	}
	if ii.structName != "" {
		g.w.blank()
	}
	var supers []string
	for _, ext := range d.Extends {
		if e := g.syms.interfaces[ext.Name]; e != nil && e.traitName != "" {
			supers = append(supers, e.traitName+g.typeArgList(ext.Args))
		}
	}
	head := vis + "trait " + ii.traitName + g.typeParams(d.TypeParams, true)
	if len(supers) > 0 {
		head += ": " + strings.Join(supers, " + ")
	}
	if len(ii.methods) == 0 {
		g.w.line(head + " {}")
		return
	}
	g.w.open(head + " {")
	for _, m := range ii.methods {
		g.w.line(g.traitMethodHead(ii, m) + g.traitMethodTail(m))
	}
	g.w.close("}")
}

func (g *Generator) typeArgList(args []ir.TypeDescriptor) string {
	if len(args) == 0 {
		return ""
	}
	return "<" + strings.Join(g.rustTypes(args), ", ") + ">"
}

// traitMethodHead renders the signature of a trait method, without the
// trailing semicolon or body.
func (g *Generator) traitMethodHead(ii *ifaceInfo, m *ast.MethodSig) string {
	defer g.enter(&fnContext{})()
	recv := "&self"
	if ii.mutating[m.Name] {
		recv = "&mut self"
	}
	list, _ := g.params(m.Params)
	list = append([]string{recv}, list...)
	ret := m.Return
	if ret == nil {
		ret = ir.Void()
	}
	sig := "fn " + snakeCase(m.Name) + g.typeParams(m.TypeParams, true) + "(" + strings.Join(list, ", ") + ")" + g.retSuffix(ret)
	if returnsSelf(ret) {
		sig += " where Self: Sized"
	}
	return sig
}

func (g *Generator) traitMethodTail(m *ast.MethodSig) string {
	if m.Optional {
		return " {\n" + indentUnit + "todo!()\n}"
	}
	return ";"
}

// returnsSelf reports whether a method result is the receiver type.
func returnsSelf(td ir.TypeDescriptor) bool {
	n, ok := td.(*ir.NamedDescriptor)
	return ok && n.Name == "this"
}
