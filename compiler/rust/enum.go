package rust

import (
	"strconv"
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// emitEnum writes a simple enum as a plain Rust enum and a valued enum as
// an enum with value, from_value and Display.
func (g *Generator) emitEnum(d *ast.EnumDecl) {
	for _, m := range d.Members {
		if m.Kind == ast.EnumComputed {
			g.warn(ir.CodeUnsupportedConstruct, m.Span, "enum member %s.%s has a computed value; its value is not preserved", d.Name, m.Name)
		}
	}
	derive := []string{"Debug", "Clone", "Copy", "PartialEq", "Eq", "Hash"}
	if g.opts.Serde {
		g.use("serde::{Deserialize, Serialize}")
		derive = append(derive, "Serialize", "Deserialize")
	}
	g.w.line("#[derive(" + strings.Join(derive, ", ") + ")]")
	if d.Class == ast.SimpleEnum {
		g.emitSimpleEnum(d)
		return
	}
	g.emitValuedEnum(d)
}

func (g *Generator) emitSimpleEnum(d *ast.EnumDecl) {
	name := typeName(d.Name)
	explicit := false
	for _, m := range d.Members {
		if m.Init != nil {
			explicit = true
		}
	}
	if explicit {
		seen := make(map[float64]bool)
		for _, m := range d.Members {
			if m.Kind != ast.EnumNumber || m.Number != float64(int64(m.Number)) || seen[m.Number] {
				g.warn(ir.CodeUnsupportedConstruct, d.Span, "enum %s has non-integer or repeated values; discriminants are omitted", d.Name)
				explicit = false
				break
			}
			seen[m.Number] = true
		}
	}
	if len(d.Members) == 0 {
		g.w.line(g.vis(d) + "enum " + name + " {}")
		return
	}
	g.w.open(g.vis(d) + "enum " + name + " {")
	for _, m := range d.Members {
		if explicit {
			g.w.line(pascalCase(m.Name) + " = " + strconv.FormatInt(int64(m.Number), 10) + ",")
			continue
		}
		g.w.line(pascalCase(m.Name) + ",")
	}
	g.w.close("}")
}

// enumValue is the text a valued enum member stands for.
func enumValue(m *ast.EnumMember) string {
	switch m.Kind {
	case ast.EnumString:
		return m.Text
	case ast.EnumNumber:
		return ir.FormatNumber(m.Number)
	}
	return m.Name
}

func (g *Generator) emitValuedEnum(d *ast.EnumDecl) {
	name := typeName(d.Name)
	vis := g.vis(d)
	g.w.open(vis + "enum " + name + " {")
	for _, m := range d.Members {
		if g.opts.Serde {
			g.w.linef("#[serde(rename = %s)]", quote(enumValue(m)))
		}
		g.w.line(pascalCase(m.Name) + ",")
	}
	g.w.close("}")
	g.w.blank()

	g.w.open("impl " + name + " {")
	g.w.open(vis + "fn value(&self) -> &'static str {")
	g.w.open("match self {")
	for _, m := range d.Members {
		g.w.line(name + "::" + pascalCase(m.Name) + " => " + quote(enumValue(m)) + ",")
	}
	g.w.close("}")
	g.w.close("}")
	g.w.line("")
	g.w.open(vis + "fn from_value(value: &str) -> Option<Self> {")
	g.w.open("match value {")
	seen := make(map[string]bool)
	for _, m := range d.Members {
		v := enumValue(m)
		if seen[v] {
			continue
		}
		seen[v] = true
		g.w.line(quote(v) + " => Some(" + name + "::" + pascalCase(m.Name) + "),")
	}
	g.w.line("_ => None,")
	g.w.close("}")
	g.w.close("}")
	g.w.close("}")
	g.w.blank()

	g.w.open("impl std::fmt::Display for " + name + " {")
	g.w.open("fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {")
	g.w.line("f.write_str(self.value())")
	g.w.close("}")
	g.w.close("}")
}
