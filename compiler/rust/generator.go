// Package rust generates Rust source from a parsed TypeScript program.
//
// Generation never fails: constructs without a translation are replaced by
// a comment and reported as warnings, and everything else in the file is
// still emitted. The same Program and Options always produce byte-identical
// output.
package rust

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// Visibility selects the visibility of generated items.
type Visibility string

const (
	// VisibilityPub makes every item pub.
	VisibilityPub Visibility = "pub"
	// VisibilityCrate makes every item pub(crate).
	VisibilityCrate Visibility = "crate"
	// VisibilityExported makes exported declarations pub and the rest private.
	VisibilityExported Visibility = "exported"
)

// DefaultDerives are derived for structs and unions when Options.Derives is nil.
var DefaultDerives = []string{"Debug", "Clone"}

// Options configures generation.
type Options struct {
	// Runtime emits the ts2rs_runtime prelude and its Dynamic type for
	// any and unknown values.
	Runtime bool

	// Serde derives Serialize and Deserialize and uses serde_json::Value
	// as the dynamic type when Runtime is off.
	Serde bool

	// Derives lists the traits derived for generated structs and unions.
	Derives []string

	// Visibility controls item visibility. Empty means VisibilityPub.
	Visibility Visibility
}

// Output is the result of generating one file.
type Output struct {
	// Source is the complete Rust source text.
	Source string

	// Diagnostics are the parser and generator warnings ordered by position.
	Diagnostics ir.Diagnostics

	// UsesRegex is set when the source needs the regex crate.
	UsesRegex bool
}

// Generator holds the state of one generation run.
type Generator struct {
	opts Options
	prog *ast.Program
	w    *writer

	syms        *symbols
	interFields map[*ir.IntersectionDescriptor][]ir.Field
	diags       ir.Diagnostics
	uses        map[string]bool
	usesRegex   bool

	// referenced synthesized types are emitted at the end of the file
	// unless a type alias already emitted them.
	referenced map[ir.Synthesized]bool
	emitted    map[ir.Synthesized]bool

	// exported names the declarations wrapped in export.
	exported map[ast.Decl]bool

	// ifaceDone records interfaces already emitted; merged declarations
	// are emitted once.
	ifaceDone map[string]bool

	fn *fnContext
}

// Generate translates prog into Rust.
func Generate(prog *ast.Program, opts Options) *Output {
	if opts.Derives == nil {
		opts.Derives = DefaultDerives
	}
	if opts.Visibility == "" {
		opts.Visibility = VisibilityPub
	}
	g := &Generator{
		opts:        opts,
		prog:        prog,
		w:           &writer{},
		interFields: make(map[*ir.IntersectionDescriptor][]ir.Field),
		uses:        make(map[string]bool),
		referenced:  make(map[ir.Synthesized]bool),
		emitted:     make(map[ir.Synthesized]bool),
		exported:    make(map[ast.Decl]bool),
		ifaceDone:   make(map[string]bool),
	}
	return g.generate()
}

func (g *Generator) generate() *Output {
	var decls []ast.Decl
	for _, d := range g.prog.Decls {
		inner, exported := ast.Unwrap(d)
		if exported {
			g.exported[inner] = true
		}
		decls = append(decls, d)
	}
	g.collect(decls)

	var main []ast.Stmt
	for _, d := range decls {
		if s := g.topLevelStmt(d); s != nil {
			main = append(main, s)
			continue
		}
		g.w.blank()
		g.emitDecl(d)
	}
	if len(main) > 0 {
		g.w.blank()
		g.emitMain(main)
	}
	g.emitSynthesized()

	var out strings.Builder
	fmt.Fprintf(&out, "// Code generated by ts2rs from %s. DO NOT EDIT.\n\n", g.prog.File)
	out.WriteString("#![allow(dead_code, unused_variables, unused_mut, unused_parens, non_snake_case, non_camel_case_types)]\n")
	if g.opts.Runtime {
		g.use("ts2rs_runtime::prelude::*")
	}
	if len(g.uses) > 0 {
		out.WriteByte('\n')
		for _, u := range sortedKeys(g.uses) {
			fmt.Fprintf(&out, "use %s;\n", u)
		}
	}
	if body := g.w.String(); body != "" {
		out.WriteByte('\n')
		out.WriteString(body)
	}

	diags := append(append(ir.Diagnostics{}, g.prog.Diagnostics...), g.diags...)
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Span.Start < diags[j].Span.Start
	})
	return &Output{
		Source:      out.String(),
		Diagnostics: dedupe(diags),
		UsesRegex:   g.usesRegex,
	}
}

// topLevelStmt returns the statement that d contributes to fn main, or nil
// when d is an item.
func (g *Generator) topLevelStmt(d ast.Decl) ast.Stmt {
	switch d := d.(type) {
	case *ast.StmtDecl:
		return d.Stmt
	case *ast.VarDecl:
		if !g.isConstItem(d) {
			return d
		}
	case *ast.ExportDecl:
		if d.Decl == nil && d.Value != nil {
			return &ast.ExprStmt{Span: d.Span, X: d.Value}
		}
		if v, ok := d.Decl.(*ast.VarDecl); ok && !g.isConstItem(v) {
			return v
		}
	}
	return nil
}

// isConstItem reports whether every binding of d is a literal const.
func (g *Generator) isConstItem(d *ast.VarDecl) bool {
	if d.Kind != ast.Const {
		return false
	}
	for _, b := range d.Bindings {
		if c := g.syms.consts[b.Name]; c == nil || c.init != b.Init {
			return false
		}
	}
	return true
}

func (g *Generator) emitDecl(d ast.Decl) {
	switch d := d.(type) {
	case *ast.ExportDecl:
		switch {
		case d.Decl != nil:
			g.emitDecl(d.Decl)
		case d.From != "":
			g.w.linef("// re-export %s from %q", importList(d.Names, "*"), d.From)
		default:
			g.w.linef("// export %s", importList(d.Names, ""))
		}
	case *ast.ImportDecl:
		g.emitImport(d)
	case *ast.VarDecl:
		g.emitConstItems(d)
	case *ast.FuncDecl:
		g.emitFuncDecl(d)
	case *ast.ClassDecl:
		g.emitClass(g.syms.classes[d.Name], d)
	case *ast.InterfaceDecl:
		g.emitInterface(d)
	case *ast.EnumDecl:
		g.emitEnum(d)
	case *ast.TypeAliasDecl:
		g.emitAlias(d)
	case *ast.Unsupported:
		g.unsupported(d)
	}
}

func importList(names []ast.ImportName, empty string) string {
	if len(names) == 0 {
		return empty
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.Name
		if n.Alias != "" && n.Alias != n.Name {
			parts[i] += " as " + n.Alias
		}
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// emitImport records the import as a comment. Imported names resolve to
// the dynamic type unless the file declares them.
func (g *Generator) emitImport(d *ast.ImportDecl) {
	var parts []string
	if d.Default != "" {
		parts = append(parts, d.Default)
	}
	if d.Namespace != "" {
		parts = append(parts, "* as "+d.Namespace)
	}
	if len(d.Names) > 0 {
		parts = append(parts, importList(d.Names, ""))
	}
	if len(parts) == 0 {
		g.w.linef("// import %q", d.Module)
		return
	}
	g.w.linef("// import %s from %q", strings.Join(parts, ", "), d.Module)
}

// vis returns the visibility prefix for a top-level declaration.
func (g *Generator) vis(d ast.Decl) string {
	switch g.opts.Visibility {
	case VisibilityCrate:
		return "pub(crate) "
	case VisibilityExported:
		if g.exported[d] {
			return "pub "
		}
		return ""
	}
	return "pub "
}

// memberVis returns the visibility prefix for a class member.
func (g *Generator) memberVis(v ast.Visibility) string {
	switch v {
	case ast.Private:
		return ""
	case ast.Protected:
		return "pub(crate) "
	}
	if g.opts.Visibility == VisibilityCrate {
		return "pub(crate) "
	}
	return "pub "
}

func (g *Generator) emitConstItems(d *ast.VarDecl) {
	for _, b := range d.Bindings {
		c := g.syms.consts[b.Name]
		typ := g.rustType(c.typ)
		val := g.constValue(c.init)
		if ir.IsPrimitive(c.typ, ir.PrimitiveString) {
			typ = "&str"
		}
		g.w.linef("%sconst %s: %s = %s;", g.vis(d), screamingCase(b.Name), typ, val)
	}
}

// constValue renders a literal initializer as a const expression.
func (g *Generator) constValue(x ast.Expr) string {
	switch x := x.(type) {
	case *ast.StringLit:
		return quote(x.Value)
	case *ast.TemplateLit:
		return quote(x.Segments[0])
	case *ast.BoolLit:
		return fmt.Sprint(x.Value)
	case *ast.NumberLit:
		return floatLit(x.Value)
	case *ast.UnaryExpr:
		if x.Op == "-" {
			return "-" + g.constValue(x.X)
		}
		return g.constValue(x.X)
	}
	return g.expr(x)
}

func (g *Generator) emitAlias(d *ast.TypeAliasDecl) {
	if syn, ok := d.Type.(ir.Synthesized); ok && syn.TypeName() == d.Name {
		g.emitSynthesizedItem(syn, g.vis(d), g.typeParams(d.TypeParams, false))
		return
	}
	g.w.linef("%stype %s%s = %s;", g.vis(d), typeName(d.Name), g.typeParams(d.TypeParams, false), g.rustType(d.Type))
}

// typeParams renders a generic parameter list. Constraints that name a
// trait generated in this file become bounds.
func (g *Generator) typeParams(tps []*ir.TypeParamDescriptor, bounds bool) string {
	if len(tps) == 0 {
		return ""
	}
	parts := make([]string, len(tps))
	for i, tp := range tps {
		parts[i] = tp.ParamName
		if !bounds {
			continue
		}
		// Generated bodies clone values of generic type.
		if trait := g.constraintTrait(tp); trait != "" {
			parts[i] += ": " + trait + " + Clone"
		} else {
			parts[i] += ": Clone"
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// constraintTrait returns the trait a type parameter constraint names, or
// "" when the constraint has no trait form.
func (g *Generator) constraintTrait(tp *ir.TypeParamDescriptor) string {
	n, ok := tp.Constraint.(*ir.NamedDescriptor)
	if !ok {
		return ""
	}
	if ii := g.syms.interfaces[n.Name]; ii != nil && ii.traitName != "" {
		return ii.traitName
	}
	return ""
}

// typeArgs renders the parameter names of a generic declaration as
// arguments.
func typeArgs(tps []*ir.TypeParamDescriptor) string {
	if len(tps) == 0 {
		return ""
	}
	names := make([]string, len(tps))
	for i, tp := range tps {
		names[i] = tp.ParamName
	}
	return "<" + strings.Join(names, ", ") + ">"
}

// reference marks a synthesized type as used by the emitted code.
func (g *Generator) reference(syn ir.Synthesized) {
	g.referenced[syn] = true
}

// emitSynthesized emits every referenced synthesized type, in creation
// order. Emitting one may reference others, so it repeats until nothing new
// is referenced.
func (g *Generator) emitSynthesized() {
	for {
		progress := false
		for _, syn := range g.prog.Synthesized {
			if g.referenced[syn] && !g.emitted[syn] {
				g.w.blank()
				g.emitSynthesizedItem(syn, g.visAll(), "")
				progress = true
			}
		}
		if !progress {
			return
		}
	}
}

// visAll is the visibility of items that do not come from a declaration.
func (g *Generator) visAll() string {
	if g.opts.Visibility == VisibilityCrate {
		return "pub(crate) "
	}
	return "pub "
}

func (g *Generator) emitSynthesizedItem(syn ir.Synthesized, vis, generics string) {
	g.emitted[syn] = true
	switch d := syn.(type) {
	case *ir.ShapeDescriptor:
		g.emitStruct(typeName(d.Name), generics, vis, d.Fields)
	case *ir.IntersectionDescriptor:
		g.emitStruct(typeName(d.Name), generics, vis, g.intersectionFields(d))
	case *ir.UnionDescriptor:
		g.emitUnion(d, vis, generics)
	}
}

func (g *Generator) use(path string) {
	g.uses[path] = true
}

func (g *Generator) warn(code string, span ir.Span, format string, args ...any) {
	g.diags = append(g.diags, ir.Warningf(code, span, format, args...))
}

// unsupported writes the placeholder comment for an unsupported node and
// reports it.
func (g *Generator) unsupported(n *ast.Unsupported) {
	g.warn(ir.CodeUnsupportedConstruct, n.Span, "%s is not supported; omitted from output", n.Kind)
	g.w.linef("// unsupported: %s (line %d)", n.Kind, n.Span.Line)
}

// dedupe drops repeated diagnostics. Inherited method bodies are emitted
// once per subclass and would otherwise report the same issue again.
func dedupe(diags ir.Diagnostics) ir.Diagnostics {
	seen := make(map[ir.Diagnostic]bool, len(diags))
	out := diags[:0]
	for _, d := range diags {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
