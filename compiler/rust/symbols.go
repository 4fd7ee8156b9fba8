package rust

import (
	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
	"github.com/ts2rs/ts2rs/compiler/typemap"
)

// classInfo is a class with its inheritance flattened.
type classInfo struct {
	decl *ast.ClassDecl
	base *classInfo

	// fields are the instance properties, inherited ones first. A property
	// redeclared by a subclass replaces the inherited one in place.
	fields []*ast.Property

	// statics are the static properties of the class itself.
	statics []*ast.Property

	// methods are the instance and static methods with bodies, inherited
	// ones first unless overridden.
	methods []*ast.Method

	// abstract lists bodiless methods without an implementation.
	abstract []*ast.Method

	getters map[string]*ast.Accessor
	setters map[string]*ast.Accessor

	kinds map[string]MethodKind
}

func (c *classInfo) field(name string) *ast.Property {
	for _, f := range c.fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (c *classInfo) static(name string) *ast.Property {
	for _, f := range c.statics {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (c *classInfo) method(name string) *ast.Method {
	for _, m := range c.methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// ifaceInfo is an interface with its extended data members flattened.
type ifaceInfo struct {
	decl    *ast.InterfaceDecl
	fields  []*ast.PropertySig
	methods []*ast.MethodSig

	// structName and traitName are the generated item names; either may be
	// empty.
	structName string
	traitName  string

	// mutating records trait methods that some same-file implementor
	// classifies as a mutator.
	mutating map[string]bool
}

// symbols is the table of same-file declarations the generator resolves
// names against.
type symbols struct {
	classes    map[string]*classInfo
	interfaces map[string]*ifaceInfo
	enums      map[string]*ast.EnumDecl
	aliases    map[string]*ast.TypeAliasDecl
	funcs      map[string]*ast.FuncDecl
	consts     map[string]*constInfo
	synth      map[string]ir.Synthesized

	// order is the source order of classes and interfaces.
	classOrder []*classInfo
	ifaceOrder []*ifaceInfo
}

// constInfo is a top-level const bound to a literal; it becomes a Rust
// const item.
type constInfo struct {
	name string
	typ  ir.TypeDescriptor
	init ast.Expr
}

func (g *Generator) collect(decls []ast.Decl) {
	s := &symbols{
		classes:    make(map[string]*classInfo),
		interfaces: make(map[string]*ifaceInfo),
		enums:      make(map[string]*ast.EnumDecl),
		aliases:    make(map[string]*ast.TypeAliasDecl),
		funcs:      make(map[string]*ast.FuncDecl),
		consts:     make(map[string]*constInfo),
		synth:      make(map[string]ir.Synthesized),
	}
	g.syms = s
	for _, syn := range g.prog.Synthesized {
		s.synth[syn.TypeName()] = syn
	}
	for _, d := range decls {
		d, _ = ast.Unwrap(d)
		switch d := d.(type) {
		case *ast.ClassDecl:
			ci := &classInfo{decl: d}
			s.classes[d.Name] = ci
			s.classOrder = append(s.classOrder, ci)
		case *ast.InterfaceDecl:
			if prev, ok := s.interfaces[d.Name]; ok {
				// Declaration merging: later members extend the first declaration.
				merged := *prev.decl
				merged.Members = append(append([]ast.Signature{}, prev.decl.Members...), d.Members...)
				merged.Extends = append(append([]*ir.NamedDescriptor{}, prev.decl.Extends...), d.Extends...)
				prev.decl = &merged
				continue
			}
			ii := &ifaceInfo{decl: d, mutating: make(map[string]bool)}
			s.interfaces[d.Name] = ii
			s.ifaceOrder = append(s.ifaceOrder, ii)
		case *ast.EnumDecl:
			s.enums[d.Name] = d
		case *ast.TypeAliasDecl:
			s.aliases[d.Name] = d
		case *ast.FuncDecl:
			if prev, ok := s.funcs[d.Name]; !ok || (prev.Body == nil && d.Body != nil) {
				s.funcs[d.Name] = d
			}
		case *ast.VarDecl:
			if d.Kind != ast.Const {
				continue
			}
			for _, b := range d.Bindings {
				if td := literalType(b.Init); td != nil && (b.Type == nil || ir.Equal(b.Type, td)) {
					s.consts[b.Name] = &constInfo{name: b.Name, typ: td, init: b.Init}
				}
			}
		}
	}

	for _, ci := range s.classOrder {
		g.flattenClass(ci, nil)
	}
	for _, ii := range s.ifaceOrder {
		g.flattenInterface(ii)
	}
	for _, syn := range g.prog.Synthesized {
		if d, ok := syn.(*ir.IntersectionDescriptor); ok {
			g.intersectionFields(d)
		}
	}
	for _, d := range decls {
		g.checkDecl(d)
	}
	for _, ci := range s.classOrder {
		ci.kinds = classifyMethods(ci.methods, ci)
	}
	for _, ci := range s.classOrder {
		for _, impl := range ci.decl.Implements {
			ii := s.interfaces[impl.Name]
			if ii == nil {
				continue
			}
			for _, m := range ii.methods {
				switch ci.kinds[m.Name] {
				case Mutator, Chainable:
					ii.mutating[m.Name] = true
				}
			}
		}
	}
}

// checkDecl reports declared names that collide with Rust prelude types and
// type parameter constraints that have no Rust bound.
func (g *Generator) checkDecl(d ast.Decl) {
	d, _ = ast.Unwrap(d)
	var (
		span ir.Span
		name string
		tps  []*ir.TypeParamDescriptor
	)
	switch d := d.(type) {
	case *ast.ClassDecl:
		span, name, tps = d.Span, d.Name, d.TypeParams
		for _, m := range d.Members {
			if m, ok := m.(*ast.Method); ok {
				g.checkConstraints(m.Span, m.Name, m.TypeParams)
			}
		}
	case *ast.InterfaceDecl:
		span, name, tps = d.Span, d.Name, d.TypeParams
		for _, m := range d.MethodSigs() {
			g.checkConstraints(m.Span, m.Name, m.TypeParams)
		}
	case *ast.EnumDecl:
		span, name = d.Span, d.Name
	case *ast.TypeAliasDecl:
		span, name, tps = d.Span, d.Name, d.TypeParams
	case *ast.FuncDecl:
		g.checkConstraints(d.Span, d.Name, d.TypeParams)
		return
	default:
		return
	}
	if preludeTypes[typeBase(name)] {
		g.warn(ir.CodeUnsupportedConstruct, span, "%s collides with a Rust prelude type; emitted as %s", name, typeName(name))
	}
	g.checkConstraints(span, name, tps)
}

func (g *Generator) checkConstraints(span ir.Span, owner string, tps []*ir.TypeParamDescriptor) {
	for _, tp := range tps {
		if tp.Constraint != nil && g.constraintTrait(tp) == "" {
			g.warn(ir.CodeUnsupportedConstruct, span, "constraint %s extends %s of %s has no Rust bound; omitted",
				tp.ParamName, ir.Key(tp.Constraint), owner)
		}
	}
}

// literalType returns the type of a literal initializer eligible for a
// Rust const, or nil.
func literalType(x ast.Expr) ir.TypeDescriptor {
	switch x := x.(type) {
	case *ast.NumberLit:
		return ir.Number()
	case *ast.StringLit:
		return ir.String()
	case *ast.BoolLit:
		return ir.Boolean()
	case *ast.TemplateLit:
		if len(x.Exprs) == 0 {
			return ir.String()
		}
	case *ast.UnaryExpr:
		if _, ok := x.X.(*ast.NumberLit); ok && (x.Op == "-" || x.Op == "+") {
			return ir.Number()
		}
	}
	return nil
}

// flattenClass resolves the base chain of ci. visiting detects cycles.
func (g *Generator) flattenClass(ci *classInfo, visiting map[*classInfo]bool) {
	if ci.getters != nil {
		return
	}
	if visiting == nil {
		visiting = make(map[*classInfo]bool)
	}
	visiting[ci] = true
	defer delete(visiting, ci)

	ci.getters = make(map[string]*ast.Accessor)
	ci.setters = make(map[string]*ast.Accessor)
	d := ci.decl
	if d.Extends != nil {
		base := g.syms.classes[d.Extends.Name]
		switch {
		case base == nil:
			g.warn(ir.CodeInheritance, d.Span, "base class %s of %s is not declared in this file; its members are not inherited", d.Extends.Name, d.Name)
		case visiting[base]:
			g.warn(ir.CodeInheritance, d.Span, "class %s is part of an inheritance cycle through %s; inheritance ignored", d.Name, base.decl.Name)
		default:
			g.flattenClass(base, visiting)
			ci.base = base
			ci.fields = append(ci.fields, base.fields...)
			ci.methods = append(ci.methods, base.methods...)
			for k, v := range base.getters {
				ci.getters[k] = v
			}
			for k, v := range base.setters {
				ci.setters[k] = v
			}
		}
	}

	implemented := make(map[string]bool)
	for _, m := range d.Members {
		if m, ok := m.(*ast.Method); ok && m.Body != nil {
			implemented[m.Name] = true
		}
	}
	for _, m := range d.Members {
		switch m := m.(type) {
		case *ast.Property:
			if m.Static {
				ci.statics = append(ci.statics, m)
				continue
			}
			ci.fields = replaceOrAppend(ci.fields, m, func(p *ast.Property) bool { return p.Name == m.Name })
		case *ast.Method:
			switch {
			case m.Body != nil:
				ci.methods = replaceOrAppend(ci.methods, m, func(x *ast.Method) bool { return x.Name == m.Name })
			case !implemented[m.Name] && m.Abstract:
				ci.abstract = append(ci.abstract, m)
			}
		case *ast.Accessor:
			if m.Kind == ast.Getter {
				ci.getters[m.Name] = m
			} else {
				ci.setters[m.Name] = m
			}
		}
	}
}

func replaceOrAppend[T any](list []T, v T, same func(T) bool) []T {
	for i, x := range list {
		if same(x) {
			out := append([]T{}, list...)
			out[i] = v
			return out
		}
	}
	return append(list, v)
}

// flattenInterface collects the data members of ii and everything it
// extends, depth first. An ancestor reached along two paths is a diamond
// and a revisited interface is a cycle; both are reported and the repeated
// members are taken once.
func (g *Generator) flattenInterface(ii *ifaceInfo) {
	d := ii.decl
	seen := make(map[string]bool)
	var fields []*ast.PropertySig
	var visit func(name string, path map[string]bool, from *ast.InterfaceDecl)
	visit = func(name string, path map[string]bool, from *ast.InterfaceDecl) {
		if path[name] {
			g.warn(ir.CodeInheritance, d.Span, "interface %s is part of an inheritance cycle through %s", d.Name, name)
			return
		}
		if seen[name] {
			g.warn(ir.CodeInheritance, d.Span, "interface %s inherits %s along more than one path; its members are taken once", d.Name, name)
			return
		}
		seen[name] = true
		switch {
		case g.syms.interfaces[name] != nil:
			decl := g.syms.interfaces[name].decl
			path[name] = true
			for _, ext := range decl.Extends {
				visit(ext.Name, path, decl)
			}
			delete(path, name)
			fields = mergeSigs(fields, decl.Fields())
		case g.syms.classes[name] != nil:
			ci := g.syms.classes[name]
			g.flattenClass(ci, nil)
			for _, p := range ci.fields {
				fields = mergeSigs(fields, []*ast.PropertySig{{
					Span: p.Span, Name: p.Name, Type: p.Type, Optional: p.Optional, Readonly: p.Readonly,
				}})
			}
		case g.aliasShape(name) != nil:
			for _, f := range g.aliasShape(name).Fields {
				fields = mergeSigs(fields, []*ast.PropertySig{{
					Span: d.Span, Name: f.Name, Type: f.Type, Optional: f.Optional, Readonly: f.Readonly,
				}})
			}
		default:
			g.warn(ir.CodeInheritance, from.Span, "%s extends %s, which is not declared in this file; its members are not inherited", from.Name, name)
		}
	}
	visit(d.Name, make(map[string]bool), d)
	ii.fields = fields
	ii.methods = d.MethodSigs()

	hasSpecial := false
	for _, m := range d.Members {
		if _, ok := m.(*ast.SpecialSig); ok {
			hasSpecial = true
		}
	}
	switch {
	case len(ii.fields) > 0 && len(ii.methods) > 0:
		ii.structName = typeName(d.Name)
		ii.traitName = typeName(d.Name) + "Methods"
	case len(ii.fields) > 0:
		ii.structName = typeName(d.Name)
	case len(ii.methods) > 0 || hasSpecial || len(d.Extends) > 0:
		ii.traitName = typeName(d.Name)
	default:
		ii.structName = typeName(d.Name)
	}
}

func mergeSigs(into, more []*ast.PropertySig) []*ast.PropertySig {
	for _, f := range more {
		into = replaceOrAppend(into, f, func(x *ast.PropertySig) bool { return x.Name == f.Name })
	}
	return into
}

// aliasShape returns the shape a type alias names, or nil.
func (g *Generator) aliasShape(name string) *ir.ShapeDescriptor {
	a := g.syms.aliases[name]
	if a == nil {
		return nil
	}
	s, _ := a.Type.(*ir.ShapeDescriptor)
	return s
}

// structFields returns the data fields of a struct-like type: a shape, an
// interface with fields, a class or an intersection. ok is false when td
// names nothing with fields.
func (g *Generator) structFields(td ir.TypeDescriptor) (name string, fields []ir.Field, ok bool) {
	switch d := g.resolve(td).(type) {
	case *ir.ShapeDescriptor:
		return d.Name, d.Fields, true
	case *ir.IntersectionDescriptor:
		return d.Name, g.intersectionFields(d), true
	case *ir.NamedDescriptor:
		if ii := g.syms.interfaces[d.Name]; ii != nil && ii.structName != "" {
			var out []ir.Field
			for _, f := range ii.fields {
				out = append(out, ir.Field{Name: f.Name, Type: fieldType(f.Type), Optional: f.Optional, Readonly: f.Readonly})
			}
			return ii.structName, out, true
		}
		if ci := g.syms.classes[d.Name]; ci != nil {
			var out []ir.Field
			for _, p := range ci.fields {
				out = append(out, ir.Field{Name: p.Name, Type: fieldType(p.Type), Optional: p.Optional, Readonly: p.Readonly})
			}
			return typeName(d.Name), out, true
		}
	}
	return "", nil, false
}

func fieldType(td ir.TypeDescriptor) ir.TypeDescriptor {
	if td == nil {
		return ir.Any()
	}
	return td
}

// intersectionFields merges the fields of the named members of d with its
// literal fields. Members that name nothing with fields are kept as
// composed fields named after the member. The result is computed once.
func (g *Generator) intersectionFields(d *ir.IntersectionDescriptor) []ir.Field {
	if fields, ok := g.interFields[d]; ok {
		return fields
	}
	g.interFields[d] = nil
	var out []ir.Field
	index := make(map[string]int)
	add := func(f ir.Field) {
		if i, ok := index[f.Name]; ok {
			if !ir.Equal(out[i].Type, f.Type) && !ir.IsDynamic(out[i].Type) {
				g.warn(ir.CodeMappingConflict, d.Span, "conflicting types for field %q in %s: %s vs %s; using the dynamic type",
					f.Name, d.Name, ir.Key(out[i].Type), ir.Key(f.Type))
				out[i].Type = ir.Any()
			}
			return
		}
		index[f.Name] = len(out)
		out = append(out, f)
	}
	for _, m := range d.Members {
		if _, fields, ok := g.structFields(m); ok {
			for _, f := range fields {
				add(f)
			}
			continue
		}
		add(ir.Field{Name: typemap.Label(m), Type: m})
	}
	for _, f := range d.Merged {
		add(f)
	}
	g.interFields[d] = out
	return out
}

// resolve follows type aliases declared in the file.
func (g *Generator) resolve(td ir.TypeDescriptor) ir.TypeDescriptor {
	for range 16 {
		n, ok := td.(*ir.NamedDescriptor)
		if !ok {
			return td
		}
		a := g.syms.aliases[n.Name]
		if a == nil || len(a.TypeParams) > 0 {
			return td
		}
		td = a.Type
	}
	return td
}
