// Package typemap maps parsed TypeScript type annotations to ir descriptors.
//
// A Mapper is created per source file. Mapping is deterministic: the same
// sequence of annotations always yields the same descriptors, names and
// diagnostics. Object literal types, unions and intersections are memoized
// by structural key so identical types share one generated definition;
// generated names are numbered from 1 in every file.
package typemap

import (
	"fmt"
	"strings"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

// Mapper holds the per-file memo tables of the type mapping.
type Mapper struct {
	file   string
	scopes []map[string]bool

	shapes        map[string]*ir.ShapeDescriptor
	unions        map[string]*ir.UnionDescriptor
	intersections map[string]*ir.IntersectionDescriptor

	used      map[string]bool
	aliasName map[ir.Synthesized]string
	counters  map[string]int

	synthesized []ir.Synthesized
	diags       ir.Diagnostics
}

// New returns a Mapper for one file.
func New(file string) *Mapper {
	return &Mapper{
		file:          file,
		shapes:        make(map[string]*ir.ShapeDescriptor),
		unions:        make(map[string]*ir.UnionDescriptor),
		intersections: make(map[string]*ir.IntersectionDescriptor),
		used:          make(map[string]bool),
		aliasName:     make(map[ir.Synthesized]string),
		counters:      make(map[string]int),
	}
}

// Synthesized returns the generated shapes, unions and intersections in
// creation order.
func (m *Mapper) Synthesized() []ir.Synthesized {
	return m.synthesized
}

// Diagnostics returns the warnings produced so far.
func (m *Mapper) Diagnostics() ir.Diagnostics {
	return m.diags
}

// PushScope declares generic type parameters for the annotations that follow.
func (m *Mapper) PushScope(names ...string) {
	scope := make(map[string]bool, len(names))
	for _, n := range names {
		scope[n] = true
	}
	m.scopes = append(m.scopes, scope)
}

// PopScope removes the innermost type parameter scope.
func (m *Mapper) PopScope() {
	if len(m.scopes) > 0 {
		m.scopes = m.scopes[:len(m.scopes)-1]
	}
}

func (m *Mapper) isTypeParam(name string) bool {
	for i := len(m.scopes) - 1; i >= 0; i-- {
		if m.scopes[i][name] {
			return true
		}
	}
	return false
}

// Map returns the descriptor for t. hint names the struct or enum generated
// when t is an object literal, union or intersection type; an empty hint
// selects a numbered name.
func (m *Mapper) Map(t ast.TypeExpr, hint string) ir.TypeDescriptor {
	switch t := t.(type) {
	case nil:
		return ir.Any()
	case *ast.ParenType:
		return m.Map(t.Type, hint)
	case *ast.TypeRef:
		return m.mapRef(t, hint)
	case *ast.LiteralType:
		return ir.Primitive(t.Kind)
	case *ast.ArrayType:
		return ir.ArrayOf(m.Map(t.Elem, Singular(hint)))
	case *ast.TupleType:
		elems := make([]ir.TypeDescriptor, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = m.Map(e, "")
		}
		return ir.TupleOf(elems...)
	case *ast.ObjectType:
		return m.mapObject(t, hint)
	case *ast.UnionType:
		return m.mapUnion(t, hint)
	case *ast.IntersectionType:
		return m.mapIntersection(t, hint)
	case *ast.FunctionType:
		params := make([]ir.TypeDescriptor, len(t.Params))
		for i, p := range t.Params {
			params[i] = m.Map(p, "")
		}
		return ir.Func(m.Map(t.Return, ""), params...)
	case *ast.UnsupportedType:
		return m.unsupported(t.Construct, t.Span)
	default:
		return m.unsupported(fmt.Sprintf("type %T", t), t.Pos())
	}
}

// MapAlias maps the right-hand side of `type name = t`. A shape or union
// produced for t is named after the alias, even if an identical anonymous
// type was generated earlier.
func (m *Mapper) MapAlias(name string, t ast.TypeExpr) ir.TypeDescriptor {
	td := m.Map(t, name)
	if syn, ok := td.(ir.Synthesized); ok {
		if _, owned := m.aliasName[syn]; !owned {
			m.aliasName[syn] = name
			m.rename(syn, name)
		}
	}
	return td
}

func (m *Mapper) unsupported(construct string, span ir.Span) ir.TypeDescriptor {
	m.diags = append(m.diags, ir.Warningf(ir.CodeUnsupportedConstruct, span,
		"%s is not supported; using the dynamic type", construct))
	return ir.Unsupported(construct, span)
}

var keywordTypes = map[string]ir.TypeDescriptor{
	"string":    ir.String(),
	"number":    ir.Number(),
	"bigint":    ir.Number(),
	"boolean":   ir.Boolean(),
	"null":      ir.Null(),
	"undefined": ir.Undefined(),
	"void":      ir.Void(),
	"never":     ir.Never(),
	"any":       ir.Any(),
	"unknown":   ir.Unknown(),
	"object":    ir.Any(),
	"Object":    ir.Any(),
	"String":    ir.String(),
	"Number":    ir.Number(),
	"Boolean":   ir.Boolean(),
}

// utility types whose result depends on type-level computation.
var computedUtilities = map[string]bool{
	"Partial":      true,
	"Required":     true,
	"Pick":         true,
	"Omit":         true,
	"Exclude":      true,
	"Extract":      true,
	"ReturnType":   true,
	"Parameters":   true,
	"InstanceType": true,
	"Uppercase":    true,
	"Lowercase":    true,
	"Capitalize":   true,
}

func (m *Mapper) mapRef(t *ast.TypeRef, hint string) ir.TypeDescriptor {
	if len(t.Args) == 0 {
		if m.isTypeParam(t.Name) {
			return ir.TypeParam(t.Name, nil)
		}
		if td, ok := keywordTypes[t.Name]; ok {
			return td
		}
	}
	switch {
	case t.Name == "symbol":
		return m.unsupported("symbol type", t.Span)
	case t.Name == "Array" || t.Name == "ReadonlyArray":
		if len(t.Args) == 0 {
			return ir.ArrayOf(ir.Any())
		}
		return ir.ArrayOf(m.Map(t.Args[0], Singular(hint)))
	case (t.Name == "Readonly" || t.Name == "Awaited") && len(t.Args) == 1:
		return m.Map(t.Args[0], hint)
	case t.Name == "NonNullable" && len(t.Args) == 1:
		td, _ := ir.Unwrap(m.Map(t.Args[0], hint))
		return td
	case computedUtilities[t.Name]:
		return m.unsupported("utility type "+t.Name, t.Span)
	}
	args := make([]ir.TypeDescriptor, len(t.Args))
	for i, a := range t.Args {
		args[i] = m.Map(a, "")
	}
	return ir.Named(t.Name, args...)
}

// objectFields maps the members of an object literal type without
// registering a shape.
func (m *Mapper) objectFields(t *ast.ObjectType) []ir.Field {
	var fields []ir.Field
	for _, mem := range t.Members {
		switch {
		case mem.Unsupported != "":
			m.diags = append(m.diags, ir.Warningf(ir.CodeUnsupportedConstruct, mem.Span,
				"%s in type literal is not supported", mem.Unsupported))
		case mem.Index:
			m.diags = append(m.diags, ir.Warningf(ir.CodeUnsupportedConstruct, mem.Span,
				"index signature mixed with named members is not supported"))
		default:
			td := m.Map(mem.Type, Hint(mem.Name))
			inner, nullable := ir.Unwrap(td)
			fields = append(fields, ir.Field{
				Name:     mem.Name,
				Type:     inner,
				Optional: mem.Optional || nullable,
				Readonly: mem.Readonly,
			})
		}
	}
	return fields
}

func (m *Mapper) mapObject(t *ast.ObjectType, hint string) ir.TypeDescriptor {
	if len(t.Members) == 1 && t.Members[0].Index {
		idx := t.Members[0]
		return ir.Named("Record", m.Map(idx.Key, ""), m.Map(idx.Type, Singular(hint)))
	}
	return m.shape(m.objectFields(t), hint, ir.OriginAnonymous)
}

func (m *Mapper) shape(fields []ir.Field, hint string, origin ir.ShapeOrigin) *ir.ShapeDescriptor {
	key := ir.FieldsKey(fields)
	if s, ok := m.shapes[key]; ok {
		return s
	}
	s := &ir.ShapeDescriptor{
		Name:   m.newName(hint, "Shape"),
		Fields: fields,
		Origin: origin,
	}
	m.shapes[key] = s
	m.synthesized = append(m.synthesized, s)
	return s
}

// flatten expands nested members selected by nested, looking through parentheses.
func flatten(types []ast.TypeExpr, nested func(ast.TypeExpr) ([]ast.TypeExpr, bool)) []ast.TypeExpr {
	var out []ast.TypeExpr
	for _, t := range types {
		for {
			p, ok := t.(*ast.ParenType)
			if !ok {
				break
			}
			t = p.Type
		}
		if inner, ok := nested(t); ok {
			out = append(out, flatten(inner, nested)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

func (m *Mapper) mapUnion(t *ast.UnionType, hint string) ir.TypeDescriptor {
	exprs := flatten(t.Types, func(x ast.TypeExpr) ([]ast.TypeExpr, bool) {
		if u, ok := x.(*ast.UnionType); ok {
			return u.Types, true
		}
		return nil, false
	})

	var members []ir.TypeDescriptor
	seen := make(map[string]bool)
	absent := false
	for _, x := range exprs {
		td := m.Map(x, "")
		if inner, ok := ir.Unwrap(td); ok {
			absent = true
			td = inner
		}
		switch {
		case ir.IsAbsence(td), ir.IsPrimitive(td, ir.PrimitiveVoid):
			absent = true
			continue
		case ir.IsPrimitive(td, ir.PrimitiveNever):
			continue
		case ir.IsDynamic(td):
			// any absorbs every other member.
			return td
		}
		key := ir.Key(td)
		if seen[key] {
			continue
		}
		seen[key] = true
		members = append(members, td)
	}

	var result ir.TypeDescriptor
	switch len(members) {
	case 0:
		if absent {
			return ir.Null()
		}
		return ir.Never()
	case 1:
		result = members[0]
	default:
		key := ir.Key(&ir.UnionDescriptor{Members: members})
		u, ok := m.unions[key]
		if !ok {
			name := hint
			if name == "" {
				name = joinLabels(members, "Or")
			}
			u = &ir.UnionDescriptor{Name: m.newName(name, "Union"), Members: members}
			m.unions[key] = u
			m.synthesized = append(m.synthesized, u)
		}
		result = u
	}
	if absent {
		return ir.Nullable(result)
	}
	return result
}

func (m *Mapper) mapIntersection(t *ast.IntersectionType, hint string) ir.TypeDescriptor {
	exprs := flatten(t.Types, func(x ast.TypeExpr) ([]ast.TypeExpr, bool) {
		if i, ok := x.(*ast.IntersectionType); ok {
			return i.Types, true
		}
		return nil, false
	})

	var (
		fieldSets [][]ir.Field
		refs      []ir.TypeDescriptor
		prims     []ir.TypeDescriptor
	)
	for _, x := range exprs {
		if obj, ok := x.(*ast.ObjectType); ok {
			fieldSets = append(fieldSets, m.objectFields(obj))
			continue
		}
		td := m.Map(x, "")
		switch d := td.(type) {
		case *ir.ShapeDescriptor:
			fieldSets = append(fieldSets, d.Fields)
		case *ir.PrimitiveDescriptor:
			if ir.IsDynamic(d) {
				return d
			}
			prims = append(prims, d)
		case *ir.UnsupportedDescriptor:
			return d
		default:
			refs = append(refs, td)
		}
	}

	if len(prims) > 0 {
		// Branded primitives (string & { __brand: "Id" }) keep the primitive.
		for _, p := range prims[1:] {
			if !ir.Equal(p, prims[0]) {
				m.diags = append(m.diags, ir.Warningf(ir.CodeMappingConflict, t.Span,
					"intersection of %s and %s has no values; using the dynamic type", ir.Key(prims[0]), ir.Key(p)))
				return ir.Any()
			}
		}
		return prims[0]
	}

	merged := m.mergeFields(fieldSets, t.Span)
	if len(refs) == 0 {
		return m.shape(merged, hint, ir.OriginIntersection)
	}

	key := ir.Key(&ir.IntersectionDescriptor{Members: refs}) + ir.FieldsKey(merged)
	if d, ok := m.intersections[key]; ok {
		return d
	}
	name := hint
	if name == "" {
		name = joinLabels(refs, "And")
	}
	d := &ir.IntersectionDescriptor{
		Name:    m.newName(name, "Intersection"),
		Members: refs,
		Merged:  merged,
		Span:    t.Span,
	}
	m.intersections[key] = d
	m.synthesized = append(m.synthesized, d)
	return d
}

// mergeFields unions field sets by name, first occurrence first. A name
// declared with different types becomes dynamic and produces a
// mapping_conflict warning.
func (m *Mapper) mergeFields(sets [][]ir.Field, span ir.Span) []ir.Field {
	var merged []ir.Field
	index := make(map[string]int)
	conflicted := make(map[string]bool)
	for _, set := range sets {
		for _, f := range set {
			i, ok := index[f.Name]
			if !ok {
				index[f.Name] = len(merged)
				merged = append(merged, f)
				continue
			}
			prev := &merged[i]
			prev.Optional = prev.Optional && f.Optional
			prev.Readonly = prev.Readonly || f.Readonly
			if conflicted[f.Name] || ir.Equal(prev.Type, f.Type) {
				continue
			}
			m.diags = append(m.diags, ir.Warningf(ir.CodeMappingConflict, span,
				"conflicting types for field %q in intersection: %s vs %s; using the dynamic type",
				f.Name, ir.Key(prev.Type), ir.Key(f.Type)))
			conflicted[f.Name] = true
			prev.Type = ir.Any()
		}
	}
	return merged
}

// newName picks an unused name: the hint, the hint with a numeric suffix,
// or prefix followed by a per-file counter.
func (m *Mapper) newName(hint, prefix string) string {
	if hint != "" {
		name := hint
		for i := 2; m.used[name]; i++ {
			name = fmt.Sprintf("%s%d", hint, i)
		}
		m.used[name] = true
		return name
	}
	for {
		m.counters[prefix]++
		name := fmt.Sprintf("%s%d", prefix, m.counters[prefix])
		if !m.used[name] {
			m.used[name] = true
			return name
		}
	}
}

func (m *Mapper) rename(syn ir.Synthesized, name string) {
	switch d := syn.(type) {
	case *ir.ShapeDescriptor:
		d.Name = name
		if d.Origin == ir.OriginAnonymous {
			d.Origin = ir.OriginAlias
		}
	case *ir.UnionDescriptor:
		d.Name = name
	case *ir.IntersectionDescriptor:
		d.Name = name
	}
	m.used[name] = true
}

// Finish resolves clashes between generated names and the names declared in
// the file. A generated type owned by a type alias keeps the alias name;
// any other generated type whose name is declared, or taken by an alias, is
// renamed with a numeric suffix.
func (m *Mapper) Finish(declared map[string]bool) {
	taken := make(map[string]bool, len(declared))
	for n := range declared {
		taken[n] = true
	}
	owned := make(map[string]bool)
	for _, syn := range m.synthesized {
		if alias, ok := m.aliasName[syn]; ok && syn.TypeName() == alias {
			owned[alias] = true
		}
	}
	final := make(map[string]bool)
	for _, syn := range m.synthesized {
		name := syn.TypeName()
		if alias, ok := m.aliasName[syn]; ok && name == alias && !final[name] {
			final[name] = true
			continue
		}
		if !taken[name] && !owned[name] && !final[name] {
			final[name] = true
			continue
		}
		base := name
		for i := 2; ; i++ {
			name = fmt.Sprintf("%s%d", base, i)
			if !taken[name] && !owned[name] && !final[name] {
				break
			}
		}
		final[name] = true
		m.setName(syn, name)
	}
}

func (m *Mapper) setName(syn ir.Synthesized, name string) {
	switch d := syn.(type) {
	case *ir.ShapeDescriptor:
		d.Name = name
	case *ir.UnionDescriptor:
		d.Name = name
	case *ir.IntersectionDescriptor:
		d.Name = name
	}
}

func joinLabels(tds []ir.TypeDescriptor, sep string) string {
	if len(tds) > 3 {
		return ""
	}
	labels := make([]string, len(tds))
	for i, td := range tds {
		labels[i] = Label(td)
	}
	return strings.Join(labels, sep)
}
