package typemap

import (
	"strings"
	"testing"

	"github.com/ts2rs/ts2rs/compiler/ast"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

func ref(name string, args ...ast.TypeExpr) *ast.TypeRef {
	return &ast.TypeRef{Name: name, Args: args}
}

func strLit(v string) *ast.LiteralType {
	return &ast.LiteralType{Kind: ir.PrimitiveString, Value: v}
}

func object(members ...*ast.TypeMember) *ast.ObjectType {
	return &ast.ObjectType{Members: members}
}

func field(name string, t ast.TypeExpr) *ast.TypeMember {
	return &ast.TypeMember{Name: name, Type: t}
}

func union(types ...ast.TypeExpr) *ast.UnionType {
	return &ast.UnionType{Types: types}
}

func TestMapKeys(t *testing.T) {
	tests := []struct {
		name string
		in   ast.TypeExpr
		want string
	}{
		{"string", ref("string"), "string"},
		{"number", ref("number"), "number"},
		{"boolean", ref("boolean"), "boolean"},
		{"void", ref("void"), "void"},
		{"never", ref("never"), "never"},
		{"any", ref("any"), "any"},
		{"unknown", ref("unknown"), "unknown"},
		{"missing annotation", nil, "any"},
		{"array", &ast.ArrayType{Elem: ref("string")}, "[]string"},
		{"generic array", ref("Array", ref("number")), "[]number"},
		{"readonly array", ref("ReadonlyArray", ref("boolean")), "[]boolean"},
		{"tuple", &ast.TupleType{Elems: []ast.TypeExpr{ref("string"), ref("number")}}, "(string,number)"},
		{"named with args", ref("Map", ref("string"), ref("User")), "Map<string,User>"},
		{"function", &ast.FunctionType{Params: []ast.TypeExpr{ref("string")}, Return: ref("void")}, "fn(string)=>void"},
		{"literal union collapses", union(strLit("red"), strLit("green")), "string"},
		{"boolean literals collapse", union(&ast.LiteralType{Kind: ir.PrimitiveBoolean, Value: "true"}, &ast.LiteralType{Kind: ir.PrimitiveBoolean, Value: "false"}), "boolean"},
		{"nullable", union(ref("string"), ref("null")), "?string"},
		{"undefined and null", union(ref("number"), ref("undefined"), ref("null")), "?number"},
		{"any absorbs", union(ref("string"), ref("any")), "any"},
		{"never dropped", union(ref("string"), ref("never")), "string"},
		{"only null", union(ref("null"), ref("undefined")), "null"},
		{"paren", &ast.ParenType{Type: ref("string")}, "string"},
		{"record index signature", object(&ast.TypeMember{Index: true, Key: ref("string"), Type: ref("number")}), "Record<string,number>"},
		{"readonly utility", ref("Readonly", ref("User")), "User"},
		{"non-nullable utility", ref("NonNullable", union(ref("string"), ref("null"))), "string"},
		{"branded primitive", &ast.IntersectionType{Types: []ast.TypeExpr{ref("string"), object(field("__brand", strLit("Id")))}}, "string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("test.ts")
			got := m.Map(tt.in, "")
			if got == nil {
				t.Fatal("Map() returned nil")
			}
			if key := ir.Key(got); key != tt.want {
				t.Errorf("Map() = %s, want %s", key, tt.want)
			}
			if len(m.Diagnostics()) != 0 {
				t.Errorf("unexpected diagnostics: %v", m.Diagnostics())
			}
		})
	}
}

func TestMapIsTotal(t *testing.T) {
	inputs := []ast.TypeExpr{
		nil,
		ref("string"),
		strLit("x"),
		&ast.ArrayType{Elem: ref("number")},
		&ast.TupleType{},
		object(field("a", ref("string"))),
		union(ref("string"), ref("number")),
		&ast.IntersectionType{Types: []ast.TypeExpr{ref("A"), ref("B")}},
		&ast.FunctionType{},
		&ast.ParenType{Type: ref("boolean")},
		&ast.UnsupportedType{Construct: "mapped type"},
	}
	m := New("total.ts")
	for _, in := range inputs {
		if got := m.Map(in, ""); got == nil {
			t.Errorf("Map(%T) returned nil", in)
		}
	}
}

func TestUnionNaming(t *testing.T) {
	m := New("u.ts")
	id := m.MapAlias("Id", union(ref("string"), ref("number")))
	u, ok := id.(*ir.UnionDescriptor)
	if !ok {
		t.Fatalf("Map() = %T, want *ir.UnionDescriptor", id)
	}
	if u.Name != "Id" || len(u.Members) != 2 {
		t.Errorf("union = %s %v", u.Name, u.Members)
	}

	// Same members in another order reuse the same union.
	again := m.Map(union(ref("number"), ref("string")), "")
	if again != id {
		t.Errorf("reordered union was not memoized")
	}

	other := m.Map(union(ref("boolean"), ref("User")), "")
	if name := other.(*ir.UnionDescriptor).Name; name != "BoolOrUser" {
		t.Errorf("derived name = %q, want BoolOrUser", name)
	}
	if got := len(m.Synthesized()); got != 2 {
		t.Errorf("len(Synthesized()) = %d, want 2", got)
	}
}

func TestShapeMemoization(t *testing.T) {
	m := New("s.ts")
	a := m.Map(object(field("x", ref("number")), field("y", ref("number"))), "")
	b := m.Map(object(field("x", ref("number")), field("y", ref("number"))), "")
	c := m.Map(object(field("y", ref("number")), field("x", ref("number"))), "")

	if a != b {
		t.Error("identical shapes should share one descriptor")
	}
	if a == c {
		t.Error("field order is part of the shape")
	}
	if got := a.(*ir.ShapeDescriptor).Name; got != "Shape1" {
		t.Errorf("name = %q, want Shape1", got)
	}
	if got := c.(*ir.ShapeDescriptor).Name; got != "Shape2" {
		t.Errorf("name = %q, want Shape2", got)
	}
}

func TestShapeFields(t *testing.T) {
	m := New("f.ts")
	td := m.Map(object(
		&ast.TypeMember{Name: "id", Type: ref("string"), Readonly: true},
		&ast.TypeMember{Name: "email", Type: ref("string"), Optional: true},
		field("nick", union(ref("string"), ref("null"))),
		field("address", object(field("city", ref("string")))),
	), "User")
	s := td.(*ir.ShapeDescriptor)
	if s.Name != "User" {
		t.Errorf("Name = %q", s.Name)
	}
	if f := s.Field("id"); f == nil || !f.Readonly || f.Optional {
		t.Errorf("id = %+v", f)
	}
	if f := s.Field("email"); f == nil || !f.Optional {
		t.Errorf("email = %+v", f)
	}
	if f := s.Field("nick"); f == nil || !f.Optional || !ir.IsPrimitive(f.Type, ir.PrimitiveString) {
		t.Errorf("nick = %+v, want optional string", f)
	}
	addr, ok := s.Field("address").Type.(*ir.ShapeDescriptor)
	if !ok || addr.Name != "Address" {
		t.Errorf("address = %+v, want shape named Address", s.Field("address").Type)
	}
	// The nested shape is created first.
	if syn := m.Synthesized(); len(syn) != 2 || syn[0].TypeName() != "Address" {
		t.Errorf("Synthesized() order = %v", syn)
	}
}

func TestIntersectionConflict(t *testing.T) {
	m := New("i.ts")
	td := m.Map(&ast.IntersectionType{
		Span: ir.Span{File: "i.ts", Line: 3, Column: 9},
		Types: []ast.TypeExpr{
			object(field("id", ref("string")), field("name", ref("string"))),
			object(field("id", ref("number"))),
		},
	}, "")

	s, ok := td.(*ir.ShapeDescriptor)
	if !ok {
		t.Fatalf("Map() = %T, want merged shape", td)
	}
	if s.Origin != ir.OriginIntersection {
		t.Errorf("Origin = %v", s.Origin)
	}
	if len(s.Fields) != 2 {
		t.Fatalf("fields = %+v", s.Fields)
	}
	if !ir.IsDynamic(s.Field("id").Type) {
		t.Errorf("id = %s, want dynamic", ir.Key(s.Field("id").Type))
	}
	if !ir.IsPrimitive(s.Field("name").Type, ir.PrimitiveString) {
		t.Errorf("name = %s, want string", ir.Key(s.Field("name").Type))
	}

	diags := m.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want one", diags)
	}
	d := diags[0]
	if d.Code != ir.CodeMappingConflict || d.Severity != ir.SeverityWarning {
		t.Errorf("diagnostic = %v", d)
	}
	if !strings.Contains(d.Message, `"id"`) || d.Span.Line != 3 {
		t.Errorf("diagnostic = %v", d)
	}
	// Only the synthesized merge exists; members are not registered.
	if got := len(m.Synthesized()); got != 1 {
		t.Errorf("len(Synthesized()) = %d, want 1", got)
	}
}

func TestIntersectionWithReferences(t *testing.T) {
	m := New("i.ts")
	td := m.Map(&ast.IntersectionType{Types: []ast.TypeExpr{
		ref("User"),
		object(field("createdAt", ref("string"))),
	}}, "")
	d, ok := td.(*ir.IntersectionDescriptor)
	if !ok {
		t.Fatalf("Map() = %T, want *ir.IntersectionDescriptor", td)
	}
	if d.Name != "User" {
		t.Errorf("Name = %q, want User", d.Name)
	}
	if len(d.Members) != 1 || len(d.Merged) != 1 || d.Merged[0].Name != "createdAt" {
		t.Errorf("intersection = %+v", d)
	}
}

func TestTypeParams(t *testing.T) {
	m := New("g.ts")
	m.PushScope("T")
	got := m.Map(&ast.ArrayType{Elem: ref("T")}, "")
	m.PopScope()
	after := m.Map(ref("T"), "")

	if ir.Key(got) != "[]'T" {
		t.Errorf("in scope = %s, want []'T", ir.Key(got))
	}
	if ir.Key(after) != "T" {
		t.Errorf("out of scope = %s, want named T", ir.Key(after))
	}
}

func TestUnsupportedTypes(t *testing.T) {
	m := New("x.ts")
	for _, c := range []string{"mapped type", "conditional type", "template literal type", "keyof type"} {
		td := m.Map(&ast.UnsupportedType{Construct: c}, "")
		if td.Kind() != ir.KindUnsupported || !ir.IsDynamic(td) {
			t.Errorf("%s mapped to %s", c, ir.Key(td))
		}
	}
	m.Map(ref("Partial", ref("User")), "")
	diags := m.Diagnostics().WithCode(ir.CodeUnsupportedConstruct)
	if len(diags) != 5 {
		t.Fatalf("diagnostics = %v, want 5", diags)
	}
	if !strings.Contains(diags[4].Message, "Partial") {
		t.Errorf("message = %q", diags[4].Message)
	}
}

func TestFinishRenamesClashes(t *testing.T) {
	m := New("c.ts")
	fieldShape := m.Map(object(field("street", ref("string"))), "Address")
	alias := m.MapAlias("Point", object(field("x", ref("number"))))
	m.Finish(map[string]bool{"Address": true, "Point": true})

	if got := fieldShape.(*ir.ShapeDescriptor).Name; got != "Address2" {
		t.Errorf("clashing shape = %q, want Address2", got)
	}
	if got := alias.(*ir.ShapeDescriptor).Name; got != "Point" {
		t.Errorf("alias shape = %q, want Point", got)
	}
}

func TestAliasAdoptsAnonymousShape(t *testing.T) {
	m := New("a.ts")
	first := m.Map(object(field("x", ref("number"))), "")
	alias := m.MapAlias("Vec", object(field("x", ref("number"))))
	if first != alias {
		t.Fatal("alias should reuse the memoized shape")
	}
	if s := alias.(*ir.ShapeDescriptor); s.Name != "Vec" || s.Origin != ir.OriginAlias {
		t.Errorf("shape = %s origin %v", s.Name, s.Origin)
	}
}

func TestDeterministic(t *testing.T) {
	run := func() []string {
		m := New("d.ts")
		m.Map(object(field("a", ref("string"))), "")
		m.Map(union(ref("string"), ref("boolean")), "")
		m.Map(object(field("b", ref("number"))), "")
		m.Map(&ast.IntersectionType{Types: []ast.TypeExpr{object(field("a", ref("string"))), object(field("a", ref("number")))}}, "")
		var out []string
		for _, s := range m.Synthesized() {
			out = append(out, s.TypeName()+"="+ir.Key(s))
		}
		for _, d := range m.Diagnostics() {
			out = append(out, d.String())
		}
		return out
	}
	first, second := run(), run()
	if strings.Join(first, "\n") != strings.Join(second, "\n") {
		t.Errorf("runs differ:\n%v\n%v", first, second)
	}
	if first[0] != "Shape1={a:string}" || first[2] != "Shape2={b:number}" {
		t.Errorf("names = %v", first)
	}
}

func TestHint(t *testing.T) {
	tests := []struct{ in, want string }{
		{"address", "Address"},
		{"shippingAddress", "ShippingAddress"},
		{"shipping_address", "ShippingAddress"},
		{"$meta", "Meta"},
		{"2fa", "T2fa"},
	}
	for _, tt := range tests {
		if got := Hint(tt.in); got != tt.want {
			t.Errorf("Hint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSingular(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Items", "Item"},
		{"Entries", "Entry"},
		{"Address", "AddressItem"},
		{"Data", "DataItem"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Singular(tt.in); got != tt.want {
			t.Errorf("Singular(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
