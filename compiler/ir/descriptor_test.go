package ir

import "testing"

func TestDescriptorKind_String(t *testing.T) {
	tests := []struct {
		kind DescriptorKind
		want string
	}{
		{KindPrimitive, "Primitive"},
		{KindArray, "Array"},
		{KindTuple, "Tuple"},
		{KindShape, "Shape"},
		{KindNamed, "Named"},
		{KindUnion, "Union"},
		{KindIntersection, "Intersection"},
		{KindFunction, "Function"},
		{KindTypeParam, "TypeParam"},
		{KindNullable, "Nullable"},
		{KindUnsupported, "Unsupported"},
		{DescriptorKind(999), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsDynamic(t *testing.T) {
	tests := []struct {
		name string
		td   TypeDescriptor
		want bool
	}{
		{"any", Any(), true},
		{"unknown", Unknown(), true},
		{"unsupported", Unsupported("conditional type", Span{}), true},
		{"nil", nil, true},
		{"string", String(), false},
		{"named", Named("User"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDynamic(tt.td); got != tt.want {
				t.Errorf("IsDynamic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNullable_Flattens(t *testing.T) {
	n := Nullable(Nullable(String()))
	if _, ok := n.Element.(*NullableDescriptor); ok {
		t.Error("nested nullable should be flattened")
	}

	inner, optional := Unwrap(n)
	if !optional || !IsPrimitive(inner, PrimitiveString) {
		t.Errorf("Unwrap() = %v, %v; want string, true", inner, optional)
	}

	inner, optional = Unwrap(Number())
	if optional || !IsPrimitive(inner, PrimitiveNumber) {
		t.Errorf("Unwrap(number) reported optional")
	}
}

func TestDiagnostics(t *testing.T) {
	ds := Diagnostics{
		Warningf(CodeUnsupportedConstruct, Span{Line: 1}, "decorator %s", "@x"),
		{Severity: SeverityError, Code: CodeParseError, Message: "boom"},
		Warningf(CodeMappingConflict, Span{Line: 3}, "conflict"),
	}

	if !ds.HasErrors() {
		t.Error("HasErrors() = false")
	}
	if got := len(ds.Warnings()); got != 2 {
		t.Errorf("len(Warnings()) = %d, want 2", got)
	}
	if got := len(ds.WithCode(CodeMappingConflict)); got != 1 {
		t.Errorf("len(WithCode()) = %d, want 1", got)
	}
	if got := ds[0].Message; got != "decorator @x" {
		t.Errorf("Message = %q", got)
	}
}

func TestSpan_String(t *testing.T) {
	if got := (Span{File: "a.ts", Line: 2, Column: 5}).String(); got != "a.ts:2:5" {
		t.Errorf("String() = %q", got)
	}
	if got := (Span{Line: 2, Column: 5}).String(); got != "2:5" {
		t.Errorf("String() = %q", got)
	}
}
