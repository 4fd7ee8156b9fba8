package ir

import (
	"sort"
	"strings"
)

// Key returns the canonical structural signature of td. Two descriptors with
// the same key describe the same type, which lets callers use keys as map keys
// for deduplication. Generated names of shapes and unions are not part of the
// key.
func Key(td TypeDescriptor) string {
	var b strings.Builder
	writeKey(&b, td)
	return b.String()
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b TypeDescriptor) bool {
	return Key(a) == Key(b)
}

// FieldsKey returns the canonical signature of an ordered field list.
func FieldsKey(fields []Field) string {
	var b strings.Builder
	writeFields(&b, fields)
	return b.String()
}

func writeKey(b *strings.Builder, td TypeDescriptor) {
	switch d := td.(type) {
	case nil:
		b.WriteString("any")
	case *PrimitiveDescriptor:
		b.WriteString(d.PrimitiveKind.String())
	case *ArrayDescriptor:
		b.WriteString("[]")
		writeKey(b, d.Element)
	case *TupleDescriptor:
		b.WriteString("(")
		writeList(b, d.Elements, ",")
		b.WriteString(")")
	case *ShapeDescriptor:
		writeFields(b, d.Fields)
	case *NamedDescriptor:
		b.WriteString(d.Name)
		if len(d.Args) > 0 {
			b.WriteString("<")
			writeList(b, d.Args, ",")
			b.WriteString(">")
		}
	case *UnionDescriptor:
		// Unions are sets; member order does not matter.
		keys := make([]string, len(d.Members))
		for i, m := range d.Members {
			keys[i] = Key(m)
		}
		sort.Strings(keys)
		b.WriteString("union(")
		b.WriteString(strings.Join(keys, "|"))
		b.WriteString(")")
	case *IntersectionDescriptor:
		b.WriteString("intersection(")
		writeList(b, d.Members, "&")
		b.WriteString(")")
	case *FunctionDescriptor:
		b.WriteString("fn(")
		writeList(b, d.Params, ",")
		b.WriteString(")=>")
		writeKey(b, d.Return)
	case *TypeParamDescriptor:
		b.WriteString("'")
		b.WriteString(d.ParamName)
	case *NullableDescriptor:
		b.WriteString("?")
		writeKey(b, d.Element)
	case *UnsupportedDescriptor:
		b.WriteString("unsupported:")
		b.WriteString(d.Construct)
	}
}

func writeList(b *strings.Builder, tds []TypeDescriptor, sep string) {
	for i, td := range tds {
		if i > 0 {
			b.WriteString(sep)
		}
		writeKey(b, td)
	}
}

func writeFields(b *strings.Builder, fields []Field) {
	b.WriteString("{")
	for i, f := range fields {
		if i > 0 {
			b.WriteString(";")
		}
		if f.Readonly {
			b.WriteString("readonly ")
		}
		b.WriteString(f.Name)
		if f.Optional {
			b.WriteString("?")
		}
		b.WriteString(":")
		writeKey(b, f.Type)
	}
	b.WriteString("}")
}

// Walk calls fn for td and every descriptor nested in it, depth first.
// If fn returns false the children of that descriptor are skipped.
func Walk(td TypeDescriptor, fn func(TypeDescriptor) bool) {
	if td == nil || !fn(td) {
		return
	}
	switch d := td.(type) {
	case *ArrayDescriptor:
		Walk(d.Element, fn)
	case *TupleDescriptor:
		for _, e := range d.Elements {
			Walk(e, fn)
		}
	case *ShapeDescriptor:
		for _, f := range d.Fields {
			Walk(f.Type, fn)
		}
	case *NamedDescriptor:
		for _, a := range d.Args {
			Walk(a, fn)
		}
	case *UnionDescriptor:
		for _, m := range d.Members {
			Walk(m, fn)
		}
	case *IntersectionDescriptor:
		for _, m := range d.Members {
			Walk(m, fn)
		}
	case *FunctionDescriptor:
		for _, p := range d.Params {
			Walk(p, fn)
		}
		Walk(d.Return, fn)
	case *TypeParamDescriptor:
		Walk(d.Constraint, fn)
	case *NullableDescriptor:
		Walk(d.Element, fn)
	}
}
