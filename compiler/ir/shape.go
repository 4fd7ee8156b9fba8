package ir

// ShapeOrigin records why a shape was synthesized.
type ShapeOrigin int

const (
	// OriginAnonymous is an inline object literal type.
	OriginAnonymous ShapeOrigin = iota
	// OriginAlias is an object literal type bound by a type alias.
	OriginAlias
	// OriginIntersection is the merge of intersected object shapes.
	OriginIntersection
)

// ShapeDescriptor represents a structural field set. Identical shapes within
// one file share one descriptor and therefore one generated struct.
type ShapeDescriptor struct {
	exprBase

	// Name is the generated struct name, assigned by the mapper.
	Name string

	// Fields are in declaration order.
	Fields []Field

	// Origin records how the shape came to exist.
	Origin ShapeOrigin
}

// Kind returns KindShape.
func (d *ShapeDescriptor) Kind() DescriptorKind { return KindShape }

// TypeName returns the generated struct name.
func (d *ShapeDescriptor) TypeName() string { return d.Name }

// Field returns the named field, or nil.
func (d *ShapeDescriptor) Field(name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// Field is a single member of a shape.
type Field struct {
	// Name is the source property name.
	Name string

	// Type is the present-value type (absence is expressed by Optional).
	Type TypeDescriptor

	// Optional is set for `name?: T` and for types including null/undefined.
	Optional bool

	// Readonly is set for `readonly name: T`.
	Readonly bool
}
