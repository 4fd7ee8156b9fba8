package ir

// ArrayDescriptor represents a growable sequence (T[], Array<T>, ReadonlyArray<T>).
type ArrayDescriptor struct {
	exprBase

	// Element is the array element type.
	Element TypeDescriptor
}

// Kind returns KindArray.
func (d *ArrayDescriptor) Kind() DescriptorKind { return KindArray }

// ArrayOf returns an ArrayDescriptor for element.
func ArrayOf(element TypeDescriptor) *ArrayDescriptor {
	return &ArrayDescriptor{Element: element}
}

// TupleDescriptor represents a fixed-arity ordered product ([A, B]).
type TupleDescriptor struct {
	exprBase

	// Elements are the tuple members in order.
	Elements []TypeDescriptor
}

// Kind returns KindTuple.
func (d *TupleDescriptor) Kind() DescriptorKind { return KindTuple }

// TupleOf returns a TupleDescriptor for the given elements.
func TupleOf(elements ...TypeDescriptor) *TupleDescriptor {
	return &TupleDescriptor{Elements: elements}
}

// NamedDescriptor represents a reference to a named interface, class, enum or
// type alias, with mapped generic arguments.
//
// Whether the name resolves to a same-file declaration is decided by the
// generator; imported names without a local declaration degrade to the
// dynamic type at emission time.
type NamedDescriptor struct {
	exprBase

	// Name is the referenced identifier (possibly qualified, e.g. "ns.Type").
	Name string

	// Args are the generic arguments in order.
	Args []TypeDescriptor
}

// Kind returns KindNamed.
func (d *NamedDescriptor) Kind() DescriptorKind { return KindNamed }

// Named returns a NamedDescriptor.
func Named(name string, args ...TypeDescriptor) *NamedDescriptor {
	return &NamedDescriptor{Name: name, Args: args}
}

// UnionDescriptor represents a tagged variant over member descriptors.
//
// Unions whose members collapse to a single primitive kind never reach this
// form; the mapper returns the primitive instead. Absence members (null,
// undefined) are removed and expressed with NullableDescriptor.
type UnionDescriptor struct {
	exprBase

	// Name is the generated enum name, assigned by the mapper.
	Name string

	// Members contains at least two distinct members.
	Members []TypeDescriptor
}

// Kind returns KindUnion.
func (d *UnionDescriptor) Kind() DescriptorKind { return KindUnion }

// TypeName returns the generated enum name.
func (d *UnionDescriptor) TypeName() string { return d.Name }

// IntersectionDescriptor represents A & B where at least one member is a
// named reference whose fields are only known at generation time.
// Intersections made purely of object shapes are merged by the mapper into a
// ShapeDescriptor and never produce this form.
type IntersectionDescriptor struct {
	exprBase

	// Name is the generated struct name, assigned by the mapper.
	Name string

	// Members are the intersected types in source order.
	Members []TypeDescriptor

	// Merged holds the fields contributed by literal shape members.
	Merged []Field

	// Span is the first occurrence of the intersection in the source.
	Span Span
}

// Kind returns KindIntersection.
func (d *IntersectionDescriptor) Kind() DescriptorKind { return KindIntersection }

// TypeName returns the generated struct name.
func (d *IntersectionDescriptor) TypeName() string { return d.Name }

// FunctionDescriptor represents a function type.
type FunctionDescriptor struct {
	exprBase

	// Params are the parameter types in order.
	Params []TypeDescriptor

	// Return is the return type.
	Return TypeDescriptor
}

// Kind returns KindFunction.
func (d *FunctionDescriptor) Kind() DescriptorKind { return KindFunction }

// Func returns a FunctionDescriptor.
func Func(ret TypeDescriptor, params ...TypeDescriptor) *FunctionDescriptor {
	return &FunctionDescriptor{Params: params, Return: ret}
}

// TypeParamDescriptor represents a generic type parameter.
//
// It appears in two contexts:
//   - Declaration: in a declaration's TypeParams list, where Constraint applies.
//   - Usage: as the type of a field or parameter, where only ParamName is used.
type TypeParamDescriptor struct {
	exprBase

	// ParamName is the type parameter name (e.g. "T").
	ParamName string

	// Constraint is the extends clause; nil means unconstrained.
	Constraint TypeDescriptor
}

// Kind returns KindTypeParam.
func (d *TypeParamDescriptor) Kind() DescriptorKind { return KindTypeParam }

// TypeParam returns a TypeParamDescriptor.
func TypeParam(name string, constraint TypeDescriptor) *TypeParamDescriptor {
	return &TypeParamDescriptor{ParamName: name, Constraint: constraint}
}

// NullableDescriptor wraps a type that may be null or undefined.
// At field and parameter level it is unwrapped into an Optional flag; in
// nested positions it is emitted as Option<T>.
type NullableDescriptor struct {
	exprBase

	// Element is the present-value type.
	Element TypeDescriptor
}

// Kind returns KindNullable.
func (d *NullableDescriptor) Kind() DescriptorKind { return KindNullable }

// Nullable wraps element, flattening nested wrappers.
func Nullable(element TypeDescriptor) *NullableDescriptor {
	if n, ok := element.(*NullableDescriptor); ok {
		return n
	}
	return &NullableDescriptor{Element: element}
}

// Unwrap strips a top-level optionality wrapper.
func Unwrap(td TypeDescriptor) (TypeDescriptor, bool) {
	if n, ok := td.(*NullableDescriptor); ok {
		return n.Element, true
	}
	return td, false
}

// UnsupportedDescriptor marks a type construct that is recognized but has no
// target representation (mapped, conditional, template-literal types, ...).
// The generator emits the dynamic type in its place.
type UnsupportedDescriptor struct {
	exprBase

	// Construct names the construct, e.g. "mapped type".
	Construct string

	// Span locates the construct in the source.
	Span Span
}

// Kind returns KindUnsupported.
func (d *UnsupportedDescriptor) Kind() DescriptorKind { return KindUnsupported }

// Unsupported returns an UnsupportedDescriptor.
func Unsupported(construct string, span Span) *UnsupportedDescriptor {
	return &UnsupportedDescriptor{Construct: construct, Span: span}
}
