package ir

// DescriptorKind identifies the category of a type descriptor.
type DescriptorKind int

const (
	KindPrimitive    DescriptorKind = iota // Built-in primitive type
	KindArray                              // Growable sequence (T[] / Array<T>)
	KindTuple                              // Fixed-arity ordered product
	KindShape                              // Structural field set ({ a: T })
	KindNamed                              // Reference to an interface, class, enum or alias
	KindUnion                              // Tagged variant over members (A | B)
	KindIntersection                       // Merge of members (A & B)
	KindFunction                           // Function type ((a: A) => R)
	KindTypeParam                          // Generic type parameter (T)
	KindNullable                           // Optionality wrapper (T | null | undefined)
	KindUnsupported                        // Recognized but not representable
)

// String returns the string representation of the descriptor kind.
func (k DescriptorKind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindArray:
		return "Array"
	case KindTuple:
		return "Tuple"
	case KindShape:
		return "Shape"
	case KindNamed:
		return "Named"
	case KindUnion:
		return "Union"
	case KindIntersection:
		return "Intersection"
	case KindFunction:
		return "Function"
	case KindTypeParam:
		return "TypeParam"
	case KindNullable:
		return "Nullable"
	case KindUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// TypeDescriptor is the base interface for all type descriptors.
//
// Descriptors are immutable once the parser has finished with a file. Two
// descriptors describe the same type when their Key values are equal.
type TypeDescriptor interface {
	// Kind returns the descriptor kind for type switching.
	Kind() DescriptorKind

	// Ensure only types in this package can implement TypeDescriptor.
	sealed()
}

// exprBase provides the sealed marker for descriptor structs.
type exprBase struct{}

func (exprBase) sealed() {}

// Synthesized is implemented by descriptors that the generator emits as a
// standalone Rust item (struct or enum) and refers to by name.
type Synthesized interface {
	TypeDescriptor

	// TypeName returns the generated item name.
	TypeName() string
}
