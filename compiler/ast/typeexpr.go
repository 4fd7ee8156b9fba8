package ast

import "github.com/ts2rs/ts2rs/compiler/ir"

// TypeExpr is a parsed type annotation before mapping. The parser hands it
// to the type mapper immediately; it is never stored in a Program.
type TypeExpr interface {
	Node
	typeNode()
}

type (
	// TypeRef is a (possibly qualified) named type with arguments. Keyword
	// types such as string or number are TypeRefs too.
	TypeRef struct {
		Span ir.Span
		Name string
		Args []TypeExpr
	}

	// LiteralType is a string, number or boolean literal type, or null.
	LiteralType struct {
		Span  ir.Span
		Kind  ir.PrimitiveKind
		Value string
	}

	ArrayType struct {
		Span ir.Span
		Elem TypeExpr
	}

	TupleType struct {
		Span  ir.Span
		Elems []TypeExpr
	}

	// ObjectType is an object literal type `{ a: T; b?(): U }`.
	ObjectType struct {
		Span    ir.Span
		Members []*TypeMember
	}

	// TypeMember is one member of an ObjectType. Index signatures have
	// Index set and carry the key type in Key. Members that cannot become a
	// field (call signatures, computed names) name the construct in
	// Unsupported.
	TypeMember struct {
		Span        ir.Span
		Name        string
		Type        TypeExpr
		Optional    bool
		Readonly    bool
		Index       bool
		Key         TypeExpr
		Unsupported string
	}

	UnionType struct {
		Span  ir.Span
		Types []TypeExpr
	}

	IntersectionType struct {
		Span  ir.Span
		Types []TypeExpr
	}

	FunctionType struct {
		Span   ir.Span
		Params []TypeExpr
		Return TypeExpr
	}

	ParenType struct {
		Span ir.Span
		Type TypeExpr
	}

	// UnsupportedType is a recognized construct without a target form:
	// mapped, conditional, template literal, keyof, typeof and indexed
	// access types.
	UnsupportedType struct {
		Span      ir.Span
		Construct string
	}
)

func (n *TypeRef) Pos() ir.Span          { return n.Span }
func (n *LiteralType) Pos() ir.Span      { return n.Span }
func (n *ArrayType) Pos() ir.Span        { return n.Span }
func (n *TupleType) Pos() ir.Span        { return n.Span }
func (n *ObjectType) Pos() ir.Span       { return n.Span }
func (n *TypeMember) Pos() ir.Span       { return n.Span }
func (n *UnionType) Pos() ir.Span        { return n.Span }
func (n *IntersectionType) Pos() ir.Span { return n.Span }
func (n *FunctionType) Pos() ir.Span     { return n.Span }
func (n *ParenType) Pos() ir.Span        { return n.Span }
func (n *UnsupportedType) Pos() ir.Span  { return n.Span }

func (*TypeRef) typeNode()          {}
func (*LiteralType) typeNode()      {}
func (*ArrayType) typeNode()        {}
func (*TupleType) typeNode()        {}
func (*ObjectType) typeNode()       {}
func (*UnionType) typeNode()        {}
func (*IntersectionType) typeNode() {}
func (*FunctionType) typeNode()     {}
func (*ParenType) typeNode()        {}
func (*UnsupportedType) typeNode()  {}
