package ast

import "github.com/ts2rs/ts2rs/compiler/ir"

// VarKind is the declaring keyword of a variable.
type VarKind int

const (
	Let VarKind = iota
	Const
	Var
)

func (k VarKind) String() string {
	switch k {
	case Const:
		return "const"
	case Var:
		return "var"
	default:
		return "let"
	}
}

// VarDecl declares one or more bindings: `let a = 1, b: string;`.
type VarDecl struct {
	Span     ir.Span
	Kind     VarKind
	Bindings []*Binding
}

// Binding is a single declared name.
type Binding struct {
	Span ir.Span
	Name string

	// Type is nil when the binding has no annotation.
	Type ir.TypeDescriptor

	// Init is nil when the binding has no initializer.
	Init Expr
}

// Param is a function, method or constructor parameter.
type Param struct {
	Span ir.Span
	Name string

	// Type is the mapped annotation; nil when absent.
	Type ir.TypeDescriptor

	Optional bool
	Rest     bool
	Default  Expr
}

// FuncDecl is a function declaration. Body is nil for overload signatures
// and ambient declarations.
type FuncDecl struct {
	Span       ir.Span
	Name       string
	TypeParams []*ir.TypeParamDescriptor
	Params     []*Param

	// Return is nil when no return type was written.
	Return ir.TypeDescriptor

	Body      *Block
	Async     bool
	Generator bool
}

// Modifiers are the flags shared by class members.
type Modifiers struct {
	Visibility Visibility
	Readonly   bool
	Static     bool
	Override   bool
	Abstract   bool
}

// Member is a class member.
type Member interface {
	Node
	memberNode()
}

// Property is a class field. Constructor parameter properties are desugared
// into a Property plus an assignment in the constructor body.
type Property struct {
	Span ir.Span
	Modifiers
	Name string

	// Type is the mapped annotation; nil when absent.
	Type     ir.TypeDescriptor
	Optional bool
	Init     Expr

	// ECMAScript private name (#name).
	Hash bool
}

// Method is a class method.
type Method struct {
	Span ir.Span
	Modifiers
	Name       string
	TypeParams []*ir.TypeParamDescriptor
	Params     []*Param
	Return     ir.TypeDescriptor
	Body       *Block
	Async      bool
}

// Constructor is a class constructor.
type Constructor struct {
	Span       ir.Span
	Visibility Visibility
	Params     []*Param
	Body       *Block
}

// AccessorKind distinguishes getters from setters.
type AccessorKind int

const (
	Getter AccessorKind = iota
	Setter
)

// Accessor is a `get name()` or `set name(v)` member.
type Accessor struct {
	Span ir.Span
	Modifiers
	Kind AccessorKind
	Name string

	// Param is the setter parameter.
	Param  *Param
	Return ir.TypeDescriptor
	Body   *Block
}

func (n *Property) Pos() ir.Span    { return n.Span }
func (n *Method) Pos() ir.Span      { return n.Span }
func (n *Constructor) Pos() ir.Span { return n.Span }
func (n *Accessor) Pos() ir.Span    { return n.Span }
func (*Property) memberNode()       {}
func (*Method) memberNode()         {}
func (*Constructor) memberNode()    {}
func (*Accessor) memberNode()       {}

// ClassDecl is a class declaration.
type ClassDecl struct {
	Span       ir.Span
	Name       string
	TypeParams []*ir.TypeParamDescriptor

	// Extends is the base class reference, nil when absent. The generator
	// resolves it by name against same-file declarations.
	Extends    *ir.NamedDescriptor
	Implements []*ir.NamedDescriptor
	Abstract   bool
	Members    []Member
}

// Constructor returns the implementing constructor, or the first overload
// signature when no constructor has a body. It is nil when the class
// declares no constructor.
func (c *ClassDecl) Constructor() *Constructor {
	var first *Constructor
	for _, m := range c.Members {
		ctor, ok := m.(*Constructor)
		if !ok {
			continue
		}
		if ctor.Body != nil {
			return ctor
		}
		if first == nil {
			first = ctor
		}
	}
	return first
}

// Properties returns the property members in declaration order.
func (c *ClassDecl) Properties() []*Property {
	var out []*Property
	for _, m := range c.Members {
		if p, ok := m.(*Property); ok {
			out = append(out, p)
		}
	}
	return out
}

// Methods returns the method members in declaration order.
func (c *ClassDecl) Methods() []*Method {
	var out []*Method
	for _, m := range c.Members {
		if p, ok := m.(*Method); ok {
			out = append(out, p)
		}
	}
	return out
}

// Signature is an interface member.
type Signature interface {
	Node
	sigNode()
}

// PropertySig is an interface data member.
type PropertySig struct {
	Span     ir.Span
	Name     string
	Type     ir.TypeDescriptor
	Optional bool
	Readonly bool
}

// MethodSig is an interface method.
type MethodSig struct {
	Span       ir.Span
	Name       string
	TypeParams []*ir.TypeParamDescriptor
	Params     []*Param
	Return     ir.TypeDescriptor
	Optional   bool
}

// SignatureKind classifies the signatures that have no generated form.
type SignatureKind int

const (
	CallSignature SignatureKind = iota
	ConstructSignature
	IndexSignature
)

func (k SignatureKind) String() string {
	switch k {
	case ConstructSignature:
		return "construct signature"
	case IndexSignature:
		return "index signature"
	default:
		return "call signature"
	}
}

// SpecialSig is a call, construct or index signature. It is kept in the tree
// but never generated.
type SpecialSig struct {
	Span   ir.Span
	Kind   SignatureKind
	Params []*Param
	Return ir.TypeDescriptor
}

func (n *PropertySig) Pos() ir.Span { return n.Span }
func (n *MethodSig) Pos() ir.Span   { return n.Span }
func (n *SpecialSig) Pos() ir.Span  { return n.Span }
func (*PropertySig) sigNode()       {}
func (*MethodSig) sigNode()         {}
func (*SpecialSig) sigNode()        {}

// InterfaceDecl is an interface declaration.
type InterfaceDecl struct {
	Span       ir.Span
	Name       string
	TypeParams []*ir.TypeParamDescriptor
	Extends    []*ir.NamedDescriptor
	Members    []Signature
}

// Fields returns the data members.
func (d *InterfaceDecl) Fields() []*PropertySig {
	var out []*PropertySig
	for _, m := range d.Members {
		if p, ok := m.(*PropertySig); ok {
			out = append(out, p)
		}
	}
	return out
}

// MethodSigs returns the method members.
func (d *InterfaceDecl) MethodSigs() []*MethodSig {
	var out []*MethodSig
	for _, m := range d.Members {
		if p, ok := m.(*MethodSig); ok {
			out = append(out, p)
		}
	}
	return out
}

// EnumClass is the classification of an enum.
type EnumClass int

const (
	// SimpleEnum has only integer values and becomes a plain discriminant type.
	SimpleEnum EnumClass = iota
	// ValuedEnum has at least one string value and needs a value lookup.
	ValuedEnum
)

func (c EnumClass) String() string {
	if c == ValuedEnum {
		return "valued"
	}
	return "simple"
}

// EnumDecl is an enum declaration.
type EnumDecl struct {
	Span    ir.Span
	Name    string
	Const   bool
	Members []*EnumMember
	Class   EnumClass
}

// EnumValueKind is the kind of a resolved enum member value.
type EnumValueKind int

const (
	// EnumComputed is an initializer that could not be folded to a constant.
	EnumComputed EnumValueKind = iota
	EnumNumber
	EnumString
)

// EnumMember is one enum case with its resolved value. Members without an
// initializer are numbered from the previous numeric member.
type EnumMember struct {
	Span   ir.Span
	Name   string
	Kind   EnumValueKind
	Number float64
	Text   string

	// Init is the written initializer, nil when implicit.
	Init Expr
}

// TypeAliasDecl binds a name to a type.
type TypeAliasDecl struct {
	Span       ir.Span
	Name       string
	TypeParams []*ir.TypeParamDescriptor
	Type       ir.TypeDescriptor
}

// ImportName is one entry of an import or export list.
type ImportName struct {
	Name  string
	Alias string
}

// ImportDecl is an import declaration. Nothing is resolved.
type ImportDecl struct {
	Span      ir.Span
	Module    string
	Default   string
	Namespace string
	Names     []ImportName
	TypeOnly  bool
}

// ExportDecl wraps an exported declaration or carries an export list.
type ExportDecl struct {
	Span ir.Span

	// Decl is the exported declaration; nil for lists and re-exports.
	Decl    Decl
	Default bool

	// Names and From describe `export { a as b } from "mod"`.
	Names []ImportName
	From  string

	// Value is the expression of `export default <expr>`.
	Value Expr
}

// StmtDecl wraps a top-level statement that is not a declaration.
type StmtDecl struct {
	Stmt Stmt
}

func (n *VarDecl) Pos() ir.Span       { return n.Span }
func (n *FuncDecl) Pos() ir.Span      { return n.Span }
func (n *ClassDecl) Pos() ir.Span     { return n.Span }
func (n *InterfaceDecl) Pos() ir.Span { return n.Span }
func (n *EnumDecl) Pos() ir.Span      { return n.Span }
func (n *TypeAliasDecl) Pos() ir.Span { return n.Span }
func (n *ImportDecl) Pos() ir.Span    { return n.Span }
func (n *ExportDecl) Pos() ir.Span    { return n.Span }
func (n *StmtDecl) Pos() ir.Span      { return n.Stmt.Pos() }

func (*VarDecl) stmtNode()       {}
func (*FuncDecl) stmtNode()      {}
func (*ClassDecl) stmtNode()     {}
func (*InterfaceDecl) stmtNode() {}
func (*EnumDecl) stmtNode()      {}
func (*TypeAliasDecl) stmtNode() {}
func (*ImportDecl) stmtNode()    {}
func (*ExportDecl) stmtNode()    {}
func (*StmtDecl) stmtNode()      {}

func (*VarDecl) declNode()       {}
func (*FuncDecl) declNode()      {}
func (*ClassDecl) declNode()     {}
func (*InterfaceDecl) declNode() {}
func (*EnumDecl) declNode()      {}
func (*TypeAliasDecl) declNode() {}
func (*ImportDecl) declNode()    {}
func (*ExportDecl) declNode()    {}
func (*StmtDecl) declNode()      {}

// Unwrap returns the declaration inside an ExportDecl and whether it was exported.
func Unwrap(d Decl) (Decl, bool) {
	if e, ok := d.(*ExportDecl); ok && e.Decl != nil {
		return e.Decl, true
	}
	return d, false
}
