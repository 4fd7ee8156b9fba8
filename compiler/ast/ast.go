// Package ast declares the syntax tree produced by the parser.
//
// Nodes that carry a type hold an ir.TypeDescriptor resolved by the type
// mapper while parsing; raw annotations (TypeExpr) exist only transiently
// between the parser and the mapper and are never stored in the tree.
// A Program is immutable once the parser returns it.
package ast

import "github.com/ts2rs/ts2rs/compiler/ir"

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() ir.Span
}

// Stmt is a statement. Declarations are statements too.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is a declaration that may appear at the top level of a Program.
type Decl interface {
	Stmt
	declNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// Program is the root of one parsed source file.
type Program struct {
	// File identifies the source buffer.
	File string

	// Decls are the top-level declarations in source order. Top-level
	// statements that are not declarations are wrapped in StmtDecl.
	Decls []Decl

	// Synthesized lists the shapes, unions and intersections created by the
	// type mapper for this file, in creation order.
	Synthesized []ir.Synthesized

	// Diagnostics are the non-fatal issues found while parsing and mapping.
	Diagnostics ir.Diagnostics
}

// Visibility is a class member access modifier.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// Unsupported marks a construct the grammar recognizes but the generator
// cannot translate: decorators, namespaces, ambient declarations,
// destructuring, try statements and the like. It can stand in for a
// declaration, statement, expression or member.
type Unsupported struct {
	Span ir.Span

	// Kind names the construct, e.g. "decorator" or "namespace".
	Kind string
}

func (n *Unsupported) Pos() ir.Span { return n.Span }
func (*Unsupported) stmtNode()      {}
func (*Unsupported) declNode()      {}
func (*Unsupported) exprNode()      {}
func (*Unsupported) memberNode()    {}
func (*Unsupported) sigNode()       {}
