package ast

import "github.com/ts2rs/ts2rs/compiler/ir"

type (
	Ident struct {
		Span ir.Span
		Name string
	}

	// NumberLit is a numeric literal. Raw keeps the normalized source digits.
	NumberLit struct {
		Span  ir.Span
		Value float64
		Raw   string
	}

	StringLit struct {
		Span  ir.Span
		Value string
	}

	BoolLit struct {
		Span  ir.Span
		Value bool
	}

	NullLit struct {
		Span ir.Span
	}

	// TemplateLit is a template literal; Segments has one more element than Exprs.
	TemplateLit struct {
		Span     ir.Span
		Segments []string
		Exprs    []Expr
	}

	RegexLit struct {
		Span    ir.Span
		Pattern string
		Flags   string
	}

	ThisExpr struct {
		Span ir.Span
	}

	SuperExpr struct {
		Span ir.Span
	}

	ArrayLit struct {
		Span  ir.Span
		Elems []Expr
	}

	// ObjectLit is an object literal. Spread entries have an empty Key.
	ObjectLit struct {
		Span  ir.Span
		Props []*ObjectProp
	}

	ObjectProp struct {
		Span      ir.Span
		Key       string
		Value     Expr
		Shorthand bool
		Spread    bool
	}

	// UnaryExpr covers prefix operators: ! - + ~ typeof void delete await.
	UnaryExpr struct {
		Span ir.Span
		Op   string
		X    Expr
	}

	UpdateExpr struct {
		Span   ir.Span
		Op     string // ++ or --
		Prefix bool
		X      Expr
	}

	// BinaryExpr covers arithmetic, comparison, bitwise and logical operators.
	BinaryExpr struct {
		Span ir.Span
		Op   string
		X    Expr
		Y    Expr
	}

	AssignExpr struct {
		Span   ir.Span
		Op     string // = += -= ...
		Target Expr
		Value  Expr
	}

	CondExpr struct {
		Span ir.Span
		Cond Expr
		Then Expr
		Else Expr
	}

	// MemberExpr is X.Name or X?.Name.
	MemberExpr struct {
		Span     ir.Span
		X        Expr
		Name     string
		Optional bool
		Hash     bool // X.#name
	}

	IndexExpr struct {
		Span     ir.Span
		X        Expr
		Index    Expr
		Optional bool
	}

	CallExpr struct {
		Span     ir.Span
		Fn       Expr
		TypeArgs []ir.TypeDescriptor
		Args     []Expr
		Optional bool
	}

	NewExpr struct {
		Span     ir.Span
		Ctor     Expr
		TypeArgs []ir.TypeDescriptor
		Args     []Expr
	}

	// FuncLit is an arrow function or function expression. Exactly one of
	// Body and ExprBody is set.
	FuncLit struct {
		Span     ir.Span
		Arrow    bool
		Name     string
		Params   []*Param
		Return   ir.TypeDescriptor
		Body     *Block
		ExprBody Expr
		Async    bool
	}

	// AsExpr is `x as T` or `x satisfies T`.
	AsExpr struct {
		Span      ir.Span
		X         Expr
		Type      ir.TypeDescriptor
		Satisfies bool
	}

	// NonNullExpr is the postfix assertion `x!`.
	NonNullExpr struct {
		Span ir.Span
		X    Expr
	}

	SpreadExpr struct {
		Span ir.Span
		X    Expr
	}

	ParenExpr struct {
		Span ir.Span
		X    Expr
	}
)

func (n *Ident) Pos() ir.Span       { return n.Span }
func (n *NumberLit) Pos() ir.Span   { return n.Span }
func (n *StringLit) Pos() ir.Span   { return n.Span }
func (n *BoolLit) Pos() ir.Span     { return n.Span }
func (n *NullLit) Pos() ir.Span     { return n.Span }
func (n *TemplateLit) Pos() ir.Span { return n.Span }
func (n *RegexLit) Pos() ir.Span    { return n.Span }
func (n *ThisExpr) Pos() ir.Span    { return n.Span }
func (n *SuperExpr) Pos() ir.Span   { return n.Span }
func (n *ArrayLit) Pos() ir.Span    { return n.Span }
func (n *ObjectLit) Pos() ir.Span   { return n.Span }
func (n *UnaryExpr) Pos() ir.Span   { return n.Span }
func (n *UpdateExpr) Pos() ir.Span  { return n.Span }
func (n *BinaryExpr) Pos() ir.Span  { return n.Span }
func (n *AssignExpr) Pos() ir.Span  { return n.Span }
func (n *CondExpr) Pos() ir.Span    { return n.Span }
func (n *MemberExpr) Pos() ir.Span  { return n.Span }
func (n *IndexExpr) Pos() ir.Span   { return n.Span }
func (n *CallExpr) Pos() ir.Span    { return n.Span }
func (n *NewExpr) Pos() ir.Span     { return n.Span }
func (n *FuncLit) Pos() ir.Span     { return n.Span }
func (n *AsExpr) Pos() ir.Span      { return n.Span }
func (n *NonNullExpr) Pos() ir.Span { return n.Span }
func (n *SpreadExpr) Pos() ir.Span  { return n.Span }
func (n *ParenExpr) Pos() ir.Span   { return n.Span }

func (*Ident) exprNode()       {}
func (*NumberLit) exprNode()   {}
func (*StringLit) exprNode()   {}
func (*BoolLit) exprNode()     {}
func (*NullLit) exprNode()     {}
func (*TemplateLit) exprNode() {}
func (*RegexLit) exprNode()    {}
func (*ThisExpr) exprNode()    {}
func (*SuperExpr) exprNode()   {}
func (*ArrayLit) exprNode()    {}
func (*ObjectLit) exprNode()   {}
func (*UnaryExpr) exprNode()   {}
func (*UpdateExpr) exprNode()  {}
func (*BinaryExpr) exprNode()  {}
func (*AssignExpr) exprNode()  {}
func (*CondExpr) exprNode()    {}
func (*MemberExpr) exprNode()  {}
func (*IndexExpr) exprNode()   {}
func (*CallExpr) exprNode()    {}
func (*NewExpr) exprNode()     {}
func (*FuncLit) exprNode()     {}
func (*AsExpr) exprNode()      {}
func (*NonNullExpr) exprNode() {}
func (*SpreadExpr) exprNode()  {}
func (*ParenExpr) exprNode()   {}

// Unparen strips parentheses, type assertions and non-null assertions.
func Unparen(x Expr) Expr {
	for {
		switch e := x.(type) {
		case *ParenExpr:
			x = e.X
		case *AsExpr:
			x = e.X
		case *NonNullExpr:
			x = e.X
		default:
			return x
		}
	}
}

// IsThisMember reports whether x is `this.name` and returns the name.
func IsThisMember(x Expr) (string, bool) {
	m, ok := Unparen(x).(*MemberExpr)
	if !ok {
		return "", false
	}
	if _, ok := Unparen(m.X).(*ThisExpr); !ok {
		return "", false
	}
	return m.Name, true
}
