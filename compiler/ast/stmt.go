package ast

import "github.com/ts2rs/ts2rs/compiler/ir"

type (
	// Block is a braced statement list.
	Block struct {
		Span  ir.Span
		Stmts []Stmt
	}

	// ExprStmt is an expression evaluated for its effects.
	ExprStmt struct {
		Span ir.Span
		X    Expr
	}

	// ReturnStmt returns Result, which is nil for a bare return.
	ReturnStmt struct {
		Span   ir.Span
		Result Expr
	}

	IfStmt struct {
		Span ir.Span
		Cond Expr
		Then Stmt
		Else Stmt // nil, *IfStmt or any other statement
	}

	WhileStmt struct {
		Span ir.Span
		Cond Expr
		Body Stmt
	}

	DoWhileStmt struct {
		Span ir.Span
		Body Stmt
		Cond Expr
	}

	// ForStmt is the three-clause loop; any clause may be nil.
	ForStmt struct {
		Span ir.Span
		Init Stmt
		Cond Expr
		Post Expr
		Body Stmt
	}

	// ForOfStmt is `for (const name of iter)`.
	ForOfStmt struct {
		Span ir.Span
		Kind VarKind
		Name string
		Iter Expr
		Body Stmt
	}

	BreakStmt struct {
		Span  ir.Span
		Label string
	}

	ContinueStmt struct {
		Span  ir.Span
		Label string
	}

	ThrowStmt struct {
		Span ir.Span
		X    Expr
	}

	// SwitchStmt is a switch with its clauses in order.
	SwitchStmt struct {
		Span  ir.Span
		Tag   Expr
		Cases []*CaseClause
	}

	// CaseClause is one `case x:` or `default:` clause; Test is nil for default.
	CaseClause struct {
		Span ir.Span
		Test Expr
		Body []Stmt
	}

	EmptyStmt struct {
		Span ir.Span
	}
)

func (n *Block) Pos() ir.Span        { return n.Span }
func (n *ExprStmt) Pos() ir.Span     { return n.Span }
func (n *ReturnStmt) Pos() ir.Span   { return n.Span }
func (n *IfStmt) Pos() ir.Span       { return n.Span }
func (n *WhileStmt) Pos() ir.Span    { return n.Span }
func (n *DoWhileStmt) Pos() ir.Span  { return n.Span }
func (n *ForStmt) Pos() ir.Span      { return n.Span }
func (n *ForOfStmt) Pos() ir.Span    { return n.Span }
func (n *BreakStmt) Pos() ir.Span    { return n.Span }
func (n *ContinueStmt) Pos() ir.Span { return n.Span }
func (n *ThrowStmt) Pos() ir.Span    { return n.Span }
func (n *SwitchStmt) Pos() ir.Span   { return n.Span }
func (n *EmptyStmt) Pos() ir.Span    { return n.Span }

func (*Block) stmtNode()        {}
func (*ExprStmt) stmtNode()     {}
func (*ReturnStmt) stmtNode()   {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*DoWhileStmt) stmtNode()  {}
func (*ForStmt) stmtNode()      {}
func (*ForOfStmt) stmtNode()    {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*ThrowStmt) stmtNode()    {}
func (*SwitchStmt) stmtNode()   {}
func (*EmptyStmt) stmtNode()    {}
