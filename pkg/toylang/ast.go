package toylang

// Node is implemented by every AST node.
type Node interface {
	node()
}

// Expr is a value-producing AST node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement AST node.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of a parsed source file: a sequence of top-level
// declarations (variables and functions).
type Program struct {
	Decls []Stmt
}

func (*Program) node() {}

// Ident is a bare identifier reference.
type Ident struct {
	Name string
	Line int
}

func (*Ident) node()     {}
func (*Ident) exprNode() {}

// IntLit is an integer constant.
type IntLit struct {
	Text string
	Line int
}

func (*IntLit) node()     {}
func (*IntLit) exprNode() {}

// FloatLit is a floating-point constant.
type FloatLit struct {
	Text string
	Line int
}

func (*FloatLit) node()     {}
func (*FloatLit) exprNode() {}

// StringLit is a string literal.
type StringLit struct {
	Value string
	Line  int
}

func (*StringLit) node()     {}
func (*StringLit) exprNode() {}

// UnaryExpr is a prefix operator applied to an operand (tier 2).
type UnaryExpr struct {
	Op      TokenType
	Operand Expr
	Line    int
}

func (*UnaryExpr) node()     {}
func (*UnaryExpr) exprNode() {}

// BinaryExpr is a left/right pair joined by an infix operator (tiers 3-12).
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
	Line  int
}

func (*BinaryExpr) node()     {}
func (*BinaryExpr) exprNode() {}

// CallExpr is a postfix function call (tier 1).
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Line   int
}

func (*CallExpr) node()     {}
func (*CallExpr) exprNode() {}

// VarDecl is a top-level or block-scoped variable declaration: `x := expr`,
// `x :: Type = expr`, or the explicit typed form `x : Type [= expr]`.
type VarDecl struct {
	Name     string
	Type     string // "" when inferred (:=)
	Value    Expr   // nil when untyped-without-initializer is not legal; always set for :=
	Line     int
}

func (*VarDecl) node()     {}
func (*VarDecl) stmtNode() {}

// Param is one function-declaration parameter.
type Param struct {
	Name string
	Type string
}

// FuncDecl is `name :: (args) -> Type { block }`.
type FuncDecl struct {
	Name       string
	Params     []Param
	ReturnType string
	Body       []Stmt
	Line       int
}

func (*FuncDecl) node()     {}
func (*FuncDecl) stmtNode() {}

// AssignStmt is `target = expr` or a compound-assignment form (`+=`, etc.).
type AssignStmt struct {
	Target Expr
	Op     TokenType
	Value  Expr
	Line   int
}

func (*AssignStmt) node()     {}
func (*AssignStmt) stmtNode() {}

// IfStmt is `if (cond) { then } else { elseBranch }`; Else is nil when absent.
type IfStmt struct {
	Cond   Expr
	Then   []Stmt
	Else   []Stmt
	Line   int
}

func (*IfStmt) node()     {}
func (*IfStmt) stmtNode() {}

// WhileStmt is `while (cond) { body }`.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Line int
}

func (*WhileStmt) node()     {}
func (*WhileStmt) stmtNode() {}

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	Value Expr // nil for bare return
	Line  int
}

func (*ReturnStmt) node()     {}
func (*ReturnStmt) stmtNode() {}

// PrintStmt is `print(expr);`.
type PrintStmt struct {
	Value Expr
	Line  int
}

func (*PrintStmt) node()     {}
func (*PrintStmt) stmtNode() {}

// ExprStmt wraps a bare expression used as a statement.
type ExprStmt struct {
	X    Expr
	Line int
}

func (*ExprStmt) node()     {}
func (*ExprStmt) stmtNode() {}
