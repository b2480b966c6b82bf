// Package ast defines the tagged-variant syntax tree produced by pkg/parser
// and consumed by pkg/codegen.
//
// Three families of node exist — Expr, Stmt, Decl — each a marker interface
// over a fixed set of concrete struct types (a sum type), rather than the
// inheritance-plus-downcast hierarchy of the reference implementation this
// was distilled from. Every concrete node carries its source Position.
package ast

import "fmt"

// Position is the source location of the first token that formed a node.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Node is satisfied by every AST node, expression, statement or declaration.
// Program.Decls holds top-level Nodes in source order.
type Node interface {
	Pos() Position
}

// Expr is implemented by every node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every node that does not itself produce a value.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is implemented by every top-level or member declaration.
type Decl interface {
	Node
	declNode()
}

// Program is the root of the tree: an ordered list of top-level
// declarations and statements. Order is preserved and significant.
type Program struct {
	Decls []Node
}

// ------------------------------------------------------------------
// Expressions
// ------------------------------------------------------------------

// LiteralKind tags the payload carried by a Literal node.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
	LitChar
	LitBraceInit
)

// Literal is a constant: a number, a string, a character, or a brace-enclosed
// initializer list captured verbatim as Text (balanced by nesting depth).
type Literal struct {
	P          Position
	LitKind    LiteralKind
	Text       string
	IsFloat    bool // NUMBER: contains '.', 'e' or 'E', no hex prefix
	IsUnsigned bool // NUMBER: u/U suffix present
	IsHex      bool // NUMBER: 0x/0X prefix present
}

func (l *Literal) Pos() Position { return l.P }
func (*Literal) exprNode()       {}
func (l *Literal) String() string {
	return fmt.Sprintf("Literal(%v, %q)", l.LitKind, l.Text)
}

// Identifier is a (possibly `::`-qualified) name reference.
type Identifier struct {
	P    Position
	Name string
}

func (i *Identifier) Pos() Position   { return i.P }
func (*Identifier) exprNode()         {}
func (i *Identifier) String() string  { return i.Name }

// UnaryExpr is a prefix operator applied to Operand: new, delete, !, -, +,
// *, &, ~.
type UnaryExpr struct {
	P       Position
	Op      string
	Operand Expr
}

func (u *UnaryExpr) Pos() Position { return u.P }
func (*UnaryExpr) exprNode()       {}
func (u *UnaryExpr) String() string {
	return fmt.Sprintf("(%s %s)", u.Op, u.Operand)
}

// PostfixExpr is a postfix ++ or -- applied to Operand. Op carries the
// lossy "++_post"/"--_post" spelling so it never collides with the prefix
// form's "++"/"--" when printed or compared.
type PostfixExpr struct {
	P       Position
	Op      string
	Operand Expr
}

func (p *PostfixExpr) Pos() Position { return p.P }
func (*PostfixExpr) exprNode()       {}
func (p *PostfixExpr) String() string {
	return fmt.Sprintf("(%s %s)", p.Operand, p.Op)
}

// BinaryExpr is a left-associative infix operator: arithmetic, bitwise,
// equality, relational, shift. Logical && and || are represented by
// LogicalExpr instead, so codegen can short-circuit them.
type BinaryExpr struct {
	P     Position
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinaryExpr) Pos() Position { return b.P }
func (*BinaryExpr) exprNode()       {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// LogicalExpr is && or ||.
type LogicalExpr struct {
	P     Position
	Op    string
	Left  Expr
	Right Expr
}

func (l *LogicalExpr) Pos() Position { return l.P }
func (*LogicalExpr) exprNode()       {}
func (l *LogicalExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", l.Left, l.Op, l.Right)
}

// TernaryExpr is cond ? then : else, with all three operands preserved.
// The reference implementation collapsed this to a two-child binary node
// and lost the condition; see DESIGN.md open-question resolution.
type TernaryExpr struct {
	P    Position
	Cond Expr
	Then Expr
	Else Expr
}

func (t *TernaryExpr) Pos() Position { return t.P }
func (*TernaryExpr) exprNode()       {}
func (t *TernaryExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", t.Cond, t.Then, t.Else)
}

// CallExpr is Callee(Args...). Callee is almost always an *Identifier; a
// small set of builtin names (print, println) are recognized by codegen.
type CallExpr struct {
	P      Position
	Callee Expr
	Args   []Expr
}

func (c *CallExpr) Pos() Position { return c.P }
func (*CallExpr) exprNode()       {}
func (c *CallExpr) String() string {
	return fmt.Sprintf("%s(%v)", c.Callee, c.Args)
}

// MemberExpr is Object.Member or, when Arrow is set, Object->Member.
type MemberExpr struct {
	P      Position
	Object Expr
	Member string
	Arrow  bool
}

func (m *MemberExpr) Pos() Position { return m.P }
func (*MemberExpr) exprNode()       {}
func (m *MemberExpr) String() string {
	op := "."
	if m.Arrow {
		op = "->"
	}
	return fmt.Sprintf("(%s%s%s)", m.Object, op, m.Member)
}

// IndexExpr is Array[Index].
type IndexExpr struct {
	P     Position
	Array Expr
	Index Expr
}

func (e *IndexExpr) Pos() Position { return e.P }
func (*IndexExpr) exprNode()       {}
func (e *IndexExpr) String() string {
	return fmt.Sprintf("(%s[%s])", e.Array, e.Index)
}

// AssignExpr is Left Op Value, e.g. x = v, x += v. Kept as an expression
// (rather than a statement) so it can appear in a for-init/post clause;
// ExprStmt wraps it when used as a full statement.
type AssignExpr struct {
	P     Position
	Op    string
	Left  Expr
	Value Expr
}

func (a *AssignExpr) Pos() Position { return a.P }
func (*AssignExpr) exprNode()       {}
func (a *AssignExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", a.Left, a.Op, a.Value)
}

// ------------------------------------------------------------------
// Statements
// ------------------------------------------------------------------

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	P Position
	X Expr
}

func (s *ExprStmt) Pos() Position  { return s.P }
func (*ExprStmt) stmtNode()        {}
func (s *ExprStmt) String() string { return fmt.Sprintf("ExprStmt(%s)", s.X) }

// VarDecl is a single declarator: type info plus name plus optional
// initializer. A multi-declarator line (`int a, b;`) is split into one
// VarDecl per name wrapped in a BlockStmt by the parser, preserving order.
type VarDecl struct {
	P            Position
	TypeTokens   []string // qualifiers + base type + any `::`/template text, in order
	Name         string
	Init         Expr
	IsPointer    bool
	IsReference  bool
	IsArray      bool
	IsUnsigned   bool
}

func (d *VarDecl) Pos() Position  { return d.P }
func (*VarDecl) stmtNode()        {}
func (*VarDecl) declNode()        {}
func (d *VarDecl) String() string {
	return fmt.Sprintf("VarDecl(%v %s = %s)", d.TypeTokens, d.Name, d.Init)
}

// BlockStmt is { Stmts... }.
type BlockStmt struct {
	P     Position
	Stmts []Stmt
}

func (b *BlockStmt) Pos() Position  { return b.P }
func (*BlockStmt) stmtNode()        {}
func (b *BlockStmt) String() string { return fmt.Sprintf("BlockStmt(len=%d)", len(b.Stmts)) }

// IfStmt is if (Cond) Then [else Else].
type IfStmt struct {
	P    Position
	Cond Expr
	Then Stmt
	Else Stmt // nil if absent
}

func (i *IfStmt) Pos() Position  { return i.P }
func (*IfStmt) stmtNode()        {}
func (i *IfStmt) String() string { return fmt.Sprintf("IfStmt(%s)", i.Cond) }

// WhileStmt is while (Cond) Body.
type WhileStmt struct {
	P    Position
	Cond Expr
	Body Stmt
}

func (w *WhileStmt) Pos() Position  { return w.P }
func (*WhileStmt) stmtNode()        {}
func (w *WhileStmt) String() string { return fmt.Sprintf("WhileStmt(%s)", w.Cond) }

// ForStmt unifies the traditional and range-based forms. A range-based for
// has Range != nil and Cond/Post == nil; a traditional for has Range == nil.
type ForStmt struct {
	P     Position
	Init  Stmt // declaration or expression-statement; nil if omitted
	Cond  Expr // nil for range-based or an omitted condition
	Post  Stmt // nil for range-based or an omitted post
	Range Expr // non-nil only for range-based for
	Body  Stmt
}

func (f *ForStmt) Pos() Position  { return f.P }
func (*ForStmt) stmtNode()        {}
func (f *ForStmt) String() string { return "ForStmt" }

// ReturnStmt is return Value?;
type ReturnStmt struct {
	P     Position
	Value Expr // nil for a bare `return;`
}

func (r *ReturnStmt) Pos() Position  { return r.P }
func (*ReturnStmt) stmtNode()        {}
func (r *ReturnStmt) String() string { return fmt.Sprintf("ReturnStmt(%s)", r.Value) }

// BreakStmt is break;
type BreakStmt struct{ P Position }

func (b *BreakStmt) Pos() Position  { return b.P }
func (*BreakStmt) stmtNode()        {}
func (b *BreakStmt) String() string { return "BreakStmt" }

// ContinueStmt is continue;
type ContinueStmt struct{ P Position }

func (c *ContinueStmt) Pos() Position  { return c.P }
func (*ContinueStmt) stmtNode()        {}
func (c *ContinueStmt) String() string { return "ContinueStmt" }

// AccessStmt is a bare `public:` / `private:` / `protected:` marker inside
// a class body.
type AccessStmt struct {
	P         Position
	Specifier string
}

func (a *AccessStmt) Pos() Position  { return a.P }
func (*AccessStmt) stmtNode()        {}
func (a *AccessStmt) String() string { return a.Specifier + ":" }

// ------------------------------------------------------------------
// Declarations
// ------------------------------------------------------------------

// Param is one entry of a function's parameter list.
type Param struct {
	TypeTokens []string
	Name       string
}

// FunctionDecl is ReturnType Name(Params) [const] { Body } or ;.
type FunctionDecl struct {
	P          Position
	ReturnType []string // empty for a constructor; "~" prefix convention for destructors is carried in Name
	Name       string
	Params     []Param
	Body       *BlockStmt // nil for a declaration-only prototype
	IsConst    bool
	IsVoid     bool // true when ReturnType denotes void; enforced at call sites
}

func (f *FunctionDecl) Pos() Position { return f.P }
func (*FunctionDecl) declNode()       {}
func (*FunctionDecl) stmtNode()       {}
func (f *FunctionDecl) String() string {
	return fmt.Sprintf("FunctionDecl(%s, params=%d)", f.Name, len(f.Params))
}

// ClassDecl is class/struct Name [: Bases] { Members... };. IsStruct
// distinguishes the two surface spellings; both produce the same node.
type ClassDecl struct {
	P        Position
	Name     string
	IsStruct bool
	Bases    []string // access specifiers on the base list are discarded
	Members  []Node
}

func (c *ClassDecl) Pos() Position { return c.P }
func (*ClassDecl) declNode()       {}
func (*ClassDecl) stmtNode()       {}
func (c *ClassDecl) String() string {
	return fmt.Sprintf("ClassDecl(%s, members=%d)", c.Name, len(c.Members))
}

// NamespaceDecl is namespace [Name] { Body... }.
type NamespaceDecl struct {
	P    Position
	Name string // may be empty (anonymous namespace)
	Body []Node
}

func (n *NamespaceDecl) Pos() Position { return n.P }
func (*NamespaceDecl) declNode()       {}
func (*NamespaceDecl) stmtNode()       {}
func (n *NamespaceDecl) String() string {
	return fmt.Sprintf("NamespaceDecl(%s, body=%d)", n.Name, len(n.Body))
}

// TemplateParam is `typename|class Name [= Default]`.
type TemplateParam struct {
	Name    string
	Default string
}

// TemplateDecl is template < Params > Decl.
type TemplateDecl struct {
	P      Position
	Params []TemplateParam
	Decl   Node
}

func (t *TemplateDecl) Pos() Position { return t.P }
func (*TemplateDecl) declNode()       {}
func (*TemplateDecl) stmtNode()       {}
func (t *TemplateDecl) String() string {
	return fmt.Sprintf("TemplateDecl(params=%d)", len(t.Params))
}

// IncludeDecl is #include <file> or #include "file".
type IncludeDecl struct {
	P        Position
	Filename string
	IsSystem bool
}

func (i *IncludeDecl) Pos() Position { return i.P }
func (*IncludeDecl) declNode()       {}
func (*IncludeDecl) stmtNode()       {}
func (i *IncludeDecl) String() string {
	if i.IsSystem {
		return fmt.Sprintf("IncludeDecl(<%s>)", i.Filename)
	}
	return fmt.Sprintf("IncludeDecl(%q)", i.Filename)
}

// UsingDecl is `using namespace Name;`. `using X::Y;` is parsed and
// discarded (returns nil from the parser; no node is produced for it).
type UsingDecl struct {
	P         Position
	Namespace string
}

func (u *UsingDecl) Pos() Position { return u.P }
func (*UsingDecl) declNode()       {}
func (*UsingDecl) stmtNode()       {}
func (u *UsingDecl) String() string {
	return fmt.Sprintf("UsingDecl(namespace %s)", u.Namespace)
}
