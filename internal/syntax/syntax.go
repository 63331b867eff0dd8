// Package syntax defines the full-fidelity tree for manifest source text.
//
// Every token carries the trivia (whitespace, newlines, comments) that
// precedes it in the source, verbatim. Printing a tree that came out of the
// parser therefore reproduces the original text byte for byte; printing a
// tree after an edit reproduces everything except the edited region.
//
// Nodes are immutable by convention: editing code never mutates a node it
// did not just construct. Replace rebuilds the path from the root to a
// target node and shares every untouched subtree.
package syntax

import "github.com/manifedit/manifedit/internal/lexer"

// Token is a lexical token plus the trivia run that precedes it.
// Synthesized tokens have a zero Span.
type Token struct {
	Type    lexer.TokenType
	Text    string // exact source text
	Leading string // trivia preceding the token, verbatim
	Span    lexer.Span
}

// NewToken constructs a synthesized token with no leading trivia.
func NewToken(tt lexer.TokenType, text string) Token {
	return Token{Type: tt, Text: text}
}

// NewTokenWithLeading constructs a synthesized token with leading trivia.
func NewTokenWithLeading(tt lexer.TokenType, text, leading string) Token {
	return Token{Type: tt, Text: text, Leading: leading}
}

// WithLeading returns a copy of the token with different leading trivia.
func (t Token) WithLeading(leading string) Token {
	t.Leading = leading
	return t
}

// Node represents any syntax node with an associated source span.
type Node interface {
	Span() lexer.Span
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression node.
type Expr interface {
	Node
	exprNode()
}

// SourceFile represents a parsed manifest file. The EOF token carries the
// file's trailing trivia.
type SourceFile struct {
	Stmts []Stmt
	EOF   Token
}

// Span returns the span covering the entire file.
func (f *SourceFile) Span() lexer.Span {
	if len(f.Stmts) == 0 {
		return f.EOF.Span
	}
	return mergeSpan(f.Stmts[0].Span(), f.EOF.Span)
}

// ImportDecl represents an import declaration.
type ImportDecl struct {
	ImportTok Token
	Name      Token
}

func (d *ImportDecl) Span() lexer.Span { return mergeSpan(d.ImportTok.Span, d.Name.Span) }
func (*ImportDecl) stmtNode()          {}

// LetBinding represents a top-level `let name = expr` binding.
type LetBinding struct {
	LetTok    Token
	Name      Token
	AssignTok Token
	Value     Expr
}

func (d *LetBinding) Span() lexer.Span {
	if d.Value != nil {
		return mergeSpan(d.LetTok.Span, d.Value.Span())
	}
	return mergeSpan(d.LetTok.Span, d.AssignTok.Span)
}
func (*LetBinding) stmtNode() {}

// ExprStmt represents a bare top-level expression.
type ExprStmt struct {
	X Expr
}

func (s *ExprStmt) Span() lexer.Span { return s.X.Span() }
func (*ExprStmt) stmtNode()          {}

// Ident represents an identifier.
type Ident struct {
	Tok Token
}

// NewIdent constructs an identifier node from a synthesized token.
func NewIdent(name string) *Ident {
	return &Ident{Tok: NewToken(lexer.IDENT, name)}
}

// Name returns the identifier's text.
func (i *Ident) Name() string { return i.Tok.Text }

func (i *Ident) Span() lexer.Span { return i.Tok.Span }
func (*Ident) exprNode()          {}

// StringLit represents a string literal. Interpolated literals (containing
// a \( ... ) segment) keep their raw text but never participate in name
// matching.
type StringLit struct {
	Tok          Token
	Value        string // decoded text without quotes
	Interpolated bool
}

// NewStringLit constructs a synthesized single-segment string literal.
func NewStringLit(value string) *StringLit {
	return &StringLit{
		Tok:   NewToken(lexer.STRING, lexer.QuoteString(value)),
		Value: value,
	}
}

func (l *StringLit) Span() lexer.Span { return l.Tok.Span }
func (*StringLit) exprNode()          {}

// NumberLit represents an integer or floating-point literal.
type NumberLit struct {
	Tok Token
}

func (l *NumberLit) Span() lexer.Span { return l.Tok.Span }
func (*NumberLit) exprNode()          {}

// BoolLit represents a true/false literal.
type BoolLit struct {
	Tok   Token
	Value bool
}

func (l *BoolLit) Span() lexer.Span { return l.Tok.Span }
func (*BoolLit) exprNode()          {}

// NilLit represents a nil literal.
type NilLit struct {
	Tok Token
}

func (l *NilLit) Span() lexer.Span { return l.Tok.Span }
func (*NilLit) exprNode()          {}

// MemberRef represents `.name` (Base nil) or `base.name`.
type MemberRef struct {
	Base   Expr // nil for a leading-dot reference
	DotTok Token
	Name   Token
}

// NewMemberRef constructs a synthesized leading-dot member reference.
func NewMemberRef(name string) *MemberRef {
	return &MemberRef{
		DotTok: NewToken(lexer.DOT, "."),
		Name:   NewToken(lexer.IDENT, name),
	}
}

func (m *MemberRef) Span() lexer.Span {
	if m.Base != nil {
		return mergeSpan(m.Base.Span(), m.Name.Span)
	}
	return mergeSpan(m.DotTok.Span, m.Name.Span)
}
func (*MemberRef) exprNode() {}

// Argument represents one call argument, optionally labeled, with an
// optional trailing separator.
type Argument struct {
	Label    *Token // nil for positional arguments
	ColonTok *Token
	Value    Expr
	CommaTok *Token // nil when the argument has no trailing separator
}

// NewArgument constructs a synthesized labeled argument.
func NewArgument(label string, value Expr) *Argument {
	labelTok := NewToken(lexer.IDENT, label)
	colonTok := NewToken(lexer.COLON, ":")
	return &Argument{Label: &labelTok, ColonTok: &colonTok, Value: value}
}

// NewPositionalArgument constructs a synthesized unlabeled argument.
func NewPositionalArgument(value Expr) *Argument {
	return &Argument{Value: value}
}

// HasLabel reports whether the argument is labeled name.
func (a *Argument) HasLabel(name string) bool {
	return a.Label != nil && a.Label.Text == name
}

func (a *Argument) Span() lexer.Span {
	span := a.Value.Span()
	if a.Label != nil {
		span = mergeSpan(a.Label.Span, span)
	}
	if a.CommaTok != nil {
		span = mergeSpan(span, a.CommaTok.Span)
	}
	return span
}

// CallExpr represents a call with an argument list.
type CallExpr struct {
	Callee Expr
	LParen Token
	Args   []*Argument
	RParen Token
}

// NewCallExpr constructs a synthesized call expression.
func NewCallExpr(callee Expr, args ...*Argument) *CallExpr {
	return &CallExpr{
		Callee: callee,
		LParen: NewToken(lexer.LPAREN, "("),
		Args:   args,
		RParen: NewToken(lexer.RPAREN, ")"),
	}
}

// Argument returns the first argument with the given label, or nil.
func (c *CallExpr) Argument(label string) *Argument {
	for _, arg := range c.Args {
		if arg.HasLabel(label) {
			return arg
		}
	}
	return nil
}

func (c *CallExpr) Span() lexer.Span { return mergeSpan(c.Callee.Span(), c.RParen.Span) }
func (*CallExpr) exprNode()          {}

// ArrayElement represents one array element with an optional trailing
// separator.
type ArrayElement struct {
	Value    Expr
	CommaTok *Token
}

func (e *ArrayElement) Span() lexer.Span {
	span := e.Value.Span()
	if e.CommaTok != nil {
		span = mergeSpan(span, e.CommaTok.Span)
	}
	return span
}

// ArrayLiteral represents a bracketed, ordered element list.
type ArrayLiteral struct {
	LBracket Token
	Elements []*ArrayElement
	RBracket Token
}

// NewArrayLiteral constructs a synthesized empty array literal.
func NewArrayLiteral() *ArrayLiteral {
	return &ArrayLiteral{
		LBracket: NewToken(lexer.LBRACKET, "["),
		RBracket: NewToken(lexer.RBRACKET, "]"),
	}
}

func (a *ArrayLiteral) Span() lexer.Span { return mergeSpan(a.LBracket.Span, a.RBracket.Span) }
func (*ArrayLiteral) exprNode()          {}

// InfixExpr represents a binary expression such as a `+` concatenation or
// a `..<`/`...` version range.
type InfixExpr struct {
	Left  Expr
	OpTok Token
	Right Expr
}

// NewInfixExpr constructs a synthesized infix expression. The operator
// token carries a space on each side so `"a" ..< "b"` prints naturally.
func NewInfixExpr(left Expr, op lexer.TokenType, right Expr) *InfixExpr {
	opTok := NewTokenWithLeading(op, string(op), " ")
	rightWithSpace := withLeadingExpr(right, " ")
	return &InfixExpr{Left: left, OpTok: opTok, Right: rightWithSpace}
}

func (e *InfixExpr) Span() lexer.Span { return mergeSpan(e.Left.Span(), e.Right.Span()) }
func (*InfixExpr) exprNode()          {}

// ConcatOperands flattens a chain of `+` concatenations into its operands
// in source order. A non-concatenation expression is its own sole operand.
func ConcatOperands(e Expr) []Expr {
	in, ok := e.(*InfixExpr)
	if !ok || in.OpTok.Type != lexer.PLUS {
		return []Expr{e}
	}
	return append(ConcatOperands(in.Left), ConcatOperands(in.Right)...)
}

// ExprLeading returns the leading trivia attached to an expression's first
// token.
func ExprLeading(e Expr) string {
	switch x := e.(type) {
	case *StringLit:
		return x.Tok.Leading
	case *Ident:
		return x.Tok.Leading
	case *NumberLit:
		return x.Tok.Leading
	case *BoolLit:
		return x.Tok.Leading
	case *NilLit:
		return x.Tok.Leading
	case *MemberRef:
		if x.Base == nil {
			return x.DotTok.Leading
		}
		return ExprLeading(x.Base)
	case *CallExpr:
		return ExprLeading(x.Callee)
	case *ArrayLiteral:
		return x.LBracket.Leading
	case *InfixExpr:
		return ExprLeading(x.Left)
	default:
		return ""
	}
}

// WithExprLeading returns a copy of the expression whose first token
// carries the given leading trivia.
func WithExprLeading(e Expr, leading string) Expr {
	return withLeadingExpr(e, leading)
}

// withLeadingExpr sets the leading trivia of an expression's first token.
// Only synthesized expression kinds are supported.
func withLeadingExpr(e Expr, leading string) Expr {
	switch x := e.(type) {
	case *StringLit:
		cp := *x
		cp.Tok = cp.Tok.WithLeading(leading)
		return &cp
	case *Ident:
		cp := *x
		cp.Tok = cp.Tok.WithLeading(leading)
		return &cp
	case *MemberRef:
		if x.Base == nil {
			cp := *x
			cp.DotTok = cp.DotTok.WithLeading(leading)
			return &cp
		}
		cp := *x
		cp.Base = withLeadingExpr(x.Base, leading)
		return &cp
	case *CallExpr:
		cp := *x
		cp.Callee = withLeadingExpr(x.Callee, leading)
		return &cp
	case *ArrayLiteral:
		cp := *x
		cp.LBracket = cp.LBracket.WithLeading(leading)
		return &cp
	case *NumberLit:
		cp := *x
		cp.Tok = cp.Tok.WithLeading(leading)
		return &cp
	case *BoolLit:
		cp := *x
		cp.Tok = cp.Tok.WithLeading(leading)
		return &cp
	case *NilLit:
		cp := *x
		cp.Tok = cp.Tok.WithLeading(leading)
		return &cp
	case *InfixExpr:
		cp := *x
		cp.Left = withLeadingExpr(x.Left, leading)
		return &cp
	default:
		return e
	}
}

func mergeSpan(start, end lexer.Span) lexer.Span {
	span := start

	if span.Filename == "" {
		span.Filename = end.Filename
	}

	if span.Line == 0 && end.Line != 0 {
		span.Line = end.Line
		span.Column = end.Column
		span.Start = end.Start
	}

	if end.End > span.End {
		span.End = end.End
	}

	return span
}
