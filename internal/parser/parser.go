package parser

import (
	"github.com/manifedit/manifedit/internal/diag"
	"github.com/manifedit/manifedit/internal/lexer"
	"github.com/manifedit/manifedit/internal/syntax"
)

type (
	prefixParseFn func() syntax.Expr
	infixParseFn  func(syntax.Expr) syntax.Expr
)

type Option func(*options)

type options struct {
	filename string
}

// WithFilename configures the parser to attribute all emitted spans to the provided filename.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

const (
	precedenceLowest = iota
	precedenceRange
	precedenceSum
	precedencePostfix
)

var precedences = map[lexer.TokenType]int{
	lexer.HALFOPEN:     precedenceRange,
	lexer.CLOSED_RANGE: precedenceRange,
	lexer.PLUS:         precedenceSum,
	lexer.LPAREN:       precedencePostfix,
	lexer.DOT:          precedencePostfix,
}

// ParseError captures a recoverable parsing error with location context.
type ParseError struct {
	Message  string
	Span     lexer.Span
	Severity diag.Severity
}

func (e ParseError) Error() string {
	if e.Span.IsValid() {
		return e.Span.String() + ": " + e.Message
	}
	return e.Message
}

// ToDiagnostic converts a parse error into a shared diagnostic structure.
func (e ParseError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageParser,
		Severity: e.Severity,
		Code:     diag.CodeParseUnexpectedToken,
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
	}
}

// token pairs a full-fidelity syntax token with the string value decoded by
// the lexer (needed for string literals).
type token struct {
	syn          syntax.Token
	value        string
	interpolated bool
}

// Parser is a Pratt-style recursive descent parser for manifest source.
// Invariants:
//   - Lookahead: curTok always reflects the token currently under
//     examination; peekTok mirrors the next token pulled from the lexer. The
//     pair forms the parser's sole lookahead window and is only mutated via
//     nextToken.
//   - Trivia: the lexer runs in trivia mode and nextToken folds every trivia
//     run into the next real token's Leading field, so that
//     syntax.Print(ParseFile()) reproduces the input byte for byte.
//   - Diagnostics: errors is an append-only accumulator of recoverable
//     diagnostics. Callers are expected to consult Errors() after ParseFile.
type Parser struct {
	lx      *lexer.Lexer
	curTok  token
	peekTok token

	errors []ParseError

	filename string

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn
}

// New returns a parser initialised with the provided source input.
func New(input string, opts ...Option) *Parser {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Parser{
		lx:        lexer.NewWithTrivia(input),
		prefixFns: make(map[lexer.TokenType]prefixParseFn),
		infixFns:  make(map[lexer.TokenType]infixParseFn),
		filename:  cfg.filename,
	}

	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.INT, p.parseNumberLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseNumberLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.NIL, p.parseNilLiteral)
	p.registerPrefix(lexer.DOT, p.parseLeadingMemberRef)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)

	p.registerInfix(lexer.PLUS, p.parseInfixExpr)
	p.registerInfix(lexer.HALFOPEN, p.parseInfixExpr)
	p.registerInfix(lexer.CLOSED_RANGE, p.parseInfixExpr)
	p.registerInfix(lexer.LPAREN, p.parseCallExpr)
	p.registerInfix(lexer.DOT, p.parseMemberRef)

	// Seed curTok/peekTok.
	p.nextToken()
	p.nextToken()

	return p
}

// Parse is a convenience wrapper: parse input and return the file together
// with all lexer and parser errors.
func Parse(input string, opts ...Option) (*syntax.SourceFile, []ParseError) {
	p := New(input, opts...)
	file := p.ParseFile()
	return file, p.Errors()
}

// Errors returns all recoverable lexer and parse errors that were encountered.
func (p *Parser) Errors() []ParseError {
	errs := make([]ParseError, 0, len(p.errors)+len(p.lx.Errors))
	for _, le := range p.lx.Errors {
		errs = append(errs, ParseError{
			Message:  le.Message,
			Span:     p.spanWithFilename(le.Span),
			Severity: diag.SeverityError,
		})
	}
	return append(errs, p.errors...)
}

// ParseFile parses a full manifest file and returns its syntax tree.
func (p *Parser) ParseFile() *syntax.SourceFile {
	file := &syntax.SourceFile{}

	for p.curTok.syn.Type != lexer.EOF {
		prevTok := p.curTok
		stmt := p.parseStmt()
		if stmt != nil {
			file.Stmts = append(file.Stmts, stmt)
			p.nextToken()
			continue
		}

		if p.curTok.syn.Type == lexer.EOF {
			break
		}

		p.recoverStmt(prevTok)
	}

	// The EOF token's leading trivia is the file's trailing trivia.
	file.EOF = p.curTok.syn

	return file
}

func (p *Parser) parseStmt() syntax.Stmt {
	switch p.curTok.syn.Type {
	case lexer.IMPORT:
		return p.parseImportDecl()
	case lexer.LET:
		return p.parseLetBinding()
	default:
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		return &syntax.ExprStmt{X: expr}
	}
}

func (p *Parser) parseImportDecl() syntax.Stmt {
	importTok := p.curTok.syn

	if !p.expect(lexer.IDENT) {
		return nil
	}

	return &syntax.ImportDecl{ImportTok: importTok, Name: p.curTok.syn}
}

func (p *Parser) parseLetBinding() syntax.Stmt {
	letTok := p.curTok.syn

	if !p.expect(lexer.IDENT) {
		return nil
	}
	nameTok := p.curTok.syn

	if !p.expect(lexer.ASSIGN) {
		return nil
	}
	assignTok := p.curTok.syn

	p.nextToken()

	value := p.parseExpr()
	if value == nil {
		return nil
	}

	return &syntax.LetBinding{
		LetTok:    letTok,
		Name:      nameTok,
		AssignTok: assignTok,
		Value:     value,
	}
}

// nextToken advances the parser's token window, folding any trivia run into
// the Leading field of the next real token.
func (p *Parser) nextToken() {
	p.curTok = p.peekTok

	leading := ""
	for {
		lt := p.lx.NextToken()
		if lexer.IsTrivia(lt.Type) {
			leading += lt.Raw
			continue
		}
		p.peekTok = token{
			syn: syntax.Token{
				Type:    lt.Type,
				Text:    lt.Raw,
				Leading: leading,
				Span:    p.spanWithFilename(lt.Span),
			},
			value:        lt.Value,
			interpolated: lt.Interpolated,
		}
		return
	}
}

// expect asserts that the peek token matches the provided type.
// The caller is responsible for inspecting curTok before invoking expect,
// because expect never rewinds; on success it promotes peekTok into curTok.
func (p *Parser) expect(tt lexer.TokenType) bool {
	if p.peekTok.syn.Type == tt {
		p.nextToken()
		return true
	}

	lexeme := string(tt)
	msg := "expected '" + lexeme + "'"
	p.reportError(msg, p.peekTok.syn.Span)
	return false
}

// reportError records a recoverable diagnostic without aborting parsing.
func (p *Parser) reportError(msg string, span lexer.Span) {
	p.errors = append(p.errors, ParseError{
		Message:  msg,
		Span:     p.spanWithFilename(span),
		Severity: diag.SeverityError,
	})
}

func (p *Parser) spanWithFilename(span lexer.Span) lexer.Span {
	if span.Filename == "" && p.filename != "" {
		span.Filename = p.filename
	}
	return span
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixFns[tokenType] = fn
}

func sameTokenPosition(a, b token) bool {
	return a.syn.Type == b.syn.Type && a.syn.Span.Start == b.syn.Span.Start && a.syn.Span.End == b.syn.Span.End
}

// recoverStmt skips ahead to the next plausible statement start so one bad
// statement does not cascade.
func (p *Parser) recoverStmt(prev token) {
	if p.curTok.syn.Type == lexer.EOF {
		return
	}

	if sameTokenPosition(p.curTok, prev) {
		p.nextToken()
	}

	for p.curTok.syn.Type != lexer.EOF {
		switch p.curTok.syn.Type {
		case lexer.IMPORT, lexer.LET:
			return
		}
		p.nextToken()
	}
}
