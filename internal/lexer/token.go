package lexer

import "fmt"

// TokenType represents the type of a token
type TokenType string

// Span represents the source location of a token
type Span struct {
	Filename string // optional source filename for diagnostics
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Start    int    // index in []rune or original string
	End      int    // exclusive end index
}

// String renders the span as filename:line:column.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid reports whether the span carries real location information.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// Token represents a lexical token
type Token struct {
	Type         TokenType
	Raw          string // exact runes from source, including quotes for strings
	Value        string // decoded value (for strings, same as Raw for others)
	Interpolated bool   // string literal contains at least one \( ... ) segment
	Span         Span   // source location information
}

// Token type constants
const (
	// Special tokens
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers and literals
	IDENT  TokenType = "IDENT"  // Package, name, url, ...
	INT    TokenType = "INT"    // 5
	FLOAT  TokenType = "FLOAT"  // 5.5
	STRING TokenType = "STRING" // "1.0.0"

	// Operators
	ASSIGN       TokenType = "="
	PLUS         TokenType = "+"
	HALFOPEN     TokenType = "..<"
	CLOSED_RANGE TokenType = "..."

	// Delimiters
	COMMA    TokenType = ","
	COLON    TokenType = ":"
	DOT      TokenType = "."
	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"

	// Keywords
	LET    TokenType = "LET"
	IMPORT TokenType = "IMPORT"
	TRUE   TokenType = "TRUE"
	FALSE  TokenType = "FALSE"
	NIL    TokenType = "NIL"

	// Trivia tokens (comments, whitespace, newlines)
	LINE_COMMENT  TokenType = "LINE_COMMENT"  // //
	BLOCK_COMMENT TokenType = "BLOCK_COMMENT" // /* */
	WHITESPACE    TokenType = "WHITESPACE"    // spaces, tabs
	NEWLINE       TokenType = "NEWLINE"       // \n, \r\n
)

var keywords = map[string]TokenType{
	"let":    LET,
	"import": IMPORT,
	"true":   TRUE,
	"false":  FALSE,
	"nil":    NIL,
}

// LookupIdent checks if the identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// QuoteString renders value as a manifest string literal, escaping the
// characters readString decodes.
func QuoteString(value string) string {
	out := make([]rune, 0, len(value)+2)
	out = append(out, '"')
	for _, ch := range value {
		switch ch {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\t':
			out = append(out, '\\', 't')
		case '\r':
			out = append(out, '\\', 'r')
		default:
			out = append(out, ch)
		}
	}
	out = append(out, '"')
	return string(out)
}

// IsTrivia reports whether the token type is whitespace or a comment.
func IsTrivia(tt TokenType) bool {
	switch tt {
	case LINE_COMMENT, BLOCK_COMMENT, WHITESPACE, NEWLINE:
		return true
	default:
		return false
	}
}
