package lexer

import (
	"strconv"

	"github.com/manifedit/manifedit/internal/diag"
)

type LexerErrorKind int

const (
	ErrUnterminatedString LexerErrorKind = iota
	ErrUnterminatedBlockComment
	ErrUnterminatedInterpolation
	ErrIllegalRune
)

type LexerError struct {
	Kind    LexerErrorKind
	Message string
	Span    Span
}

func (k LexerErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrUnterminatedString:
		return diag.CodeLexerUnterminatedString
	case ErrUnterminatedBlockComment:
		return diag.CodeLexerUnterminatedBlockComment
	case ErrUnterminatedInterpolation:
		return diag.CodeLexerUnterminatedInterpolation
	case ErrIllegalRune:
		return diag.CodeLexerIllegalRune
	default:
		return diag.Code("LEXER_UNKNOWN_ERROR")
	}
}

// ToDiagnostic converts a lexer error into a shared diagnostic structure.
func (e LexerError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageLexer,
		Severity: diag.SeverityError,
		Code:     e.Kind.diagnosticCode(),
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

// Lexer tokenizes manifest source text. In trivia mode it emits whitespace,
// newline and comment tokens so a consumer can reproduce the input exactly.
type Lexer struct {
	input      []rune
	pos        int  // index of the current rune
	ch         rune // current rune (0 = EOF)
	line       int  // current line number (1-based)
	column     int  // current column number (1-based)
	emitTrivia bool // whether to emit trivia tokens (comments, whitespace)

	Errors []LexerError
}

func (l *Lexer) addError(kind LexerErrorKind, msg string, span Span) {
	l.Errors = append(l.Errors, LexerError{
		Kind:    kind,
		Message: msg,
		Span:    span,
	})
}

// newLexer is the single internal constructor that sets up all lexer state
func newLexer(input string, emitTrivia bool) *Lexer {
	r := []rune(input)
	l := &Lexer{
		input:      r,
		pos:        -1, // start before first rune
		ch:         0,
		line:       1,
		column:     0, // will be 1 after first read()
		emitTrivia: emitTrivia,
	}
	l.read() // move to first character
	return l
}

// New creates a new lexer for the given input (trivia mode disabled)
func New(input string) *Lexer {
	return newLexer(input, false)
}

// NewWithTrivia creates a new lexer that emits trivia tokens
func NewWithTrivia(input string) *Lexer {
	return newLexer(input, true)
}

// read advances the lexer to the next character. Line/column always reflect
// the position of the character at pos.
func (l *Lexer) read() {
	l.pos++
	prevPos := l.pos - 1
	inputLen := len(l.input)

	if l.pos >= inputLen {
		if prevPos >= 0 && prevPos < inputLen {
			if l.input[prevPos] == '\n' {
				l.line++
				l.column = 1
			} else {
				l.column++
			}
		} else if prevPos < 0 {
			l.column = 1
		}
		l.ch = 0 // EOF
		return
	}

	l.ch = l.input[l.pos]

	if prevPos >= 0 && prevPos < inputLen && l.input[prevPos] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

// peek returns the next character without advancing
func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

// peekAt returns the character n positions ahead without advancing
func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

// currentSpanStart returns the current position for span tracking
func (l *Lexer) currentSpanStart() (line, column, pos int) {
	return l.line, l.column, l.pos
}

// makeToken creates a token with span information
func (l *Lexer) makeToken(tokType TokenType, startLine, startColumn, startPos, endPos int, raw, value string) Token {
	return Token{
		Type:  tokType,
		Raw:   raw,
		Value: value,
		Span: Span{
			Line:   startLine,
			Column: startColumn,
			Start:  startPos,
			End:    endPos,
		},
	}
}

// skipWhitespace skips whitespace characters, optionally returning a trivia token
func (l *Lexer) skipWhitespace() *Token {
	if !l.emitTrivia {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.read()
		}
		return nil
	}

	startLine, startColumn, startPos := l.currentSpanStart()

	// Newlines are their own token so the printer can reproduce line layout
	if l.ch == '\n' || l.ch == '\r' {
		raw := string(l.ch)
		l.read()
		if l.ch == '\n' && raw == "\r" {
			raw = "\r\n"
			l.read()
		}
		endPos := l.pos
		tok := l.makeToken(NEWLINE, startLine, startColumn, startPos, endPos, raw, raw)
		return &tok
	}

	if l.ch == ' ' || l.ch == '\t' {
		for l.ch == ' ' || l.ch == '\t' {
			l.read()
		}
		endPos := l.pos
		raw := string(l.input[startPos:endPos])
		tok := l.makeToken(WHITESPACE, startLine, startColumn, startPos, endPos, raw, raw)
		return &tok
	}

	return nil
}

// skipLineCommentWithStart skips a line comment with a pre-captured start position
func (l *Lexer) skipLineCommentWithStart(startLine, startColumn, startPos int) *Token {
	for l.ch != '\n' && l.ch != '\r' && l.ch != 0 {
		l.read()
	}
	endPos := l.pos
	raw := string(l.input[startPos:endPos])

	if l.emitTrivia {
		tok := l.makeToken(LINE_COMMENT, startLine, startColumn, startPos, endPos, raw, raw)
		return &tok
	}
	return nil
}

// skipBlockCommentWithStart skips a (nestable) block comment
func (l *Lexer) skipBlockCommentWithStart(startLine, startColumn, startPos int) *Token {
	depth := 1
	for depth > 0 {
		if l.ch == 0 {
			l.addError(
				ErrUnterminatedBlockComment,
				"unterminated block comment",
				Span{Line: startLine, Column: startColumn, Start: startPos, End: l.pos},
			)
			break
		}
		if l.ch == '/' && l.peek() == '*' {
			l.read()
			l.read()
			depth++
		} else if l.ch == '*' && l.peek() == '/' {
			l.read()
			l.read()
			depth--
		} else {
			l.read()
		}
	}

	endPos := l.pos
	raw := string(l.input[startPos:endPos])

	if l.emitTrivia {
		tok := l.makeToken(BLOCK_COMMENT, startLine, startColumn, startPos, endPos, raw, raw)
		return &tok
	}
	return nil
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.read()
	}
	return string(l.input[start:l.pos])
}

// readNumber reads a decimal or float literal
func (l *Lexer) readNumber() (string, TokenType) {
	start := l.pos
	tokType := INT

	for isDigit(l.ch) {
		l.read()
	}

	// A '.' only continues the number when followed by a digit; "5..." must
	// lex as INT followed by a range operator.
	if l.ch == '.' && isDigit(l.peek()) {
		tokType = FLOAT
		l.read()
		for isDigit(l.ch) {
			l.read()
		}
	}

	return string(l.input[start:l.pos]), tokType
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	for {
		if triviaTok := l.skipWhitespace(); triviaTok != nil {
			return *triviaTok
		}

		switch l.ch {
		case 0:
			startLine, startColumn, startPos := l.currentSpanStart()
			if startColumn == 0 {
				startColumn = 1
			}
			return l.makeToken(EOF, startLine, startColumn, startPos, startPos, "", "")

		case '=':
			return l.singleRuneToken(ASSIGN)

		case '+':
			return l.singleRuneToken(PLUS)

		case ',':
			return l.singleRuneToken(COMMA)

		case ':':
			return l.singleRuneToken(COLON)

		case '(':
			return l.singleRuneToken(LPAREN)

		case ')':
			return l.singleRuneToken(RPAREN)

		case '[':
			return l.singleRuneToken(LBRACKET)

		case ']':
			return l.singleRuneToken(RBRACKET)

		case '.':
			startLine, startColumn, startPos := l.currentSpanStart()
			if l.peek() == '.' {
				switch l.peekAt(2) {
				case '<':
					l.read()
					l.read()
					l.read()
					return l.makeToken(HALFOPEN, startLine, startColumn, startPos, l.pos, "..<", "..<")
				case '.':
					l.read()
					l.read()
					l.read()
					return l.makeToken(CLOSED_RANGE, startLine, startColumn, startPos, l.pos, "...", "...")
				}
			}
			raw := string(l.ch)
			l.read()
			return l.makeToken(DOT, startLine, startColumn, startPos, l.pos, raw, raw)

		case '/':
			startLine, startColumn, startPos := l.currentSpanStart()
			switch l.peek() {
			case '/':
				l.read()
				l.read()
				if triviaTok := l.skipLineCommentWithStart(startLine, startColumn, startPos); triviaTok != nil {
					return *triviaTok
				}
				continue
			case '*':
				l.read()
				l.read()
				if triviaTok := l.skipBlockCommentWithStart(startLine, startColumn, startPos); triviaTok != nil {
					return *triviaTok
				}
				continue
			default:
				raw := string(l.ch)
				l.read()
				tok := l.makeToken(ILLEGAL, startLine, startColumn, startPos, l.pos, raw, raw)
				l.addError(ErrIllegalRune, "illegal character "+strconv.Quote(raw), tok.Span)
				return tok
			}

		case '"':
			startLine, startColumn, startPos := l.currentSpanStart()
			raw, value, interpolated, terminated := l.readString(startLine, startColumn, startPos)
			if !terminated {
				return l.makeToken(ILLEGAL, startLine, startColumn, startPos, l.pos, raw, raw)
			}
			tok := l.makeToken(STRING, startLine, startColumn, startPos, l.pos, raw, value)
			tok.Interpolated = interpolated
			return tok

		default:
			if isLetter(l.ch) {
				startLine, startColumn, startPos := l.currentSpanStart()
				literal := l.readIdentifier()
				tokType := LookupIdent(literal)
				return l.makeToken(tokType, startLine, startColumn, startPos, l.pos, literal, literal)
			} else if isDigit(l.ch) {
				startLine, startColumn, startPos := l.currentSpanStart()
				literal, tokType := l.readNumber()
				return l.makeToken(tokType, startLine, startColumn, startPos, l.pos, literal, literal)
			} else {
				startLine, startColumn, startPos := l.currentSpanStart()
				raw := string(l.ch)
				l.read()
				tok := l.makeToken(ILLEGAL, startLine, startColumn, startPos, l.pos, raw, raw)
				l.addError(
					ErrIllegalRune,
					"illegal character "+strconv.Quote(raw),
					tok.Span,
				)
				return tok
			}
		}
	}
}

// singleRuneToken emits a token for the current single-rune operator/delimiter.
func (l *Lexer) singleRuneToken(tokType TokenType) Token {
	startLine, startColumn, startPos := l.currentSpanStart()
	raw := string(l.ch)
	l.read()
	return l.makeToken(tokType, startLine, startColumn, startPos, l.pos, raw, raw)
}

func isLetter(ch rune) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z')
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// readString reads a string literal, handling escape sequences and
// \( ... ) interpolation segments. Raw keeps the exact source runes
// (quotes included); value is the decoded text. Interpolated strings keep
// their segments verbatim in value, since they never participate in
// name matching.
func (l *Lexer) readString(startLine, startColumn, startPos int) (raw string, value string, interpolated bool, terminated bool) {
	var rawRunes []rune
	var decodedRunes []rune

	rawRunes = append(rawRunes, '"')
	l.read() // skip opening quote

	for {
		if l.ch == 0 {
			l.addError(
				ErrUnterminatedString,
				"unterminated string literal",
				Span{Line: startLine, Column: startColumn, Start: startPos, End: l.pos},
			)
			break
		}
		if l.ch == '"' {
			rawRunes = append(rawRunes, '"')
			l.read()
			return string(rawRunes), string(decodedRunes), interpolated, true
		}
		if l.ch == '\n' || l.ch == '\r' {
			l.addError(
				ErrUnterminatedString,
				"newline in string literal",
				Span{Line: startLine, Column: startColumn, Start: startPos, End: l.pos},
			)
			break
		}
		if l.ch == '\\' {
			if l.peek() == '(' {
				// Interpolation segment: copy runes through the matching ')'.
				interpolated = true
				rawRunes = append(rawRunes, '\\', '(')
				decodedRunes = append(decodedRunes, '\\', '(')
				l.read() // skip '\'
				l.read() // skip '('
				depth := 1
				for depth > 0 {
					if l.ch == 0 || l.ch == '\n' || l.ch == '\r' {
						l.addError(
							ErrUnterminatedInterpolation,
							"unterminated string interpolation",
							Span{Line: startLine, Column: startColumn, Start: startPos, End: l.pos},
						)
						return string(rawRunes), string(decodedRunes), interpolated, false
					}
					if l.ch == '(' {
						depth++
					} else if l.ch == ')' {
						depth--
					}
					rawRunes = append(rawRunes, l.ch)
					decodedRunes = append(decodedRunes, l.ch)
					l.read()
				}
				continue
			}

			rawRunes = append(rawRunes, '\\')
			l.read() // skip '\'
			if l.ch != 0 {
				rawRunes = append(rawRunes, l.ch)
				switch l.ch {
				case 'n':
					decodedRunes = append(decodedRunes, '\n')
				case 't':
					decodedRunes = append(decodedRunes, '\t')
				case 'r':
					decodedRunes = append(decodedRunes, '\r')
				case '\\':
					decodedRunes = append(decodedRunes, '\\')
				case '"':
					decodedRunes = append(decodedRunes, '"')
				default:
					decodedRunes = append(decodedRunes, '\\')
					decodedRunes = append(decodedRunes, l.ch)
				}
				l.read()
			}
			continue
		}
		rawRunes = append(rawRunes, l.ch)
		decodedRunes = append(decodedRunes, l.ch)
		l.read()
	}

	return string(rawRunes), string(decodedRunes), interpolated, false
}
