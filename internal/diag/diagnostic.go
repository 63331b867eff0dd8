package diag

import "fmt"

// Stage identifies which phase of the editing pipeline produced the diagnostic.
type Stage string

const (
	StageLexer    Stage = "lexer"
	StageParser   Stage = "parser"
	StageManifest Stage = "manifest"
	StageEdit     Stage = "edit"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// LabeledSpan represents a span with an optional label.
type LabeledSpan struct {
	Span  Span
	Label string // Optional label (e.g., "second Package call here")
	Style string // "primary" or "secondary" - primary spans are emphasized
}

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// Lexer errors
	CodeLexerUnterminatedString        Code = "LEXER_UNTERMINATED_STRING"
	CodeLexerUnterminatedBlockComment  Code = "LEXER_UNTERMINATED_BLOCK_COMMENT"
	CodeLexerUnterminatedInterpolation Code = "LEXER_UNTERMINATED_INTERPOLATION"
	CodeLexerIllegalRune               Code = "LEXER_ILLEGAL_RUNE"

	// Parser errors
	CodeParseUnexpectedToken Code = "PARSE_UNEXPECTED_TOKEN"

	// Manifest loader errors
	CodeManifestNoToolsVersion  Code = "MANIFEST_NO_TOOLS_VERSION"
	CodeManifestNoPackage       Code = "MANIFEST_NO_PACKAGE"
	CodeManifestMultiplePackage Code = "MANIFEST_MULTIPLE_PACKAGE"
	CodeManifestMissingName     Code = "MANIFEST_MISSING_NAME"
	CodeManifestBadDependency   Code = "MANIFEST_BAD_DEPENDENCY"
	CodeManifestBadTarget       Code = "MANIFEST_BAD_TARGET"
	CodeManifestBadProduct      Code = "MANIFEST_BAD_PRODUCT"
	CodeManifestDuplicateName   Code = "MANIFEST_DUPLICATE_NAME"

	// Edit-engine errors
	CodeEditToolsVersionTooOld   Code = "EDIT_TOOLS_VERSION_TOO_OLD"
	CodeEditRootCallMissing      Code = "EDIT_ROOT_CALL_MISSING"
	CodeEditRootCallAmbiguous    Code = "EDIT_ROOT_CALL_AMBIGUOUS"
	CodeEditArgumentIncompatible Code = "EDIT_ARGUMENT_INCOMPATIBLE"
	CodeEditEntityNotFound       Code = "EDIT_ENTITY_NOT_FOUND"
	CodeEditPrecondition         Code = "EDIT_PRECONDITION_FAILED"
	CodeEditVerification         Code = "EDIT_VERIFICATION_FAILED"
	CodeEditInternalInvariant    Code = "EDIT_INTERNAL_INVARIANT"
)

// Span represents a location in source text.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid returns true if the span has valid location information.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// Diagnostic is a pipeline diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Span     Span // Primary span
	// LabeledSpans allows multiple spans with labels.
	// The first span is treated as primary, others as secondary.
	LabeledSpans []LabeledSpan
	Notes        []string // Additional notes to display
	Help         string   // Help text, may include example source
}

// WithLabeledSpan adds a labeled span to the diagnostic.
func (d Diagnostic) WithLabeledSpan(span Span, label string, style string) Diagnostic {
	if style == "" {
		style = "primary"
	}
	d.LabeledSpans = append(d.LabeledSpans, LabeledSpan{
		Span:  span,
		Label: label,
		Style: style,
	})
	return d
}

// WithPrimarySpan adds a primary labeled span.
func (d Diagnostic) WithPrimarySpan(span Span, label string) Diagnostic {
	return d.WithLabeledSpan(span, label, "primary")
}

// WithSecondarySpan adds a secondary labeled span.
func (d Diagnostic) WithSecondarySpan(span Span, label string) Diagnostic {
	return d.WithLabeledSpan(span, label, "secondary")
}

// WithNote adds a note to the diagnostic.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp adds help text to the diagnostic.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}
