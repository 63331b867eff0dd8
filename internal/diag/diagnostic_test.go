package diag_test

import (
	"strings"
	"testing"

	"github.com/manifedit/manifedit/internal/diag"
	"github.com/manifedit/manifedit/internal/lexer"
)

func TestFromLexerError(t *testing.T) {
	err := lexer.LexerError{
		Kind:    lexer.ErrUnterminatedString,
		Message: "unterminated string literal",
		Span: lexer.Span{
			Line:   1,
			Column: 3,
			Start:  2,
			End:    6,
		},
	}

	diagnostic := err.ToDiagnostic()

	if diagnostic.Stage != diag.StageLexer {
		t.Fatalf("expected stage %q, got %q", diag.StageLexer, diagnostic.Stage)
	}
	if diagnostic.Code != diag.CodeLexerUnterminatedString {
		t.Fatalf("expected code %q, got %q", diag.CodeLexerUnterminatedString, diagnostic.Code)
	}
	if diagnostic.Message != err.Message {
		t.Fatalf("expected message %q, got %q", err.Message, diagnostic.Message)
	}
	if diagnostic.Severity != diag.SeverityError {
		t.Fatalf("expected severity %q, got %q", diag.SeverityError, diagnostic.Severity)
	}
}

func TestFormatterRendersSpansAndHelp(t *testing.T) {
	src := "let first = Package(name: \"A\")\nlet second = Package(name: \"B\")\n"

	d := diag.Diagnostic{
		Stage:    diag.StageManifest,
		Severity: diag.SeverityError,
		Code:     diag.CodeManifestMultiplePackage,
		Message:  "manifest has 2 Package initializers, expected exactly one",
	}
	d = d.WithPrimarySpan(diag.Span{Filename: "Package.swift", Line: 2, Column: 14, Start: 44, End: 51}, "")
	d = d.WithSecondarySpan(diag.Span{Filename: "Package.swift", Line: 1, Column: 13, Start: 12, End: 19}, "first Package initializer here")
	d = d.WithHelp("keep a single top-level Package initializer")

	var buf strings.Builder
	f := diag.NewFormatterTo(&buf)
	f.AddSource("Package.swift", src)
	f.Format(d)

	out := buf.String()
	for _, want := range []string{
		"error[MANIFEST_MULTIPLE_PACKAGE]",
		"--> Package.swift",
		"^^^^^^^",
		"~~~~~~~",
		"first Package initializer here",
		"help: keep a single top-level Package initializer",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatterFallsBackWithoutSource(t *testing.T) {
	d := diag.Diagnostic{
		Severity: diag.SeverityError,
		Code:     diag.CodeEditPrecondition,
		Message:  "dependency already present",
	}
	d = d.WithNote("identity \"swift-log\" matches an existing entry")

	var buf strings.Builder
	diag.NewFormatterTo(&buf).Format(d)

	out := buf.String()
	if !strings.Contains(out, "error[EDIT_PRECONDITION_FAILED]: dependency already present") {
		t.Errorf("missing header in %q", out)
	}
	if !strings.Contains(out, "= note: identity \"swift-log\" matches an existing entry") {
		t.Errorf("missing note in %q", out)
	}
}
