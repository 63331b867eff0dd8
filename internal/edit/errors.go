// Package edit implements the structural-edit engine: locating semantic
// substructures inside a parsed manifest tree, synthesizing minimal
// well-formed insertions that match the formatting of their siblings, and
// verifying every candidate edit by reparsing and reloading it before it is
// accepted. Untouched regions of the file are byte-identical after an edit.
package edit

import (
	"fmt"

	"github.com/manifedit/manifedit/internal/diag"
	"github.com/manifedit/manifedit/internal/lexer"
)

// ErrorKind is the closed failure taxonomy of the edit engine.
type ErrorKind int

const (
	// NotFound: a required structural element is absent (root call, or a
	// labeled argument the operation does not create).
	NotFound ErrorKind = iota
	// Ambiguous: the structure exists but cannot be resolved to a single
	// node (multiple root calls, or an argument value that is neither an
	// array nor a decomposable concatenation).
	Ambiguous
	// EntityNotFound: a named target or product the operation expects to
	// exist is absent.
	EntityNotFound
	// Precondition: the manifest is semantically unfit for the request
	// (tools version too old, duplicate name, checksum/location mismatch).
	Precondition
	// Verification: the edited text failed to reparse or reload. The
	// session's prior state is untouched.
	Verification
	// Internal: the engine violated its own contract, e.g. an argument it
	// just inserted cannot be located again. Never caused by user input.
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Ambiguous:
		return "ambiguous"
	case EntityNotFound:
		return "entity not found"
	case Precondition:
		return "precondition failed"
	case Verification:
		return "verification failed"
	case Internal:
		return "internal invariant violated"
	}
	return "unknown"
}

// Error is the discriminated failure value every operation returns on the
// error path. Operations fail atomically: when an Error comes back, the
// session state is exactly what it was before the call.
type Error struct {
	Kind    ErrorKind
	Code    diag.Code
	Message string
	Span    lexer.Span
	Err     error // underlying parse/load failure for Verification errors
}

func (e *Error) Error() string {
	if e.Span.IsValid() {
		return fmt.Sprintf("%s: %s", e.Span, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ToDiagnostic converts the error into the shared diagnostic structure.
func (e *Error) ToDiagnostic() diag.Diagnostic {
	d := diag.Diagnostic{
		Stage:    diag.StageEdit,
		Severity: diag.SeverityError,
		Code:     e.Code,
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
	}
	if e.Err != nil {
		d = d.WithNote(e.Err.Error())
	}
	return d
}

func errorf(kind ErrorKind, code diag.Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func errorAt(kind ErrorKind, code diag.Code, span lexer.Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}
