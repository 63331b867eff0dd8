package edit

import (
	"errors"
	"testing"

	"github.com/manifedit/manifedit/internal/diag"
	"github.com/manifedit/manifedit/internal/manifest"
	"github.com/manifedit/manifedit/internal/parser"
)

const verifyFixture = `// swift-tools-version:5.9
import PackageDescription

let package = Package(
    name: "Verify",
    targets: []
)
`

// A candidate tree that prints to text the semantic loader rejects must be
// dropped without touching the session's committed state.
func TestVerifyRejectsSemanticallyBrokenTree(t *testing.T) {
	s, err := NewSession(verifyFixture, "Package.swift")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	broken, errs := parser.Parse("let x = 1\n")
	if len(errs) != 0 {
		t.Fatalf("fixture tree does not parse: %v", errs[0])
	}

	err = s.verifyAndCommit(broken, nil)
	var ee *Error
	if !errors.As(err, &ee) {
		t.Fatalf("verifyAndCommit returned %T, expected *Error", err)
	}
	if ee.Kind != Verification {
		t.Errorf("kind = %s, want %s", ee.Kind, Verification)
	}
	if ee.Code != diag.CodeEditVerification {
		t.Errorf("code = %s, want %s", ee.Code, diag.CodeEditVerification)
	}
	if ee.Unwrap() == nil {
		t.Errorf("verification error does not wrap the underlying failure")
	}

	if got := s.Text(); got != verifyFixture {
		t.Errorf("session text changed after rejected edit:\n%s", got)
	}
	if s.Manifest().Name != "Verify" {
		t.Errorf("session manifest changed after rejected edit")
	}
}

// An operation post-condition failure surfaces as an internal invariant
// violation, not a user-facing diagnostic.
func TestCommitCheckFailureIsInternal(t *testing.T) {
	s, err := NewSession(verifyFixture, "Package.swift")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	err = s.verifyAndCommit(s.file, func(m *manifest.Manifest) *Error {
		return errorf(Internal, diag.CodeEditInternalInvariant, "forced")
	})
	var ee *Error
	if !errors.As(err, &ee) || ee.Kind != Internal {
		t.Fatalf("expected an Internal error, got %v", err)
	}
}
