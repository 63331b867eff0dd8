package edit

import (
	"github.com/manifedit/manifedit/internal/diag"
	"github.com/manifedit/manifedit/internal/lexer"
	"github.com/manifedit/manifedit/internal/manifest"
	"github.com/manifedit/manifedit/internal/parser"
	"github.com/manifedit/manifedit/internal/syntax"
)

// Argument order of the Package initializer; a synthesized array argument
// is inserted before the first present label from the matching list.
var (
	dependenciesComeBefore = []string{"targets", "swiftLanguageVersions", "cLanguageStandard", "cxxLanguageStandard"}
	targetsComeBefore      = []string{"swiftLanguageVersions", "cLanguageStandard", "cxxLanguageStandard"}
	productsComeBefore     = []string{"dependencies", "targets", "swiftLanguageVersions", "cLanguageStandard", "cxxLanguageStandard"}

	// Inside a .target(...) call the dependencies array comes right after
	// name:, so it precedes everything else the call may carry.
	targetDepsComeBefore = []string{
		"path", "exclude", "sources", "resources", "publicHeadersPath",
		"cSettings", "cxxSettings", "swiftSettings", "linkerSettings", "plugins",
	}
)

// Session owns exactly one manifest at a time. Each operation either
// commits a verified new state or fails atomically, leaving text, tree and
// semantic view exactly as they were. Sessions are not safe for concurrent
// use; operations are applied sequentially.
type Session struct {
	filename string
	tools    manifest.ToolsVersion
	text     string
	file     *syntax.SourceFile
	manifest *manifest.Manifest
}

// NewSession parses and loads manifest text. The filename is used only for
// diagnostic spans.
func NewSession(text, filename string) (*Session, error) {
	tools, ok := manifest.ParseToolsVersion(text)
	if !ok {
		return nil, errorAt(Precondition, diag.CodeManifestNoToolsVersion,
			lexer.Span{Filename: filename, Line: 1, Column: 1},
			"manifest does not declare a tools version on its first line")
	}
	file, errs := parser.Parse(text, parser.WithFilename(filename))
	if len(errs) > 0 {
		first := errs[0]
		return nil, errorAt(Precondition, diag.CodeParseUnexpectedToken, first.Span,
			"manifest does not parse: %s", first.Message)
	}
	m, err := manifest.LoadTree(file, tools, filename)
	if err != nil {
		le := err.(*manifest.LoadError)
		return nil, &Error{Kind: Precondition, Code: le.Code, Message: le.Message, Span: le.Span}
	}
	return &Session{
		filename: filename,
		tools:    tools,
		text:     text,
		file:     file,
		manifest: m,
	}, nil
}

// Text returns the session's current committed text.
func (s *Session) Text() string { return s.text }

// Manifest returns the semantic view of the current committed text.
func (s *Session) Manifest() *manifest.Manifest { return s.manifest }

// gate refuses to edit manifests whose declared tools version predates the
// manifest API shapes the synthesizers produce.
func (s *Session) gate() *Error {
	if s.tools.AtLeast(manifest.MinimumEditableVersion) {
		return nil
	}
	return errorf(Precondition, diag.CodeEditToolsVersionTooOld,
		"manifest declares tools version %s, editing requires at least %s",
		s.tools, manifest.MinimumEditableVersion)
}

// AddPackageDependency appends a dependency on the given location. For a
// LocalPath requirement the location is a file-system path; for every
// other variant it is a repository URL.
func (s *Session) AddPackageDependency(location string, req manifest.Requirement) error {
	if e := s.gate(); e != nil {
		return e
	}
	identity := manifest.PackageIdentity(location)
	if s.manifest.Dependency(identity) != nil {
		return errorf(Precondition, diag.CodeEditPrecondition,
			"dependency %q is already declared", identity)
	}
	entry, e := dependencyEntry(location, req)
	if e != nil {
		return e
	}
	file, e := s.appendToPackageArray(s.file, "dependencies", dependenciesComeBefore, entry)
	if e != nil {
		return e
	}
	return s.verifyAndCommit(file, func(m *manifest.Manifest) *Error {
		if m.Dependency(identity) == nil {
			return errorf(Internal, diag.CodeEditInternalInvariant,
				"inserted dependency %q is absent after reload", identity)
		}
		return nil
	})
}

// AddTarget appends a regular target declaration.
func (s *Session) AddTarget(desc TargetDescriptor) error {
	if e := s.gate(); e != nil {
		return e
	}
	if s.manifest.Target(desc.Name) != nil {
		return errorf(Precondition, diag.CodeEditPrecondition,
			"target %q is already declared", desc.Name)
	}
	entry, e := targetEntry(desc)
	if e != nil {
		return e
	}
	file, e := s.appendToPackageArray(s.file, "targets", targetsComeBefore, entry)
	if e != nil {
		return e
	}
	return s.verifyAndCommit(file, s.checkTargetPresent(desc.Name))
}

// AddBinaryTarget appends a binary target declaration. A remote location
// requires a checksum; a local path must not carry one.
func (s *Session) AddBinaryTarget(name, location, checksum string) error {
	if e := s.gate(); e != nil {
		return e
	}
	if s.manifest.Target(name) != nil {
		return errorf(Precondition, diag.CodeEditPrecondition,
			"target %q is already declared", name)
	}
	entry, e := binaryTargetEntry(name, location, checksum)
	if e != nil {
		return e
	}
	file, e := s.appendToPackageArray(s.file, "targets", targetsComeBefore, entry)
	if e != nil {
		return e
	}
	return s.verifyAndCommit(file, s.checkTargetPresent(name))
}

// AddTargetDependency appends a dependency name to an existing target's
// dependencies array.
func (s *Session) AddTargetDependency(targetName, dependencyName string) error {
	if e := s.gate(); e != nil {
		return e
	}
	tgt := s.manifest.Target(targetName)
	if tgt == nil {
		return errorf(EntityNotFound, diag.CodeEditEntityNotFound,
			"manifest declares no target named %q", targetName)
	}
	for _, dep := range tgt.Dependencies {
		if dep == dependencyName {
			return errorf(Precondition, diag.CodeEditPrecondition,
				"target %q already depends on %q", targetName, dependencyName)
		}
	}
	file, e := s.appendToNamedElementArray(
		"targets", targetName, "dependencies", targetDepsComeBefore,
		syntax.NewStringLit(dependencyName))
	if e != nil {
		return e
	}
	return s.verifyAndCommit(file, func(m *manifest.Manifest) *Error {
		t := m.Target(targetName)
		if t == nil {
			return errorf(Internal, diag.CodeEditInternalInvariant,
				"target %q is absent after reload", targetName)
		}
		for _, dep := range t.Dependencies {
			if dep == dependencyName {
				return nil
			}
		}
		return errorf(Internal, diag.CodeEditInternalInvariant,
			"inserted dependency %q is absent from target %q after reload", dependencyName, targetName)
	})
}

// AddProduct appends a product declaration.
func (s *Session) AddProduct(desc ProductDescriptor) error {
	if e := s.gate(); e != nil {
		return e
	}
	if s.manifest.Product(desc.Name) != nil {
		return errorf(Precondition, diag.CodeEditPrecondition,
			"product %q is already declared", desc.Name)
	}
	entry, e := productEntry(desc)
	if e != nil {
		return e
	}
	file, e := s.appendToPackageArray(s.file, "products", productsComeBefore, entry)
	if e != nil {
		return e
	}
	return s.verifyAndCommit(file, func(m *manifest.Manifest) *Error {
		if m.Product(desc.Name) == nil {
			return errorf(Internal, diag.CodeEditInternalInvariant,
				"inserted product %q is absent after reload", desc.Name)
		}
		return nil
	})
}

// AddProductTarget appends a target name to an existing product's targets
// array. The target must already be declared.
func (s *Session) AddProductTarget(productName, targetName string) error {
	if e := s.gate(); e != nil {
		return e
	}
	prod := s.manifest.Product(productName)
	if prod == nil {
		return errorf(EntityNotFound, diag.CodeEditEntityNotFound,
			"manifest declares no product named %q", productName)
	}
	if s.manifest.Target(targetName) == nil {
		return errorf(EntityNotFound, diag.CodeEditEntityNotFound,
			"manifest declares no target named %q", targetName)
	}
	for _, t := range prod.Targets {
		if t == targetName {
			return errorf(Precondition, diag.CodeEditPrecondition,
				"product %q already contains target %q", productName, targetName)
		}
	}
	file, e := s.appendToNamedElementArray(
		"products", productName, "targets", nil,
		syntax.NewStringLit(targetName))
	if e != nil {
		return e
	}
	return s.verifyAndCommit(file, func(m *manifest.Manifest) *Error {
		p := m.Product(productName)
		if p == nil {
			return errorf(Internal, diag.CodeEditInternalInvariant,
				"product %q is absent after reload", productName)
		}
		for _, t := range p.Targets {
			if t == targetName {
				return nil
			}
		}
		return errorf(Internal, diag.CodeEditInternalInvariant,
			"inserted target %q is absent from product %q after reload", targetName, productName)
	})
}

func (s *Session) checkTargetPresent(name string) func(*manifest.Manifest) *Error {
	return func(m *manifest.Manifest) *Error {
		if m.Target(name) == nil {
			return errorf(Internal, diag.CodeEditInternalInvariant,
				"inserted target %q is absent after reload", name)
		}
		return nil
	}
}

// appendToPackageArray appends value to the labeled array argument of the
// root Package call, creating the argument if the manifest lacks it.
func (s *Session) appendToPackageArray(file *syntax.SourceFile, label string, comesBefore []string, value syntax.Expr) (*syntax.SourceFile, *Error) {
	root, e := findRootCall(file)
	if e != nil {
		return nil, e
	}
	arr, e := findArrayArgument(root, label)
	if e != nil {
		return nil, e
	}
	if arr == nil {
		file, e = s.replaceInFile(file, root, insertArrayArgument(root, label, comesBefore))
		if e != nil {
			return nil, e
		}
		// Handles never survive a rewrite; locate again in the new tree.
		if root, e = findRootCall(file); e != nil {
			return nil, internalRelocate(label, e)
		}
		if arr, e = findArrayArgument(root, label); e != nil || arr == nil {
			return nil, internalRelocate(label, e)
		}
	}
	newArr := appendElement(arr, value, argLeading(root.Argument(label)))
	return s.replaceInFile(file, arr, newArr)
}

// appendToNamedElementArray appends value to a labeled array argument of a
// named entry (a target or product) inside one of the root call's arrays,
// creating the inner argument if the entry lacks it.
func (s *Session) appendToNamedElementArray(outerLabel, name, innerLabel string, comesBefore []string, value syntax.Expr) (*syntax.SourceFile, *Error) {
	file := s.file
	call, e := s.locateNamedElement(file, outerLabel, name)
	if e != nil {
		return nil, e
	}
	arr, e := findArrayArgument(call, innerLabel)
	if e != nil {
		return nil, e
	}
	if arr == nil {
		file, e = s.replaceInFile(file, call, insertArrayArgument(call, innerLabel, comesBefore))
		if e != nil {
			return nil, e
		}
		if call, e = s.locateNamedElement(file, outerLabel, name); e != nil {
			return nil, internalRelocate(innerLabel, e)
		}
		if arr, e = findArrayArgument(call, innerLabel); e != nil || arr == nil {
			return nil, internalRelocate(innerLabel, e)
		}
	}
	newArr := appendElement(arr, value, argLeading(call.Argument(innerLabel)))
	return s.replaceInFile(file, arr, newArr)
}

func (s *Session) locateNamedElement(file *syntax.SourceFile, outerLabel, name string) (*syntax.CallExpr, *Error) {
	root, e := findRootCall(file)
	if e != nil {
		return nil, e
	}
	arr, e := findArrayArgument(root, outerLabel)
	if e != nil {
		return nil, e
	}
	if arr == nil {
		return nil, errorf(EntityNotFound, diag.CodeEditEntityNotFound,
			"manifest has no %s array to search for %q", outerLabel, name)
	}
	call, ok := findNamedElement(arr, name)
	if !ok {
		return nil, errorf(EntityNotFound, diag.CodeEditEntityNotFound,
			"no entry named %q in the %s array", name, outerLabel)
	}
	return call, nil
}

func internalRelocate(label string, cause *Error) *Error {
	e := errorf(Internal, diag.CodeEditInternalInvariant,
		"freshly inserted %s: argument cannot be located again", label)
	if cause != nil {
		e.Err = cause
	}
	return e
}

func (s *Session) replaceInFile(file *syntax.SourceFile, old, nu syntax.Node) (*syntax.SourceFile, *Error) {
	root, ok := syntax.Replace(file, old, nu)
	if !ok {
		return nil, errorf(Internal, diag.CodeEditInternalInvariant,
			"edit target vanished from the tree during rewrite")
	}
	sf, ok := root.(*syntax.SourceFile)
	if !ok {
		return nil, errorf(Internal, diag.CodeEditInternalInvariant,
			"rewrite did not produce a source file")
	}
	return sf, nil
}

// verifyAndCommit prints the candidate tree, reparses the text from
// scratch, reloads it semantically and runs the operation's own post
// condition. Only when all of that succeeds does the session adopt the new
// state; any failure leaves the session untouched.
func (s *Session) verifyAndCommit(file *syntax.SourceFile, check func(*manifest.Manifest) *Error) error {
	text := syntax.Print(file)
	fresh, errs := parser.Parse(text, parser.WithFilename(s.filename))
	if len(errs) > 0 {
		first := errs[0]
		return &Error{
			Kind:    Verification,
			Code:    diag.CodeEditVerification,
			Message: "edited manifest no longer parses, edit rejected",
			Span:    first.Span,
			Err:     first,
		}
	}
	m, err := manifest.LoadTree(fresh, s.tools, s.filename)
	if err != nil {
		return &Error{
			Kind:    Verification,
			Code:    diag.CodeEditVerification,
			Message: "edited manifest no longer loads, edit rejected",
			Err:     err,
		}
	}
	if check != nil {
		if e := check(m); e != nil {
			return e
		}
	}
	s.text = text
	s.file = fresh
	s.manifest = m
	return nil
}
