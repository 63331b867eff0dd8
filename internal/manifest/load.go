package manifest

import (
	"errors"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/manifedit/manifedit/internal/diag"
	"github.com/manifedit/manifedit/internal/lexer"
	"github.com/manifedit/manifedit/internal/parser"
	"github.com/manifedit/manifedit/internal/syntax"
)

// LoadError reports why manifest text could not be given semantic meaning.
type LoadError struct {
	Code    diag.Code
	Message string
	Span    lexer.Span
	Related []RelatedSpan
	Help    string
}

// RelatedSpan points at a secondary location that explains the error.
type RelatedSpan struct {
	Span  lexer.Span
	Label string
}

func (e *LoadError) Error() string {
	if e.Span.IsValid() {
		return fmt.Sprintf("%s: %s", e.Span, e.Message)
	}
	return e.Message
}

// ToDiagnostic converts the error into the shared diagnostic structure.
func (e *LoadError) ToDiagnostic() diag.Diagnostic {
	d := diag.Diagnostic{
		Stage:    diag.StageManifest,
		Severity: diag.SeverityError,
		Code:     e.Code,
		Message:  e.Message,
		Span:     diagSpan(e.Span),
	}
	if len(e.Related) > 0 {
		d = d.WithPrimarySpan(diagSpan(e.Span), "")
		for _, rel := range e.Related {
			d = d.WithSecondarySpan(diagSpan(rel.Span), rel.Label)
		}
	}
	if e.Help != "" {
		d = d.WithHelp(e.Help)
	}
	return d
}

func diagSpan(s lexer.Span) diag.Span {
	return diag.Span{
		Filename: s.Filename,
		Line:     s.Line,
		Column:   s.Column,
		Start:    s.Start,
		End:      s.End,
	}
}

// Load parses manifest text and extracts its semantic view. The filename is
// used only for diagnostic spans.
func Load(text, filename string) (*Manifest, error) {
	tools, ok := ParseToolsVersion(text)
	if !ok {
		return nil, &LoadError{
			Code:    diag.CodeManifestNoToolsVersion,
			Message: "manifest does not declare a tools version on its first line",
			Span:    lexer.Span{Filename: filename, Line: 1, Column: 1},
			Help:    "the first line must be a comment of the form `// swift-tools-version:5.9`",
		}
	}
	file, errs := parser.Parse(text, parser.WithFilename(filename))
	if len(errs) > 0 {
		first := errs[0]
		return nil, &LoadError{
			Code:    diag.CodeParseUnexpectedToken,
			Message: first.Message,
			Span:    first.Span,
		}
	}
	return LoadTree(file, tools, filename)
}

// LoadTree extracts the semantic view from an already parsed tree.
func LoadTree(file *syntax.SourceFile, tools ToolsVersion, filename string) (*Manifest, error) {
	ld := &loader{filename: filename}
	root, err := ld.findPackageCall(file)
	if err != nil {
		return nil, err
	}
	m := &Manifest{ToolsVersion: tools}
	if err := ld.decodePackage(root, m); err != nil {
		return nil, err
	}
	if err := ld.checkDuplicates(m); err != nil {
		return nil, err
	}
	return m, nil
}

type loader struct {
	filename string
}

// errSkipEntry marks an array entry whose identifying string is
// interpolated. Such entries have no static identity; they are invisible
// to the semantic view rather than load errors.
var errSkipEntry = errors.New("entry has no static identity")

func interpolated(e syntax.Expr) bool {
	lit, ok := e.(*syntax.StringLit)
	return ok && lit.Interpolated
}

func (ld *loader) errorf(code diag.Code, span lexer.Span, format string, args ...any) *LoadError {
	span.Filename = ld.filename
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

// findPackageCall locates the unique Package(...) call. Calls nested inside
// a Package call do not count as additional roots.
func (ld *loader) findPackageCall(file *syntax.SourceFile) (*syntax.CallExpr, error) {
	var found []*syntax.CallExpr
	syntax.Walk(file, func(n syntax.Node) bool {
		call, ok := n.(*syntax.CallExpr)
		if !ok {
			return true
		}
		if id, ok := call.Callee.(*syntax.Ident); ok && id.Name() == "Package" {
			found = append(found, call)
			return false
		}
		return true
	})
	switch len(found) {
	case 0:
		return nil, ld.errorf(diag.CodeManifestNoPackage, file.Span(), "manifest has no Package initializer")
	case 1:
		return found[0], nil
	default:
		err := ld.errorf(diag.CodeManifestMultiplePackage, found[1].Span(),
			"manifest has %d Package initializers, expected exactly one", len(found))
		first := found[0].Span()
		first.Filename = ld.filename
		err.Related = append(err.Related, RelatedSpan{Span: first, Label: "first Package initializer here"})
		return nil, err
	}
}

func (ld *loader) decodePackage(call *syntax.CallExpr, m *Manifest) error {
	nameArg := call.Argument("name")
	if nameArg == nil {
		return ld.errorf(diag.CodeManifestMissingName, call.Span(), "Package initializer has no name: argument")
	}
	name, ok := stringValue(nameArg.Value)
	if !ok {
		return ld.errorf(diag.CodeManifestMissingName, nameArg.Span(), "package name must be a plain string literal")
	}
	m.Name = name

	if arg := call.Argument("dependencies"); arg != nil {
		for _, elem := range arrayElements(arg.Value) {
			dep, err := ld.decodeDependency(elem)
			if err == errSkipEntry {
				continue
			}
			if err != nil {
				return err
			}
			m.Dependencies = append(m.Dependencies, dep)
		}
	}
	if arg := call.Argument("targets"); arg != nil {
		for _, elem := range arrayElements(arg.Value) {
			tgt, err := ld.decodeTarget(elem)
			if err == errSkipEntry {
				continue
			}
			if err != nil {
				return err
			}
			m.Targets = append(m.Targets, tgt)
		}
	}
	if arg := call.Argument("products"); arg != nil {
		for _, elem := range arrayElements(arg.Value) {
			prod, err := ld.decodeProduct(elem)
			if err == errSkipEntry {
				continue
			}
			if err != nil {
				return err
			}
			m.Products = append(m.Products, prod)
		}
	}
	return nil
}

func (ld *loader) decodeDependency(e syntax.Expr) (Dependency, error) {
	call, callee := memberCall(e)
	if call == nil || callee != "package" {
		return Dependency{}, ld.errorf(diag.CodeManifestBadDependency, e.Span(),
			"dependency entry is not a .package(...) call")
	}
	var dep Dependency
	haveRequirement := false
	for _, arg := range call.Args {
		switch {
		case arg.HasLabel("url"):
			if interpolated(arg.Value) {
				return Dependency{}, errSkipEntry
			}
			url, ok := stringValue(arg.Value)
			if !ok {
				return Dependency{}, ld.errorf(diag.CodeManifestBadDependency, arg.Span(),
					"dependency url must be a plain string literal")
			}
			dep.URL = url
		case arg.HasLabel("path"):
			if interpolated(arg.Value) {
				return Dependency{}, errSkipEntry
			}
			path, ok := stringValue(arg.Value)
			if !ok {
				return Dependency{}, ld.errorf(diag.CodeManifestBadDependency, arg.Span(),
					"dependency path must be a plain string literal")
			}
			dep.Path = path
			dep.Requirement = LocalPathRequirement()
			haveRequirement = true
		case arg.HasLabel("from"):
			v, err := ld.versionValue(arg.Value)
			if err != nil {
				return Dependency{}, err
			}
			dep.Requirement = UpToNextMajorRequirement(v)
			haveRequirement = true
		case arg.HasLabel("exact"):
			v, err := ld.versionValue(arg.Value)
			if err != nil {
				return Dependency{}, err
			}
			dep.Requirement = ExactRequirement(v)
			haveRequirement = true
		case arg.HasLabel("branch"):
			name, ok := stringValue(arg.Value)
			if !ok {
				return Dependency{}, ld.errorf(diag.CodeManifestBadDependency, arg.Span(),
					"branch name must be a plain string literal")
			}
			dep.Requirement = BranchRequirement(name)
			haveRequirement = true
		case arg.HasLabel("revision"):
			id, ok := stringValue(arg.Value)
			if !ok {
				return Dependency{}, ld.errorf(diag.CodeManifestBadDependency, arg.Span(),
					"revision must be a plain string literal")
			}
			dep.Requirement = RevisionRequirement(id)
			haveRequirement = true
		case arg.HasLabel("name"):
			// legacy explicit name, accepted and ignored
		case arg.Label == nil:
			req, err := ld.decodeRequirementExpr(arg.Value)
			if err != nil {
				return Dependency{}, err
			}
			dep.Requirement = req
			haveRequirement = true
		default:
			return Dependency{}, ld.errorf(diag.CodeManifestBadDependency, arg.Span(),
				"unexpected %s: argument in .package(...)", arg.Label.Text)
		}
	}
	switch {
	case dep.URL != "" && dep.Path != "":
		return Dependency{}, ld.errorf(diag.CodeManifestBadDependency, call.Span(),
			".package(...) has both url: and path:")
	case dep.URL == "" && dep.Path == "":
		return Dependency{}, ld.errorf(diag.CodeManifestBadDependency, call.Span(),
			".package(...) has neither url: nor path:")
	case dep.URL != "" && !haveRequirement:
		return Dependency{}, ld.errorf(diag.CodeManifestBadDependency, call.Span(),
			".package(url:) has no version requirement")
	}
	if dep.URL != "" {
		dep.Identity = PackageIdentity(dep.URL)
	} else {
		dep.Identity = PackageIdentity(dep.Path)
	}
	return dep, nil
}

// decodeRequirementExpr handles the positional requirement forms: range
// expressions and the .exact/.revision/.branch/.upToNextMajor/.upToNextMinor
// helper calls.
func (ld *loader) decodeRequirementExpr(e syntax.Expr) (Requirement, error) {
	if infix, ok := e.(*syntax.InfixExpr); ok {
		lo, okLo := stringValue(infix.Left)
		hi, okHi := stringValue(infix.Right)
		if !okLo || !okHi {
			return Requirement{}, ld.errorf(diag.CodeManifestBadDependency, e.Span(),
				"range requirement bounds must be plain string literals")
		}
		switch infix.OpTok.Type {
		case lexer.HALFOPEN:
			return RangeRequirement(lo, hi), nil
		case lexer.CLOSED_RANGE:
			return ClosedRangeRequirement(lo, hi), nil
		}
		return Requirement{}, ld.errorf(diag.CodeManifestBadDependency, e.Span(),
			"operator %q is not a version range", infix.OpTok.Text)
	}
	call, callee := memberCall(e)
	if call == nil {
		return Requirement{}, ld.errorf(diag.CodeManifestBadDependency, e.Span(),
			"unrecognized version requirement")
	}
	firstValue := func() (string, error) {
		if len(call.Args) != 1 {
			return "", ld.errorf(diag.CodeManifestBadDependency, call.Span(),
				".%s(...) takes exactly one argument", callee)
		}
		v, ok := stringValue(call.Args[0].Value)
		if !ok {
			return "", ld.errorf(diag.CodeManifestBadDependency, call.Args[0].Span(),
				".%s(...) argument must be a plain string literal", callee)
		}
		return v, nil
	}
	switch callee {
	case "exact":
		v, err := firstValue()
		if err != nil {
			return Requirement{}, err
		}
		if err := ld.checkVersion(v, call.Span()); err != nil {
			return Requirement{}, err
		}
		return ExactRequirement(v), nil
	case "revision":
		v, err := firstValue()
		if err != nil {
			return Requirement{}, err
		}
		return RevisionRequirement(v), nil
	case "branch":
		v, err := firstValue()
		if err != nil {
			return Requirement{}, err
		}
		return BranchRequirement(v), nil
	case "upToNextMajor":
		v, err := firstValue()
		if err != nil {
			return Requirement{}, err
		}
		if err := ld.checkVersion(v, call.Span()); err != nil {
			return Requirement{}, err
		}
		return UpToNextMajorRequirement(v), nil
	case "upToNextMinor":
		v, err := firstValue()
		if err != nil {
			return Requirement{}, err
		}
		if err := ld.checkVersion(v, call.Span()); err != nil {
			return Requirement{}, err
		}
		return UpToNextMinorRequirement(v), nil
	}
	return Requirement{}, ld.errorf(diag.CodeManifestBadDependency, e.Span(),
		".%s is not a version requirement", callee)
}

func (ld *loader) versionValue(e syntax.Expr) (string, error) {
	v, ok := stringValue(e)
	if !ok {
		return "", ld.errorf(diag.CodeManifestBadDependency, e.Span(),
			"version must be a plain string literal")
	}
	if err := ld.checkVersion(v, e.Span()); err != nil {
		return "", err
	}
	return v, nil
}

func (ld *loader) checkVersion(v string, span lexer.Span) error {
	if !semver.IsValid("v" + v) {
		return ld.errorf(diag.CodeManifestBadDependency, span, "%q is not a semantic version", v)
	}
	return nil
}

var targetKinds = map[string]TargetKind{
	"target":           TargetLibrary,
	"executableTarget": TargetExecutable,
	"testTarget":       TargetTest,
	"binaryTarget":     TargetBinary,
}

func (ld *loader) decodeTarget(e syntax.Expr) (Target, error) {
	call, callee := memberCall(e)
	if call == nil {
		return Target{}, ld.errorf(diag.CodeManifestBadTarget, e.Span(),
			"target entry is not a .target-style call")
	}
	kind, ok := targetKinds[callee]
	if !ok {
		return Target{}, ld.errorf(diag.CodeManifestBadTarget, e.Span(),
			".%s is not a target declaration", callee)
	}
	tgt := Target{Kind: kind}
	nameArg := call.Argument("name")
	if nameArg == nil {
		return Target{}, ld.errorf(diag.CodeManifestBadTarget, call.Span(),
			".%s(...) has no name: argument", callee)
	}
	if interpolated(nameArg.Value) {
		return Target{}, errSkipEntry
	}
	name, ok := stringValue(nameArg.Value)
	if !ok {
		return Target{}, ld.errorf(diag.CodeManifestBadTarget, nameArg.Span(),
			"target name must be a plain string literal")
	}
	tgt.Name = name
	if arg := call.Argument("dependencies"); arg != nil {
		for _, elem := range arrayElements(arg.Value) {
			dep, ok := targetDependencyName(elem)
			if !ok {
				return Target{}, ld.errorf(diag.CodeManifestBadTarget, elem.Span(),
					"unrecognized target dependency form")
			}
			tgt.Dependencies = append(tgt.Dependencies, dep)
		}
	}
	if arg := call.Argument("url"); arg != nil {
		tgt.URL, _ = stringValue(arg.Value)
	}
	if arg := call.Argument("path"); arg != nil {
		tgt.Path, _ = stringValue(arg.Value)
	}
	if arg := call.Argument("checksum"); arg != nil {
		tgt.Checksum, _ = stringValue(arg.Value)
	}
	if kind == TargetBinary {
		switch {
		case tgt.URL != "" && tgt.Path != "":
			return Target{}, ld.errorf(diag.CodeManifestBadTarget, call.Span(),
				".binaryTarget(...) has both url: and path:")
		case tgt.URL == "" && tgt.Path == "":
			return Target{}, ld.errorf(diag.CodeManifestBadTarget, call.Span(),
				".binaryTarget(...) has neither url: nor path:")
		case tgt.URL != "" && tgt.Checksum == "":
			return Target{}, ld.errorf(diag.CodeManifestBadTarget, call.Span(),
				"remote .binaryTarget(...) has no checksum:")
		case tgt.Path != "" && tgt.Checksum != "":
			return Target{}, ld.errorf(diag.CodeManifestBadTarget, call.Span(),
				"local .binaryTarget(...) must not carry a checksum:")
		}
	}
	return tgt, nil
}

// targetDependencyName extracts the referenced name from any of the accepted
// target dependency forms: "Name", .target(name:), .product(name:package:)
// and .byName(name:).
func targetDependencyName(e syntax.Expr) (string, bool) {
	if s, ok := stringValue(e); ok {
		return s, true
	}
	call, callee := memberCall(e)
	if call == nil {
		return "", false
	}
	switch callee {
	case "target", "product", "byName":
		if arg := call.Argument("name"); arg != nil {
			return stringValue(arg.Value)
		}
	}
	return "", false
}

func (ld *loader) decodeProduct(e syntax.Expr) (Product, error) {
	call, callee := memberCall(e)
	if call == nil {
		return Product{}, ld.errorf(diag.CodeManifestBadProduct, e.Span(),
			"product entry is not a .library/.executable call")
	}
	var prod Product
	switch callee {
	case "library":
		prod.Kind = ProductLibrary
	case "executable":
		prod.Kind = ProductExecutable
	default:
		return Product{}, ld.errorf(diag.CodeManifestBadProduct, e.Span(),
			".%s is not a product declaration", callee)
	}
	nameArg := call.Argument("name")
	if nameArg == nil {
		return Product{}, ld.errorf(diag.CodeManifestBadProduct, call.Span(),
			".%s(...) has no name: argument", callee)
	}
	if interpolated(nameArg.Value) {
		return Product{}, errSkipEntry
	}
	name, ok := stringValue(nameArg.Value)
	if !ok {
		return Product{}, ld.errorf(diag.CodeManifestBadProduct, nameArg.Span(),
			"product name must be a plain string literal")
	}
	prod.Name = name
	if arg := call.Argument("type"); arg != nil {
		ref, ok := arg.Value.(*syntax.MemberRef)
		if !ok {
			return Product{}, ld.errorf(diag.CodeManifestBadProduct, arg.Span(),
				"product type must be .static or .dynamic")
		}
		switch ref.Name.Text {
		case "static":
			prod.Linkage = LinkageStatic
		case "dynamic":
			prod.Linkage = LinkageDynamic
		default:
			return Product{}, ld.errorf(diag.CodeManifestBadProduct, arg.Span(),
				"product type must be .static or .dynamic, got .%s", ref.Name.Text)
		}
	}
	if arg := call.Argument("targets"); arg != nil {
		for _, elem := range arrayElements(arg.Value) {
			name, ok := stringValue(elem)
			if !ok {
				return Product{}, ld.errorf(diag.CodeManifestBadProduct, elem.Span(),
					"product target reference must be a plain string literal")
			}
			prod.Targets = append(prod.Targets, name)
		}
	}
	return prod, nil
}

func (ld *loader) checkDuplicates(m *Manifest) error {
	seenDeps := make(map[string]bool, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		if seenDeps[dep.Identity] {
			return &LoadError{
				Code:    diag.CodeManifestDuplicateName,
				Message: fmt.Sprintf("dependency %q is declared more than once", dep.Identity),
			}
		}
		seenDeps[dep.Identity] = true
	}
	seenTargets := make(map[string]bool, len(m.Targets))
	for _, tgt := range m.Targets {
		if seenTargets[tgt.Name] {
			return &LoadError{
				Code:    diag.CodeManifestDuplicateName,
				Message: fmt.Sprintf("target %q is declared more than once", tgt.Name),
			}
		}
		seenTargets[tgt.Name] = true
	}
	seenProducts := make(map[string]bool, len(m.Products))
	for _, prod := range m.Products {
		if seenProducts[prod.Name] {
			return &LoadError{
				Code:    diag.CodeManifestDuplicateName,
				Message: fmt.Sprintf("product %q is declared more than once", prod.Name),
			}
		}
		seenProducts[prod.Name] = true
	}
	return nil
}

// stringValue unwraps a plain string literal. Interpolated literals have no
// static value and never match.
func stringValue(e syntax.Expr) (string, bool) {
	lit, ok := e.(*syntax.StringLit)
	if !ok || lit.Interpolated {
		return "", false
	}
	return lit.Value, true
}

// memberCall unwraps a `.name(...)` call and returns the member name.
func memberCall(e syntax.Expr) (*syntax.CallExpr, string) {
	call, ok := e.(*syntax.CallExpr)
	if !ok {
		return nil, ""
	}
	ref, ok := call.Callee.(*syntax.MemberRef)
	if !ok || ref.Base != nil {
		return nil, ""
	}
	return call, ref.Name.Text
}

// arrayElements flattens the expression of an array-valued argument into
// its element expressions, looking through `+` concatenation.
func arrayElements(e syntax.Expr) []syntax.Expr {
	var out []syntax.Expr
	for _, operand := range syntax.ConcatOperands(e) {
		arr, ok := operand.(*syntax.ArrayLiteral)
		if !ok {
			continue
		}
		for _, elem := range arr.Elements {
			out = append(out, elem.Value)
		}
	}
	return out
}
