package edit

import (
	"strings"

	"github.com/manifedit/manifedit/internal/diag"
	"github.com/manifedit/manifedit/internal/lexer"
	"github.com/manifedit/manifedit/internal/manifest"
	"github.com/manifedit/manifedit/internal/syntax"
)

// indentUnit is the indentation step used when synthesizing inside a
// previously empty array.
const indentUnit = "    "

// TargetDescriptor describes a requested regular target. Binary targets
// have their own operation because of the checksum rules.
type TargetDescriptor struct {
	Name         string
	Kind         manifest.TargetKind
	Dependencies []string
}

// ProductDescriptor describes a requested product.
type ProductDescriptor struct {
	Name    string
	Kind    manifest.ProductKind
	Linkage manifest.LibraryLinkage
	Targets []string
}

/// makeCall builds a single-line `.member(a: x, b: y)` call: a space after
// every separator, none inside the parentheses.
func makeCall(member string, args ...*syntax.Argument) *syntax.CallExpr {
	for i, arg := range args {
		if i > 0 {
			if arg.Label != nil {
				lbl := arg.Label.WithLeading(" ")
				arg.Label = &lbl
			} else {
				arg.Value = syntax.WithExprLeading(arg.Value, " ")
			}
		}
		if i < len(args)-1 {
			comma := syntax.NewToken(lexer.COMMA, ",")
			arg.CommaTok = &comma
		}
	}
	return syntax.NewCallExpr(syntax.NewMemberRef(member), args...)
}

func stringArg(label, value string) *syntax.Argument {
	return syntax.NewArgument(label, syntax.WithExprLeading(syntax.NewStringLit(value), " "))
}

func stringArrayArg(label string, values []string) *syntax.Argument {
	arr := syntax.NewArrayLiteral()
	for i, v := range values {
		elem := &syntax.ArrayElement{Value: syntax.NewStringLit(v)}
		if i > 0 {
			elem.Value = syntax.WithExprLeading(elem.Value, " ")
		}
		if i < len(values)-1 {
			comma := syntax.NewToken(lexer.COMMA, ",")
			elem.CommaTok = &comma
		}
		arr.Elements = append(arr.Elements, elem)
	}
	return syntax.NewArgument(label, syntax.WithExprLeading(arr, " "))
}

// dependencyEntry synthesizes a `.package(...)` array element for the given
// location and requirement. Every requirement variant has a fixed argument
// shape; the switch must stay exhaustive over the variant set.
func dependencyEntry(location string, req manifest.Requirement) (*syntax.CallExpr, *Error) {
	switch req.Kind {
	case manifest.LocalPath:
		return makeCall("package", stringArg("path", location)), nil
	case manifest.Exact:
		return makeCall("package",
			stringArg("url", location),
			positionalFactory("exact", req.Version)), nil
	case manifest.Revision:
		return makeCall("package",
			stringArg("url", location),
			positionalFactory("revision", req.Identifier)), nil
	case manifest.Branch:
		return makeCall("package",
			stringArg("url", location),
			positionalFactory("branch", req.Name)), nil
	case manifest.UpToNextMajor:
		return makeCall("package",
			stringArg("url", location),
			stringArg("from", req.Version)), nil
	case manifest.UpToNextMinor:
		return makeCall("package",
			stringArg("url", location),
			syntax.NewPositionalArgument(makeCall("upToNextMinor", stringArg("from", req.Version)))), nil
	case manifest.Range:
		return makeCall("package",
			stringArg("url", location),
			rangeArg(req.Lower, lexer.HALFOPEN, req.Upper)), nil
	case manifest.ClosedRange:
		return makeCall("package",
			stringArg("url", location),
			rangeArg(req.Lower, lexer.CLOSED_RANGE, req.Upper)), nil
	}
	return nil, errorf(Internal, diag.CodeEditInternalInvariant,
		"requirement kind %d has no synthesis rule", int(req.Kind))
}

func positionalFactory(member, value string) *syntax.Argument {
	return syntax.NewPositionalArgument(
		makeCall(member, syntax.NewPositionalArgument(syntax.NewStringLit(value))))
}

func rangeArg(lower string, op lexer.TokenType, upper string) *syntax.Argument {
	return syntax.NewPositionalArgument(
		syntax.NewInfixExpr(syntax.NewStringLit(lower), op, syntax.NewStringLit(upper)))
}

// targetEntry synthesizes a `.target`/`.executableTarget`/`.testTarget`
// array element. Binary targets go through binaryTargetEntry instead.
func targetEntry(desc TargetDescriptor) (*syntax.CallExpr, *Error) {
	if desc.Kind == manifest.TargetBinary {
		return nil, errorf(Precondition, diag.CodeEditPrecondition,
			"binary targets carry a location and checksum, use the binary-target operation")
	}
	args := []*syntax.Argument{stringArg("name", desc.Name)}
	if len(desc.Dependencies) > 0 {
		args = append(args, stringArrayArg("dependencies", desc.Dependencies))
	}
	return makeCall(desc.Kind.String(), args...), nil
}

// binaryTargetEntry synthesizes a `.binaryTarget(...)` element. The
// checksum rule is enforced here at synthesis time: remote locations
// require one, local paths must not carry one.
func binaryTargetEntry(name, location, checksum string) (*syntax.CallExpr, *Error) {
	if isRemoteLocation(location) {
		if checksum == "" {
			return nil, errorf(Precondition, diag.CodeEditPrecondition,
				"binary target %q has a remote location and requires a checksum", name)
		}
		return makeCall("binaryTarget",
			stringArg("name", name),
			stringArg("url", location),
			stringArg("checksum", checksum)), nil
	}
	if checksum != "" {
		return nil, errorf(Precondition, diag.CodeEditPrecondition,
			"binary target %q has a local path and must not carry a checksum", name)
	}
	return makeCall("binaryTarget",
		stringArg("name", name),
		stringArg("path", location)), nil
}

func isRemoteLocation(location string) bool {
	return strings.HasPrefix(location, "https://") || strings.HasPrefix(location, "http://")
}

// productEntry synthesizes a `.library(...)` or `.executable(...)` element.
func productEntry(desc ProductDescriptor) (*syntax.CallExpr, *Error) {
	args := []*syntax.Argument{stringArg("name", desc.Name)}
	var member string
	switch desc.Kind {
	case manifest.ProductLibrary:
		member = "library"
		switch desc.Linkage {
		case manifest.LinkageStatic:
			args = append(args, syntax.NewArgument("type",
				syntax.WithExprLeading(syntax.NewMemberRef("static"), " ")))
		case manifest.LinkageDynamic:
			args = append(args, syntax.NewArgument("type",
				syntax.WithExprLeading(syntax.NewMemberRef("dynamic"), " ")))
		case manifest.LinkageAutomatic:
			// default linkage is left implicit
		}
	case manifest.ProductExecutable:
		member = "executable"
	default:
		return nil, errorf(Internal, diag.CodeEditInternalInvariant,
			"product kind %d has no synthesis rule", int(desc.Kind))
	}
	args = append(args, stringArrayArg("targets", desc.Targets))
	return makeCall(member, args...), nil
}

// argLeading returns the leading trivia of an argument's first token.
func argLeading(a *syntax.Argument) string {
	if a.Label != nil {
		return a.Label.Leading
	}
	return syntax.ExprLeading(a.Value)
}

// withArgLeading returns a copy of the argument whose first token carries
// the given leading trivia.
func withArgLeading(a *syntax.Argument, leading string) *syntax.Argument {
	cp := *a
	if cp.Label != nil {
		lbl := cp.Label.WithLeading(leading)
		cp.Label = &lbl
	} else {
		cp.Value = syntax.WithExprLeading(cp.Value, leading)
	}
	return &cp
}

// insertArrayArgument returns a copy of call with a new `label: []`
// argument inserted before the first existing argument whose label appears
// in comesAfter, or at the end of the list when none does. The surrounding
// separators are repaired so the list stays well-formed. The caller must
// re-locate the argument in the new tree before inserting into it.
func insertArrayArgument(call *syntax.CallExpr, label string, comesAfter []string) *syntax.CallExpr {
	after := make(map[string]bool, len(comesAfter))
	for _, l := range comesAfter {
		after[l] = true
	}
	idx := len(call.Args)
	for i, arg := range call.Args {
		if arg.Label != nil && after[arg.Label.Text] {
			idx = i
			break
		}
	}

	newArg := syntax.NewArgument(label, syntax.WithExprLeading(syntax.NewArrayLiteral(), " "))

	args := make([]*syntax.Argument, 0, len(call.Args)+1)
	args = append(args, call.Args...)
	switch {
	case idx < len(args):
		// Take over the displaced argument's indentation and separate the
		// two with a comma.
		newArg = withArgLeading(newArg, argLeading(args[idx]))
		comma := syntax.NewToken(lexer.COMMA, ",")
		newArg.CommaTok = &comma
		args = append(args[:idx], append([]*syntax.Argument{newArg}, args[idx:]...)...)
	case len(args) > 0:
		prev := args[len(args)-1]
		if prev.CommaTok == nil {
			cp := *prev
			comma := syntax.NewToken(lexer.COMMA, ",")
			cp.CommaTok = &comma
			args[len(args)-1] = &cp
		}
		leading := argLeading(args[len(args)-1])
		if leading == "" {
			leading = " "
		}
		newArg = withArgLeading(newArg, leading)
		args = append(args, newArg)
	default:
		args = append(args, newArg)
	}

	cp := *call
	cp.Args = args
	return &cp
}

// appendElement returns a copy of arr with value appended as its last
// element, matching the formatting of the existing last element. When the
// array is empty, indentHint (the leading trivia of the argument holding
// the array) decides between a multiline and an inline layout.
func appendElement(arr *syntax.ArrayLiteral, value syntax.Expr, indentHint string) *syntax.ArrayLiteral {
	cp := *arr
	cp.Elements = append([]*syntax.ArrayElement(nil), arr.Elements...)

	if len(cp.Elements) == 0 {
		newElem := &syntax.ArrayElement{Value: value}
		if nl := strings.LastIndexByte(indentHint, '\n'); nl >= 0 {
			outer := indentHint[nl:]
			newElem.Value = syntax.WithExprLeading(value, outer+indentUnit)
			comma := syntax.NewToken(lexer.COMMA, ",")
			newElem.CommaTok = &comma
			cp.RBracket = cp.RBracket.WithLeading(outer)
		}
		cp.Elements = append(cp.Elements, newElem)
		return &cp
	}

	last := cp.Elements[len(cp.Elements)-1]
	leading := syntax.ExprLeading(last.Value)
	if leading == "" {
		leading = " "
	}
	trailingComma := last.CommaTok != nil
	if !trailingComma {
		lastCp := *last
		comma := syntax.NewToken(lexer.COMMA, ",")
		lastCp.CommaTok = &comma
		cp.Elements[len(cp.Elements)-1] = &lastCp
	}
	newElem := &syntax.ArrayElement{Value: syntax.WithExprLeading(value, leading)}
	if trailingComma {
		comma := syntax.NewToken(lexer.COMMA, ",")
		newElem.CommaTok = &comma
	}
	cp.Elements = append(cp.Elements, newElem)
	return &cp
}
