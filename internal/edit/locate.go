package edit

import (
	"github.com/manifedit/manifedit/internal/diag"
	"github.com/manifedit/manifedit/internal/syntax"
)

// findRootCall scans the whole tree for the single Package(...) initializer.
// Traversal prunes below a confirmed match; calls nested inside one Package
// call do not count as additional roots. Zero matches and multiple matches
// are both fatal for the containing operation.
func findRootCall(file *syntax.SourceFile) (*syntax.CallExpr, *Error) {
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
		return nil, errorf(NotFound, diag.CodeEditRootCallMissing,
			"manifest has no Package initializer to edit")
	case 1:
		return found[0], nil
	default:
		return nil, errorAt(Ambiguous, diag.CodeEditRootCallAmbiguous, found[1].Span(),
			"manifest has %d Package initializers, cannot edit", len(found))
	}
}

// findArrayArgument resolves a labeled argument of call to the array
// literal insertions should land in. When the argument's value is a `+`
// concatenation, exactly one operand must be an array literal and that
// operand is the insertion point. A nil, nil return means the label is
// absent entirely; the caller decides whether that argument gets created.
func findArrayArgument(call *syntax.CallExpr, label string) (*syntax.ArrayLiteral, *Error) {
	arg := call.Argument(label)
	if arg == nil {
		return nil, nil
	}
	var arrays []*syntax.ArrayLiteral
	for _, operand := range syntax.ConcatOperands(arg.Value) {
		if arr, ok := operand.(*syntax.ArrayLiteral); ok {
			arrays = append(arrays, arr)
		}
	}
	switch len(arrays) {
	case 1:
		return arrays[0], nil
	case 0:
		return nil, errorAt(Ambiguous, diag.CodeEditArgumentIncompatible, arg.Span(),
			"%s: argument is not an array literal and cannot be edited", label)
	default:
		return nil, errorAt(Ambiguous, diag.CodeEditArgumentIncompatible, arg.Span(),
			"%s: argument concatenates %d array literals, cannot choose one", label, len(arrays))
	}
}

// findNamedElement returns the first array element that is a call carrying
// a name: argument equal to name. Interpolated name strings never match.
// Later duplicates are ignored here; duplicate names are a semantic error
// caught by the loader, not a locator concern.
func findNamedElement(arr *syntax.ArrayLiteral, name string) (*syntax.CallExpr, bool) {
	for _, elem := range arr.Elements {
		call, ok := elem.Value.(*syntax.CallExpr)
		if !ok {
			continue
		}
		nameArg := call.Argument("name")
		if nameArg == nil {
			continue
		}
		lit, ok := nameArg.Value.(*syntax.StringLit)
		if !ok || lit.Interpolated {
			continue
		}
		if lit.Value == name {
			return call, true
		}
	}
	return nil, false
}
