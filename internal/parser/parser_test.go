package parser_test

import (
	"testing"

	"github.com/manifedit/manifedit/internal/parser"
	"github.com/manifedit/manifedit/internal/syntax"
)

func parseFile(t *testing.T, src string) *syntax.SourceFile {
	t.Helper()

	file, errs := parser.Parse(src)
	if len(errs) != 0 {
		for _, err := range errs {
			t.Errorf("unexpected parse error: %s", err.Message)
		}
		t.Fatalf("parser reported %d error(s)", len(errs))
	}
	return file
}

func TestParseLetBinding(t *testing.T) {
	file := parseFile(t, `let package = Package(name: "X")`)

	if len(file.Stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(file.Stmts))
	}
	let, ok := file.Stmts[0].(*syntax.LetBinding)
	if !ok {
		t.Fatalf("statement is %T, want *syntax.LetBinding", file.Stmts[0])
	}
	if let.Name.Text != "package" {
		t.Errorf("binding name = %q, want package", let.Name.Text)
	}
	call, ok := let.Value.(*syntax.CallExpr)
	if !ok {
		t.Fatalf("value is %T, want *syntax.CallExpr", let.Value)
	}
	callee, ok := call.Callee.(*syntax.Ident)
	if !ok || callee.Name() != "Package" {
		t.Errorf("callee = %v", call.Callee)
	}
	arg := call.Argument("name")
	if arg == nil {
		t.Fatalf("name: argument missing")
	}
	lit, ok := arg.Value.(*syntax.StringLit)
	if !ok || lit.Value != "X" {
		t.Errorf("name value = %v", arg.Value)
	}
}

func TestParseImportDecl(t *testing.T) {
	file := parseFile(t, "import PackageDescription\n")

	imp, ok := file.Stmts[0].(*syntax.ImportDecl)
	if !ok {
		t.Fatalf("statement is %T, want *syntax.ImportDecl", file.Stmts[0])
	}
	if imp.Name.Text != "PackageDescription" {
		t.Errorf("import name = %q", imp.Name.Text)
	}
}

func TestParseMemberCallsAndArrays(t *testing.T) {
	file := parseFile(t, `let deps = [
    .package(url: "https://example.com/a.git", from: "1.0.0"),
    .package(path: "../b"),
]`)

	let := file.Stmts[0].(*syntax.LetBinding)
	arr, ok := let.Value.(*syntax.ArrayLiteral)
	if !ok {
		t.Fatalf("value is %T, want *syntax.ArrayLiteral", let.Value)
	}
	if len(arr.Elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(arr.Elements))
	}
	if arr.Elements[1].CommaTok == nil {
		t.Errorf("trailing comma not attached to the last element")
	}
	call, ok := arr.Elements[0].Value.(*syntax.CallExpr)
	if !ok {
		t.Fatalf("element is %T, want *syntax.CallExpr", arr.Elements[0].Value)
	}
	ref, ok := call.Callee.(*syntax.MemberRef)
	if !ok || ref.Base != nil || ref.Name.Text != "package" {
		t.Errorf("callee = %v", call.Callee)
	}
	if call.Args[0].CommaTok == nil {
		t.Errorf("argument separator not attached to the first argument")
	}
}

func TestParseInfixExpressions(t *testing.T) {
	file := parseFile(t, `let r = "1.0.0"..<"2.0.0"
let c = "1.0.0"..."2.0.0"
let s = base + ["x"]`)

	r := file.Stmts[0].(*syntax.LetBinding).Value.(*syntax.InfixExpr)
	if r.OpTok.Text != "..<" {
		t.Errorf("operator = %q, want ..<", r.OpTok.Text)
	}
	c := file.Stmts[1].(*syntax.LetBinding).Value.(*syntax.InfixExpr)
	if c.OpTok.Text != "..." {
		t.Errorf("operator = %q, want ...", c.OpTok.Text)
	}
	s := file.Stmts[2].(*syntax.LetBinding).Value
	operands := syntax.ConcatOperands(s)
	if len(operands) != 2 {
		t.Fatalf("got %d concat operands, want 2", len(operands))
	}
	if _, ok := operands[1].(*syntax.ArrayLiteral); !ok {
		t.Errorf("second operand is %T, want *syntax.ArrayLiteral", operands[1])
	}
}

func TestParseChainedMemberAccess(t *testing.T) {
	file := parseFile(t, `let v = Target.Dependency.product(name: "P", package: "p")`)

	call := file.Stmts[0].(*syntax.LetBinding).Value.(*syntax.CallExpr)
	ref, ok := call.Callee.(*syntax.MemberRef)
	if !ok || ref.Name.Text != "product" {
		t.Fatalf("callee = %v", call.Callee)
	}
	inner, ok := ref.Base.(*syntax.MemberRef)
	if !ok || inner.Name.Text != "Dependency" {
		t.Fatalf("base = %v", ref.Base)
	}
	if id, ok := inner.Base.(*syntax.Ident); !ok || id.Name() != "Target" {
		t.Errorf("root of chain = %v", inner.Base)
	}
}

func TestParseErrorRecovery(t *testing.T) {
	src := `import PackageDescription
let bad = (
let ok = 1
`
	file, errs := parser.Parse(src)
	if len(errs) == 0 {
		t.Fatalf("no error reported for malformed input")
	}
	// The parser must recover at the next statement keyword.
	var names []string
	for _, stmt := range file.Stmts {
		if let, ok := stmt.(*syntax.LetBinding); ok {
			names = append(names, let.Name.Text)
		}
	}
	found := false
	for _, n := range names {
		if n == "ok" {
			found = true
		}
	}
	if !found {
		t.Errorf("parser did not recover to parse the following binding, got %v", names)
	}
}

func TestParseReportsLexerErrors(t *testing.T) {
	_, errs := parser.Parse(`let s = "unterminated`)
	if len(errs) == 0 {
		t.Fatalf("lexer error not surfaced through the parser")
	}
}
