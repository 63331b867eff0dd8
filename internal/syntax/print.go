package syntax

import "strings"

// Print serializes a node back to source text. For any subtree the parser
// produced and an edit did not touch, the output is byte-identical to the
// original input.
func Print(n Node) string {
	var b strings.Builder
	printNode(&b, n)
	return b.String()
}

func printToken(b *strings.Builder, t Token) {
	b.WriteString(t.Leading)
	b.WriteString(t.Text)
}

func printOptToken(b *strings.Builder, t *Token) {
	if t != nil {
		printToken(b, *t)
	}
}

func printNode(b *strings.Builder, n Node) {
	switch x := n.(type) {
	case *SourceFile:
		for _, stmt := range x.Stmts {
			printNode(b, stmt)
		}
		printToken(b, x.EOF)

	case *ImportDecl:
		printToken(b, x.ImportTok)
		printToken(b, x.Name)

	case *LetBinding:
		printToken(b, x.LetTok)
		printToken(b, x.Name)
		printToken(b, x.AssignTok)
		if x.Value != nil {
			printNode(b, x.Value)
		}

	case *ExprStmt:
		printNode(b, x.X)

	case *Ident:
		printToken(b, x.Tok)

	case *StringLit:
		printToken(b, x.Tok)

	case *NumberLit:
		printToken(b, x.Tok)

	case *BoolLit:
		printToken(b, x.Tok)

	case *NilLit:
		printToken(b, x.Tok)

	case *MemberRef:
		if x.Base != nil {
			printNode(b, x.Base)
		}
		printToken(b, x.DotTok)
		printToken(b, x.Name)

	case *CallExpr:
		printNode(b, x.Callee)
		printToken(b, x.LParen)
		for _, arg := range x.Args {
			printNode(b, arg)
		}
		printToken(b, x.RParen)

	case *Argument:
		printOptToken(b, x.Label)
		printOptToken(b, x.ColonTok)
		printNode(b, x.Value)
		printOptToken(b, x.CommaTok)

	case *ArrayLiteral:
		printToken(b, x.LBracket)
		for _, elem := range x.Elements {
			printNode(b, elem)
		}
		printToken(b, x.RBracket)

	case *ArrayElement:
		printNode(b, x.Value)
		printOptToken(b, x.CommaTok)

	case *InfixExpr:
		printNode(b, x.Left)
		printToken(b, x.OpTok)
		printNode(b, x.Right)
	}
}
