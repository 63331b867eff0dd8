package syntax

// Walk traverses the tree starting from node, calling fn for each node.
// If fn returns false, Walk stops descending into that branch.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *SourceFile:
		for _, stmt := range n.Stmts {
			Walk(stmt, fn)
		}

	case *LetBinding:
		if n.Value != nil {
			Walk(n.Value, fn)
		}

	case *ExprStmt:
		Walk(n.X, fn)

	case *MemberRef:
		if n.Base != nil {
			Walk(n.Base, fn)
		}

	case *CallExpr:
		Walk(n.Callee, fn)
		for _, arg := range n.Args {
			Walk(arg, fn)
		}

	case *Argument:
		Walk(n.Value, fn)

	case *ArrayLiteral:
		for _, elem := range n.Elements {
			Walk(elem, fn)
		}

	case *ArrayElement:
		Walk(n.Value, fn)

	case *InfixExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	}
}
