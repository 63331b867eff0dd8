package syntax

// Replace returns a copy of root in which the node old (matched by
// identity) is replaced by replacement. Only the nodes on the path from
// root to old are rebuilt; every untouched subtree is shared with the
// input. The second result is false when old is not reachable from root
// or replacement cannot occupy old's position.
func Replace(root, old, replacement Node) (Node, bool) {
	if root == old {
		return replacement, true
	}

	switch n := root.(type) {
	case *SourceFile:
		for i, stmt := range n.Stmts {
			nu, ok := Replace(stmt, old, replacement)
			if !ok {
				continue
			}
			ns, ok := nu.(Stmt)
			if !ok {
				return nil, false
			}
			cp := *n
			cp.Stmts = append([]Stmt(nil), n.Stmts...)
			cp.Stmts[i] = ns
			return &cp, true
		}

	case *LetBinding:
		if ne, ok := replaceExpr(n.Value, old, replacement); ok {
			cp := *n
			cp.Value = ne
			return &cp, true
		}

	case *ExprStmt:
		if ne, ok := replaceExpr(n.X, old, replacement); ok {
			cp := *n
			cp.X = ne
			return &cp, true
		}

	case *MemberRef:
		if ne, ok := replaceExpr(n.Base, old, replacement); ok {
			cp := *n
			cp.Base = ne
			return &cp, true
		}

	case *CallExpr:
		if ne, ok := replaceExpr(n.Callee, old, replacement); ok {
			cp := *n
			cp.Callee = ne
			return &cp, true
		}
		for i, arg := range n.Args {
			nu, ok := Replace(arg, old, replacement)
			if !ok {
				continue
			}
			na, ok := nu.(*Argument)
			if !ok {
				return nil, false
			}
			cp := *n
			cp.Args = append([]*Argument(nil), n.Args...)
			cp.Args[i] = na
			return &cp, true
		}

	case *Argument:
		if ne, ok := replaceExpr(n.Value, old, replacement); ok {
			cp := *n
			cp.Value = ne
			return &cp, true
		}

	case *ArrayLiteral:
		for i, elem := range n.Elements {
			nu, ok := Replace(elem, old, replacement)
			if !ok {
				continue
			}
			ne, ok := nu.(*ArrayElement)
			if !ok {
				return nil, false
			}
			cp := *n
			cp.Elements = append([]*ArrayElement(nil), n.Elements...)
			cp.Elements[i] = ne
			return &cp, true
		}

	case *ArrayElement:
		if ne, ok := replaceExpr(n.Value, old, replacement); ok {
			cp := *n
			cp.Value = ne
			return &cp, true
		}

	case *InfixExpr:
		if ne, ok := replaceExpr(n.Left, old, replacement); ok {
			cp := *n
			cp.Left = ne
			return &cp, true
		}
		if ne, ok := replaceExpr(n.Right, old, replacement); ok {
			cp := *n
			cp.Right = ne
			return &cp, true
		}
	}

	return nil, false
}

// replaceExpr runs Replace under an expression-typed field.
func replaceExpr(e Expr, old, replacement Node) (Expr, bool) {
	if e == nil {
		return nil, false
	}
	nu, ok := Replace(e, old, replacement)
	if !ok {
		return nil, false
	}
	ne, ok := nu.(Expr)
	if !ok {
		return nil, false
	}
	return ne, true
}
