package parser

import (
	"github.com/manifedit/manifedit/internal/lexer"
	"github.com/manifedit/manifedit/internal/syntax"
)

func (p *Parser) parseExpr() syntax.Expr {
	return p.parseExprPrecedence(precedenceLowest)
}

func (p *Parser) parseExprPrecedence(precedence int) syntax.Expr {
	prefix := p.prefixFns[p.curTok.syn.Type]
	if prefix == nil {
		p.reportError("unexpected token in expression '"+string(p.curTok.syn.Type)+"'", p.curTok.syn.Span)
		return nil
	}

	left := prefix()
	if left == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekTok.syn.Type]
		if infix == nil {
			break
		}

		p.nextToken()

		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekTok.syn.Type]; ok {
		return prec
	}
	return precedenceLowest
}

func (p *Parser) parseIdentifier() syntax.Expr {
	return &syntax.Ident{Tok: p.curTok.syn}
}

func (p *Parser) parseStringLiteral() syntax.Expr {
	return &syntax.StringLit{
		Tok:          p.curTok.syn,
		Value:        p.curTok.value,
		Interpolated: p.curTok.interpolated,
	}
}

func (p *Parser) parseNumberLiteral() syntax.Expr {
	return &syntax.NumberLit{Tok: p.curTok.syn}
}

func (p *Parser) parseBoolLiteral() syntax.Expr {
	return &syntax.BoolLit{
		Tok:   p.curTok.syn,
		Value: p.curTok.syn.Type == lexer.TRUE,
	}
}

func (p *Parser) parseNilLiteral() syntax.Expr {
	return &syntax.NilLit{Tok: p.curTok.syn}
}

// parseLeadingMemberRef parses `.name`, the factory-reference shorthand
// used throughout manifests (`.package`, `.target`, `.exact`, ...).
func (p *Parser) parseLeadingMemberRef() syntax.Expr {
	dotTok := p.curTok.syn

	if !p.expect(lexer.IDENT) {
		return nil
	}

	return &syntax.MemberRef{DotTok: dotTok, Name: p.curTok.syn}
}

// parseMemberRef parses `base.name`; curTok is the dot.
func (p *Parser) parseMemberRef(base syntax.Expr) syntax.Expr {
	dotTok := p.curTok.syn

	if !p.expect(lexer.IDENT) {
		return nil
	}

	return &syntax.MemberRef{Base: base, DotTok: dotTok, Name: p.curTok.syn}
}

func (p *Parser) parseInfixExpr(left syntax.Expr) syntax.Expr {
	opTok := p.curTok.syn

	p.nextToken()

	right := p.parseExprPrecedence(precedences[opTok.Type])
	if right == nil {
		return nil
	}

	return &syntax.InfixExpr{Left: left, OpTok: opTok, Right: right}
}

// parseCallExpr parses an argument list; curTok is the '('.
func (p *Parser) parseCallExpr(callee syntax.Expr) syntax.Expr {
	call := &syntax.CallExpr{Callee: callee, LParen: p.curTok.syn}

	if p.peekTok.syn.Type == lexer.RPAREN {
		p.nextToken()
		call.RParen = p.curTok.syn
		return call
	}

	p.nextToken()

	args, ok := parseDelimited[*syntax.Argument](p, delimitedConfig{
		Closing:             lexer.RPAREN,
		AllowTrailing:       true,
		MissingElementMsg:   "expected argument",
		MissingSeparatorMsg: "expected ',' or ')' in argument list",
	}, func(int) (*syntax.Argument, bool) {
		return p.parseArgument()
	}, func(idx int, sep syntax.Token, items []*syntax.Argument) {
		items[idx].CommaTok = &sep
	})
	if !ok {
		return nil
	}

	call.Args = args
	call.RParen = p.curTok.syn
	return call
}

// parseArgument parses `[label ':'] expr`.
func (p *Parser) parseArgument() (*syntax.Argument, bool) {
	arg := &syntax.Argument{}

	if p.curTok.syn.Type == lexer.IDENT && p.peekTok.syn.Type == lexer.COLON {
		labelTok := p.curTok.syn
		p.nextToken()
		colonTok := p.curTok.syn
		arg.Label = &labelTok
		arg.ColonTok = &colonTok
		p.nextToken()
	}

	value := p.parseExpr()
	if value == nil {
		return nil, false
	}
	arg.Value = value

	return arg, true
}

// parseArrayLiteral parses `[ elem, ... ]`; curTok is the '['.
func (p *Parser) parseArrayLiteral() syntax.Expr {
	arr := &syntax.ArrayLiteral{LBracket: p.curTok.syn}

	if p.peekTok.syn.Type == lexer.RBRACKET {
		p.nextToken()
		arr.RBracket = p.curTok.syn
		return arr
	}

	p.nextToken()

	elems, ok := parseDelimited[*syntax.ArrayElement](p, delimitedConfig{
		Closing:             lexer.RBRACKET,
		AllowTrailing:       true,
		MissingElementMsg:   "expected array element",
		MissingSeparatorMsg: "expected ',' or ']' in array literal",
	}, func(int) (*syntax.ArrayElement, bool) {
		value := p.parseExpr()
		if value == nil {
			return nil, false
		}
		return &syntax.ArrayElement{Value: value}, true
	}, func(idx int, sep syntax.Token, items []*syntax.ArrayElement) {
		items[idx].CommaTok = &sep
	})
	if !ok {
		return nil
	}

	arr.Elements = elems
	arr.RBracket = p.curTok.syn
	return arr
}
