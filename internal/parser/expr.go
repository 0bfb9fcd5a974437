package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/token"
	"mcc/internal/types"
)

// parseExpr parses a full expression.
func (p *Parser) parseExpr() (*ast.Expr, bool) {
	return p.parseBinary(precAssignment)
}

func (p *Parser) parseAssignment() (*ast.Expr, bool) {
	return p.parseBinary(precAssignment)
}

// parseConditional stops before assignment operators; case labels use it.
func (p *Parser) parseConditional() (*ast.Expr, bool) {
	return p.parseBinary(precConditional)
}

// parseBinary is precedence climbing over binary, ternary and assignment
// operators. Assignment and "?:" associate to the right.
func (p *Parser) parseBinary(minPrec int) (*ast.Expr, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for {
		tok := p.peek()
		prec := operatorPrec(tok.Kind)
		if prec == precNone || prec < minPrec {
			return left, true
		}
		p.advance()

		switch {
		case tok.Kind.IsAssign():
			right, ok := p.parseBinary(prec)
			if !ok {
				return nil, false
			}
			data := ast.AssignData{Left: left, Right: right}
			if op, compound := compoundOps[tok.Kind]; compound {
				data.Compound = true
				data.Op = op
			}
			left = &ast.Expr{Kind: ast.ExprAssign, Span: left.Span.Cover(right.Span), Data: data}

		case tok.Kind == token.Question:
			then, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' in conditional expression"); !ok {
				return nil, false
			}
			els, ok := p.parseBinary(prec)
			if !ok {
				return nil, false
			}
			left = &ast.Expr{
				Kind: ast.ExprConditional,
				Span: left.Span.Cover(els.Span),
				Data: ast.ConditionalData{Cond: left, Then: then, Else: els},
			}

		default:
			right, ok := p.parseBinary(prec + 1)
			if !ok {
				return nil, false
			}
			left = &ast.Expr{
				Kind: ast.ExprBinary,
				Span: left.Span.Cover(right.Span),
				Data: ast.BinaryData{Op: binaryOps[tok.Kind].op, Left: left, Right: right},
			}
		}
	}
}

func (p *Parser) parseUnary() (*ast.Expr, bool) {
	tok := p.peek()

	if op, ok := unaryOps[tok.Kind]; ok {
		p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprUnary, Span: p.spanFrom(tok.Span), Data: ast.UnaryData{Op: op, Operand: operand}}, true
	}

	switch tok.Kind {
	case token.PlusPlus, token.MinusMinus:
		p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.Expr{
			Kind: ast.ExprIncDec,
			Span: p.spanFrom(tok.Span),
			Data: ast.IncDecData{Increment: tok.Kind == token.PlusPlus, Operand: operand},
		}, true
	case token.Star:
		p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprDeref, Span: p.spanFrom(tok.Span), Data: ast.DerefData{Operand: operand}}, true
	case token.Amp:
		p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprAddrOf, Span: p.spanFrom(tok.Span), Data: ast.AddrOfData{Operand: operand}}, true
	case token.LParen:
		if p.peekAt(1).Kind.IsTypeSpecifier() {
			return p.parseCast()
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parseCast() (*ast.Expr, bool) {
	start := p.advance().Span
	target, ok := p.parseTypeName()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after type name"); !ok {
		return nil, false
	}
	operand, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	return &ast.Expr{Kind: ast.ExprCast, Span: p.spanFrom(start), Data: ast.CastData{Target: target, Operand: operand}}, true
}

func (p *Parser) parsePostfix() (*ast.Expr, bool) {
	e, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	for {
		switch p.peek().Kind {
		case token.LBracket:
			p.advance()
			index, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' after subscript"); !ok {
				return nil, false
			}
			e = &ast.Expr{Kind: ast.ExprSubscript, Span: p.spanFrom(e.Span), Data: ast.SubscriptData{Base: e, Index: index}}
		case token.PlusPlus, token.MinusMinus:
			tok := p.advance()
			e = &ast.Expr{
				Kind: ast.ExprIncDec,
				Span: p.spanFrom(e.Span),
				Data: ast.IncDecData{Increment: tok.Kind == token.PlusPlus, Postfix: true, Operand: e},
			}
		default:
			return e, true
		}
	}
}

func (p *Parser) parsePrimary() (*ast.Expr, bool) {
	tok := p.peek()
	switch {
	case tok.Kind.IsLiteral():
		p.advance()
		c, ok := p.parseConstant(tok)
		if !ok {
			return nil, false
		}
		return &ast.Expr{Kind: ast.ExprConst, Span: tok.Span, Data: ast.ConstData{Value: c}}, true

	case tok.IsIdent():
		p.advance()
		if !p.at(token.LParen) {
			return &ast.Expr{Kind: ast.ExprVar, Span: tok.Span, Data: ast.VarData{Name: tok.Text}}, true
		}
		p.advance()
		var args []*ast.Expr
		for !p.at(token.RParen) {
			arg, ok := p.parseAssignment()
			if !ok {
				return nil, false
			}
			args = append(args, arg)
			if !p.eat(token.Comma) {
				break
			}
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after arguments"); !ok {
			return nil, false
		}
		return &ast.Expr{
			Kind: ast.ExprCall,
			Span: p.spanFrom(tok.Span),
			Data: ast.CallData{Callee: tok.Text, CalleeSpan: tok.Span, Args: args},
		}, true

	case tok.Kind == token.LParen:
		p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
			return nil, false
		}
		// Parentheses only widen the span; the tree has no grouping node.
		inner.Span = p.spanFrom(tok.Span)
		return inner, true
	}

	p.err(diag.SynExpectExpression, fmt.Sprintf("expected expression, got %s", describe(tok)))
	return nil, false
}

// parseConstant types a numeric literal the way C does: an unsuffixed decimal
// is int if it fits, else long; "u" picks unsigned int or unsigned long.
func (p *Parser) parseConstant(tok token.Token) (types.Const, bool) {
	if tok.Kind == token.FloatLit {
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			p.report(diag.LexBadNumber, tok.Span, fmt.Sprintf("malformed floating constant %q", tok.Text))
			return types.Const{}, false
		}
		return types.DoubleConst(f), true
	}

	digits := strings.TrimRight(tok.Text, "uUlL")
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		p.report(diag.LexBadNumber, tok.Span, fmt.Sprintf("integer constant %s is too large", tok.Text))
		return types.Const{}, false
	}

	switch tok.Kind {
	case token.IntLit, token.LongLit:
		if v > math.MaxInt64 {
			p.report(diag.LexBadNumber, tok.Span, fmt.Sprintf("integer constant %s is too large for long", tok.Text))
			return types.Const{}, false
		}
		if tok.Kind == token.IntLit && v <= math.MaxInt32 {
			return types.IntConst(types.Int, int64(v)), true
		}
		return types.IntConst(types.Long, int64(v)), true
	case token.UintLit:
		if v <= math.MaxUint32 {
			return types.IntConst(types.UInt, int64(v)), true
		}
		return types.IntConst(types.ULong, int64(v)), true // #nosec G115 -- raw bit pattern
	default:
		return types.IntConst(types.ULong, int64(v)), true // #nosec G115 -- raw bit pattern
	}
}
