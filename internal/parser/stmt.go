package parser

import (
	"fmt"

	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/token"
)

// parseBlock parses "{ block-item* }".
func (p *Parser) parseBlock() (*ast.Stmt, bool) {
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'")
	if !ok {
		return nil, false
	}
	var items []ast.BlockItem
	for !p.atAny(token.RBrace, token.EOF) {
		if p.opts.Enough() {
			return nil, false
		}
		if p.atDeclStart() {
			decls, ok := p.parseDeclaration(false)
			if !ok {
				p.resyncStmt()
				continue
			}
			for _, d := range decls {
				items = append(items, ast.BlockItem{Decl: d})
			}
			continue
		}
		st, ok := p.parseStmt()
		if !ok {
			p.resyncStmt()
			continue
		}
		items = append(items, ast.BlockItem{Stmt: st})
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close block"); !ok {
		return nil, false
	}
	return &ast.Stmt{Kind: ast.StmtCompound, Span: p.spanFrom(open.Span), Data: ast.CompoundData{Items: items}}, true
}

func (p *Parser) parseStmt() (*ast.Stmt, bool) {
	tok := p.peek()
	switch tok.Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.Semicolon:
		p.advance()
		return &ast.Stmt{Kind: ast.StmtNull, Span: tok.Span}, true
	case token.KwReturn:
		return p.parseReturn()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDo:
		return p.parseDoWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwSwitch:
		return p.parseSwitch()
	case token.KwCase:
		return p.parseCase()
	case token.KwDefault:
		p.advance()
		if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' after 'default'"); !ok {
			return nil, false
		}
		body, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		return &ast.Stmt{Kind: ast.StmtDefault, Span: p.spanFrom(tok.Span), Data: ast.DefaultData{Body: body}}, true
	case token.KwBreak, token.KwContinue:
		p.advance()
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, fmt.Sprintf("expected ';' after '%s'", tok.Kind)); !ok {
			return nil, false
		}
		kind := ast.StmtBreak
		if tok.Kind == token.KwContinue {
			kind = ast.StmtContinue
		}
		return &ast.Stmt{Kind: kind, Span: p.spanFrom(tok.Span)}, true
	case token.KwGoto:
		p.advance()
		label, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected label after 'goto'")
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after goto"); !ok {
			return nil, false
		}
		return &ast.Stmt{Kind: ast.StmtGoto, Span: p.spanFrom(tok.Span), Data: ast.GotoData{Label: label.Text, LabelSpan: label.Span}}, true
	case token.Ident:
		if p.peekAt(1).Kind == token.Colon {
			p.advance()
			p.advance()
			body, ok := p.parseStmt()
			if !ok {
				return nil, false
			}
			return &ast.Stmt{Kind: ast.StmtLabeled, Span: p.spanFrom(tok.Span), Data: ast.LabeledData{Label: tok.Text, Body: body}}, true
		}
	}
	if tok.Kind.IsTypeSpecifier() || tok.Kind.IsStorageClass() {
		p.err(diag.SynUnexpectedToken, "a declaration is not a statement")
		return nil, false
	}

	e, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after expression"); !ok {
		return nil, false
	}
	return &ast.Stmt{Kind: ast.StmtExpr, Span: p.spanFrom(tok.Span), Data: ast.ExprStmtData{Expr: e}}, true
}

func (p *Parser) parseReturn() (*ast.Stmt, bool) {
	start := p.advance().Span
	var value *ast.Expr
	if !p.at(token.Semicolon) {
		e, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		value = e
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after return"); !ok {
		return nil, false
	}
	return &ast.Stmt{Kind: ast.StmtReturn, Span: p.spanFrom(start), Data: ast.ReturnData{Value: value}}, true
}

// parseParenExpr parses "( expr )" after a keyword.
func (p *Parser) parseParenExpr(after string) (*ast.Expr, bool) {
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, fmt.Sprintf("expected '(' after '%s'", after)); !ok {
		return nil, false
	}
	e, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
		return nil, false
	}
	return e, true
}

func (p *Parser) parseIf() (*ast.Stmt, bool) {
	start := p.advance().Span
	cond, ok := p.parseParenExpr("if")
	if !ok {
		return nil, false
	}
	then, ok := p.parseStmt()
	if !ok {
		return nil, false
	}
	data := ast.IfData{Cond: cond, Then: then}
	if p.eat(token.KwElse) {
		els, ok := p.parseStmt()
		if !ok {
			return nil, false
		}
		data.Else = els
	}
	return &ast.Stmt{Kind: ast.StmtIf, Span: p.spanFrom(start), Data: data}, true
}

func (p *Parser) parseWhile() (*ast.Stmt, bool) {
	start := p.advance().Span
	cond, ok := p.parseParenExpr("while")
	if !ok {
		return nil, false
	}
	body, ok := p.parseStmt()
	if !ok {
		return nil, false
	}
	return &ast.Stmt{Kind: ast.StmtWhile, Span: p.spanFrom(start), Data: ast.WhileData{Cond: cond, Body: body}}, true
}

func (p *Parser) parseDoWhile() (*ast.Stmt, bool) {
	start := p.advance().Span
	body, ok := p.parseStmt()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.KwWhile, diag.SynUnexpectedToken, "expected 'while' after do body"); !ok {
		return nil, false
	}
	cond, ok := p.parseParenExpr("while")
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after do-while"); !ok {
		return nil, false
	}
	return &ast.Stmt{Kind: ast.StmtDoWhile, Span: p.spanFrom(start), Data: ast.DoWhileData{Body: body, Cond: cond}}, true
}

func (p *Parser) parseFor() (*ast.Stmt, bool) {
	start := p.advance().Span
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'for'"); !ok {
		return nil, false
	}

	var data ast.ForData
	switch {
	case p.atDeclStart():
		declStart := p.peek().Span
		decls, ok := p.parseDeclaration(false)
		if !ok {
			return nil, false
		}
		if len(decls) != 1 || decls[0].Kind != ast.DeclVar {
			p.report(diag.SynBadDeclarator, p.spanFrom(declStart), "for loop initializer must declare exactly one variable")
			return nil, false
		}
		data.Init.Decl = decls[0].Var
	case p.eat(token.Semicolon):
	default:
		e, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after for initializer"); !ok {
			return nil, false
		}
		data.Init.Expr = e
	}

	var ok bool
	if data.Cond, ok = p.parseOptionalExpr(token.Semicolon, "expected ';' after for condition"); !ok {
		return nil, false
	}
	if data.Post, ok = p.parseOptionalExpr(token.RParen, "expected ')' after for clauses"); !ok {
		return nil, false
	}
	if data.Body, ok = p.parseStmt(); !ok {
		return nil, false
	}
	return &ast.Stmt{Kind: ast.StmtFor, Span: p.spanFrom(start), Data: data}, true
}

// parseOptionalExpr parses "expr? end".
func (p *Parser) parseOptionalExpr(end token.Kind, msg string) (*ast.Expr, bool) {
	if p.eat(end) {
		return nil, true
	}
	e, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	code := diag.SynExpectSemicolon
	if end == token.RParen {
		code = diag.SynUnclosedParen
	}
	if _, ok := p.expect(end, code, msg); !ok {
		return nil, false
	}
	return e, true
}

func (p *Parser) parseSwitch() (*ast.Stmt, bool) {
	start := p.advance().Span
	value, ok := p.parseParenExpr("switch")
	if !ok {
		return nil, false
	}
	body, ok := p.parseStmt()
	if !ok {
		return nil, false
	}
	return &ast.Stmt{Kind: ast.StmtSwitch, Span: p.spanFrom(start), Data: ast.SwitchData{Value: value, Body: body}}, true
}

func (p *Parser) parseCase() (*ast.Stmt, bool) {
	start := p.advance().Span
	value, ok := p.parseConditional()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' after case value"); !ok {
		return nil, false
	}
	body, ok := p.parseStmt()
	if !ok {
		return nil, false
	}
	return &ast.Stmt{Kind: ast.StmtCase, Span: p.spanFrom(start), Data: ast.CaseData{Value: value, Body: body}}, true
}
