package parser

import (
	"fmt"
	"strconv"
	"strings"

	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/source"
	"mcc/internal/token"
	"mcc/internal/types"
)

type specifiers struct {
	base    *types.Type
	storage ast.StorageClass
	span    source.Span
}

type declaratorKind uint8

const (
	declIdent declaratorKind = iota // name may be empty in abstract declarators
	declPointer
	declArray
	declFunc
)

// declarator is the raw declarator shape before the type is derived from it.
type declarator struct {
	kind   declaratorKind
	name   string
	span   source.Span
	inner  *declarator
	size   int64
	params []paramDecl
}

type paramDecl struct {
	base *types.Type
	decl *declarator
}

type derived struct {
	name   string
	span   source.Span
	typ    *types.Type
	params []ast.Param
}

// parseDeclaration parses specifiers followed by a declarator list or a single
// function definition.
func (p *Parser) parseDeclaration(topLevel bool) ([]*ast.Decl, bool) {
	if !p.atDeclStart() {
		tok := p.peek()
		if topLevel {
			p.err(diag.SynUnexpectedTopLevel, fmt.Sprintf("expected declaration, got %s", describe(tok)))
		} else {
			p.err(diag.SynExpectType, fmt.Sprintf("expected type specifier, got %s", describe(tok)))
		}
		return nil, false
	}
	spec, ok := p.parseSpecifiers(true)
	if !ok {
		return nil, false
	}

	var decls []*ast.Decl
	for {
		d, ok := p.parseDeclarator(false)
		if !ok {
			return decls, false
		}
		dv, ok := p.derive(d, spec.base)
		if !ok {
			return decls, false
		}

		if dv.typ.IsFunction() {
			fn := &ast.FuncDecl{
				Name:     dv.name,
				NameSpan: dv.span,
				Type:     dv.typ,
				Params:   dv.params,
				Storage:  spec.storage,
			}
			if p.at(token.LBrace) {
				if len(decls) > 0 {
					p.err(diag.SynBadDeclarator, "function definition inside a declarator list")
					return decls, false
				}
				for _, prm := range fn.Params {
					if prm.Name == "" {
						p.report(diag.SynExpectIdentifier, prm.Span, "parameter name omitted in function definition")
						return nil, false
					}
				}
				body, ok := p.parseBlock()
				if !ok {
					return nil, false
				}
				fn.Body = body
				fn.Span = p.spanFrom(spec.span)
				return []*ast.Decl{{Kind: ast.DeclFunc, Span: fn.Span, Func: fn}}, true
			}
			fn.Span = p.spanFrom(spec.span)
			decls = append(decls, &ast.Decl{Kind: ast.DeclFunc, Span: fn.Span, Func: fn})
		} else {
			v := &ast.VarDecl{
				Name:     dv.name,
				NameSpan: dv.span,
				Type:     dv.typ,
				Storage:  spec.storage,
			}
			if p.eat(token.Assign) {
				init, ok := p.parseInitializer()
				if !ok {
					return decls, false
				}
				v.Init = init
			}
			v.Span = p.spanFrom(spec.span)
			decls = append(decls, &ast.Decl{Kind: ast.DeclVar, Span: v.Span, Var: v})
		}

		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after declaration"); !ok {
		return decls, false
	}
	return decls, true
}

// parseSpecifiers reads type specifiers and at most one storage class.
func (p *Parser) parseSpecifiers(allowStorage bool) (specifiers, bool) {
	start := p.peek().Span
	var (
		kinds    []token.Kind
		storages []token.Token
	)
	for {
		tok := p.peek()
		switch {
		case tok.Kind.IsTypeSpecifier():
			kinds = append(kinds, tok.Kind)
		case tok.Kind.IsStorageClass():
			storages = append(storages, tok)
		default:
			spec := specifiers{span: p.spanFrom(start)}
			if len(storages) > 0 && !allowStorage {
				p.report(diag.SynBadSpecifiers, storages[0].Span, "storage class not allowed here")
				return spec, false
			}
			if len(storages) > 1 {
				p.report(diag.SynBadSpecifiers, storages[1].Span, "multiple storage classes in declaration")
				return spec, false
			}
			if len(storages) == 1 {
				spec.storage = ast.StorageStatic
				if storages[0].Kind == token.KwExtern {
					spec.storage = ast.StorageExtern
				}
			}
			base, msg := baseType(kinds)
			if base == nil {
				p.report(diag.SynBadSpecifiers, spec.span, msg)
				return spec, false
			}
			spec.base = base
			return spec, true
		}
		p.advance()
	}
}

// baseType resolves a specifier list into a type, or explains why it cannot.
func baseType(kinds []token.Kind) (*types.Type, string) {
	if len(kinds) == 0 {
		return nil, "missing type specifier"
	}
	seen := make(map[token.Kind]bool, len(kinds))
	for _, k := range kinds {
		if seen[k] {
			return nil, fmt.Sprintf("duplicate '%s' specifier", k)
		}
		seen[k] = true
	}
	switch {
	case seen[token.KwVoid]:
		return nil, "'void' is only allowed as an empty parameter list"
	case seen[token.KwDouble]:
		if len(kinds) != 1 {
			return nil, "'double' cannot be combined with other type specifiers"
		}
		return types.DoubleType, ""
	case seen[token.KwSigned] && seen[token.KwUnsigned]:
		return nil, "both 'signed' and 'unsigned' in declaration"
	case seen[token.KwUnsigned] && seen[token.KwLong]:
		return types.ULongType, ""
	case seen[token.KwUnsigned]:
		return types.UIntType, ""
	case seen[token.KwLong]:
		return types.LongType, ""
	}
	return types.IntType, ""
}

func (p *Parser) parseDeclarator(abstract bool) (*declarator, bool) {
	if p.at(token.Star) {
		star := p.advance()
		inner, ok := p.parseDeclarator(abstract)
		if !ok {
			return nil, false
		}
		return &declarator{kind: declPointer, inner: inner, span: p.spanFrom(star.Span)}, true
	}
	return p.parseDirectDeclarator(abstract)
}

func (p *Parser) parseDirectDeclarator(abstract bool) (*declarator, bool) {
	var d *declarator
	start := p.peek().Span
	switch {
	case p.at(token.Ident):
		tok := p.advance()
		d = &declarator{kind: declIdent, name: tok.Text, span: tok.Span}
	case p.at(token.LParen) && (!abstract || p.startsAbstractGroup()):
		p.advance()
		inner, ok := p.parseDeclarator(abstract)
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' in declarator"); !ok {
			return nil, false
		}
		d = inner
	case abstract:
		d = &declarator{kind: declIdent, span: source.Span{File: start.File, Start: start.Start, End: start.Start}}
	default:
		p.err(diag.SynExpectIdentifier, fmt.Sprintf("expected identifier in declarator, got %s", describe(p.peek())))
		return nil, false
	}

	switch {
	case p.at(token.LParen):
		params, ok := p.parseParamList()
		if !ok {
			return nil, false
		}
		d = &declarator{kind: declFunc, inner: d, params: params, span: p.spanFrom(start)}
	case p.at(token.LBracket):
		for p.at(token.LBracket) {
			size, ok := p.parseArraySize()
			if !ok {
				return nil, false
			}
			d = &declarator{kind: declArray, inner: d, size: size, span: p.spanFrom(start)}
		}
	}
	return d, true
}

// startsAbstractGroup distinguishes "(*)" and "([3])" from a parameter list.
func (p *Parser) startsAbstractGroup() bool {
	switch p.peekAt(1).Kind {
	case token.Star, token.LParen, token.LBracket:
		return true
	}
	return false
}

func (p *Parser) parseParamList() ([]paramDecl, bool) {
	p.advance() // (
	if p.eat(token.RParen) {
		return nil, true
	}
	if p.at(token.KwVoid) && p.peekAt(1).Kind == token.RParen {
		p.advance()
		p.advance()
		return nil, true
	}

	var params []paramDecl
	for {
		if !p.peek().Kind.IsTypeSpecifier() {
			p.err(diag.SynExpectType, fmt.Sprintf("expected parameter type, got %s", describe(p.peek())))
			return nil, false
		}
		spec, ok := p.parseSpecifiers(false)
		if !ok {
			return nil, false
		}
		d, ok := p.parseDeclarator(true)
		if !ok {
			return nil, false
		}
		params = append(params, paramDecl{base: spec.base, decl: d})
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after parameters"); !ok {
		return nil, false
	}
	return params, true
}

func (p *Parser) parseArraySize() (int64, bool) {
	p.advance() // [
	tok := p.peek()
	if tok.Kind == token.FloatLit || !tok.Kind.IsLiteral() {
		p.err(diag.SynBadArraySize, "array size must be an integer constant")
		return 0, false
	}
	p.advance()
	n, err := strconv.ParseInt(strings.TrimRight(tok.Text, "uUlL"), 10, 64)
	if err != nil || n <= 0 {
		p.report(diag.SynBadArraySize, tok.Span, "array size must be positive")
		return 0, false
	}
	if _, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']'"); !ok {
		return 0, false
	}
	return n, true
}

// derive applies the declarator to base, innermost last.
func (p *Parser) derive(d *declarator, base *types.Type) (derived, bool) {
	switch d.kind {
	case declIdent:
		return derived{name: d.name, span: d.span, typ: base}, true
	case declPointer:
		return p.derive(d.inner, types.PointerTo(base))
	case declArray:
		return p.derive(d.inner, types.ArrayOf(base, d.size))
	}

	if d.inner.kind != declIdent || d.inner.name == "" {
		p.report(diag.SynBadDeclarator, d.span, "function pointers are not supported")
		return derived{}, false
	}
	if base.IsArray() {
		p.report(diag.SynBadDeclarator, d.span, "function cannot return an array")
		return derived{}, false
	}
	paramTypes := make([]*types.Type, 0, len(d.params))
	params := make([]ast.Param, 0, len(d.params))
	for _, prm := range d.params {
		pd, ok := p.derive(prm.decl, prm.base)
		if !ok {
			return derived{}, false
		}
		if pd.typ.IsFunction() {
			p.report(diag.SynBadDeclarator, prm.decl.span, "function parameters are not supported")
			return derived{}, false
		}
		if pd.typ.IsArray() {
			pd.typ = types.PointerTo(pd.typ.Elem)
		}
		paramTypes = append(paramTypes, pd.typ)
		params = append(params, ast.Param{Name: pd.name, Span: pd.span})
	}
	return derived{
		name:   d.inner.name,
		span:   d.inner.span,
		typ:    types.FuncOf(base, paramTypes...),
		params: params,
	}, true
}

// parseTypeName parses the "T *[3]" part of a cast.
func (p *Parser) parseTypeName() (*types.Type, bool) {
	spec, ok := p.parseSpecifiers(false)
	if !ok {
		return nil, false
	}
	d, ok := p.parseDeclarator(true)
	if !ok {
		return nil, false
	}
	dv, ok := p.derive(d, spec.base)
	if !ok {
		return nil, false
	}
	if dv.name != "" {
		p.report(diag.SynBadDeclarator, dv.span, "unexpected identifier in type name")
		return nil, false
	}
	return dv.typ, true
}

func (p *Parser) parseInitializer() (*ast.Initializer, bool) {
	start := p.peek().Span
	if !p.eat(token.LBrace) {
		e, ok := p.parseAssignment()
		if !ok {
			return nil, false
		}
		return &ast.Initializer{Kind: ast.InitSingle, Span: e.Span, Expr: e}, true
	}
	init := &ast.Initializer{Kind: ast.InitCompound}
	for !p.at(token.RBrace) {
		item, ok := p.parseInitializer()
		if !ok {
			return nil, false
		}
		init.Items = append(init.Items, item)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' after initializer list"); !ok {
		return nil, false
	}
	if len(init.Items) == 0 {
		p.report(diag.SynExpectExpression, p.spanFrom(start), "empty initializer list")
		return nil, false
	}
	init.Span = p.spanFrom(start)
	return init, true
}
