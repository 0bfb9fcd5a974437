package parser

import (
	"slices"

	"mcc/internal/ast"
	"mcc/internal/diag"
	"mcc/internal/lexer"
	"mcc/internal/source"
	"mcc/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough reports whether the error limit was reached.
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// Parser holds the state for one file.
type Parser struct {
	toks     []token.Token
	pos      int
	file     *source.File
	opts     Options
	lastSpan source.Span // span of the last consumed token
}

// ParseFile parses file into a translation unit. Syntax errors are reported
// through opts.Reporter; the returned tree contains every declaration that
// could be recovered.
func ParseFile(file *source.File, opts Options) *ast.TranslationUnit {
	p := &Parser{
		toks:     lexer.New(file, lexer.Options{Reporter: opts.Reporter}).All(),
		file:     file,
		opts:     opts,
		lastSpan: source.Span{File: file.ID},
	}
	tu := &ast.TranslationUnit{File: file.ID}
	for !p.at(token.EOF) {
		if p.opts.Enough() {
			break
		}
		decls, ok := p.parseDeclaration(true)
		if !ok {
			p.resyncTop()
			continue
		}
		tu.Decls = append(tu.Decls, decls...)
	}
	return tu
}

// peek returns the next unconsumed token.
func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

// peekAt looks n tokens ahead; past the end it yields EOF.
func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atAny(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

// atDeclStart reports whether the next token begins a declaration.
func (p *Parser) atDeclStart() bool {
	k := p.peek().Kind
	return k.IsTypeSpecifier() || k.IsStorageClass()
}

// resyncTop skips to the end of the broken declaration: past ';', past a
// balanced '{ }' block, or up to the next declaration start.
func (p *Parser) resyncTop() {
	depth := 0
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.Semicolon:
			p.advance()
			if depth == 0 {
				return
			}
		case token.LBrace:
			depth++
			p.advance()
		case token.RBrace:
			p.advance()
			if depth--; depth <= 0 {
				return
			}
		default:
			if depth == 0 && p.atDeclStart() {
				return
			}
			p.advance()
		}
	}
}

// resyncStmt skips to the end of the broken statement without leaving the block.
func (p *Parser) resyncStmt() {
	for !p.atAny(token.EOF, token.RBrace) {
		if p.advance().Kind == token.Semicolon {
			return
		}
	}
}
