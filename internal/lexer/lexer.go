package lexer

import (
	"mcc/internal/diag"
	"mcc/internal/source"
	"mcc/internal/token"
)

type Options struct {
	// Reporter may be nil; lexing continues after errors either way.
	Reporter diag.Reporter
	// MaxTokenLen rejects absurdly long identifiers and numbers; 0 means 4096.
	MaxTokenLen uint32
}

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token
}

func New(file *source.File, opts Options) *Lexer {
	if opts.MaxTokenLen == 0 {
		opts.MaxTokenLen = 4096
	}
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next returns the next significant token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.skipTrivia()
	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case isIdentStart(ch):
		tok = lx.scanIdentOrKeyword()
	case isDec(ch), ch == '.' && isDec(lx.cursor.PeekAt(1)):
		tok = lx.scanNumber()
	default:
		tok = lx.scanOperatorOrPunct()
	}
	if tok.Span.Len() > lx.opts.MaxTokenLen {
		lx.report(diag.LexTokenTooLong, tok.Span, "token exceeds maximum length")
		tok.Kind = token.Invalid
	}
	return tok
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// All lexes the whole file, EOF included.
func (lx *Lexer) All() []token.Token {
	var out []token.Token
	for {
		t := lx.Next()
		out = append(out, t)
		if t.Kind == token.EOF {
			return out
		}
	}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
}

// skipTrivia consumes whitespace, comments and preprocessor lines.
func (lx *Lexer) skipTrivia() {
	atLineStart := lx.cursor.Off == 0 || lx.file.Content[lx.cursor.Off-1] == '\n'
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch {
		case ch == '\n':
			lx.cursor.Bump()
			atLineStart = true
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v':
			lx.cursor.Bump()
		case ch == '#' && atLineStart:
			// left over by an external preprocessor (line markers); ignored
			lx.cursor.SkipLine()
		case lx.cursor.HasPrefix("//"):
			lx.cursor.SkipLine()
		case lx.cursor.HasPrefix("/*"):
			start := lx.cursor.Mark()
			lx.cursor.Off += 2
			if !lx.cursor.SkipPast("*/") {
				lx.report(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated block comment")
			}
			atLineStart = false
		default:
			return
		}
	}
}

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	for isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	text := lx.cursor.TextFrom(start)
	return token.Token{Kind: token.LookupKeyword(text), Span: lx.cursor.SpanFrom(start), Text: text}
}

// scanNumber accepts decimal integers with u/l suffixes and decimal floating
// constants with an optional exponent.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	isFloat := false
	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' {
		isFloat = true
		lx.cursor.Bump()
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}
	if ch := lx.cursor.Peek(); ch == 'e' || ch == 'E' {
		next := lx.cursor.PeekAt(1)
		if isDec(next) || ((next == '+' || next == '-') && isDec(lx.cursor.PeekAt(2))) {
			isFloat = true
			lx.cursor.Off += 2
			for isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		}
	}

	kind := token.FloatLit
	if !isFloat {
		kind = lx.integerSuffix()
	}

	// "123abc", "1.5.2", "1ul3" are malformed
	bad := false
	for isIdentContinue(lx.cursor.Peek()) || lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		bad = true
	}
	sp := lx.cursor.SpanFrom(start)
	if bad {
		lx.report(diag.LexBadNumber, sp, "malformed numeric constant '"+lx.cursor.TextFrom(start)+"'")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.cursor.TextFrom(start)}
	}
	return token.Token{Kind: kind, Span: sp, Text: lx.cursor.TextFrom(start)}
}

func (lx *Lexer) integerSuffix() token.Kind {
	isUnsigned, isLong := false, false
	for range 2 {
		switch lx.cursor.Peek() {
		case 'u', 'U':
			if isUnsigned {
				return token.Invalid
			}
			isUnsigned = true
			lx.cursor.Bump()
		case 'l', 'L':
			if isLong {
				return token.Invalid
			}
			isLong = true
			lx.cursor.Bump()
		}
	}
	switch {
	case isUnsigned && isLong:
		return token.ULongLit
	case isUnsigned:
		return token.UintLit
	case isLong:
		return token.LongLit
	}
	return token.IntLit
}

type opEntry struct {
	text string
	kind token.Kind
}

// longest first
var operators = []opEntry{
	{"<<=", token.ShlAssign}, {">>=", token.ShrAssign},
	{"++", token.PlusPlus}, {"--", token.MinusMinus},
	{"+=", token.PlusAssign}, {"-=", token.MinusAssign}, {"*=", token.StarAssign},
	{"/=", token.SlashAssign}, {"%=", token.PercentAssign}, {"&=", token.AmpAssign},
	{"|=", token.PipeAssign}, {"^=", token.CaretAssign},
	{"<<", token.Shl}, {">>", token.Shr}, {"&&", token.AndAnd}, {"||", token.OrOr},
	{"==", token.EqEq}, {"!=", token.BangEq}, {"<=", token.LtEq}, {">=", token.GtEq},
	{"+", token.Plus}, {"-", token.Minus}, {"*", token.Star}, {"/", token.Slash},
	{"%", token.Percent}, {"~", token.Tilde}, {"!", token.Bang}, {"&", token.Amp},
	{"|", token.Pipe}, {"^", token.Caret}, {"<", token.Lt}, {">", token.Gt},
	{"=", token.Assign}, {"?", token.Question}, {":", token.Colon}, {";", token.Semicolon},
	{",", token.Comma}, {"(", token.LParen}, {")", token.RParen}, {"{", token.LBrace},
	{"}", token.RBrace}, {"[", token.LBracket}, {"]", token.RBracket},
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	rest := lx.file.Content[lx.cursor.Off:lx.cursor.Limit]
	for _, op := range operators {
		if len(rest) >= len(op.text) && rest[:len(op.text)] == op.text {
			lx.cursor.Off += uint32(len(op.text)) // #nosec G115 -- operators are at most 3 bytes
			return token.Token{Kind: op.kind, Span: lx.cursor.SpanFrom(start), Text: op.text}
		}
	}
	ch := lx.cursor.Bump()
	sp := lx.cursor.SpanFrom(start)
	lx.report(diag.LexUnknownChar, sp, "unknown character '"+string(rune(ch))+"'")
	return token.Token{Kind: token.Invalid, Span: sp, Text: string(rune(ch))}
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDec(b)
}
