package lexer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcc/internal/diag"
	"mcc/internal/lexer"
	"mcc/internal/source"
	"mcc/internal/token"
)

func lex(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.c", src)
	bag := diag.NewBag(0)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx.All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexFunction(t *testing.T) {
	toks, bag := lex(t, "int main(void) {\n  return 2 + 2; // sum\n}\n")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	want := []token.Kind{
		token.KwInt, token.Ident, token.LParen, token.KwVoid, token.RParen, token.LBrace,
		token.KwReturn, token.IntLit, token.Plus, token.IntLit, token.Semicolon,
		token.RBrace, token.EOF,
	}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if toks[1].Text != "main" || toks[1].Span.Start != 4 || toks[1].Span.End != 8 {
		t.Fatalf("unexpected ident token %+v", toks[1])
	}
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		src  string
		kind token.Kind
	}{
		{"42", token.IntLit},
		{"42l", token.LongLit},
		{"42U", token.UintLit},
		{"42ul", token.ULongLit},
		{"42LU", token.ULongLit},
		{"1.5", token.FloatLit},
		{".5", token.FloatLit},
		{"1e10", token.FloatLit},
		{"1.", token.FloatLit},
		{"2E-3", token.FloatLit},
	}
	for _, tt := range tests {
		toks, bag := lex(t, tt.src)
		if bag.Len() != 0 {
			t.Errorf("%s: unexpected diagnostics %v", tt.src, bag.Items())
		}
		if toks[0].Kind != tt.kind || toks[0].Text != tt.src {
			t.Errorf("%s: got %v %q", tt.src, toks[0].Kind, toks[0].Text)
		}
	}
}

func TestLexMalformedNumber(t *testing.T) {
	toks, bag := lex(t, "int x = 12abc;")
	if toks[3].Kind != token.Invalid {
		t.Fatalf("expected invalid token, got %v", toks[3].Kind)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexBadNumber {
		t.Fatalf("expected one LexBadNumber, got %v", bag.Items())
	}
}

func TestLexOperatorsLongestMatch(t *testing.T) {
	toks, _ := lex(t, "a <<= b >> c-- && !d")
	want := []token.Kind{
		token.Ident, token.ShlAssign, token.Ident, token.Shr, token.Ident, token.MinusMinus,
		token.AndAnd, token.Bang, token.Ident, token.EOF,
	}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLexCommentsAndDirectives(t *testing.T) {
	toks, bag := lex(t, "# 1 \"main.c\"\n/* block\ncomment */ x /* tail")
	if diff := cmp.Diff([]token.Kind{token.Ident, token.EOF}, kinds(toks)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnterminatedBlockComment {
		t.Fatalf("expected unterminated comment, got %v", bag.Items())
	}
}

func TestLexUnknownChar(t *testing.T) {
	toks, bag := lex(t, "x @ y")
	if toks[1].Kind != token.Invalid {
		t.Fatalf("expected invalid token, got %v", toks[1].Kind)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnknownChar {
		t.Fatalf("expected LexUnknownChar, got %v", bag.Items())
	}
}
