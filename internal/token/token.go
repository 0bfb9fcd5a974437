package token

import (
	"mcc/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

func (t Token) Is(k Kind) bool { return t.Kind == k }

func (t Token) IsIdent() bool { return t.Kind == Ident }
