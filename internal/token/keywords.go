package token

var keywords = map[string]Kind{
	"int":      KwInt,
	"long":     KwLong,
	"unsigned": KwUnsigned,
	"signed":   KwSigned,
	"double":   KwDouble,
	"void":     KwVoid,
	"static":   KwStatic,
	"extern":   KwExtern,
	"return":   KwReturn,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"do":       KwDo,
	"for":      KwFor,
	"break":    KwBreak,
	"continue": KwContinue,
	"switch":   KwSwitch,
	"case":     KwCase,
	"default":  KwDefault,
	"goto":     KwGoto,
}

// LookupKeyword returns the keyword kind for ident, or Ident.
func LookupKeyword(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}
