package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	IntLit   // 42
	LongLit  // 42l
	UintLit  // 42u
	ULongLit // 42ul
	FloatLit // 1.5, 1e3

	KwInt
	KwLong
	KwUnsigned
	KwSigned
	KwDouble
	KwVoid
	KwStatic
	KwExtern
	KwReturn
	KwIf
	KwElse
	KwWhile
	KwDo
	KwFor
	KwBreak
	KwContinue
	KwSwitch
	KwCase
	KwDefault
	KwGoto

	Plus          // +
	Minus         // -
	Star          // *
	Slash         // /
	Percent       // %
	Tilde         // ~
	Bang          // !
	Amp           // &
	Pipe          // |
	Caret         // ^
	Shl           // <<
	Shr           // >>
	AndAnd        // &&
	OrOr          // ||
	EqEq          // ==
	BangEq        // !=
	Lt            // <
	LtEq          // <=
	Gt            // >
	GtEq          // >=
	Assign        // =
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	PercentAssign // %=
	AmpAssign     // &=
	PipeAssign    // |=
	CaretAssign   // ^=
	ShlAssign     // <<=
	ShrAssign     // >>=
	PlusPlus      // ++
	MinusMinus    // --
	Question      // ?
	Colon         // :
	Semicolon     // ;
	Comma         // ,
	LParen        // (
	RParen        // )
	LBrace        // {
	RBrace        // }
	LBracket      // [
	RBracket      // ]
)

var kindNames = [...]string{
	Invalid: "invalid",
	EOF:     "end of file",

	Ident:    "identifier",
	IntLit:   "integer constant",
	LongLit:  "long constant",
	UintLit:  "unsigned constant",
	ULongLit: "unsigned long constant",
	FloatLit: "floating constant",

	KwInt:      "int",
	KwLong:     "long",
	KwUnsigned: "unsigned",
	KwSigned:   "signed",
	KwDouble:   "double",
	KwVoid:     "void",
	KwStatic:   "static",
	KwExtern:   "extern",
	KwReturn:   "return",
	KwIf:       "if",
	KwElse:     "else",
	KwWhile:    "while",
	KwDo:       "do",
	KwFor:      "for",
	KwBreak:    "break",
	KwContinue: "continue",
	KwSwitch:   "switch",
	KwCase:     "case",
	KwDefault:  "default",
	KwGoto:     "goto",

	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
	Percent:       "%",
	Tilde:         "~",
	Bang:          "!",
	Amp:           "&",
	Pipe:          "|",
	Caret:         "^",
	Shl:           "<<",
	Shr:           ">>",
	AndAnd:        "&&",
	OrOr:          "||",
	EqEq:          "==",
	BangEq:        "!=",
	Lt:            "<",
	LtEq:          "<=",
	Gt:            ">",
	GtEq:          ">=",
	Assign:        "=",
	PlusAssign:    "+=",
	MinusAssign:   "-=",
	StarAssign:    "*=",
	SlashAssign:   "/=",
	PercentAssign: "%=",
	AmpAssign:     "&=",
	PipeAssign:    "|=",
	CaretAssign:   "^=",
	ShlAssign:     "<<=",
	ShrAssign:     ">>=",
	PlusPlus:      "++",
	MinusMinus:    "--",
	Question:      "?",
	Colon:         ":",
	Semicolon:     ";",
	Comma:         ",",
	LParen:        "(",
	RParen:        ")",
	LBrace:        "{",
	RBrace:        "}",
	LBracket:      "[",
	RBracket:      "]",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwInt && k <= KwGoto
}

// IsTypeSpecifier reports whether k can start a type.
func (k Kind) IsTypeSpecifier() bool {
	switch k {
	case KwInt, KwLong, KwUnsigned, KwSigned, KwDouble, KwVoid:
		return true
	}
	return false
}

// IsStorageClass reports whether k is static or extern.
func (k Kind) IsStorageClass() bool {
	return k == KwStatic || k == KwExtern
}

// IsAssign reports whether k is "=" or a compound assignment.
func (k Kind) IsAssign() bool {
	return k >= Assign && k <= ShrAssign
}

// IsLiteral reports whether k is a numeric constant.
func (k Kind) IsLiteral() bool {
	return k >= IntLit && k <= FloatLit
}
