package tacky

import (
	"mcc/internal/types"
)

type ValKind uint8

const (
	ValConstant ValKind = iota
	ValPseudo           // function-local storage
	ValSymbol           // static storage, addressed by name
)

// Val is an instruction operand. Every value carries its C type.
type Val struct {
	Kind  ValKind
	Const types.Const `msgpack:",omitempty"`
	Name  string      `msgpack:",omitempty"`
	Type  *types.Type
}

func Constant(c types.Const) Val {
	return Val{Kind: ValConstant, Const: c, Type: c.Type()}
}

func Pseudo(name string, t *types.Type) Val {
	return Val{Kind: ValPseudo, Name: name, Type: t}
}

func Symbol(name string, t *types.Type) Val {
	return Val{Kind: ValSymbol, Name: name, Type: t}
}

func (v Val) IsConstant() bool { return v.Kind == ValConstant }

func (v Val) String() string {
	if v.Kind == ValConstant {
		return v.Const.String()
	}
	return v.Name
}
