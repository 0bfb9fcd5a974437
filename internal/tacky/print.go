package tacky

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

var convNames = map[InstrKind]string{
	SignExtend:   "sext",
	Truncate:     "trunc",
	ZeroExtend:   "zext",
	DoubleToInt:  "dtoi",
	DoubleToUInt: "dtou",
	IntToDouble:  "itod",
	UIntToDouble: "utod",
}

// FormatInstr renders one instruction in the textual form used by "mcc emit".
func FormatInstr(in Instr) string {
	switch in.Kind {
	case Return:
		return "return " + in.Src.String()
	case SignExtend, Truncate, ZeroExtend, DoubleToInt, DoubleToUInt, IntToDouble, UIntToDouble:
		return fmt.Sprintf("%s = %s %s", in.Dst, convNames[in.Kind], in.Src)
	case Unary:
		return fmt.Sprintf("%s = %s%s", in.Dst, in.Op, in.Src)
	case Binary, Compare:
		return fmt.Sprintf("%s = %s %s %s", in.Dst, in.Src, in.Op, in.Src2)
	case Copy:
		return fmt.Sprintf("%s = %s", in.Dst, in.Src)
	case GetAddress:
		return fmt.Sprintf("%s = &%s", in.Dst, in.Src)
	case Load:
		return fmt.Sprintf("%s = *%s", in.Dst, in.Src)
	case Store:
		return fmt.Sprintf("*%s = %s", in.Dst, in.Src)
	case AddPtr:
		return fmt.Sprintf("%s = addptr(%s, %s, %d)", in.Dst, in.Src, in.Src2, in.Scale)
	case CopyToOffset:
		return fmt.Sprintf("%s[+%d] = %s", in.Dst, in.Offset, in.Src)
	case Jump:
		return "jump " + in.Label
	case JumpIfZero:
		return fmt.Sprintf("jump_if_zero %s, %s", in.Src, in.Label)
	case JumpIfNotZero:
		return fmt.Sprintf("jump_if_not_zero %s, %s", in.Src, in.Label)
	case Label:
		return in.Label + ":"
	case Call:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("%s = call %s(%s)", in.Dst, in.Func, strings.Join(args, ", "))
	}
	return "<" + in.Kind.String() + ">"
}

// Print writes a program listing.
func Print(w io.Writer, p *Program) error {
	bw := bufio.NewWriter(w)
	for _, v := range p.StaticVars {
		fmt.Fprintf(bw, "%sstatic %s: %s = %s\n", visibility(v.Global), v.Name, v.Type, formatInits(v.Init))
	}
	for i, fn := range p.Functions {
		if i > 0 || len(p.StaticVars) > 0 {
			bw.WriteString("\n")
		}
		PrintFunction(bw, fn)
	}
	return bw.Flush()
}

// PrintFunction writes one function without flushing.
func PrintFunction(w io.Writer, fn *Function) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s %s", p.Type, p.Name)
	}
	marker := ""
	if fn.Invalid {
		marker = " (invalid)"
	}
	fmt.Fprintf(w, "%sfunction %s(%s)%s:\n", visibility(fn.Global), fn.Name, strings.Join(params, ", "), marker)
	for _, in := range fn.Body {
		if in.Kind == Label {
			fmt.Fprintf(w, "  %s\n", FormatInstr(in))
			continue
		}
		fmt.Fprintf(w, "    %s\n", FormatInstr(in))
	}
}

func visibility(global bool) string {
	if global {
		return "global "
	}
	return ""
}

func formatInits(inits []StaticInit) string {
	parts := make([]string, len(inits))
	for i, in := range inits {
		if in.Kind == InitZero {
			parts[i] = fmt.Sprintf("zero[%d]", in.Bytes)
			continue
		}
		parts[i] = in.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
