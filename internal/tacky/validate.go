package tacky

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every error Validate returns.
var ErrMalformed = errors.New("malformed function")

// Validate checks the structural invariants code generation relies on. All
// violations are joined into one error.
func Validate(fn *Function) error {
	var errs []error
	fail := func(i int, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w %s: instr %d: %s", ErrMalformed, fn.Name, i, fmt.Sprintf(format, args...)))
	}

	if fn.Invalid {
		return fmt.Errorf("%w %s: marked invalid", ErrMalformed, fn.Name)
	}
	if len(fn.Body) == 0 || fn.Body[len(fn.Body)-1].Kind != Return {
		fail(len(fn.Body), "body does not end with Return")
	}

	labels := make(map[string]int)
	for i, in := range fn.Body {
		if in.Kind != Label {
			continue
		}
		if prev, dup := labels[in.Label]; dup {
			fail(i, "label %s already defined at %d", in.Label, prev)
			continue
		}
		labels[in.Label] = i
	}

	for i, in := range fn.Body {
		if in.IsJump() {
			if _, ok := labels[in.Label]; !ok {
				fail(i, "jump to undefined label %s", in.Label)
			}
		}
		switch in.Kind {
		case Unary:
			if !in.Op.IsUnary() {
				fail(i, "operator %s is not unary", in.Op)
			}
		case Binary:
			if in.Op.IsUnary() || in.Op.IsComparison() {
				fail(i, "operator %s is not arithmetic", in.Op)
			}
		case Compare:
			if !in.Op.IsComparison() {
				fail(i, "operator %s is not a comparison", in.Op)
			}
		case AddPtr:
			if in.Scale <= 0 {
				fail(i, "non-positive scale %d", in.Scale)
			}
		}
		if in.Defines() && in.Dst.Kind == ValConstant {
			fail(i, "%s writes a constant", in.Kind)
		}
		for _, v := range operands(in) {
			if v.Type == nil {
				fail(i, "untyped operand %s", v)
			}
		}
	}
	return errors.Join(errs...)
}

// operands lists every value the instruction mentions.
func operands(in Instr) []Val {
	switch in.Kind {
	case Return, JumpIfZero, JumpIfNotZero:
		return []Val{in.Src}
	case Jump, Label:
		return nil
	case Binary, Compare, AddPtr:
		return []Val{in.Src, in.Src2, in.Dst}
	case Call:
		return append([]Val{in.Dst}, in.Args...)
	}
	return []Val{in.Src, in.Dst}
}
