package types

import (
	"math"
	"testing"
)

func TestSizes(t *testing.T) {
	tests := []struct {
		typ   *Type
		size  int64
		align int64
	}{
		{IntType, 4, 4},
		{ULongType, 8, 8},
		{PointerTo(IntType), 8, 8},
		{ArrayOf(ArrayOf(IntType, 3), 2), 24, 4},
		{ArrayOf(DoubleType, 5), 40, 8},
	}
	for _, tt := range tests {
		if got := tt.typ.Size(); got != tt.size {
			t.Errorf("%s: size %d, want %d", tt.typ, got, tt.size)
		}
		if got := tt.typ.Align(); got != tt.align {
			t.Errorf("%s: align %d, want %d", tt.typ, got, tt.align)
		}
	}
}

func TestCommon(t *testing.T) {
	tests := []struct {
		a, b, want *Type
	}{
		{IntType, IntType, IntType},
		{IntType, LongType, LongType},
		{IntType, UIntType, UIntType},
		{UIntType, LongType, LongType},
		{LongType, ULongType, ULongType},
		{ULongType, DoubleType, DoubleType},
	}
	for _, tt := range tests {
		if got := Common(tt.a, tt.b); !Equal(got, tt.want) {
			t.Errorf("Common(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	fn := FuncOf(IntType, PointerTo(LongType), ArrayOf(DoubleType, 3))
	if got := fn.String(); got != "int(long *, double[3])" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FuncOf(IntType).String(); got != "int(void)" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestConstConvert(t *testing.T) {
	tests := []struct {
		name string
		in   Const
		to   Kind
		want Const
	}{
		{"long truncates to int", IntConst(Long, 4294967298), Int, IntConst(Int, 2)},
		{"negative int to unsigned", IntConst(Int, -1), UInt, Const{Kind: UInt, Int: 4294967295}},
		{"unsigned int zero-extends", Const{Kind: UInt, Int: 4294967295}, Long, IntConst(Long, 4294967295)},
		{"int sign-extends", IntConst(Int, -5), Long, IntConst(Long, -5)},
		{"double truncates toward zero", DoubleConst(-2.9), Int, IntConst(Int, -2)},
		{"large ulong to double", Const{Kind: ULong, Int: -1}, Double, DoubleConst(float64(uint64(math.MaxUint64)))},
		{"int to double", IntConst(Int, 7), Double, DoubleConst(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Convert(tt.to); got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConstString(t *testing.T) {
	for c, want := range map[Const]string{
		IntConst(Int, -3):         "-3",
		IntConst(Long, 3):         "3l",
		IntConst(UInt, 3):         "3u",
		{Kind: ULong, Int: -1}:    "18446744073709551615ul",
		DoubleConst(2):            "2.0",
		DoubleConst(0.5):          "0.5",
		DoubleConst(math.Inf(1)):  "+Inf",
	} {
		if got := c.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
