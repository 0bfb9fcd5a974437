package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	for word, want := range keywords {
		if got := LookupKeyword(word); got != want {
			t.Errorf("%s: want %v, got %v", word, want, got)
		}
		if !want.IsKeyword() {
			t.Errorf("%s must be a keyword", word)
		}
		if want.String() != word {
			t.Errorf("String of %s is %q", word, want.String())
		}
	}
	if got := LookupKeyword("main"); got != Ident {
		t.Fatalf("main must be an identifier, got %v", got)
	}
}

func TestAssignKinds(t *testing.T) {
	for _, k := range []Kind{Assign, PlusAssign, ShrAssign, PercentAssign} {
		if !k.IsAssign() {
			t.Errorf("%v must be an assignment", k)
		}
	}
	for _, k := range []Kind{EqEq, PlusPlus, Lt} {
		if k.IsAssign() {
			t.Errorf("%v is not an assignment", k)
		}
	}
}
