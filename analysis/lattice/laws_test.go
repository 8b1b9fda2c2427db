package lattice

import (
	"fmt"
	"testing"
)

// checkLaws verifies that join is commutative, associative and idempotent
// over elems, that bot is its identity and that top absorbs.
func checkLaws[T fmt.Stringer](t *testing.T, elems []T, join func(a, b T) T, eq func(a, b T) bool, bot, top T) {
	t.Helper()
	for _, a := range elems {
		if res := join(a, a); !eq(res, a) {
			t.Errorf("%s ⊔ %s = %s, expected %s", a, a, res, a)
		}
		if res := join(a, bot); !eq(res, a) {
			t.Errorf("%s ⊔ ⊥ = %s, expected %s", a, res, a)
		}
		if res := join(a, top); !eq(res, top) {
			t.Errorf("%s ⊔ ⊤ = %s, expected ⊤", a, res)
		}
		for _, b := range elems {
			if ab, ba := join(a, b), join(b, a); !eq(ab, ba) {
				t.Errorf("%s ⊔ %s = %s, but %s ⊔ %s = %s", a, b, ab, b, a, ba)
			}
			for _, c := range elems {
				l, r := join(join(a, b), c), join(a, join(b, c))
				if !eq(l, r) {
					t.Errorf("(%s ⊔ %s) ⊔ %s = %s, but %s ⊔ (%s ⊔ %s) = %s", a, b, c, l, a, b, c, r)
				}
			}
		}
	}
}

func TestLatticeLaws(t *testing.T) {
	t.Run("Change", func(t *testing.T) {
		elems := []Change{ChangeBot, Unchanged, Changed, ChangeTop}
		checkLaws(t, elems, Change.Join, func(a, b Change) bool { return a == b }, ChangeBot, ChangeTop)
	})

	t.Run("Num", func(t *testing.T) {
		elems := []Num{
			NumBot(), NumTop(), NumVal("0"), NumVal("1"), NumVal("2"),
			NewNum(NNaN), NewNum(NZero), NewNum(NReal), NewNum(NNotZero), NewNum(NPosInf),
		}
		checkLaws(t, elems, Num.Join, Num.Eq, NumBot(), NumTop())
	})

	t.Run("Str", func(t *testing.T) {
		elems := []Str{
			StrBot(), StrTop(), StrBlank(), StrVal("1"), StrVal("valueOf"), StrVal("foo"), StrVal("bar"),
			NewStr(SNum), NewStr(SNotBlank), NewStr(SNotNumNorSpl),
		}
		checkLaws(t, elems, Str.Join, Str.Eq, StrBot(), StrTop())
	})

	t.Run("Bool", func(t *testing.T) {
		elems := []Bool{BoolBot, BoolTrue, BoolFalse, BoolTop}
		checkLaws(t, elems, Bool.Join, func(a, b Bool) bool { return a == b }, BoolBot, BoolTop)
	})

	t.Run("Addresses", func(t *testing.T) {
		a, b := Address{Base: 1}, Address{Base: 2, Prop: "x"}
		elems := []Addresses{AddrBot(), AddrTop(), AddrsOf(a), AddrsOf(b), AddrsOf(a, b)}
		checkLaws(t, elems, Addresses.Join, Addresses.Eq, AddrBot(), AddrTop())
	})

	t.Run("BValue", func(t *testing.T) {
		top := BValue{
			Str: StrTop(), Num: NumTop(), Bool: BoolTop, Null: NullTop, Undef: UndefTop,
			Addr: AddrTop(), Change: ChangeTop,
			Deps: DepsOf(Criterion{VALUE, 1}, Criterion{VALUE_CHANGE, 2}),
		}
		elems := []BValue{
			BValueBot(),
			top,
			InjectNum(NumVal("1"), Unchanged, DepsOf(Criterion{VALUE, 1})),
			InjectStr(StrVal("a"), Changed, DepsOf(Criterion{VALUE_CHANGE, 2})),
			InjectAddr(Address{Base: 3}, Unchanged, Dependencies{}),
			BValueTop(Changed, Dependencies{}),
		}
		checkLaws(t, elems, BValue.Join, BValue.Eq, BValueBot(), top)
	})
}
