package lattice

import "strings"

// BValue is the abstract value tuple: one element per primitive type, the
// set of addresses the value may point to, the change taint and the
// provenance of that taint. The zero value is ⊥ in every component.
type BValue struct {
	Str    Str
	Num    Num
	Bool   Bool
	Null   Null
	Undef  Undefined
	Addr   Addresses
	Change Change
	Deps   Dependencies
}

func BValueBot() BValue { return BValue{} }

// BValueTop is the unconstrained primitive value. Its address component is ⊥
// so that property writes through it do not clobber the whole heap.
func BValueTop(change Change, deps Dependencies) BValue {
	return BValue{
		Str:    StrTop(),
		Num:    NumTop(),
		Bool:   BoolTop,
		Null:   NullTop,
		Undef:  UndefTop,
		Change: change,
		Deps:   deps,
	}
}

// Dummy is the value synthesized for unresolved names and properties.
func Dummy(change Change, deps Dependencies) BValue {
	return BValueTop(change, deps)
}

func InjectStr(s Str, change Change, deps Dependencies) BValue {
	return BValue{Str: s, Change: change, Deps: deps}
}

func InjectNum(n Num, change Change, deps Dependencies) BValue {
	return BValue{Num: n, Change: change, Deps: deps}
}

func InjectBool(b Bool, change Change, deps Dependencies) BValue {
	return BValue{Bool: b, Change: change, Deps: deps}
}

func InjectNull(change Change, deps Dependencies) BValue {
	return BValue{Null: NullTop, Change: change, Deps: deps}
}

func InjectUndefined(change Change, deps Dependencies) BValue {
	return BValue{Undef: UndefTop, Change: change, Deps: deps}
}

func InjectAddrs(as Addresses, change Change, deps Dependencies) BValue {
	return BValue{Addr: as, Change: change, Deps: deps}
}

func InjectAddr(a Address, change Change, deps Dependencies) BValue {
	return InjectAddrs(AddrsOf(a), change, deps)
}

func (v BValue) Join(o BValue) BValue {
	return BValue{
		Str:    v.Str.Join(o.Str),
		Num:    v.Num.Join(o.Num),
		Bool:   v.Bool.Join(o.Bool),
		Null:   v.Null.Join(o.Null),
		Undef:  v.Undef.Join(o.Undef),
		Addr:   v.Addr.Join(o.Addr),
		Change: v.Change.Join(o.Change),
		Deps:   v.Deps.Join(o.Deps),
	}
}

func (v BValue) Leq(o BValue) bool {
	return v.Str.Leq(o.Str) &&
		v.Num.Leq(o.Num) &&
		v.Bool.Leq(o.Bool) &&
		v.Null.Leq(o.Null) &&
		v.Undef.Leq(o.Undef) &&
		v.Addr.Leq(o.Addr) &&
		v.Change.Leq(o.Change) &&
		v.Deps.Leq(o.Deps)
}

func (v BValue) Eq(o BValue) bool {
	return v.Str.Eq(o.Str) &&
		v.Num.Eq(o.Num) &&
		v.Bool == o.Bool &&
		v.Null == o.Null &&
		v.Undef == o.Undef &&
		v.Addr.Eq(o.Addr) &&
		v.Change == o.Change &&
		v.Deps.Eq(o.Deps)
}

// WithChange replaces the change taint.
func (v BValue) WithChange(c Change) BValue {
	v.Change = c
	return v
}

// WithDeps replaces the provenance.
func (v BValue) WithDeps(d Dependencies) BValue {
	v.Deps = d
	return v
}

// IsBot holds when no component carries a value. The taint and the
// provenance are not considered.
func (v BValue) IsBot() bool {
	return v.Str.IsBot() && v.Num.IsBot() && v.Bool.IsBot() &&
		v.Null.IsBot() && v.Undef.IsBot() && v.Addr.IsBot()
}

// only holds if pred holds and every other component, collected in rest, is ⊥.
func only(pred bool, rest BValue) bool {
	return pred && rest.IsBot()
}

func (v BValue) IsUndefined() bool {
	return only(v.Undef.IsTop(), BValue{Str: v.Str, Num: v.Num, Bool: v.Bool, Null: v.Null, Addr: v.Addr})
}

func (v BValue) IsNull() bool {
	return only(v.Null.IsTop(), BValue{Str: v.Str, Num: v.Num, Bool: v.Bool, Undef: v.Undef, Addr: v.Addr})
}

func (v BValue) IsBlank() bool {
	return only(v.Str.IsBlank(), BValue{Num: v.Num, Bool: v.Bool, Null: v.Null, Undef: v.Undef, Addr: v.Addr})
}

func (v BValue) IsNaN() bool {
	return only(v.Num.IsNaN(), BValue{Str: v.Str, Bool: v.Bool, Null: v.Null, Undef: v.Undef, Addr: v.Addr})
}

func (v BValue) IsZero() bool {
	return only(v.Num.IsZero(), BValue{Str: v.Str, Bool: v.Bool, Null: v.Null, Undef: v.Undef, Addr: v.Addr})
}

func (v BValue) IsFalse() bool {
	return only(v.Bool.IsFalse(), BValue{Str: v.Str, Num: v.Num, Null: v.Null, Undef: v.Undef, Addr: v.Addr})
}

// IsAddress holds if v is exactly one object.
func (v BValue) IsAddress() bool {
	_, ok := v.Addr.Singleton()
	return only(ok, BValue{Str: v.Str, Num: v.Num, Bool: v.Bool, Null: v.Null, Undef: v.Undef})
}

// MaybeTruthy holds if some represented value converts to true.
func (v BValue) MaybeTruthy() bool {
	return v.Str.MaybeTruthy() || v.Num.MaybeTruthy() || v.Bool.MaybeTrue() || !v.Addr.IsBot()
}

// MaybeFalsy holds if some represented value converts to false.
func (v BValue) MaybeFalsy() bool {
	return v.Str.MaybeFalsy() || v.Num.MaybeFalsy() || v.Bool.MaybeFalse() ||
		v.Null.IsTop() || v.Undef.IsTop()
}

// Truthy refines v to the values that convert to true.
func (v BValue) Truthy() BValue {
	v.Str = v.Str.Truthy()
	v.Num = v.Num.Truthy()
	v.Bool = v.Bool.Truthy()
	v.Null = NullBot
	v.Undef = UndefBot
	return v
}

// Falsy refines v to the values that convert to false.
func (v BValue) Falsy() BValue {
	v.Str = v.Str.Falsy()
	v.Num = v.Num.Falsy()
	v.Bool = v.Bool.Falsy()
	v.Addr = AddrBot()
	return v
}

func (v BValue) String() string {
	parts := []string{}
	add := func(bot bool, s string) {
		if !bot {
			parts = append(parts, s)
		}
	}
	add(v.Str.IsBot(), colorize.Field("str")+": "+v.Str.String())
	add(v.Num.IsBot(), colorize.Field("num")+": "+v.Num.String())
	add(v.Bool.IsBot(), colorize.Field("bool")+": "+v.Bool.String())
	add(v.Null.IsBot(), v.Null.String())
	add(v.Undef.IsBot(), v.Undef.String())
	add(v.Addr.IsBot(), colorize.Field("addr")+": "+v.Addr.String())
	if len(parts) == 0 {
		parts = append(parts, colorize.Element(botSym))
	}
	res := "⟨" + strings.Join(parts, ", ") + " | " + v.Change.String()
	if !v.Deps.IsEmpty() {
		res += " " + v.Deps.String()
	}
	return res + "⟩"
}
