package lattice

// Bool is the four-point boolean lattice. Its zero value is bottom.
type Bool uint8

const (
	BoolBot  Bool = 0
	BoolTrue Bool = 1 << (iota - 1)
	BoolFalse
	BoolTop = BoolTrue | BoolFalse
)

func BoolVal(b bool) Bool {
	if b {
		return BoolTrue
	}
	return BoolFalse
}

func (b Bool) Join(o Bool) Bool { return b | o }
func (b Bool) Leq(o Bool) bool  { return b&^o == 0 }

func (b Bool) IsBot() bool      { return b == BoolBot }
func (b Bool) IsTop() bool      { return b == BoolTop }
func (b Bool) MaybeTrue() bool  { return b&BoolTrue != 0 }
func (b Bool) MaybeFalse() bool { return b&BoolFalse != 0 }
func (b Bool) IsFalse() bool    { return b == BoolFalse }
func (b Bool) Truthy() Bool     { return b & BoolTrue }
func (b Bool) Falsy() Bool      { return b & BoolFalse }

// Not negates every represented boolean.
func (b Bool) Not() (res Bool) {
	if b.MaybeTrue() {
		res |= BoolFalse
	}
	if b.MaybeFalse() {
		res |= BoolTrue
	}
	return
}

func (b Bool) String() string {
	switch b {
	case BoolBot:
		return colorize.Element(botSym)
	case BoolTrue:
		return colorize.Const("true")
	case BoolFalse:
		return colorize.Const("false")
	}
	return colorize.Element(topSym)
}
