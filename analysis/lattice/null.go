package lattice

// Null is the two-point lattice for the null type: ⊤ means the value may be
// null, ⊥ that it is definitely not.
type Null bool

const (
	NullBot Null = false
	NullTop Null = true
)

func (n Null) Join(o Null) Null { return n || o }
func (n Null) Leq(o Null) bool  { return !bool(n) || bool(o) }
func (n Null) IsBot() bool      { return !bool(n) }
func (n Null) IsTop() bool      { return bool(n) }

func (n Null) String() string {
	if n {
		return colorize.Const("null")
	}
	return colorize.Element(botSym)
}

// Undefined is the two-point lattice for the undefined type.
type Undefined bool

const (
	UndefBot Undefined = false
	UndefTop Undefined = true
)

func (u Undefined) Join(o Undefined) Undefined { return u || o }
func (u Undefined) Leq(o Undefined) bool       { return !bool(u) || bool(o) }
func (u Undefined) IsBot() bool                { return !bool(u) }
func (u Undefined) IsTop() bool                { return bool(u) }

func (u Undefined) String() string {
	if u {
		return colorize.Const("undefined")
	}
	return colorize.Element(botSym)
}
