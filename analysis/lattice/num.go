package lattice

import (
	"math"
	"strconv"
	"strings"
)

// numClass is a set of disjoint classes of JavaScript numbers.
type numClass uint8

const (
	numNaN numClass = 1 << iota
	numZero
	// Finite and non-zero.
	numFinite
	numPosInf
	numNegInf

	numAll = numNaN | numZero | numFinite | numPosInf | numNegInf
)

// NumTag names the elements of the number lattice used by the interpreter.
type NumTag uint8

const (
	NBot NumTag = iota
	NVal
	NZero
	NNaN
	NPosInf
	NNegInf
	NNaNZero
	NReal
	NNotZeroNorNaN
	NNotNaN
	NNotZero
	NTop
)

var numTagClasses = map[NumTag]numClass{
	NBot:           0,
	NZero:          numZero,
	NNaN:           numNaN,
	NPosInf:        numPosInf,
	NNegInf:        numNegInf,
	NNaNZero:       numNaN | numZero,
	NReal:          numZero | numFinite,
	NNotZeroNorNaN: numFinite | numPosInf | numNegInf,
	NNotNaN:        numZero | numFinite | numPosInf | numNegInf,
	NNotZero:       numNaN | numFinite | numPosInf | numNegInf,
	NTop:           numAll,
}

var numTagNames = map[NumTag]string{
	NBot:           botSym,
	NZero:          "0",
	NNaN:           "NaN",
	NPosInf:        "+∞",
	NNegInf:        "-∞",
	NNaNZero:       "NaN|0",
	NReal:          "ℝ",
	NNotZeroNorNaN: "¬(0|NaN)",
	NNotNaN:        "¬NaN",
	NNotZero:       "¬0",
	NTop:           topSym,
}

// Num abstracts a JavaScript number as a set of number classes, optionally
// refined to a single known constant. The constant, when present, belongs
// to the class set, and the set is then a singleton.
type Num struct {
	classes numClass
	val     string
	hasVal  bool
}

// NewNum builds an element from a tag. Passing a constant together with any
// tag other than NVal, or NVal without a constant, is a programming error.
func NewNum(tag NumTag, val ...string) Num {
	if tag == NVal {
		if len(val) != 1 {
			panic("lattice: a number value element requires exactly one constant")
		}
		return NumVal(val[0])
	}
	if len(val) != 0 {
		panic("lattice: constant supplied for non-value number element " + numTagNames[tag])
	}
	classes, ok := numTagClasses[tag]
	if !ok {
		panic(errPatternMatch(tag))
	}
	return Num{classes: classes}
}

func NumBot() Num { return Num{} }
func NumTop() Num { return Num{classes: numAll} }

// NumVal injects a numeric literal. The literal is normalized so that
// equal numbers written differently (1, 1.0, 0x1) share a constant.
func NumVal(lit string) Num {
	f, ok := parseNumber(lit)
	if !ok {
		return Num{classes: numNaN}
	}
	n := Num{classes: classOf(f), hasVal: true}
	n.val = formatNumber(f)
	return n
}

// NumFloat injects a concrete number.
func NumFloat(f float64) Num {
	return Num{classes: classOf(f), val: formatNumber(f), hasVal: true}
}

func classOf(f float64) numClass {
	switch {
	case math.IsNaN(f):
		return numNaN
	case math.IsInf(f, 1):
		return numPosInf
	case math.IsInf(f, -1):
		return numNegInf
	case f == 0:
		return numZero
	}
	return numFinite
}

func parseNumber(lit string) (float64, bool) {
	lit = strings.ReplaceAll(strings.TrimSpace(lit), "_", "")
	switch lit {
	case "":
		return 0, true
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	case "NaN":
		return math.NaN(), true
	}
	lower := strings.ToLower(lit)
	for prefix, base := range map[string]int{"0x": 16, "0o": 8, "0b": 2} {
		if strings.HasPrefix(lower, prefix) {
			i, err := strconv.ParseInt(lower[2:], base, 64)
			return float64(i), err == nil
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(lit, "n"), 64)
	return f, err == nil
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Tag returns the most precise named element above n.
func (n Num) Tag() NumTag {
	if n.hasVal {
		return NVal
	}
	best, bestSize := NTop, 8
	for tag, classes := range numTagClasses {
		if n.classes&^classes == 0 {
			if size := popcount(classes); size < bestSize || (size == bestSize && tag < best) {
				best, bestSize = tag, size
			}
		}
	}
	return best
}

func popcount(c numClass) (n int) {
	for ; c != 0; c &= c - 1 {
		n++
	}
	return
}

func (n Num) Join(o Num) Num {
	switch {
	case n.IsBot():
		return o
	case o.IsBot():
		return n
	case n.hasVal && o.hasVal && n.val == o.val:
		return n
	}
	return Num{classes: n.classes | o.classes}
}

func (n Num) Leq(o Num) bool {
	return n.Join(o).Eq(o)
}

func (n Num) Eq(o Num) bool {
	return n == o
}

func (n Num) IsBot() bool { return n.classes == 0 }
func (n Num) IsTop() bool { return n.classes == numAll && !n.hasVal }

// Value returns the constant, if known.
func (n Num) Value() (string, bool) {
	return n.val, n.hasVal
}

func (n Num) MaybeNaN() bool  { return n.classes&numNaN != 0 }
func (n Num) MaybeZero() bool { return n.classes&numZero != 0 }

// MaybeTruthy holds if some represented number converts to true.
func (n Num) MaybeTruthy() bool { return n.classes&^(numNaN|numZero) != 0 }

// MaybeFalsy holds if some represented number converts to false.
func (n Num) MaybeFalsy() bool { return n.MaybeNaN() || n.MaybeZero() }

func (n Num) IsZero() bool { return n.classes == numZero }
func (n Num) IsNaN() bool  { return n.classes == numNaN }

// restrict keeps only the given classes.
func (n Num) restrict(keep numClass) Num {
	if n.classes&^keep == 0 {
		return n
	}
	return Num{classes: n.classes & keep}
}

// Truthy refines n to the numbers that convert to true.
func (n Num) Truthy() Num { return n.restrict(numAll &^ (numNaN | numZero)) }

// Falsy refines n to the numbers that convert to false.
func (n Num) Falsy() Num { return n.restrict(numNaN | numZero) }

func (n Num) String() string {
	if n.hasVal {
		return colorize.Const(n.val)
	}
	if tag := n.Tag(); numTagClasses[tag] == n.classes {
		return colorize.Element(numTagNames[tag])
	}
	parts := []string{}
	for _, tag := range []NumTag{NNaN, NZero, NPosInf, NNegInf} {
		if n.classes&numTagClasses[tag] != 0 {
			parts = append(parts, numTagNames[tag])
		}
	}
	if n.classes&numFinite != 0 {
		parts = append(parts, "ℝ\\0")
	}
	return colorize.Element(strings.Join(parts, "|"))
}
