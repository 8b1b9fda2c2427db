package lattice

import (
	"strconv"
	"strings"
)

type strClass uint8

const (
	strBlank strClass = 1 << iota
	// Non-blank strings that parse as numbers (array indices, "1.5").
	strNumeric
	// Names of built-in properties (valueOf, toString, ...).
	strSpecial
	strOther

	strAll = strBlank | strNumeric | strSpecial | strOther
)

type StrTag uint8

const (
	SBot StrTag = iota
	SVal
	SBlank
	SNum
	SSpl
	SNotNumNorSpl
	SNotBlank
	SNotNum
	SNotSpl
	STop
)

var strTagClasses = map[StrTag]strClass{
	SBot:          0,
	SBlank:        strBlank,
	SNum:          strNumeric,
	SSpl:          strSpecial,
	SNotNumNorSpl: strBlank | strOther,
	SNotBlank:     strNumeric | strSpecial | strOther,
	SNotNum:       strBlank | strSpecial | strOther,
	SNotSpl:       strBlank | strNumeric | strOther,
	STop:          strAll,
}

var strTagNames = map[StrTag]string{
	SBot:          botSym,
	SBlank:        `""`,
	SNum:          "Str#",
	SSpl:          "StrSpl",
	SNotNumNorSpl: "¬(Str#|StrSpl)",
	SNotBlank:     `¬""`,
	SNotNum:       "¬Str#",
	SNotSpl:       "¬StrSpl",
	STop:          topSym,
}

var specialNames = map[string]bool{
	"valueOf":              true,
	"toString":             true,
	"toLocaleString":       true,
	"length":               true,
	"prototype":            true,
	"constructor":          true,
	"__proto__":            true,
	"hasOwnProperty":       true,
	"isPrototypeOf":        true,
	"propertyIsEnumerable": true,
	"apply":                true,
	"call":                 true,
	"bind":                 true,
}

// Str abstracts a JavaScript string as a set of string classes, optionally
// refined to a single known constant.
type Str struct {
	classes strClass
	val     string
	hasVal  bool
}

// NewStr builds an element from a tag. As for numbers, a constant must be
// given exactly when the tag is SVal.
func NewStr(tag StrTag, val ...string) Str {
	if tag == SVal {
		if len(val) != 1 {
			panic("lattice: a string value element requires exactly one constant")
		}
		return StrVal(val[0])
	}
	if len(val) != 0 {
		panic("lattice: constant supplied for non-value string element " + strTagNames[tag])
	}
	classes, ok := strTagClasses[tag]
	if !ok {
		panic(errPatternMatch(tag))
	}
	return Str{classes: classes}
}

func StrBot() Str   { return Str{} }
func StrTop() Str   { return Str{classes: strAll} }
func StrBlank() Str { return Str{classes: strBlank} }

func StrVal(s string) Str {
	return Str{classes: strClassOf(s), val: s, hasVal: true}
}

func strClassOf(s string) strClass {
	switch {
	case s == "":
		return strBlank
	case specialNames[s]:
		return strSpecial
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return strNumeric
	}
	return strOther
}

// StrLiteral abstracts a string literal. Only numeric and special strings
// keep their constant, since those are the ones that matter as property keys
// and array indices; other strings are abstracted to their class.
func StrLiteral(s string) Str {
	switch c := strClassOf(s); c {
	case strBlank:
		return StrBlank()
	default:
		return StrVal(s)
	}
}

func (s Str) Tag() StrTag {
	if s.hasVal {
		return SVal
	}
	best, bestSize := STop, 8
	for tag, classes := range strTagClasses {
		if s.classes&^classes == 0 {
			if size := popcount(numClass(classes)); size < bestSize || (size == bestSize && tag < best) {
				best, bestSize = tag, size
			}
		}
	}
	return best
}

func (s Str) Join(o Str) Str {
	switch {
	case s.IsBot():
		return o
	case o.IsBot():
		return s
	case s.hasVal && o.hasVal && s.val == o.val:
		return s
	}
	return Str{classes: s.classes | o.classes}
}

func (s Str) Leq(o Str) bool {
	return s.Join(o).Eq(o)
}

func (s Str) Eq(o Str) bool {
	return s == o
}

func (s Str) IsBot() bool { return s.classes == 0 }
func (s Str) IsTop() bool { return s.classes == strAll && !s.hasVal }

func (s Str) Value() (string, bool) {
	return s.val, s.hasVal
}

func (s Str) IsBlank() bool      { return s.classes == strBlank }
func (s Str) MaybeBlank() bool   { return s.classes&strBlank != 0 }
func (s Str) MaybeTruthy() bool  { return s.classes&^strBlank != 0 }
func (s Str) MaybeFalsy() bool   { return s.MaybeBlank() }
func (s Str) MaybeNumeric() bool { return s.classes&strNumeric != 0 }

func (s Str) restrict(keep strClass) Str {
	if s.classes&^keep == 0 {
		return s
	}
	return Str{classes: s.classes & keep}
}

func (s Str) Truthy() Str { return s.restrict(strAll &^ strBlank) }
func (s Str) Falsy() Str  { return s.restrict(strBlank) }

func (s Str) String() string {
	if s.hasVal {
		return colorize.Const(strconv.Quote(s.val))
	}
	if tag := s.Tag(); strTagClasses[tag] == s.classes {
		return colorize.Element(strTagNames[tag])
	}
	parts := []string{}
	for _, tag := range []StrTag{SBlank, SNum, SSpl} {
		if s.classes&strTagClasses[tag] != 0 {
			parts = append(parts, strTagNames[tag])
		}
	}
	if s.classes&strOther != 0 {
		parts = append(parts, "StrOther")
	}
	return colorize.Element(strings.Join(parts, "|"))
}
