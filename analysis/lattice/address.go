package lattice

import (
	"fmt"

	"github.com/cs-au-dk/semdiff/utils"
)

// Address identifies a heap location. User addresses are derived from a node
// id and the call trace that reached it and are non-negative; built-in
// objects live at negative addresses. Prop optionally names the variable or
// property the location was created for.
type Address struct {
	Base int64
	Prop string
}

func (a Address) Hash() uint32 {
	return utils.HashCombine(uint32(a.Base), uint32(a.Base>>32), utils.HashString(a.Prop))
}

func (a Address) Equal(o Address) bool {
	return a == o
}

// Less orders addresses by base, then property name.
func (a Address) Less(o Address) bool {
	if a.Base != o.Base {
		return a.Base < o.Base
	}
	return a.Prop < o.Prop
}

func (a Address) IsBuiltin() bool {
	return a.Base < 0
}

func (a Address) String() string {
	if a.Prop == "" {
		return colorize.Key(fmt.Sprintf("@%d", a.Base))
	}
	return colorize.Key(fmt.Sprintf("@%d", a.Base)) + "." + colorize.Field(a.Prop)
}
