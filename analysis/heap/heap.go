// Package heap models the abstract memory of the interpreter: a store
// mapping addresses to values and objects, and environments mapping names to
// variable bindings. Stores and environments are persistent; every update
// returns a new value and leaves the receiver untouched.
package heap

import (
	"github.com/cs-au-dk/semdiff/analysis/lattice"
	"github.com/cs-au-dk/semdiff/utils"
	"github.com/cs-au-dk/semdiff/utils/tree"
)

var addressHasher = utils.HashableHasher[lattice.Address]()

func newAddressTree[V any]() tree.Tree[lattice.Address, V] {
	return tree.NewTree[lattice.Address, V](addressHasher)
}

func newNameTree[V any]() tree.Tree[string, V] {
	return tree.NewTree[string, V](utils.StringHasher{})
}
