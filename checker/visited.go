package checker

import (
	"github.com/ezrec/avrmc/machine"
)

// bucket is the set of states recorded at one program counter, keyed by
// state hash.
type bucket map[uint64][]*machine.State

// visited records the states explored at each program counter.
//
// The first visit to a PC only leaves a nil marker. From the second visit
// on, snapshots of the states are kept and compared.
type visited struct {
	pcs    map[int]bucket
	states int
}

func newVisited() *visited {
	return &visited{pcs: make(map[int]bucket)}
}

// seen records 'state', and returns true if an equal state was already
// recorded at its program counter.
func (v *visited) seen(state *machine.State) bool {
	pc := state.PC()

	set, ok := v.pcs[pc]
	if !ok {
		v.pcs[pc] = nil
		return false
	}

	if set == nil {
		set = make(bucket)
		v.pcs[pc] = set
	}

	hash := state.Hash()
	for _, other := range set[hash] {
		if other.Equal(state) {
			return true
		}
	}

	set[hash] = append(set[hash], state.Clone())
	v.states++
	return false
}
