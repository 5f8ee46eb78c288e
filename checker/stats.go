package checker

import (
	"slices"

	"golang.org/x/exp/maps"
)

// Stats counts the work done by one Apply.
type Stats struct {
	Steps      int // Instructions clocked.
	Forks      int // Successors split off on an Unknown bit.
	Halts      int // Branches ending in a halt.
	Duplicates int // Branches abandoned on a repeated state.
	Pruned     int // Branches dropped on a runtime failure.
	States     int // State snapshots stored.
	Peak       int // Greatest work-list depth.

	pcs map[int]bucket
}

// VisitedPCs lists the program counters reached, in ascending order.
func (st *Stats) VisitedPCs() (pcs []int) {
	pcs = maps.Keys(st.pcs)
	slices.Sort(pcs)
	return
}
