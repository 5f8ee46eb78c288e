// Package checker explores every reachable state of an abstract AVR
// machine, folding a property over the states it visits.
//
// Exploration keeps a LIFO work-list of pending states. Each popped state is
// clocked until it forks, halts, or repeats a state already seen at the same
// program counter. Forked successors are pushed back onto the work-list.
package checker
