// Package internal holds iterator helpers shared by the avrmc packages.
package internal

import (
	"iter"
)

// Concat yields every value of 'seqs', in order.
func Concat[T any](seqs ...iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, seq := range seqs {
			for value := range seq {
				if !yield(value) {
					return
				}
			}
		}
	}
}

// Concat2 yields every pair of 'seqs', in order. Later sequences may
// repeat keys of earlier ones.
func Concat2[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}
