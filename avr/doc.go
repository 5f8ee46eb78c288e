// Package avr implements the AVR instruction set as seen by the abstract
// interpreter: a decoder from flash words to instructions, the matching
// encoder, and a macro assembler producing flash images.
//
// Flash is addressed in 16-bit words, stored little-endian. Instructions are
// one word wide, except LDS, STS, JMP and CALL which carry a second word.
//
// The assembler accepts the usual AVR mnemonics, with operands separated by
// commas or spaces, and supports labels, equates, macros, data words and
// compile-time expressions.
package avr
