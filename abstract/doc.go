// Package abstract implements the three-valued value domain of the abstract
// AVR machine.
//
// A Bit is True, False or Unknown. A Byte is either a concrete 8-bit value or
// wholly Unknown; there is no partially known byte, although individual bits
// of a concrete byte may be read. A Word pairs two bytes into a 16-bit address
// sized value. Memory is a fixed size array of Bytes with strict equality,
// where Unknown only equals Unknown.
package abstract
