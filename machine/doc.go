// Package machine implements an abstract AVR machine state and its
// single-step interpreter.
//
// Every data byte and status flag may be concretely known or Unknown. When an
// instruction's control flow depends on an Unknown value, Clock resolves it
// both ways: the receiver continues with one resolution and a forked copy
// carries the other.
//
// Data memory holds the register file at 0x00-0x1F and the I/O space from
// 0x20. The stack pointer lives at SPL/SPH (0x5D/0x5E). SREG is kept as a
// vector of flags, and is visible at data address 0x5F and I/O address 0x3F.
package machine
