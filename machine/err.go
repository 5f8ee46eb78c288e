package machine

import (
	"errors"

	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/translate"
)

var f = translate.From

var (
	ErrDecode   = errors.New(f("decode failed"))
	ErrDataSize = errors.New(f("data memory smaller than the register file"))
)

// ErrHalted is returned by Clock when the machine halts. It is the designed
// termination of a branch rather than a failure.
type ErrHalted struct {
	Code abstract.Word // r25:r24 at the time of the halt.
}

func (err *ErrHalted) Error() string {
	return f("halted, exit code %v", err.Code)
}

// ErrUnknownAddress is an indirect access or control transfer through an
// Unknown pointer.
type ErrUnknownAddress struct {
	Pc      int
	Pointer string
}

func (err *ErrUnknownAddress) Error() string {
	return f("pc %v: unknown address in %v", translate.Hex(err.Pc), err.Pointer)
}

// ErrAddressRange is an access outside of the data or code memory.
type ErrAddressRange struct {
	Pc      int
	Address int
}

func (err *ErrAddressRange) Error() string {
	return f("pc %v: address %v out of range", translate.Hex(err.Pc), translate.Hex(err.Address))
}
