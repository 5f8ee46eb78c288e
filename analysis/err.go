package analysis

import (
	"errors"

	"github.com/ezrec/avrmc/translate"
)

var f = translate.From

var (
	ErrFirmwareMissing = errors.New(f("no firmware loaded"))
	ErrFirmwareSize    = errors.New(f("firmware larger than flash"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int // Source line, or 0 if unknown.
	Ip     int // Flash word address, or -1 if unknown.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo > 0 {
		return f("line %d %v", err.LineNo, err.Err)
	}
	if err.Ip >= 0 {
		return f("ip %v %v", translate.Hex(err.Ip), err.Err)
	}
	return err.Err.Error()
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
