package io

import (
	"errors"

	"github.com/ezrec/avrmc/translate"
)

var f = translate.From

var (
	// Intel HEX errors
	ErrHexStart    = errors.New(f("record does not start with ':'"))
	ErrHexLength   = errors.New(f("record length mismatch"))
	ErrHexChecksum = errors.New(f("record checksum mismatch"))
	ErrHexType     = errors.New(f("record type unsupported"))
	ErrHexEnd      = errors.New(f("missing end of file record"))
	ErrHexSize     = errors.New(f("image too large"))
)

// ErrHexSyntax locates an error in an Intel HEX file.
type ErrHexSyntax struct {
	LineNo int
	Err    error
}

func (err *ErrHexSyntax) Error() string {
	return f("hex line %d: %v", err.LineNo, err.Err)
}

func (err *ErrHexSyntax) Unwrap() error {
	return err.Err
}
