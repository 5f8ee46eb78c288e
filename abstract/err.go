package abstract

import (
	"errors"

	"github.com/ezrec/avrmc/translate"
)

var f = translate.From

var (
	// ErrConcretize is the panic value when an Unknown value is made concrete.
	ErrConcretize = errors.New(f("cannot concretize an unknown value"))
)
