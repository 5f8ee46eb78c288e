package checker

import (
	"errors"

	"github.com/ezrec/avrmc/translate"
)

var f = translate.From

var (
	ErrBudget = errors.New(f("exploration budget exhausted"))
)
