package abstract

// Bit is a ternary truth value.
type Bit uint8

const (
	False   = Bit(0) // 0
	True    = Bit(1) // 1
	Unknown = Bit(2) // ?
)

// BitOf converts a concrete boolean.
func BitOf(value bool) Bit {
	if value {
		return True
	}
	return False
}

// IsUnknown returns true for the Unknown bit.
func (b Bit) IsUnknown() bool {
	return b == Unknown
}

// String returns "0", "1" or "?".
func (b Bit) String() string {
	switch b {
	case False:
		return "0"
	case True:
		return "1"
	default:
		return "?"
	}
}

// And is False if any bit is False, else Unknown if any bit is Unknown, else True.
func And(bits ...Bit) (out Bit) {
	out = True
	for _, bit := range bits {
		switch bit {
		case False:
			return False
		case Unknown:
			out = Unknown
		}
	}
	return
}

// Or is True if any bit is True, else Unknown if any bit is Unknown, else False.
func Or(bits ...Bit) (out Bit) {
	out = False
	for _, bit := range bits {
		switch bit {
		case True:
			return True
		case Unknown:
			out = Unknown
		}
	}
	return
}

// Xor is Unknown if either bit is Unknown, else True iff the bits differ.
func Xor(lhs, rhs Bit) Bit {
	if lhs == Unknown || rhs == Unknown {
		return Unknown
	}
	return BitOf(lhs != rhs)
}

// Not negates a known bit; Unknown stays Unknown.
func Not(b Bit) Bit {
	switch b {
	case False:
		return True
	case True:
		return False
	default:
		return Unknown
	}
}
