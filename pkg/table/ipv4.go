package table

import (
	"fmt"
	"math/bits"

	"github.com/c-robinson/iplib"
)

// FormatIPv4 renders the integer address in dotted-quad notation, most significant octet first.
func FormatIPv4(v uint32) string {
	return iplib.Uint32ToIP4(v).String()
}

// ConvertIPv4Range converts an inclusive from-to range into its base address and
// the log2 of the range size. Ranges whose size is not a power of two are rejected.
func ConvertIPv4Range(from, to uint32) (address string, suffix int, err error) {
	if to < from {
		return "", 0, fmt.Errorf("%w %s-%s", ErrIncompatibleRange, FormatIPv4(from), FormatIPv4(to))
	}

	size := uint64(to) - uint64(from) + 1
	if size&(size-1) != 0 {
		return "", 0, fmt.Errorf("%w %s-%s", ErrIncompatibleRange, FormatIPv4(from), FormatIPv4(to))
	}

	return FormatIPv4(from), bits.TrailingZeros64(size), nil
}
