package table

import (
	"fmt"
	"strings"
)

// ConvertIPv6Range splits an already CIDR-encoded value into address and prefix.
// The prefix is the text between the first and second "/"; anything after a
// second "/" is ignored. Neither side is validated, the source encoding is trusted.
func ConvertIPv6Range(cidr string) (address, suffix string, err error) {
	address, rest, ok := strings.Cut(cidr, "/")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrMissingPrefix, cidr)
	}
	suffix, _, _ = strings.Cut(rest, "/")
	return address, suffix, nil
}
