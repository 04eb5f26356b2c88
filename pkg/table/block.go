package table

import (
	"errors"
	"strconv"
)

var (
	// ErrIncompatibleRange is returned when an IPv4 range does not span a power-of-two number of addresses.
	ErrIncompatibleRange = errors.New("incompatible IP range")

	// ErrMissingPrefix is returned when an IPv6 range value has no "/" separator.
	ErrMissingPrefix = errors.New("missing CIDR prefix")
)

// Block is a single output row: base address, CIDR suffix and score.
type Block struct {
	Address string `json:"ip_from" yaml:"address"`
	Suffix  string `json:"cidr_suffix" yaml:"suffix"`
	Score   int    `json:"score" yaml:"score"`
}

// NewBlock creates a block with a numeric suffix.
func NewBlock(address string, suffix, score int) Block {
	return Block{
		Address: address,
		Suffix:  strconv.Itoa(suffix),
		Score:   score,
	}
}

// Mapping maps two-letter country codes to scores.
type Mapping map[string]int

// Score returns the score for the iso2 code and whether the code is mapped.
func (m Mapping) Score(iso2 string) (int, bool) {
	if m == nil {
		return 0, false
	}
	s, ok := m[iso2]
	return s, ok
}

// Stats summarizes a single table read.
type Stats struct {
	Rows     int `json:"rows"`
	Kept     int `json:"kept"`
	Unmapped int `json:"unmapped"`
}

// FixedBlocks returns the blocks that are always written after the table rows,
// whatever the mapping: the loopback range.
func FixedBlocks() []Block {
	return []Block{
		NewBlock("127.0.0.0", 24, 0),
	}
}

// Assemble concatenates IPv4, IPv6 and additional blocks in that order.
func Assemble(v4, v6, extra []Block) []Block {
	list := make([]Block, 0, len(v4)+len(v6)+len(extra))
	list = append(list, v4...)
	list = append(list, v6...)
	list = append(list, extra...)
	return list
}
