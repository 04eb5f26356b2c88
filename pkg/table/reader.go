package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// ip_from, ip_to, registry, assigned, iso2, iso3, country
	ipv4FromCol = 0
	ipv4ToCol   = 1
	ipv4ISO2Col = 4

	// ip_range, iso2, registry, assigned
	ipv6RangeCol = 0
	ipv6ISO2Col  = 1
)

type rowFunc func(rec []string, line int) (*Block, error)

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

// ReadIPv4 reads an IPv4 range table, keeps the rows with a mapped country
// and converts each range into a block. A single incompatible range fails the whole read.
func ReadIPv4(r io.Reader, m Mapping) ([]Block, *Stats, error) {
	return read(r, m, ipv4ISO2Col, func(rec []string, line int) (*Block, error) {
		from, err := parseIPv4Int(rec[ipv4FromCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid ip_from: %w", line, err)
		}
		to, err := parseIPv4Int(rec[ipv4ToCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid ip_to: %w", line, err)
		}
		addr, suffix, err := ConvertIPv4Range(from, to)
		if err != nil {
			return nil, err
		}
		b := NewBlock(addr, suffix, 0)
		return &b, nil
	})
}

// ReadIPv6 reads an IPv6 range table whose range column is already in address/prefix form.
func ReadIPv6(r io.Reader, m Mapping) ([]Block, *Stats, error) {
	return read(r, m, ipv6ISO2Col, func(rec []string, line int) (*Block, error) {
		addr, suffix, err := ConvertIPv6Range(rec[ipv6RangeCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		return &Block{Address: addr, Suffix: suffix}, nil
	})
}

func read(r io.Reader, m Mapping, iso2Col int, convert rowFunc) ([]Block, *Stats, error) {
	if r == nil {
		return nil, nil, errors.New("reader required")
	}

	cr := newCSVReader(r)
	st := &Stats{}
	list := make([]Block, 0)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error reading table: %w", err)
		}
		line, _ := cr.FieldPos(0)
		st.Rows++

		if len(rec) <= iso2Col {
			return nil, nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, iso2Col+1, len(rec))
		}

		score, ok := m.Score(strings.TrimSpace(rec[iso2Col]))
		if !ok {
			st.Unmapped++
			continue
		}

		b, err := convert(rec, line)
		if err != nil {
			return nil, nil, err
		}
		b.Score = score
		list = append(list, *b)
		st.Kept++
	}

	return list, st, nil
}

func parseIPv4Int(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
