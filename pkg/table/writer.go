package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

const outputFileMode = 0644

// Header is the output column order.
var Header = []string{"ip_from", "cidr_suffix", "score"}

// WriteCSV writes the header and one row per block.
func WriteCSV(w io.Writer, blocks []Block) error {
	if w == nil {
		return errors.New("writer required")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	for _, b := range blocks {
		if err := cw.Write([]string{b.Address, b.Suffix, strconv.Itoa(b.Score)}); err != nil {
			return fmt.Errorf("error writing block %s/%s: %w", b.Address, b.Suffix, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("error flushing output: %w", err)
	}
	return nil
}

// WriteCSVFile writes the blocks to a temp file next to path and renames it into place.
func WriteCSVFile(path string, blocks []Block) (retErr error) {
	if path == "" {
		return errors.New("output path required")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".geocidr-*.csv")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := WriteCSV(tmp, blocks); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing temp file: %w", err)
	}

	if err := os.Chmod(tmp.Name(), outputFileMode); err != nil {
		return fmt.Errorf("error setting file mode: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing output file %s: %w", path, err)
	}

	return nil
}
