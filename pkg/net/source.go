package net

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// IsRemote reports whether src should be downloaded rather than opened from disk.
func IsRemote(src string) bool {
	s := strings.ToLower(src)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Open returns a reader over the table at src, which is either an http(s) URL
// or a local path. Gzip content is decompressed transparently.
func Open(ctx context.Context, src string, opts *Options) (io.ReadCloser, error) {
	if src == "" {
		return nil, errors.New("source required")
	}

	path := src
	s := &source{}

	if IsRemote(src) {
		f, err := os.CreateTemp("", "geocidr-*")
		if err != nil {
			return nil, fmt.Errorf("error creating temp file: %w", err)
		}
		path = f.Name()
		f.Close()
		s.closers = append(s.closers, func() error { return os.Remove(path) })

		slog.Debug("downloading", "url", src, "path", path)
		if err := Download(ctx, src, path, opts); err != nil {
			s.Close()
			return nil, fmt.Errorf("error downloading %s: %w", src, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("error opening file: %s: %w", path, err)
	}
	s.closers = append([]func() error{f.Close}, s.closers...)

	br := bufio.NewReader(f)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		s.Close()
		return nil, fmt.Errorf("error reading file: %s: %w", path, err)
	}

	if !bytes.Equal(head, gzipMagic) {
		s.Reader = br
		return s, nil
	}

	slog.Debug("decompressing", "src", src)
	gz, err := gzip.NewReader(br)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("error opening gzip stream: %s: %w", src, err)
	}
	s.Reader = gz
	s.closers = append([]func() error{gz.Close}, s.closers...)

	return s, nil
}

type source struct {
	io.Reader
	closers []func() error
}

func (s *source) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
