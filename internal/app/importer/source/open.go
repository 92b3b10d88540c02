// Package source opens raw dictionary files for the parsers: gzip inputs
// are decompressed transparently and a leading UTF-8 BOM is dropped.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Open returns a reader over the decoded contents of path. Errors wrap
// domain.ErrInputIO.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrInputIO, path, err)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return &file{Reader: skipBOM(f), closers: []io.Closer{f}}, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: gzip header %s: %w", domain.ErrInputIO, path, err)
	}
	return &file{Reader: skipBOM(zr), closers: []io.Closer{zr, f}}, nil
}

type file struct {
	io.Reader
	closers []io.Closer
}

func (f *file) Close() error {
	var first error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(utf8BOM))
	if bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
