// Package cedict parses line-oriented lexicon files in the CC-CEDICT layout:
//
//	TRADITIONAL SIMPLIFIED [pin1 yin1] /meaning one/meaning two/
//
// Comment lines start with '#'. Lines that do not match the layout are
// skipped and counted; they never fail the parse.
package cedict

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/heartmarshall/hanzi-backend/internal/app/importer/source"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

var linePattern = regexp.MustCompile(`^(\S+)\s+(\S+)\s+\[([^\]]+)\]\s+/(.+)/$`)

const maxLineSize = 1 << 20

// Stats summarises one parse.
type Stats struct {
	TotalLines   int
	CommentLines int
	Parsed       int
	Skipped      int
}

// Result is the outcome of a parse.
type Result struct {
	Entries []domain.DictEntry
	Stats   Stats
}

// ParseFile opens path (plain or .gz) and parses it.
func ParseFile(path string) (Result, error) {
	rc, err := source.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	return Parse(rc)
}

// Parse reads lexicon lines from r. Lines longer than maxLineSize are
// skipped like any other malformed line. Only read failures are returned
// as errors; they wrap domain.ErrInputIO.
func Parse(r io.Reader) (Result, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var res Result
	for {
		raw, tooLong, err := readLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: read lexicon line %d: %w", domain.ErrInputIO, res.Stats.TotalLines+1, err)
		}
		res.Stats.TotalLines++

		if tooLong {
			res.Stats.Skipped++
			continue
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			res.Stats.CommentLines++
			continue
		}

		entry, ok := ParseLine(line)
		if !ok {
			res.Stats.Skipped++
			continue
		}
		res.Entries = append(res.Entries, entry)
	}

	res.Stats.Parsed = len(res.Entries)
	return res, nil
}

// readLine returns the next line without its terminator. A line over
// maxLineSize is consumed in full but not buffered; tooLong reports it.
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, rerr := br.ReadLine()
		if rerr != nil {
			return "", false, rerr
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// ParseLine parses a single trimmed, non-comment line. ok is false when the
// line does not follow the lexicon layout.
func ParseLine(line string) (entry domain.DictEntry, ok bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return domain.DictEntry{}, false
	}

	var meanings []string
	for _, def := range strings.Split(m[4], "/") {
		if def != "" {
			meanings = append(meanings, def)
		}
	}

	return domain.DictEntry{
		Traditional: m[1],
		Simplified:  m[2],
		Pinyin:      m[3],
		Meanings:    meanings,
	}, true
}
