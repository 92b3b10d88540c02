// Package csvdict parses arbitrary CSV dictionary exports using a
// caller-supplied column mapping.
package csvdict

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/heartmarshall/hanzi-backend/internal/app/importer/source"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

var (
	listSeparators = regexp.MustCompile(`[;|,]`)
	levelDigit     = regexp.MustCompile(`[1-9]`)
)

// Stats summarises one parse. Rows with a blank headword are counted in
// Skipped only.
type Stats struct {
	Rows    int
	Parsed  int
	Skipped int
}

// Result is the outcome of a parse.
type Result struct {
	Entries []domain.DictEntry
	Stats   Stats
}

// ParseFile opens path (plain or .gz) and parses it with mapping.
func ParseFile(path string, mapping domain.CsvMapping) (Result, error) {
	if err := mapping.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	rc, err := source.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	return Parse(rc, mapping)
}

// Parse reads a header row followed by data rows from r. A mapping without
// a headword column is a configuration error. Stray quotes are taken
// literally and a row the reader still rejects is counted in Skipped; only
// a failing underlying reader is an input error.
func Parse(r io.Reader, mapping domain.CsvMapping) (Result, error) {
	if err := mapping.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow ragged rows
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("%w: read header: %w", domain.ErrInputIO, err)
	}
	cols := bindHeader(header)

	var res Result
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			res.Stats.Rows++
			res.Stats.Skipped++
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: read row: %w", domain.ErrInputIO, err)
		}
		res.Stats.Rows++

		entry, ok := parseRow(row{record: record, cols: cols}, mapping)
		if !ok {
			res.Stats.Skipped++
			continue
		}
		res.Entries = append(res.Entries, entry)
	}

	res.Stats.Parsed = len(res.Entries)
	return res, nil
}

// bindHeader maps column names to indexes. A repeated name binds to its
// last occurrence.
func bindHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	return cols
}

type row struct {
	record []string
	cols   map[string]int
}

// get returns the raw cell under column name, or "" when the column is
// unmapped, unknown or missing from a short row.
func (r row) get(name string) string {
	if name == "" {
		return ""
	}
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return r.record[i]
}

func parseRow(r row, m domain.CsvMapping) (domain.DictEntry, bool) {
	simplified := strings.TrimSpace(r.get(m.Simplified))
	if simplified == "" {
		return domain.DictEntry{}, false
	}

	entry := domain.DictEntry{
		Simplified:  simplified,
		Traditional: strings.TrimSpace(r.get(m.Traditional)),
		Pinyin:      strings.TrimSpace(r.get(m.Pinyin)),
		Meanings:    SplitValues(r.get(m.Meanings)),
		Examples:    SplitValues(r.get(m.Examples)),
		Tags:        SplitValues(r.get(m.Tags)),
	}

	if m.HSKLevel != "" {
		entry.HSKLevel = parseLevel(r.get(m.HSKLevel))
	}
	if m.Frequency != "" {
		entry.Frequency = parseFrequency(r.get(m.Frequency))
	}
	if m.PartOfSpeech != "" {
		if pos := strings.TrimSpace(r.get(m.PartOfSpeech)); pos != "" {
			entry.PartOfSpeech = &pos
		}
	}

	return entry, true
}

// SplitValues splits a list cell on ';', '|' or ',' and drops empty tokens.
func SplitValues(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range listSeparators.Split(raw, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseLevel takes the first digit 1-9 anywhere in the cell ("HSK 3" -> 3).
func parseLevel(raw string) *int {
	d := levelDigit.FindString(strings.TrimSpace(raw))
	if d == "" {
		return nil
	}
	level := int(d[0] - '0')
	return &level
}

func parseFrequency(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
