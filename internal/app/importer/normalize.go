package importer

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/internal/pinyin"
)

var levelTag = regexp.MustCompile(`(?i)^hsk\s*([1-9])$`)

// NormalizeEntries returns normalized copies of entries; the input slice and
// its elements are left untouched. Notation is converted to style and the
// search key derived from the result. Tags become a sorted set, meanings and
// examples are trimmed with blanks dropped, and level, part of speech and
// frequency are backfilled from tags when unset.
func NormalizeEntries(entries []domain.DictEntry, style domain.NotationStyle) []domain.DictEntry {
	out := make([]domain.DictEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, normalizeEntry(e, style))
	}
	return out
}

func normalizeEntry(src domain.DictEntry, style domain.NotationStyle) domain.DictEntry {
	e := src.Clone()

	e.Pinyin = pinyin.Convert(e.Pinyin, style)
	e.PinyinNormalized = pinyin.SearchKey(e.Pinyin)
	e.Tags = sortedSet(e.Tags)
	e.Meanings = trimNonEmpty(e.Meanings)
	e.Examples = trimNonEmpty(e.Examples)

	if e.HSKLevel == nil {
		e.HSKLevel = levelFromTags(e.Tags)
	}
	if e.PartOfSpeech == nil {
		e.PartOfSpeech = posFromTags(e.Tags)
	}
	if e.Frequency == nil {
		e.Frequency = frequencyFromTags(e.Tags)
	}
	return e
}

// sortedSet trims values, drops blanks and returns the distinct values in
// ascending order.
func sortedSet(values []string) []string {
	out := trimNonEmpty(values)
	slices.Sort(out)
	return slices.Compact(out)
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// levelFromTags reads the first "hsk<N>" tag, case-insensitive, with
// optional whitespace before the digit.
func levelFromTags(tags []string) *int {
	for _, tag := range tags {
		if m := levelTag.FindStringSubmatch(strings.TrimSpace(tag)); m != nil {
			level := int(m[1][0] - '0')
			return &level
		}
	}
	return nil
}

// posFromTags reads the first "pos:<value>" tag with a non-blank value.
func posFromTags(tags []string) *string {
	for _, tag := range tags {
		value, ok := prefixedValue(tag, "pos:")
		if ok && value != "" {
			return &value
		}
	}
	return nil
}

// frequencyFromTags reads the first "freq:<value>" tag with a non-blank
// value. An unparsable value ends the scan with no frequency.
func frequencyFromTags(tags []string) *float64 {
	for _, tag := range tags {
		raw, ok := prefixedValue(tag, "freq:")
		if !ok || raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

// prefixedValue matches prefix case-insensitively and returns the trimmed
// text after the first colon.
func prefixedValue(tag, prefix string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(tag)), prefix) {
		return "", false
	}
	_, value, _ := strings.Cut(tag, ":")
	return strings.TrimSpace(value), true
}
