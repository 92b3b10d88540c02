package importer

import (
	"slices"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// DedupeEntries merges entries sharing a (headword, notation) key. The first
// entry of each key survives and keeps its position; later ones contribute
// an alternate form or level, part of speech and frequency only where the
// survivor has none, and their meanings, examples and tags are unioned into
// sorted sets. Inputs are not mutated.
func DedupeEntries(entries []domain.DictEntry) []domain.DictEntry {
	index := make(map[domain.DedupeKey]int, len(entries))
	out := make([]domain.DictEntry, 0, len(entries))

	for _, e := range entries {
		key := e.Key()
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, e.Clone())
			continue
		}
		mergeInto(&out[i], e)
	}
	return out
}

func mergeInto(dst *domain.DictEntry, src domain.DictEntry) {
	if dst.Traditional == "" && src.Traditional != "" {
		dst.Traditional = src.Traditional
	}

	dst.Meanings = union(dst.Meanings, src.Meanings)
	dst.Examples = union(dst.Examples, src.Examples)
	dst.Tags = union(dst.Tags, src.Tags)

	if dst.HSKLevel == nil && src.HSKLevel != nil {
		v := *src.HSKLevel
		dst.HSKLevel = &v
	}
	if dst.PartOfSpeech == nil && src.PartOfSpeech != nil && *src.PartOfSpeech != "" {
		v := *src.PartOfSpeech
		dst.PartOfSpeech = &v
	}
	if dst.Frequency == nil && src.Frequency != nil {
		v := *src.Frequency
		dst.Frequency = &v
	}
}

// union returns the sorted distinct values of a and b in a new slice.
func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}
