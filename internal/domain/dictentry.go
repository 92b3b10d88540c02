package domain

import (
	"strings"
	"time"
)

// DictEntry is a draft or normalized dictionary record flowing through the
// import pipeline. PinyinNormalized is derived from Pinyin by the normalizer
// and is never set independently.
type DictEntry struct {
	Simplified       string
	Traditional      string
	Pinyin           string
	PinyinNormalized string
	Meanings         []string
	Examples         []string
	Tags             []string
	HSKLevel         *int
	PartOfSpeech     *string
	Frequency        *float64
}

// Clone returns a deep copy so pipeline stages can return new values
// without sharing slices or pointers with their input.
func (e DictEntry) Clone() DictEntry {
	c := e
	c.Meanings = cloneStrings(e.Meanings)
	c.Examples = cloneStrings(e.Examples)
	c.Tags = cloneStrings(e.Tags)
	if e.HSKLevel != nil {
		v := *e.HSKLevel
		c.HSKLevel = &v
	}
	if e.PartOfSpeech != nil {
		v := *e.PartOfSpeech
		c.PartOfSpeech = &v
	}
	if e.Frequency != nil {
		v := *e.Frequency
		c.Frequency = &v
	}
	return c
}

// DedupeKey identifies entries that describe the same headword reading.
type DedupeKey struct {
	Simplified string
	Pinyin     string
}

// Key returns the dedupe key of a normalized entry.
func (e DictEntry) Key() DedupeKey {
	return DedupeKey{Simplified: e.Simplified, Pinyin: e.Pinyin}
}

// DictWord is a persisted dictionary record.
type DictWord struct {
	ID               int64
	Simplified       string
	Traditional      *string
	Pinyin           string
	PinyinNormalized *string
	Meanings         []string
	Examples         []string
	Tags             []string
	HSKLevel         *int
	PartOfSpeech     *string
	Frequency        *float64
	LastModified     time.Time
}

// DictWordFilter narrows a dictionary search.
type DictWordFilter struct {
	// Query matches headword, alternate form or the tone-less search key.
	Query        string
	HSKLevel     *int
	PartOfSpeech *string
	Limit        int
	Offset       int
}

// CsvMapping binds CSV header names to entry fields. Only Simplified is required.
type CsvMapping struct {
	Simplified   string `json:"simplified"`
	Traditional  string `json:"traditional,omitempty"`
	Pinyin       string `json:"pinyin,omitempty"`
	Meanings     string `json:"meanings,omitempty"`
	Examples     string `json:"examples,omitempty"`
	Tags         string `json:"tags,omitempty"`
	HSKLevel     string `json:"hsk_level,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	PartOfSpeech string `json:"part_of_speech,omitempty"`
}

// Validate checks that the headword column is bound.
func (m CsvMapping) Validate() error {
	if strings.TrimSpace(m.Simplified) == "" {
		return NewValidationError("csv_mapping.simplified", "required")
	}
	return nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
