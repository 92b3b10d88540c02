// Package pinyin converts phonetic notation between tone-number style
// ("ni3 hao3") and tone-mark style ("nǐ hǎo") and derives the tone-less
// search key stored next to every dictionary record.
// Pure functions, no I/O.
package pinyin

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

type toneMark struct {
	base byte
	tone int
}

// toneMarks maps every tone-marked vowel glyph to its base letter and tone.
// ü without a mark is tone 0 and folds to "v".
var toneMarks = map[rune]toneMark{
	'ā': {'a', 1}, 'á': {'a', 2}, 'ǎ': {'a', 3}, 'à': {'a', 4},
	'ē': {'e', 1}, 'é': {'e', 2}, 'ě': {'e', 3}, 'è': {'e', 4},
	'ī': {'i', 1}, 'í': {'i', 2}, 'ǐ': {'i', 3}, 'ì': {'i', 4},
	'ō': {'o', 1}, 'ó': {'o', 2}, 'ǒ': {'o', 3}, 'ò': {'o', 4},
	'ū': {'u', 1}, 'ú': {'u', 2}, 'ǔ': {'u', 3}, 'ù': {'u', 4},
	'ǖ': {'v', 1}, 'ǘ': {'v', 2}, 'ǚ': {'v', 3}, 'ǜ': {'v', 4},
	'ü': {'v', 0},
}

// diacritics is the inverse of toneMarks for tones 1–4.
var diacritics = func() map[toneMark]string {
	m := make(map[toneMark]string, len(toneMarks))
	for r, tm := range toneMarks {
		if tm.tone != 0 {
			m[tm] = string(r)
		}
	}
	return m
}()

var (
	numberedSyllable = regexp.MustCompile(`(?i)^([a-zv:]+)([1-5])$`)
	toneDigits       = regexp.MustCompile(`[1-5]`)
)

const vowels = "aeiouv"

// Convert rewrites every whitespace-separated syllable of s into the given
// style. Whitespace runs collapse to a single space. Unknown styles behave
// like NotationNone.
func Convert(s string, style domain.NotationStyle) string {
	if s == "" {
		return s
	}

	tokens := strings.Fields(norm.NFC.String(s))
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		switch style {
		case domain.NotationNumbers:
			out[i] = ToNumbers(tok)
		case domain.NotationDiacritics:
			out[i] = ToDiacritics(tok)
		default:
			out[i] = tok
		}
	}
	return strings.Join(out, " ")
}

// ToNumbers converts one tone-marked syllable into tone-number style.
// Syllables that already carry a digit only get "u:"/"ü" folded to "v".
func ToNumbers(token string) string {
	if strings.ContainsAny(token, "0123456789") {
		return foldV(token)
	}

	var b strings.Builder
	b.Grow(len(token))
	tone := 0
	for _, r := range token {
		if tm, ok := toneMarks[r]; ok {
			b.WriteByte(tm.base)
			if tm.tone != 0 {
				tone = tm.tone
			}
			continue
		}
		b.WriteRune(r)
	}

	core := strings.ReplaceAll(b.String(), "u:", "v")
	if tone == 0 {
		return core
	}
	return core + string(rune('0'+tone))
}

// ToDiacritics converts one tone-number syllable ("hao3") into tone-mark
// style ("hǎo"). Tone 5 is neutral and gets no mark. Syllables that do not
// look like letters followed by a single tone digit only get "v" rendered as "ü".
func ToDiacritics(token string) string {
	m := numberedSyllable.FindStringSubmatch(token)
	if m == nil {
		return strings.ReplaceAll(token, "v", "ü")
	}

	body := strings.ReplaceAll(strings.ToLower(m[1]), "u:", "v")
	tone := int(m[2][0] - '0')
	if tone == 5 {
		return strings.ReplaceAll(body, "v", "ü")
	}

	idx := markIndex(body)
	if idx < 0 {
		return body
	}
	mark, ok := diacritics[toneMark{base: body[idx], tone: tone}]
	if !ok {
		return body
	}
	return body[:idx] + mark + body[idx+1:]
}

// markIndex picks the vowel that carries the tone mark: "a", then "e",
// then the "o" of "ou", otherwise the last vowel. Returns -1 when body has
// no vowel.
func markIndex(body string) int {
	if i := strings.IndexByte(body, 'a'); i >= 0 {
		return i
	}
	if i := strings.IndexByte(body, 'e'); i >= 0 {
		return i
	}
	if i := strings.Index(body, "ou"); i >= 0 {
		return i
	}
	return strings.LastIndexAny(body, vowels)
}

// SearchKey derives the lookup form of a notation string: tone-number
// style, lowercased, tone digits stripped, "u:"/"ü" folded to "v",
// whitespace collapsed. SearchKey(SearchKey(s)) == SearchKey(s).
func SearchKey(s string) string {
	if s == "" {
		return ""
	}

	tokens := strings.Fields(strings.ToLower(norm.NFC.String(s)))
	for i, tok := range tokens {
		tokens[i] = stripMarks(ToNumbers(tok))
	}

	key := strings.Join(tokens, " ")
	key = toneDigits.ReplaceAllString(key, "")
	key = foldV(key)
	return strings.Join(strings.Fields(key), " ")
}

// stripMarks replaces any tone-marked glyph left over (syllables that mixed
// marks and digits) by its base letter.
func stripMarks(s string) string {
	return strings.Map(func(r rune) rune {
		if tm, ok := toneMarks[r]; ok {
			return rune(tm.base)
		}
		return r
	}, s)
}

func foldV(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "u:", "v"), "ü", "v")
}
