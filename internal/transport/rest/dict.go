package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

type wordSearcher interface {
	Search(ctx context.Context, filter domain.DictWordFilter) ([]domain.DictWord, int, error)
}

// DictHandler serves dictionary lookups.
type DictHandler struct {
	words wordSearcher
	log   *slog.Logger
}

// NewDictHandler creates a DictHandler.
func NewDictHandler(words wordSearcher, logger *slog.Logger) *DictHandler {
	return &DictHandler{words: words, log: logger.With("handler", "dict")}
}

type dictWordResponse struct {
	ID               int64     `json:"id"`
	Simplified       string    `json:"simplified"`
	Traditional      *string   `json:"traditional,omitempty"`
	Pinyin           string    `json:"pinyin"`
	PinyinNormalized *string   `json:"pinyinNormalized,omitempty"`
	Meanings         []string  `json:"meanings"`
	Examples         []string  `json:"examples"`
	Tags             []string  `json:"tags"`
	HSKLevel         *int      `json:"hskLevel,omitempty"`
	PartOfSpeech     *string   `json:"partOfSpeech,omitempty"`
	Frequency        *float64  `json:"frequency,omitempty"`
	LastModified     time.Time `json:"lastModified"`
}

type searchResponse struct {
	Items []dictWordResponse `json:"items"`
	Total int                `json:"total"`
}

// Search handles GET /dict/search?q=&hsk=&pos=&limit=&offset=.
func (h *DictHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	words, total, err := h.words.Search(r.Context(), filter)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	items := make([]dictWordResponse, len(words))
	for i, word := range words {
		items[i] = dictWordResponse{
			ID:               word.ID,
			Simplified:       word.Simplified,
			Traditional:      word.Traditional,
			Pinyin:           word.Pinyin,
			PinyinNormalized: word.PinyinNormalized,
			Meanings:         word.Meanings,
			Examples:         word.Examples,
			Tags:             word.Tags,
			HSKLevel:         word.HSKLevel,
			PartOfSpeech:     word.PartOfSpeech,
			Frequency:        word.Frequency,
			LastModified:     word.LastModified,
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: total})
}

func parseSearchFilter(r *http.Request) (domain.DictWordFilter, error) {
	q := r.URL.Query()
	var errs []domain.FieldError

	filter := domain.DictWordFilter{Query: strings.TrimSpace(q.Get("q"))}

	if v := q.Get("hsk"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil || level < 1 || level > 9 {
			errs = append(errs, domain.FieldError{Field: "hsk", Message: "must be 1-9"})
		} else {
			filter.HSKLevel = &level
		}
	}
	if v := strings.TrimSpace(q.Get("pos")); v != "" {
		filter.PartOfSpeech = &v
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, domain.FieldError{Field: "limit", Message: "must be a non-negative integer"})
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, domain.FieldError{Field: "offset", Message: "must be a non-negative integer"})
		}
		filter.Offset = n
	}

	if len(errs) > 0 {
		return domain.DictWordFilter{}, domain.NewValidationErrors(errs)
	}
	return filter, nil
}
