package dictword

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/hanzi-backend/internal/adapter/postgres"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/internal/pinyin"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var wordColumns = []string{
	"id", "simplified", "traditional", "pinyin", "pinyin_normalized",
	"meanings", "examples", "tags", "hsk_level", "pos", "frequency", "last_modified",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns one page of records matching filter plus the total number
// of matches. Query matches headword or alternate form by substring, and the
// tone-less search key of the query against the stored search key.
func (r *Repo) Search(ctx context.Context, filter domain.DictWordFilter) ([]domain.DictWord, int, error) {
	filter = normalizeFilter(filter)
	where := buildWhere(filter)

	countSQL, countArgs, err := psql.Select("count(*)").From("dict_words").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("dictword.Search: build count: %w", err)
	}

	listSQL, listArgs, err := psql.Select(wordColumns...).
		From("dict_words").
		Where(where).
		OrderBy("frequency DESC NULLS LAST", "hsk_level ASC NULLS LAST", "id ASC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("dictword.Search: build list: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("dictword.Search: count: %w", err)
	}

	rows, err := q.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("dictword.Search: query: %w", err)
	}
	defer rows.Close()

	words, err := scanWords(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("dictword.Search: %w", err)
	}

	return words, total, nil
}

// normalizeFilter applies defaults and clamps paging values.
func normalizeFilter(f domain.DictWordFilter) domain.DictWordFilter {
	f.Query = strings.TrimSpace(f.Query)
	if f.Limit <= 0 {
		f.Limit = DefaultSearchLimit
	}
	if f.Limit > MaxSearchLimit {
		f.Limit = MaxSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func buildWhere(f domain.DictWordFilter) sq.And {
	where := sq.And{}

	if f.Query != "" {
		like := "%" + likeEscaper.Replace(f.Query) + "%"
		match := sq.Or{
			sq.ILike{"simplified": like},
			sq.ILike{"traditional": like},
		}
		if key := pinyin.SearchKey(f.Query); key != "" {
			match = append(match, sq.ILike{"pinyin_normalized": "%" + likeEscaper.Replace(key) + "%"})
		}
		where = append(where, match)
	}
	if f.HSKLevel != nil {
		where = append(where, sq.Eq{"hsk_level": *f.HSKLevel})
	}
	if f.PartOfSpeech != nil {
		where = append(where, sq.Eq{"pos": *f.PartOfSpeech})
	}

	return where
}

func scanWords(rows pgx.Rows) ([]domain.DictWord, error) {
	words := []domain.DictWord{}
	for rows.Next() {
		var w domain.DictWord
		if err := rows.Scan(
			&w.ID, &w.Simplified, &w.Traditional, &w.Pinyin, &w.PinyinNormalized,
			&w.Meanings, &w.Examples, &w.Tags,
			&w.HSKLevel, &w.PartOfSpeech, &w.Frequency, &w.LastModified,
		); err != nil {
			return nil, fmt.Errorf("scan dict word: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dict words: %w", err)
	}
	return words, nil
}
