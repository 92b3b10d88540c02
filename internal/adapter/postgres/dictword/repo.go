// Package dictword implements dictionary record persistence and search
// using PostgreSQL. Writes use pgx.Batch; search queries are built with squirrel.
package dictword

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/hanzi-backend/internal/adapter/postgres"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

const defaultBatchSize = 500

// Repo provides dictionary record persistence backed by PostgreSQL.
type Repo struct {
	pool      *pgxpool.Pool
	txm       *postgres.TxManager
	batchSize int
}

// New creates a new dictionary repository. batchSize bounds the number of
// inserts queued per round trip; non-positive values use the default.
func New(pool *pgxpool.Pool, txm *postgres.TxManager, batchSize int) *Repo {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Repo{pool: pool, txm: txm, batchSize: batchSize}
}

// ---------------------------------------------------------------------------
// Write path
// ---------------------------------------------------------------------------

const insertSQL = `
INSERT INTO dict_words (
    simplified, traditional, pinyin, pinyin_normalized,
    meanings, examples, tags, hsk_level, pos, frequency, last_modified
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`

// Write stores entries in one transaction and returns the number of rows
// inserted. With replace, every existing record is deleted first. The pair is
// atomic for this call only; concurrent writers are not isolated from it.
// Errors wrap domain.ErrStore.
func (r *Repo) Write(ctx context.Context, entries []domain.DictEntry, replace bool) (int, error) {
	var inserted int

	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		if replace {
			if _, err := q.Exec(ctx, `DELETE FROM dict_words`); err != nil {
				return fmt.Errorf("delete existing: %w", err)
			}
		}

		n, err := batchProcess(entries, r.batchSize, func(batch []domain.DictEntry) (int, error) {
			return r.insertBatch(ctx, batch)
		})
		inserted = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: dictword.Write: %w", domain.ErrStore, err)
	}

	return inserted, nil
}

func (r *Repo) insertBatch(ctx context.Context, entries []domain.DictEntry) (int, error) {
	batch := &pgx.Batch{}
	for _, e := range entries {
		meanings, err := jsonArray(e.Meanings)
		if err != nil {
			return 0, fmt.Errorf("encode meanings of %q: %w", e.Simplified, err)
		}
		examples, err := jsonArray(e.Examples)
		if err != nil {
			return 0, fmt.Errorf("encode examples of %q: %w", e.Simplified, err)
		}
		tags, err := jsonArray(e.Tags)
		if err != nil {
			return 0, fmt.Errorf("encode tags of %q: %w", e.Simplified, err)
		}

		batch.Queue(insertSQL,
			e.Simplified,
			nullIfEmpty(e.Traditional),
			e.Pinyin,
			nullIfEmpty(e.PinyinNormalized),
			meanings, examples, tags,
			e.HSKLevel,
			e.PartOfSpeech,
			e.Frequency,
		)
	}

	return r.sendBatchExec(ctx, batch)
}

// sendBatchExec sends the batch and sums RowsAffected over its statements.
func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("batch exec: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// batchProcess splits items into chunks of batchSize and calls fn for each.
// Returns the sum of fn results; stops at the first error.
func batchProcess[T any](items []T, batchSize int, fn func([]T) (int, error)) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	total := 0
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		n, err := fn(items[i:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// jsonArray encodes values as a JSON array text, "[]" for nil. Order is kept.
func jsonArray(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ---------------------------------------------------------------------------
// Search index maintenance
// ---------------------------------------------------------------------------

const refreshSearchIndexSQL = `
UPDATE dict_words SET
    search_document =
        setweight(to_tsvector('simple', simplified), 'A') ||
        setweight(to_tsvector('simple', coalesce(traditional, '')), 'A') ||
        setweight(to_tsvector('simple', coalesce(pinyin_normalized, '')), 'B') ||
        setweight(to_tsvector('simple', pinyin), 'B') ||
        setweight(to_tsvector('english', coalesce(
            (SELECT string_agg(m, ' ') FROM jsonb_array_elements_text(meanings) AS m), ''
        )), 'C'),
    search_document_at = greatest(now(), last_modified)
WHERE search_document IS NULL
   OR search_document_at IS NULL
   OR search_document_at < last_modified`

// RefreshSearchIndex rebuilds the full-text document of every record that
// has none or whose document predates its last modification. Running it
// twice in a row updates nothing the second time.
func (r *Repo) RefreshSearchIndex(ctx context.Context) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, refreshSearchIndexSQL)
	if err != nil {
		return 0, fmt.Errorf("%w: dictword.RefreshSearchIndex: %w", domain.ErrStore, err)
	}
	return int(tag.RowsAffected()), nil
}

// Count returns the number of stored records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var n int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM dict_words`).Scan(&n); err != nil {
		return 0, fmt.Errorf("dictword.Count: %w", err)
	}
	return n, nil
}
