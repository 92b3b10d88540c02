package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// UniqueHeadword returns a headword no other test will produce, so tests
// sharing the container can filter on their own rows.
func UniqueHeadword(prefix string) string {
	return prefix + "-" + uniqueSuffix()
}

// SeedUploadedFile inserts an uploaded_files row pointing at path.
func SeedUploadedFile(t *testing.T, pool *pgxpool.Pool, path string) domain.UploadedFile {
	t.Helper()
	ctx := context.Background()

	f := domain.UploadedFile{
		ID:        uuid.New(),
		Path:      path,
		Filename:  "seed-" + uniqueSuffix() + ".u8",
		Size:      42,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO uploaded_files (id, path, filename, size, created_at) VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.Path, f.Filename, f.Size, f.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUploadedFile: %v", err)
	}
	return f
}

// SeedDictWord inserts a dict_words row directly and returns its id.
func SeedDictWord(t *testing.T, pool *pgxpool.Pool, simplified, pinyin, pinyinNormalized string, hsk *int) int64 {
	t.Helper()
	ctx := context.Background()

	meanings, _ := json.Marshal([]string{"seeded " + simplified})

	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO dict_words (simplified, pinyin, pinyin_normalized, meanings, hsk_level, last_modified)
		 VALUES ($1, $2, $3, $4, $5, now())
		 RETURNING id`,
		simplified, pinyin, pinyinNormalized, meanings, hsk,
	).Scan(&id)
	if err != nil {
		t.Fatalf("testhelper: SeedDictWord: %v", err)
	}
	return id
}
