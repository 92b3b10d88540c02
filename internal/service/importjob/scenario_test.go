package importjob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/hanzi-backend/internal/app/importer"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// End-to-end runs through the real importer pipeline with an in-memory store.

func newScenarioService(t *testing.T, path string) (*Service, *mockEntryStore) {
	t.Helper()
	store := &mockEntryStore{}
	repo := &mockJobRepo{
		GetFileFunc: func(_ context.Context, id uuid.UUID) (*domain.UploadedFile, error) {
			return &domain.UploadedFile{ID: id, Path: path, Filename: filepath.Base(path)}, nil
		},
	}
	svc := newTestService(t, repo, importer.NewPipeline(discardLogger(), store), nil)
	return svc, store
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScenario_LexiconDedupeUnionsTags(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "cedict.u8", strings.Join([]string{
		"# CC-CEDICT",
		"你好 你好 [ni3 hao3] /hello/hi/",
		"broken line",
		"你好 你好 [ni3 hao3] /how are you/",
		"",
	}, "\n"))
	svc, store := newScenarioService(t, path)

	job, err := svc.Trigger(context.Background(), TriggerInput{
		FileID: uuid.New(),
		Format: domain.ImportFormatLexicon,
		Style:  domain.NotationNumbers,
		Dedupe: true,
	})
	require.NoError(t, err)

	got := waitTerminal(t, svc, job.ID)
	require.Equal(t, domain.JobStatusDone, got.Status, logMessages(got))
	assert.Equal(t, 2, *got.Stats.Parsed)
	assert.Equal(t, 1, *got.Stats.Skipped)
	assert.Equal(t, 1, *got.Stats.Deduped)
	assert.Equal(t, 1, *got.Stats.Inserted)

	_, written := store.snapshot()
	require.Len(t, written, 1)
	assert.Equal(t, "你好", written[0].Simplified)
	assert.Equal(t, "ni3 hao3", written[0].Pinyin)
	assert.Equal(t, "ni hao", written[0].PinyinNormalized)
	assert.Equal(t, []string{"hello", "hi", "how are you"}, written[0].Meanings)
}

func TestScenario_CSVBlankHeadwordSkipped(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "words.csv", "Hanzi,English\n好,good\n ,nothing\n")
	svc, store := newScenarioService(t, path)

	job, err := svc.Trigger(context.Background(), TriggerInput{
		FileID:  uuid.New(),
		Format:  domain.ImportFormatCSV,
		Mapping: &domain.CsvMapping{Simplified: "Hanzi", Meanings: "English"},
		Style:   domain.NotationNone,
	})
	require.NoError(t, err)

	got := waitTerminal(t, svc, job.ID)
	require.Equal(t, domain.JobStatusDone, got.Status, logMessages(got))
	assert.Equal(t, 1, *got.Stats.Parsed)
	assert.Equal(t, 1, *got.Stats.Skipped)

	_, written := store.snapshot()
	require.Len(t, written, 1)
	assert.Equal(t, "好", written[0].Simplified)
}

func TestScenario_CSVWithoutMappingFails(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "words.csv", "Hanzi\n好\n")
	svc, store := newScenarioService(t, path)

	job, err := svc.Trigger(context.Background(), TriggerInput{
		FileID: uuid.New(),
		Format: domain.ImportFormatCSV,
		Style:  domain.NotationNumbers,
	})
	require.NoError(t, err, "missing mapping is reported by the job, not the trigger")

	got := waitTerminal(t, svc, job.ID)
	assert.Equal(t, domain.JobStatusError, got.Status)
	assert.Equal(t, 5, got.Progress)

	last := got.Logs[len(got.Logs)-1]
	assert.Equal(t, domain.LogLevelError, last.Level)
	assert.Contains(t, last.Message, "csv mapping required")

	calls, written := store.snapshot()
	assert.Equal(t, 0, calls)
	assert.Empty(t, written)
	assert.Nil(t, got.Stats.Inserted)
}

func TestScenario_MissingFileFails(t *testing.T) {
	t.Parallel()

	svc, _ := newScenarioService(t, filepath.Join(t.TempDir(), "gone.u8"))

	job, err := svc.Trigger(context.Background(), TriggerInput{
		FileID: uuid.New(),
		Format: domain.ImportFormatLexicon,
		Style:  domain.NotationNumbers,
	})
	require.NoError(t, err)

	got := waitTerminal(t, svc, job.ID)
	assert.Equal(t, domain.JobStatusError, got.Status)
	assert.True(t, strings.HasPrefix(got.Logs[len(got.Logs)-1].Message, "import failed: "))
}
