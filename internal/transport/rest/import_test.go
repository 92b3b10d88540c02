package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/internal/service/importjob"
)

type importServiceMock struct {
	RegisterFileFunc func(ctx context.Context, filename string, r io.Reader) (*domain.UploadedFile, error)
	TriggerFunc      func(ctx context.Context, input importjob.TriggerInput) (*domain.ImportJob, error)
	StatusFunc       func(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)
}

func (m *importServiceMock) RegisterFile(ctx context.Context, filename string, r io.Reader) (*domain.UploadedFile, error) {
	return m.RegisterFileFunc(ctx, filename, r)
}

func (m *importServiceMock) Trigger(ctx context.Context, input importjob.TriggerInput) (*domain.ImportJob, error) {
	return m.TriggerFunc(ctx, input)
}

func (m *importServiceMock) Status(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	return m.StatusFunc(ctx, id)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// ---------------------------------------------------------------------------
// Upload
// ---------------------------------------------------------------------------

func TestImportHandler_Upload(t *testing.T) {
	t.Parallel()

	fileID := uuid.New()
	var gotName, gotContent string
	svc := &importServiceMock{
		RegisterFileFunc: func(_ context.Context, filename string, r io.Reader) (*domain.UploadedFile, error) {
			gotName = filename
			b, _ := io.ReadAll(r)
			gotContent = string(b)
			return &domain.UploadedFile{ID: fileID, Filename: filename, Size: int64(len(b))}, nil
		},
	}
	h := NewImportHandler(svc, 1<<20, testLogger())

	body, ct := multipartBody(t, "file", "cedict.u8", "好 好 [hao3] /good/\n")
	req := httptest.NewRequest(http.MethodPost, "/admin/import/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp uploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fileID.String(), resp.FileID)
	assert.Equal(t, "cedict.u8", resp.Filename)
	assert.Equal(t, int64(len("好 好 [hao3] /good/\n")), resp.Size)
	assert.Equal(t, "cedict.u8", gotName)
	assert.Equal(t, "好 好 [hao3] /good/\n", gotContent)
}

func TestImportHandler_Upload_MissingFile(t *testing.T) {
	t.Parallel()

	h := NewImportHandler(&importServiceMock{}, 1<<20, testLogger())

	body, ct := multipartBody(t, "other", "cedict.u8", "x")
	req := httptest.NewRequest(http.MethodPost, "/admin/import/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportHandler_Upload_TooLarge(t *testing.T) {
	t.Parallel()

	h := NewImportHandler(&importServiceMock{}, 64, testLogger())

	body, ct := multipartBody(t, "file", "big.u8", strings.Repeat("x", 4096))
	req := httptest.NewRequest(http.MethodPost, "/admin/import/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// ---------------------------------------------------------------------------
// Trigger
// ---------------------------------------------------------------------------

func TestImportHandler_Trigger(t *testing.T) {
	t.Parallel()

	fileID := uuid.New()
	jobID := uuid.New()
	var got importjob.TriggerInput
	svc := &importServiceMock{
		TriggerFunc: func(_ context.Context, input importjob.TriggerInput) (*domain.ImportJob, error) {
			got = input
			return &domain.ImportJob{ID: jobID, Status: domain.JobStatusQueued}, nil
		},
	}
	h := NewImportHandler(svc, 1<<20, testLogger())

	payload := `{"fileId":"` + fileID.String() + `","fileType":"csv","csvMapping":{"simplified":"Hanzi","meanings":"English"},"pinyinStyle":"diacritics","dedupe":true,"replace":false}`
	req := httptest.NewRequest(http.MethodPost, "/admin/import/trigger", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.Trigger(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp triggerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, jobID.String(), resp.JobID)
	assert.Equal(t, "queued", resp.Status)

	assert.Equal(t, fileID, got.FileID)
	assert.Equal(t, domain.ImportFormatCSV, got.Format)
	assert.Equal(t, domain.NotationDiacritics, got.Style)
	assert.True(t, got.Dedupe)
	require.NotNil(t, got.Mapping)
	assert.Equal(t, "Hanzi", got.Mapping.Simplified)
	assert.Equal(t, "English", got.Mapping.Meanings)
}

func TestImportHandler_Trigger_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
	}{
		{"invalid json", `{`, nil, http.StatusBadRequest},
		{"bad file id", `{"fileId":"nope","fileType":"lexicon"}`, nil, http.StatusBadRequest},
		{"validation", `{"fileId":"` + uuid.NewString() + `","fileType":"xml"}`, domain.NewValidationError("file_type", "must be lexicon or csv"), http.StatusBadRequest},
		{"unknown file", `{"fileId":"` + uuid.NewString() + `","fileType":"lexicon"}`, domain.ErrNotFound, http.StatusNotFound},
		{"shutting down", `{"fileId":"` + uuid.NewString() + `","fileType":"lexicon"}`, importjob.ErrShuttingDown, http.StatusServiceUnavailable},
		{"internal", `{"fileId":"` + uuid.NewString() + `","fileType":"lexicon"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &importServiceMock{
				TriggerFunc: func(context.Context, importjob.TriggerInput) (*domain.ImportJob, error) {
					return nil, tt.svcErr
				},
			}
			h := NewImportHandler(svc, 1<<20, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/admin/import/trigger", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Trigger(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

func TestImportHandler_Status(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := &importServiceMock{
		StatusFunc: func(_ context.Context, id uuid.UUID) (*domain.ImportJob, error) {
			if id != jobID {
				return nil, domain.ErrNotFound
			}
			return &domain.ImportJob{
				ID:       jobID,
				Status:   domain.JobStatusRunning,
				Progress: 25,
				Logs: []domain.ImportJobLog{
					{Timestamp: created, Level: domain.LogLevelInfo, Message: "job created"},
				},
				Stats:     domain.ImportStats{Parsed: domain.IntPtr(4), Skipped: domain.IntPtr(0)},
				CreatedAt: created,
			}, nil
		},
	}
	h := NewImportHandler(svc, 1<<20, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/import/status/"+jobID.String(), nil)
	req.SetPathValue("id", jobID.String())
	rec := httptest.NewRecorder()

	h.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, jobID.String(), raw["jobId"])
	assert.Equal(t, "running", raw["status"])
	assert.EqualValues(t, 25, raw["progress"])
	assert.NotContains(t, raw, "finishedAt")

	stats := raw["stats"].(map[string]any)
	assert.EqualValues(t, 4, stats["parsed"])
	assert.EqualValues(t, 0, stats["skipped"])
	assert.NotContains(t, stats, "inserted")

	logs := raw["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, "job created", logs[0].(map[string]any)["message"])
}

func TestImportHandler_Status_NotFound(t *testing.T) {
	t.Parallel()

	svc := &importServiceMock{
		StatusFunc: func(context.Context, uuid.UUID) (*domain.ImportJob, error) {
			return nil, domain.ErrNotFound
		},
	}
	h := NewImportHandler(svc, 1<<20, testLogger())

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		req := httptest.NewRequest(http.MethodGet, "/admin/import/status/"+id, nil)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()

		h.Status(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
	}
}
