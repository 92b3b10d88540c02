package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/internal/service/importjob"
)

type importService interface {
	RegisterFile(ctx context.Context, filename string, r io.Reader) (*domain.UploadedFile, error)
	Trigger(ctx context.Context, input importjob.TriggerInput) (*domain.ImportJob, error)
	Status(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)
}

// ImportHandler serves the import admin endpoints.
type ImportHandler struct {
	svc            importService
	maxUploadBytes int64
	log            *slog.Logger
}

// NewImportHandler creates an ImportHandler. Uploads larger than
// maxUploadBytes are rejected with 413.
func NewImportHandler(svc importService, maxUploadBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
		log:            logger.With("handler", "import"),
	}
}

type uploadResponse struct {
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type csvMappingRequest struct {
	Simplified   string `json:"simplified"`
	Traditional  string `json:"traditional"`
	Pinyin       string `json:"pinyin"`
	Meanings     string `json:"meanings"`
	Examples     string `json:"examples"`
	Tags         string `json:"tags"`
	HSKLevel     string `json:"hskLevel"`
	Frequency    string `json:"frequency"`
	PartOfSpeech string `json:"partOfSpeech"`
}

type triggerRequest struct {
	FileID      string             `json:"fileId"`
	FileType    string             `json:"fileType"`
	CsvMapping  *csvMappingRequest `json:"csvMapping"`
	PinyinStyle string             `json:"pinyinStyle"`
	Dedupe      bool               `json:"dedupe"`
	Replace     bool               `json:"replace"`
}

type triggerResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type jobLogResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

type jobStatsResponse struct {
	Parsed     *int `json:"parsed,omitempty"`
	Skipped    *int `json:"skipped,omitempty"`
	Normalized *int `json:"normalized,omitempty"`
	Deduped    *int `json:"deduped,omitempty"`
	Inserted   *int `json:"inserted,omitempty"`
}

type jobStatusResponse struct {
	JobID      string           `json:"jobId"`
	Status     string           `json:"status"`
	Progress   int              `json:"progress"`
	Logs       []jobLogResponse `json:"logs"`
	Stats      jobStatsResponse `json:"stats"`
	CreatedAt  time.Time        `json:"createdAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// Upload handles POST /admin/import/upload (multipart field "file").
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	uploaded, err := h.svc.RegisterFile(r.Context(), header.Filename, file)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		FileID:   uploaded.ID.String(),
		Filename: uploaded.Filename,
		Size:     uploaded.Size,
	})
}

// Trigger handles POST /admin/import/trigger. Responds 202 once the job is
// queued; the import itself runs in the background.
func (h *ImportHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := importjob.TriggerInput{
		Format:  domain.ImportFormat(req.FileType),
		Style:   domain.NotationStyle(req.PinyinStyle),
		Dedupe:  req.Dedupe,
		Replace: req.Replace,
	}
	if req.FileID != "" {
		id, err := uuid.Parse(req.FileID)
		if err != nil {
			handleError(h.log, w, r, domain.NewValidationError("file_id", "must be a UUID"))
			return
		}
		input.FileID = id
	}
	if m := req.CsvMapping; m != nil {
		input.Mapping = &domain.CsvMapping{
			Simplified:   m.Simplified,
			Traditional:  m.Traditional,
			Pinyin:       m.Pinyin,
			Meanings:     m.Meanings,
			Examples:     m.Examples,
			Tags:         m.Tags,
			HSKLevel:     m.HSKLevel,
			Frequency:    m.Frequency,
			PartOfSpeech: m.PartOfSpeech,
		}
	}

	job, err := h.svc.Trigger(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, triggerResponse{
		JobID:  job.ID.String(),
		Status: job.Status.String(),
	})
}

// Status handles GET /admin/import/status/{id}.
func (h *ImportHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	job, err := h.svc.Status(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobStatusResponse(job))
}

func toJobStatusResponse(job *domain.ImportJob) jobStatusResponse {
	logs := make([]jobLogResponse, len(job.Logs))
	for i, l := range job.Logs {
		logs[i] = jobLogResponse{
			Timestamp: l.Timestamp,
			Level:     l.Level.String(),
			Message:   l.Message,
		}
	}

	return jobStatusResponse{
		JobID:    job.ID.String(),
		Status:   job.Status.String(),
		Progress: job.Progress,
		Logs:     logs,
		Stats: jobStatsResponse{
			Parsed:     job.Stats.Parsed,
			Skipped:    job.Stats.Skipped,
			Normalized: job.Stats.Normalized,
			Deduped:    job.Stats.Deduped,
			Inserted:   job.Stats.Inserted,
		},
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
}
