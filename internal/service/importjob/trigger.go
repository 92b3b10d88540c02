package importjob

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/pkg/ctxutil"
)

// Trigger validates input, creates a queued job for the referenced upload
// and hands it to the runner. It returns as soon as the job is recorded.
func (s *Service) Trigger(ctx context.Context, input TriggerInput) (*domain.ImportJob, error) {
	if input.Style == "" {
		input.Style = domain.NotationStyle(s.cfg.DefaultPinyinStyle)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	file, err := s.repo.GetFile(ctx, input.FileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrShuttingDown
	}
	s.wg.Add(1)
	s.mu.Unlock()

	started := false
	defer func() {
		if !started {
			s.wg.Done()
		}
	}()

	job := s.newJob(*file, input)
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	st := &jobState{job: job}
	s.mu.Lock()
	s.jobs[job.ID] = st
	s.mu.Unlock()

	s.log.InfoContext(ctx, "job created",
		slog.String("job_id", job.ID.String()),
		slog.String("file_id", file.ID.String()),
		slog.String("format", job.Format.String()),
	)

	started = true
	go s.run(ctxutil.WithJobID(context.WithoutCancel(ctx), job.ID), st)

	out := job.Clone()
	return &out, nil
}

func (s *Service) newJob(file domain.UploadedFile, input TriggerInput) domain.ImportJob {
	now := s.now()

	var mapping *domain.CsvMapping
	if input.Mapping != nil {
		m := *input.Mapping
		mapping = &m
	}

	return domain.ImportJob{
		ID:            uuid.New(),
		FileID:        file.ID,
		FilePath:      file.Path,
		Format:        input.Format,
		Mapping:       mapping,
		NotationStyle: input.Style,
		Dedupe:        input.Dedupe,
		Replace:       input.Replace,
		Status:        domain.JobStatusQueued,
		Progress:      0,
		Logs: []domain.ImportJobLog{
			{Timestamp: now, Level: domain.LogLevelInfo, Message: "job created"},
		},
		CreatedAt: now,
	}
}

// Status returns a snapshot of the job. Jobs started by an earlier process
// are read from the store.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	if st, ok := s.lookup(id); ok {
		job := st.snapshot()
		return &job, nil
	}

	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return job, nil
}
