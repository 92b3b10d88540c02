package importjob

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/hanzi-backend/internal/app/importer"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// Progress checkpoints.
const (
	progressReading  = 5
	progressParsed   = 25
	progressInserted = 90
	progressDone     = 100
)

// run waits for a runner slot and drives the job to a terminal state.
func (s *Service) run(ctx context.Context, st *jobState) {
	defer s.wg.Done()
	defer s.forgetLater(st.snapshot().ID)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.fail(ctx, st, err)
		return
	}
	defer s.sem.Release(1)

	if err := s.execute(ctx, st); err != nil {
		s.fail(ctx, st, err)
		return
	}

	s.refreshIndex(ctx, st.snapshot())
}

func (s *Service) execute(ctx context.Context, st *jobState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	job := st.snapshot()

	s.apply(ctx, st, func(j *domain.ImportJob) {
		j.Status = domain.JobStatusRunning
		j.Progress = progressReading
	}, domain.LogLevelInfo, "reading input file")

	req := importer.Request{
		Path:    job.FilePath,
		Format:  job.Format,
		Mapping: job.Mapping,
		Style:   job.NotationStyle,
		Dedupe:  job.Dedupe,
		Replace: job.Replace,
	}

	_, err = s.pipeline.Run(ctx, req, func(ev importer.Event) {
		s.observe(ctx, st, ev)
	})
	if err != nil {
		return err
	}

	s.apply(ctx, st, func(j *domain.ImportJob) {
		finished := s.now()
		j.Progress = progressDone
		j.Status = domain.JobStatusDone
		j.FinishedAt = &finished
	}, domain.LogLevelInfo, "import complete")

	return nil
}

// observe records the counters of a completed stage.
func (s *Service) observe(ctx context.Context, st *jobState, ev importer.Event) {
	switch ev.Stage {
	case importer.StageParse:
		s.apply(ctx, st, func(j *domain.ImportJob) {
			j.Stats.Parsed = domain.IntPtr(ev.Count)
			j.Stats.Skipped = domain.IntPtr(ev.Skipped)
			j.Progress = progressParsed
		}, domain.LogLevelInfo, "parsing entries")
	case importer.StageNormalize:
		s.apply(ctx, st, func(j *domain.ImportJob) {
			j.Stats.Normalized = domain.IntPtr(ev.Count)
		}, "", "")
	case importer.StageDedupe:
		s.apply(ctx, st, func(j *domain.ImportJob) {
			j.Stats.Deduped = domain.IntPtr(ev.Count)
		}, "", "")
	case importer.StageStore:
		s.apply(ctx, st, func(j *domain.ImportJob) {
			j.Stats.Inserted = domain.IntPtr(ev.Count)
			j.Progress = progressInserted
		}, domain.LogLevelInfo, fmt.Sprintf("inserted %d rows", ev.Count))
	}
}

// fail moves the job to error. Progress stays at the last checkpoint.
func (s *Service) fail(ctx context.Context, st *jobState, cause error) {
	s.apply(ctx, st, func(j *domain.ImportJob) {
		finished := s.now()
		j.Status = domain.JobStatusError
		j.FinishedAt = &finished
	}, domain.LogLevelError, "import failed: "+cause.Error())
}

// apply mutates the job and appends one log line under a single lock, then
// writes both through to the store. An empty message appends nothing.
// Terminal jobs are never touched again.
func (s *Service) apply(ctx context.Context, st *jobState, mutate func(*domain.ImportJob), level domain.LogLevel, message string) {
	job, entry, ok := st.update(mutate, level, message, s.now)
	if !ok {
		return
	}

	if err := s.repo.UpdateJob(ctx, job); err != nil {
		s.log.WarnContext(ctx, "persist job state",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	if message == "" {
		return
	}
	if err := s.repo.AppendLog(ctx, job.ID, entry); err != nil {
		s.log.WarnContext(ctx, "persist job log",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.log.Log(ctx, slogLevel(level), message,
		slog.String("job_id", job.ID.String()),
		slog.String("status", job.Status.String()),
		slog.Int("progress", job.Progress),
	)
}

// update applies mutate and the optional log line, returning a copy of the
// result. ok is false when the job was already terminal.
func (st *jobState) update(
	mutate func(*domain.ImportJob),
	level domain.LogLevel,
	message string,
	now func() time.Time,
) (job domain.ImportJob, entry domain.ImportJobLog, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.job.Status.IsTerminal() {
		return domain.ImportJob{}, domain.ImportJobLog{}, false
	}
	mutate(&st.job)
	st.job.Progress = domain.ClampProgress(st.job.Progress)

	if message != "" {
		entry = domain.ImportJobLog{Timestamp: now(), Level: level, Message: message}
		st.job.Logs = append(st.job.Logs, entry)
	}
	return st.job.Clone(), entry, true
}

// refreshIndex runs search index maintenance after a successful job. It is
// not part of the job's state machine; failures are only logged.
func (s *Service) refreshIndex(ctx context.Context, job domain.ImportJob) {
	if !s.cfg.ReindexAfterJob || s.indexer == nil {
		return
	}

	n, err := s.indexer.RefreshSearchIndex(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "refresh search index",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	s.log.InfoContext(ctx, "search index refreshed",
		slog.String("job_id", job.ID.String()),
		slog.Int("rows", n),
	)
}

func slogLevel(l domain.LogLevel) slog.Level {
	switch l {
	case domain.LogLevelWarn:
		return slog.LevelWarn
	case domain.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
