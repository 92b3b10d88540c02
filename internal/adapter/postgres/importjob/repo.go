// Package importjob persists uploaded source files, import jobs and their
// log transcripts in PostgreSQL.
package importjob

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/hanzi-backend/internal/adapter/postgres"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// Repo provides upload and job persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	txm  *postgres.TxManager
}

// New creates a new import job repository.
func New(pool *pgxpool.Pool, txm *postgres.TxManager) *Repo {
	return &Repo{pool: pool, txm: txm}
}

// ---------------------------------------------------------------------------
// Uploaded files
// ---------------------------------------------------------------------------

// CreateFile records an uploaded file.
func (r *Repo) CreateFile(ctx context.Context, f domain.UploadedFile) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO uploaded_files (id, path, filename, size, created_at) VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.Path, f.Filename, f.Size, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("importjob.CreateFile: %w", postgres.MapError(err, "uploaded file", f.ID))
	}
	return nil
}

// GetFile returns an uploaded file by id.
func (r *Repo) GetFile(ctx context.Context, id uuid.UUID) (*domain.UploadedFile, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var f domain.UploadedFile
	err := q.QueryRow(ctx,
		`SELECT id, path, filename, size, created_at FROM uploaded_files WHERE id = $1`, id,
	).Scan(&f.ID, &f.Path, &f.Filename, &f.Size, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("importjob.GetFile: %w", postgres.MapError(err, "uploaded file", id))
	}
	return &f, nil
}

// ---------------------------------------------------------------------------
// Jobs
// ---------------------------------------------------------------------------

const jobColumns = `id, file_id, file_path, format, csv_mapping, pinyin_style, dedupe, replace_existing,
    status, progress, stats_parsed, stats_skipped, stats_normalized, stats_deduped, stats_inserted,
    created_at, finished_at`

// CreateJob inserts a job together with the log lines it already carries.
func (r *Repo) CreateJob(ctx context.Context, job domain.ImportJob) error {
	mapping, err := encodeMapping(job.Mapping)
	if err != nil {
		return fmt.Errorf("importjob.CreateJob: %w", err)
	}

	err = r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		_, err := q.Exec(ctx, `
INSERT INTO import_jobs (`+jobColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			job.ID, job.FileID, job.FilePath, string(job.Format), mapping, string(job.NotationStyle),
			job.Dedupe, job.Replace, string(job.Status), domain.ClampProgress(job.Progress),
			job.Stats.Parsed, job.Stats.Skipped, job.Stats.Normalized, job.Stats.Deduped, job.Stats.Inserted,
			job.CreatedAt, job.FinishedAt,
		)
		if err != nil {
			return postgres.MapError(err, "import job", job.ID)
		}

		return r.insertLogs(ctx, job.ID, job.Logs)
	})
	if err != nil {
		return fmt.Errorf("importjob.CreateJob: %w", err)
	}
	return nil
}

// UpdateJob writes the mutable job state: status, progress, counters and
// completion time. Logs are appended separately.
func (r *Repo) UpdateJob(ctx context.Context, job domain.ImportJob) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, `
UPDATE import_jobs SET
    status = $2, progress = $3,
    stats_parsed = $4, stats_skipped = $5, stats_normalized = $6, stats_deduped = $7, stats_inserted = $8,
    finished_at = $9
WHERE id = $1`,
		job.ID, string(job.Status), domain.ClampProgress(job.Progress),
		job.Stats.Parsed, job.Stats.Skipped, job.Stats.Normalized, job.Stats.Deduped, job.Stats.Inserted,
		job.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("importjob.UpdateJob: %w", postgres.MapError(err, "import job", job.ID))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("importjob.UpdateJob: import job %s: %w", job.ID, domain.ErrNotFound)
	}
	return nil
}

// AppendLog adds one line to a job's transcript.
func (r *Repo) AppendLog(ctx context.Context, jobID uuid.UUID, entry domain.ImportJobLog) error {
	if err := r.insertLogs(ctx, jobID, []domain.ImportJobLog{entry}); err != nil {
		return fmt.Errorf("importjob.AppendLog: %w", err)
	}
	return nil
}

func (r *Repo) insertLogs(ctx context.Context, jobID uuid.UUID, logs []domain.ImportJobLog) error {
	if len(logs) == 0 {
		return nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	batch := &pgx.Batch{}
	for _, l := range logs {
		batch.Queue(
			`INSERT INTO import_job_logs (job_id, logged_at, level, message) VALUES ($1, $2, $3, $4)`,
			jobID, l.Timestamp, string(l.Level), l.Message,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "import job", jobID)
		}
	}
	return nil
}

// GetJob returns a job with its full transcript in append order.
func (r *Repo) GetJob(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	job, err := scanJob(q.QueryRow(ctx, `SELECT `+jobColumns+` FROM import_jobs WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("importjob.GetJob: %w", postgres.MapError(err, "import job", id))
	}

	rows, err := q.Query(ctx,
		`SELECT logged_at, level, message FROM import_job_logs WHERE job_id = $1 ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("importjob.GetJob: logs: %w", err)
	}
	defer rows.Close()

	job.Logs = []domain.ImportJobLog{}
	for rows.Next() {
		var (
			l     domain.ImportJobLog
			level string
		)
		if err := rows.Scan(&l.Timestamp, &level, &l.Message); err != nil {
			return nil, fmt.Errorf("importjob.GetJob: scan log: %w", err)
		}
		l.Level = domain.LogLevel(level)
		job.Logs = append(job.Logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("importjob.GetJob: iterate logs: %w", err)
	}

	return &job, nil
}

// MarkInterrupted moves every queued or running job to error, stamps it
// finished at the given time and appends message as an error-level log line.
// Returns the ids of the affected jobs.
func (r *Repo) MarkInterrupted(ctx context.Context, message string, at time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		rows, err := q.Query(ctx, `
UPDATE import_jobs SET status = 'error', finished_at = $1
WHERE status IN ('queued', 'running')
RETURNING id`, at)
		if err != nil {
			return err
		}
		ids, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return err
		}

		for _, id := range ids {
			if err := r.insertLogs(ctx, id, []domain.ImportJobLog{{
				Timestamp: at,
				Level:     domain.LogLevelError,
				Message:   message,
			}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importjob.MarkInterrupted: %w", err)
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

func scanJob(row pgx.Row) (domain.ImportJob, error) {
	var (
		j                     domain.ImportJob
		format, style, status string
		mapping               []byte
	)
	err := row.Scan(
		&j.ID, &j.FileID, &j.FilePath, &format, &mapping, &style, &j.Dedupe, &j.Replace,
		&status, &j.Progress,
		&j.Stats.Parsed, &j.Stats.Skipped, &j.Stats.Normalized, &j.Stats.Deduped, &j.Stats.Inserted,
		&j.CreatedAt, &j.FinishedAt,
	)
	if err != nil {
		return domain.ImportJob{}, err
	}

	j.Format = domain.ImportFormat(format)
	j.NotationStyle = domain.NotationStyle(style)
	j.Status = domain.JobStatus(status)

	if mapping != nil {
		var m domain.CsvMapping
		if err := json.Unmarshal(mapping, &m); err != nil {
			return domain.ImportJob{}, fmt.Errorf("decode csv mapping: %w", err)
		}
		j.Mapping = &m
	}

	return j, nil
}

func encodeMapping(m *domain.CsvMapping) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode csv mapping: %w", err)
	}
	return b, nil
}
