// Package importjob runs dictionary imports as asynchronous background jobs
// and exposes their progress, counters and log transcript to pollers.
package importjob

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/heartmarshall/hanzi-backend/internal/app/importer"
	"github.com/heartmarshall/hanzi-backend/internal/config"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// ErrShuttingDown is returned by Trigger once Shutdown has been called.
var ErrShuttingDown = errors.New("import manager is shutting down")

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type jobRepo interface {
	CreateFile(ctx context.Context, f domain.UploadedFile) error
	GetFile(ctx context.Context, id uuid.UUID) (*domain.UploadedFile, error)
	CreateJob(ctx context.Context, job domain.ImportJob) error
	UpdateJob(ctx context.Context, job domain.ImportJob) error
	AppendLog(ctx context.Context, jobID uuid.UUID, entry domain.ImportJobLog) error
	GetJob(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)
	MarkInterrupted(ctx context.Context, message string, at time.Time) ([]uuid.UUID, error)
}

type pipeline interface {
	Run(ctx context.Context, req importer.Request, observe importer.Observer) (importer.Stats, error)
}

type searchIndexer interface {
	RefreshSearchIndex(ctx context.Context) (int, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service is the job manager. Each triggered job runs in its own goroutine;
// at most cfg.MaxConcurrentJobs run the pipeline at a time.
type Service struct {
	log      *slog.Logger
	repo     jobRepo
	pipeline pipeline
	indexer  searchIndexer
	cfg      config.ImportConfig

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu     sync.RWMutex
	jobs   map[uuid.UUID]*jobState
	closed bool

	now func() time.Time
}

// NewService creates a new import job manager. indexer may be nil, in which
// case search index maintenance after a job is skipped.
func NewService(
	log *slog.Logger,
	repo jobRepo,
	pipeline pipeline,
	indexer searchIndexer,
	cfg config.ImportConfig,
) *Service {
	limit := cfg.MaxConcurrentJobs
	if limit <= 0 {
		limit = 1
	}
	return &Service{
		log:      log.With("service", "importjob"),
		repo:     repo,
		pipeline: pipeline,
		indexer:  indexer,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(limit)),
		jobs:     make(map[uuid.UUID]*jobState),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// jobState is the live record of one job. Only the goroutine running the
// job writes it; readers take copies under the read lock.
type jobState struct {
	mu  sync.RWMutex
	job domain.ImportJob
}

func (s *jobState) snapshot() domain.ImportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.job.Clone()
}

func (s *Service) lookup(id uuid.UUID) (*jobState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.jobs[id]
	return st, ok
}
