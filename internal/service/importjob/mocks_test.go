package importjob

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/hanzi-backend/internal/app/importer"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// mockJobRepo is a moq-style mock. Nil func fields fall back to recording
// the call and succeeding.
type mockJobRepo struct {
	CreateFileFunc      func(ctx context.Context, f domain.UploadedFile) error
	GetFileFunc         func(ctx context.Context, id uuid.UUID) (*domain.UploadedFile, error)
	CreateJobFunc       func(ctx context.Context, job domain.ImportJob) error
	UpdateJobFunc       func(ctx context.Context, job domain.ImportJob) error
	AppendLogFunc       func(ctx context.Context, jobID uuid.UUID, entry domain.ImportJobLog) error
	GetJobFunc          func(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)
	MarkInterruptedFunc func(ctx context.Context, message string, at time.Time) ([]uuid.UUID, error)

	mu      sync.Mutex
	files   []domain.UploadedFile
	created []domain.ImportJob
	updates []domain.ImportJob
	logs    []domain.ImportJobLog
}

func (m *mockJobRepo) CreateFile(ctx context.Context, f domain.UploadedFile) error {
	m.mu.Lock()
	m.files = append(m.files, f)
	m.mu.Unlock()
	if m.CreateFileFunc != nil {
		return m.CreateFileFunc(ctx, f)
	}
	return nil
}

func (m *mockJobRepo) GetFile(ctx context.Context, id uuid.UUID) (*domain.UploadedFile, error) {
	if m.GetFileFunc != nil {
		return m.GetFileFunc(ctx, id)
	}
	return &domain.UploadedFile{ID: id, Path: "/tmp/raw/" + id.String() + "_cedict.u8", Filename: "cedict.u8"}, nil
}

func (m *mockJobRepo) CreateJob(ctx context.Context, job domain.ImportJob) error {
	m.mu.Lock()
	m.created = append(m.created, job.Clone())
	m.mu.Unlock()
	if m.CreateJobFunc != nil {
		return m.CreateJobFunc(ctx, job)
	}
	return nil
}

func (m *mockJobRepo) UpdateJob(ctx context.Context, job domain.ImportJob) error {
	m.mu.Lock()
	m.updates = append(m.updates, job.Clone())
	m.mu.Unlock()
	if m.UpdateJobFunc != nil {
		return m.UpdateJobFunc(ctx, job)
	}
	return nil
}

func (m *mockJobRepo) AppendLog(ctx context.Context, jobID uuid.UUID, entry domain.ImportJobLog) error {
	m.mu.Lock()
	m.logs = append(m.logs, entry)
	m.mu.Unlock()
	if m.AppendLogFunc != nil {
		return m.AppendLogFunc(ctx, jobID, entry)
	}
	return nil
}

func (m *mockJobRepo) GetJob(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	if m.GetJobFunc != nil {
		return m.GetJobFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockJobRepo) MarkInterrupted(ctx context.Context, message string, at time.Time) ([]uuid.UUID, error) {
	if m.MarkInterruptedFunc != nil {
		return m.MarkInterruptedFunc(ctx, message, at)
	}
	return nil, nil
}

func (m *mockJobRepo) persistedLogs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.logs))
	for i, l := range m.logs {
		out[i] = l.Message
	}
	return out
}

func (m *mockJobRepo) lastUpdate() domain.ImportJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.updates) == 0 {
		return domain.ImportJob{}
	}
	return m.updates[len(m.updates)-1]
}

type mockPipeline struct {
	RunFunc func(ctx context.Context, req importer.Request, observe importer.Observer) (importer.Stats, error)
}

func (m *mockPipeline) Run(ctx context.Context, req importer.Request, observe importer.Observer) (importer.Stats, error) {
	return m.RunFunc(ctx, req, observe)
}

type mockIndexer struct {
	RefreshSearchIndexFunc func(ctx context.Context) (int, error)

	mu    sync.Mutex
	calls int
}

func (m *mockIndexer) RefreshSearchIndex(ctx context.Context) (int, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.RefreshSearchIndexFunc != nil {
		return m.RefreshSearchIndexFunc(ctx)
	}
	return 0, nil
}

func (m *mockIndexer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockEntryStore struct {
	mu      sync.Mutex
	calls   int
	written []domain.DictEntry
}

func (m *mockEntryStore) Write(_ context.Context, entries []domain.DictEntry, _ bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.written = append(m.written, entries...)
	return len(entries), nil
}

func (m *mockEntryStore) snapshot() (int, []domain.DictEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, append([]domain.DictEntry(nil), m.written...)
}
