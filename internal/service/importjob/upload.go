package importjob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

var filenameCleaner = strings.NewReplacer("..", "", "/", "", `\`, "")

// sanitizeFilename drops path separators and parent references so the
// stored name cannot escape the upload directory.
func sanitizeFilename(name string) string {
	return strings.TrimSpace(filenameCleaner.Replace(name))
}

// RegisterFile stores the contents of r under the upload directory as
// <uuid>_<filename> and records it.
func (s *Service) RegisterFile(ctx context.Context, filename string, r io.Reader) (*domain.UploadedFile, error) {
	name := sanitizeFilename(filename)
	if name == "" {
		return nil, domain.NewValidationError("filename", "required")
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	id := uuid.New()
	path := filepath.Join(s.cfg.UploadDir, id.String()+"_"+name)

	size, err := writeFile(path, r)
	if err != nil {
		return nil, err
	}

	file := domain.UploadedFile{
		ID:        id,
		Path:      path,
		Filename:  name,
		Size:      size,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateFile(ctx, file); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("record upload: %w", err)
	}

	s.log.InfoContext(ctx, "file uploaded",
		slog.String("file_id", id.String()),
		slog.String("filename", name),
		slog.String("size", humanize.IBytes(uint64(size))),
	)
	return &file, nil
}

// GetFile returns a registered upload.
func (s *Service) GetFile(ctx context.Context, id uuid.UUID) (*domain.UploadedFile, error) {
	return s.repo.GetFile(ctx, id)
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("write upload file: %w", err)
	}
	return size, nil
}
