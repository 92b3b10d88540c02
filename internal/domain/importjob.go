package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadedFile is a raw dictionary source stored on disk. Immutable once registered.
type UploadedFile struct {
	ID        uuid.UUID
	Path      string
	Filename  string
	Size      int64
	CreatedAt time.Time
}

// ImportJob is one asynchronous run of the parse → normalize → dedupe → store
// pipeline. Only the job manager mutates it; pollers receive copies.
type ImportJob struct {
	ID            uuid.UUID
	FileID        uuid.UUID
	FilePath      string
	Format        ImportFormat
	Mapping       *CsvMapping
	NotationStyle NotationStyle
	Dedupe        bool
	Replace       bool
	Status        JobStatus
	Progress      int
	Logs          []ImportJobLog
	Stats         ImportStats
	CreatedAt     time.Time
	FinishedAt    *time.Time
}

// Clone returns a deep copy safe to hand to readers.
func (j ImportJob) Clone() ImportJob {
	c := j
	if j.Mapping != nil {
		m := *j.Mapping
		c.Mapping = &m
	}
	c.Logs = make([]ImportJobLog, len(j.Logs))
	copy(c.Logs, j.Logs)
	c.Stats = j.Stats.Clone()
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	return c
}

// ImportJobLog is one line of a job's append-only transcript.
type ImportJobLog struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
}

// ImportStats holds pipeline counters. A nil field has not been computed yet.
type ImportStats struct {
	Parsed     *int
	Skipped    *int
	Normalized *int
	Deduped    *int
	Inserted   *int
}

// Clone returns a copy that shares no pointers with s.
func (s ImportStats) Clone() ImportStats {
	return ImportStats{
		Parsed:     copyInt(s.Parsed),
		Skipped:    copyInt(s.Skipped),
		Normalized: copyInt(s.Normalized),
		Deduped:    copyInt(s.Deduped),
		Inserted:   copyInt(s.Inserted),
	}
}

// ClampProgress bounds a progress value to [0, 100].
func ClampProgress(p int) int {
	return max(0, min(100, p))
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
