// Package importer turns raw dictionary sources into stored dictionary
// records: parse, normalize, optionally dedupe, then write.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/hanzi-backend/internal/app/importer/cedict"
	"github.com/heartmarshall/hanzi-backend/internal/app/importer/csvdict"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/pkg/ctxutil"
)

// EntryStore persists final entries. Implemented by dictword.Repo.
type EntryStore interface {
	Write(ctx context.Context, entries []domain.DictEntry, replace bool) (int, error)
}

// Request describes one import run.
type Request struct {
	Path    string
	Format  domain.ImportFormat
	Mapping *domain.CsvMapping
	Style   domain.NotationStyle
	Dedupe  bool
	Replace bool
}

// Stage names a pipeline step.
type Stage string

const (
	StageParse     Stage = "parse"
	StageNormalize Stage = "normalize"
	StageDedupe    Stage = "dedupe"
	StageStore     Stage = "store"
)

// Event is reported after a stage completes. Skipped is only set for
// StageParse.
type Event struct {
	Stage   Stage
	Count   int
	Skipped int
}

// Observer receives stage events synchronously, in stage order.
type Observer func(Event)

// Stats holds the counters of a finished run.
type Stats struct {
	Parsed     int
	Skipped    int
	Normalized int
	Deduped    int
	Inserted   int
	Duration   time.Duration
}

// Pipeline runs imports against a store.
type Pipeline struct {
	log   *slog.Logger
	store EntryStore
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, store EntryStore) *Pipeline {
	return &Pipeline{
		log:   log,
		store: store,
	}
}

// Run executes the pipeline for req. observe may be nil. A parse or
// configuration failure aborts before anything is written; a store failure
// leaves the store as it was.
func (p *Pipeline) Run(ctx context.Context, req Request, observe Observer) (Stats, error) {
	if observe == nil {
		observe = func(Event) {}
	}
	start := time.Now()
	var stats Stats

	if !req.Style.IsValid() {
		return stats, fmt.Errorf("%w: unsupported pinyin style %q", domain.ErrConfiguration, req.Style)
	}

	entries, skipped, err := Parse(req)
	if err != nil {
		return stats, err
	}
	stats.Parsed = len(entries)
	stats.Skipped = skipped
	observe(Event{Stage: StageParse, Count: stats.Parsed, Skipped: skipped})

	normalized := NormalizeEntries(entries, req.Style)
	stats.Normalized = len(normalized)
	observe(Event{Stage: StageNormalize, Count: stats.Normalized})

	final := normalized
	if req.Dedupe {
		final = DedupeEntries(normalized)
	}
	stats.Deduped = len(final)
	observe(Event{Stage: StageDedupe, Count: stats.Deduped})

	inserted, err := p.store.Write(ctx, final, req.Replace)
	if err != nil {
		return stats, fmt.Errorf("store entries: %w", err)
	}
	stats.Inserted = inserted
	observe(Event{Stage: StageStore, Count: inserted})

	stats.Duration = time.Since(start)
	attrs := []slog.Attr{
		slog.String("path", req.Path),
		slog.String("format", req.Format.String()),
		slog.Int("parsed", stats.Parsed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("deduped", stats.Deduped),
		slog.Int("inserted", stats.Inserted),
		slog.Duration("duration", stats.Duration),
	}
	if jobID, ok := ctxutil.JobIDFromCtx(ctx); ok {
		attrs = append(attrs, slog.String("job_id", jobID.String()))
	}
	p.log.LogAttrs(ctx, slog.LevelInfo, "import pipeline completed", attrs...)
	return stats, nil
}

// Parse reads req.Path with the parser selected by req.Format and returns
// the draft entries and the number of malformed lines or rows skipped.
func Parse(req Request) ([]domain.DictEntry, int, error) {
	switch req.Format {
	case domain.ImportFormatLexicon:
		res, err := cedict.ParseFile(req.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("parse lexicon: %w", err)
		}
		return res.Entries, res.Stats.Skipped, nil

	case domain.ImportFormatCSV:
		if req.Mapping == nil {
			return nil, 0, fmt.Errorf("%w: csv mapping required", domain.ErrConfiguration)
		}
		res, err := csvdict.ParseFile(req.Path, *req.Mapping)
		if err != nil {
			return nil, 0, fmt.Errorf("parse csv: %w", err)
		}
		return res.Entries, res.Stats.Skipped, nil

	default:
		return nil, 0, fmt.Errorf("%w: unsupported file type %q", domain.ErrConfiguration, req.Format)
	}
}
