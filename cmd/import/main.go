// Command import runs one dictionary import synchronously, outside the job
// manager, and prints the stage counters.
//
// Flags:
//
//	--file       path to the source file (.gz is decompressed)
//	--format     lexicon or csv (default: lexicon)
//	--style      numbers, diacritics or none (default: import.default_pinyin_style)
//	--dedupe     merge entries sharing simplified+pinyin
//	--replace    clear dict_words before writing
//	--reindex    refresh search documents after writing
//	--dry-run    parse and normalize without touching the database
//	--map-*      csv column names (--map-simplified is required for csv)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres"
	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres/dictword"
	"github.com/heartmarshall/hanzi-backend/internal/app"
	"github.com/heartmarshall/hanzi-backend/internal/app/importer"
	"github.com/heartmarshall/hanzi-backend/internal/config"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// discardStore accepts every entry without persisting it.
type discardStore struct{}

func (discardStore) Write(_ context.Context, entries []domain.DictEntry, _ bool) (int, error) {
	return len(entries), nil
}

func main() {
	fileFlag := flag.String("file", "", "path to the source file")
	formatFlag := flag.String("format", string(domain.ImportFormatLexicon), "lexicon or csv")
	styleFlag := flag.String("style", "", "pinyin style: numbers, diacritics or none")
	dedupeFlag := flag.Bool("dedupe", false, "merge duplicate headword+reading entries")
	replaceFlag := flag.Bool("replace", false, "clear existing records before writing")
	reindexFlag := flag.Bool("reindex", false, "refresh search documents after writing")
	dryRunFlag := flag.Bool("dry-run", false, "parse without writing to DB")

	var mapping domain.CsvMapping
	flag.StringVar(&mapping.Simplified, "map-simplified", "", "csv column with the simplified headword")
	flag.StringVar(&mapping.Traditional, "map-traditional", "", "csv column with the traditional form")
	flag.StringVar(&mapping.Pinyin, "map-pinyin", "", "csv column with the reading")
	flag.StringVar(&mapping.Meanings, "map-meanings", "", "csv column with meanings")
	flag.StringVar(&mapping.Examples, "map-examples", "", "csv column with examples")
	flag.StringVar(&mapping.Tags, "map-tags", "", "csv column with tags")
	flag.StringVar(&mapping.HSKLevel, "map-hsk", "", "csv column with the HSK level")
	flag.StringVar(&mapping.Frequency, "map-frequency", "", "csv column with the frequency")
	flag.StringVar(&mapping.PartOfSpeech, "map-pos", "", "csv column with the part of speech")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	req := importer.Request{
		Path:    *fileFlag,
		Format:  domain.ImportFormat(*formatFlag),
		Style:   domain.NotationStyle(*styleFlag),
		Dedupe:  *dedupeFlag,
		Replace: *replaceFlag,
	}
	if req.Style == "" {
		req.Style = domain.NotationStyle(cfg.Import.DefaultPinyinStyle)
	}
	if req.Format == domain.ImportFormatCSV {
		req.Mapping = &mapping
	}
	if req.Path == "" {
		logger.Error("--file is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if *dryRunFlag {
		stats, err := importer.NewPipeline(logger, discardStore{}).Run(ctx, req, nil)
		if err != nil {
			logger.Error("dry run failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		printStats(stats, true)
		return
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	repo := dictword.New(pool, postgres.NewTxManager(pool), cfg.Import.BatchSize)

	stats, err := importer.NewPipeline(logger, repo).Run(ctx, req, nil)
	if err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	printStats(stats, false)

	if *reindexFlag {
		updated, err := repo.RefreshSearchIndex(ctx)
		if err != nil {
			logger.Error("refresh search index failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("search index refreshed", slog.Int("updated", updated))
	}
}

func printStats(s importer.Stats, dryRun bool) {
	inserted := humanize.Comma(int64(s.Inserted))
	if dryRun {
		inserted += " (dry run)"
	}
	fmt.Printf("parsed:     %s\n", humanize.Comma(int64(s.Parsed)))
	fmt.Printf("skipped:    %s\n", humanize.Comma(int64(s.Skipped)))
	fmt.Printf("normalized: %s\n", humanize.Comma(int64(s.Normalized)))
	fmt.Printf("deduped:    %s\n", humanize.Comma(int64(s.Deduped)))
	fmt.Printf("inserted:   %s\n", inserted)
	fmt.Printf("duration:   %s\n", s.Duration.Round(time.Millisecond))
}
