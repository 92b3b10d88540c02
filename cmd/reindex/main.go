// Command reindex rebuilds stale search documents in dict_words. It only
// touches rows modified since their document was last built, so repeated
// runs are cheap.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres"
	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres/dictword"
	"github.com/heartmarshall/hanzi-backend/internal/app"
	"github.com/heartmarshall/hanzi-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	repo := dictword.New(pool, postgres.NewTxManager(pool), cfg.Import.BatchSize)

	start := time.Now()
	updated, err := repo.RefreshSearchIndex(ctx)
	if err != nil {
		logger.Error("refresh search index failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("search index refreshed",
		slog.Int("updated", updated),
		slog.Duration("duration", time.Since(start)),
	)
}
