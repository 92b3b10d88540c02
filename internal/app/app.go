package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres"
	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres/dictword"
	importjobrepo "github.com/heartmarshall/hanzi-backend/internal/adapter/postgres/importjob"
	"github.com/heartmarshall/hanzi-backend/internal/app/importer"
	"github.com/heartmarshall/hanzi-backend/internal/config"
	"github.com/heartmarshall/hanzi-backend/internal/service/importjob"
	"github.com/heartmarshall/hanzi-backend/internal/transport/middleware"
	"github.com/heartmarshall/hanzi-backend/internal/transport/rest"
	"github.com/heartmarshall/hanzi-backend/migrations"
)

// Run is the application entry point. It loads configuration, connects to
// the database, recovers interrupted jobs, and serves HTTP until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		applied, err := postgres.Migrate(ctx, cfg.Database.DSN, migrations.FS)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied", slog.Int("count", applied))
	}

	txm := postgres.NewTxManager(pool)
	words := dictword.New(pool, txm, cfg.Import.BatchSize)
	jobs := importjobrepo.New(pool, txm)

	pipeline := importer.NewPipeline(logger, words)
	svc := importjob.NewService(logger, jobs, pipeline, words, cfg.Import)

	if n, err := svc.RecoverInterrupted(ctx); err != nil {
		return fmt.Errorf("recover interrupted jobs: %w", err)
	} else if n > 0 {
		logger.Warn("marked interrupted jobs as failed", slog.Int("count", n))
	}

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	handler := routes(cfg, logger, handlers{
		health:  rest.NewHealthHandler(pool, svc, BuildVersion()),
		imports: rest.NewImportHandler(svc, cfg.Import.MaxUploadBytes, logger),
		dict:    rest.NewDictHandler(words, logger),
	}, limiter)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := svc.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("import jobs shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
