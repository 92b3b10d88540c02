package importjob

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const interruptedMessage = "interrupted by restart"

// Shutdown stops accepting new jobs and waits for running ones to finish or
// for ctx to end, whichever comes first.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.InfoContext(ctx, "import jobs drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for import jobs: %w", ctx.Err())
	}
}

// RecoverInterrupted marks jobs a previous process left queued or running
// as failed. Call it once at startup, before any Trigger.
func (s *Service) RecoverInterrupted(ctx context.Context) (int, error) {
	ids, err := s.repo.MarkInterrupted(ctx, interruptedMessage, s.now())
	if err != nil {
		return 0, fmt.Errorf("recover interrupted jobs: %w", err)
	}
	if len(ids) > 0 {
		s.log.WarnContext(ctx, "marked interrupted jobs as failed", slog.Int("count", len(ids)))
	}
	return len(ids), nil
}

// ActiveJobs returns how many registered jobs are queued or running.
func (s *Service) ActiveJobs() int {
	s.mu.RLock()
	states := make([]*jobState, 0, len(s.jobs))
	for _, st := range s.jobs {
		states = append(states, st)
	}
	s.mu.RUnlock()

	n := 0
	for _, st := range states {
		st.mu.RLock()
		if !st.job.Status.IsTerminal() {
			n++
		}
		st.mu.RUnlock()
	}
	return n
}

// Accepting reports whether Trigger still takes new jobs.
func (s *Service) Accepting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// forgetLater drops a finished job from the live registry once
// cfg.JobRetention has passed. Status keeps answering from the store.
func (s *Service) forgetLater(id uuid.UUID) {
	if s.cfg.JobRetention <= 0 {
		return
	}
	time.AfterFunc(s.cfg.JobRetention, func() {
		s.mu.Lock()
		delete(s.jobs, id)
		s.mu.Unlock()
	})
}
