// Package sync periodically exports the dashboard snapshot to external
// destinations.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IdanRossman/jiranimo/internal/store"
)

// Destination is a sync target (S3, git).
type Destination interface {
	// Write stores snap at the destination.
	Write(ctx context.Context, snap *Snapshot) error
}

// Scheduler runs periodic syncs to one or more destinations.
type Scheduler struct {
	source       IssueSource
	journal      store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports the issues of src and the
// journal to the given destinations at the specified interval.
func NewScheduler(src IssueSource, journal store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:       src,
		journal:      journal,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.syncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce(ctx)
		}
	}
}

// SyncOnce exports once and writes to every destination. Destination
// failures are logged and joined into the returned error.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	snap, err := Export(ctx, s.source, s.journal)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	var failed int
	var lastErr error
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, snap); err != nil {
			s.logger.Error("sync destination write failed", "destination", destinationName(i, dest), "snapshot", snap.ID, "err", err)
			failed++
			lastErr = err
		}
	}

	s.logger.Info("sync completed", "snapshot", snap.ID, "issues", snap.Issues, "events", snap.Events,
		"destinations", len(s.destinations), "failed", failed, "bytes", len(snap.Data))
	if lastErr != nil {
		return fmt.Errorf("%d of %d destinations failed: %w", failed, len(s.destinations), lastErr)
	}
	return nil
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	if err := s.SyncOnce(ctx); err != nil {
		s.logger.Error("sync failed", "err", err)
	}
}

func destinationName(i int, d Destination) string {
	if s, ok := d.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%d", i)
}
