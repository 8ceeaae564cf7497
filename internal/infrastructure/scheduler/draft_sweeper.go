package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/payables/internal/domain/payables"
)

// DraftSweeperConfig controls the abandoned-draft sweeper.
type DraftSweeperConfig struct {
	// Enabled turns the sweeper on.
	Enabled bool
	// Interval is how often the sweep runs.
	Interval time.Duration
	// DraftMaxAge is how long a draft may sit untouched before it is
	// considered abandoned.
	DraftMaxAge time.Duration
	// BatchSize caps how many drafts one sweep examines.
	BatchSize int
}

// DefaultDraftSweeperConfig returns the sweeper defaults: hourly sweeps of
// drafts untouched for a day, 100 at a time.
func DefaultDraftSweeperConfig() DraftSweeperConfig {
	return DraftSweeperConfig{
		Enabled:     true,
		Interval:    time.Hour,
		DraftMaxAge: 24 * time.Hour,
		BatchSize:   100,
	}
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Examined int
	Kept     int
	Deleted  int
	Failed   int
}

// staleDraftSource lists provisional draft payments last touched before a
// cutoff.
type staleDraftSource interface {
	ListStaleDrafts(ctx context.Context, before time.Time, limit int) ([]*payables.Payment, error)
}

// draftPolicy closes one abandoned draft and reports whether it was kept.
type draftPolicy interface {
	CloseAbandonedDraftByID(ctx context.Context, payment *payables.Payment) (kept bool, err error)
}

// DraftSweeper periodically finds provisional draft payments nobody has
// touched in a while and runs the abandoned-draft policy on each: complete
// drafts are promoted to saved drafts, incomplete ones are deleted together
// with their invoice holds. Explicitly saved drafts are never candidates.
type DraftSweeper struct {
	config  DraftSweeperConfig
	source  staleDraftSource
	policy  draftPolicy
	logger  *zap.Logger
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewDraftSweeper creates a DraftSweeper.
func NewDraftSweeper(config DraftSweeperConfig, source staleDraftSource, policy draftPolicy, logger *zap.Logger) *DraftSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftSweeper{
		config: config,
		source: source,
		policy: policy,
		logger: logger,
	}
}

// Start launches the sweep loop. It is a no-op when the sweeper is disabled
// or already running.
func (s *DraftSweeper) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info("draft sweeper disabled")
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("draft sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("draft_max_age", s.config.DraftMaxAge),
	)

	go s.loop(ctx)
}

// Stop terminates the sweep loop and waits for an in-flight sweep to finish.
func (s *DraftSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("draft sweeper stopped")
}

func (s *DraftSweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := s.Sweep(ctx)
			if result.Examined > 0 {
				s.logger.Info("draft sweep finished",
					zap.Int("examined", result.Examined),
					zap.Int("kept", result.Kept),
					zap.Int("deleted", result.Deleted),
					zap.Int("failed", result.Failed),
				)
			}
		}
	}
}

// Sweep runs one pass over stale drafts and applies the abandoned-draft
// policy to each.
func (s *DraftSweeper) Sweep(ctx context.Context) SweepResult {
	var result SweepResult

	cutoff := time.Now().Add(-s.config.DraftMaxAge)
	drafts, err := s.source.ListStaleDrafts(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		s.logger.Error("failed to list stale drafts", zap.Error(err))
		result.Failed++
		return result
	}

	for _, draft := range drafts {
		result.Examined++
		kept, err := s.policy.CloseAbandonedDraftByID(ctx, draft)
		switch {
		case err != nil:
			result.Failed++
			s.logger.Warn("failed to close abandoned draft",
				zap.String("payment_id", draft.ID.String()),
				zap.String("tenant_id", draft.TenantID.String()),
				zap.Error(err),
			)
		case kept:
			result.Kept++
		default:
			result.Deleted++
			s.logger.Info("abandoned draft deleted",
				zap.String("payment_id", draft.ID.String()),
				zap.String("payment_number", draft.PaymentNumber),
				zap.String("tenant_id", draft.TenantID.String()),
			)
		}
	}

	return result
}
