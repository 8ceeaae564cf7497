package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/erp/payables/internal/domain/payables"
)

type fakeDraftSource struct {
	drafts []*payables.Payment
	err    error
	before time.Time
	limit  int
}

func (f *fakeDraftSource) ListStaleDrafts(_ context.Context, before time.Time, limit int) ([]*payables.Payment, error) {
	f.before = before
	f.limit = limit
	return f.drafts, f.err
}

type fakeDraftPolicy struct {
	kept   map[uuid.UUID]bool
	errFor map[uuid.UUID]error
	closed []uuid.UUID
}

func newFakeDraftPolicy() *fakeDraftPolicy {
	return &fakeDraftPolicy{
		kept:   make(map[uuid.UUID]bool),
		errFor: make(map[uuid.UUID]error),
	}
}

func (f *fakeDraftPolicy) CloseAbandonedDraftByID(_ context.Context, payment *payables.Payment) (bool, error) {
	f.closed = append(f.closed, payment.ID)
	if err := f.errFor[payment.ID]; err != nil {
		return false, err
	}
	return f.kept[payment.ID], nil
}

func draftPayment() *payables.Payment {
	p := &payables.Payment{}
	p.ID = uuid.New()
	p.TenantID = uuid.New()
	p.Status = payables.PaymentStatusDraft
	p.Provisional = true
	return p
}

func TestDraftSweeper_Sweep(t *testing.T) {
	keptDraft := draftPayment()
	deletedDraft := draftPayment()
	failingDraft := draftPayment()

	source := &fakeDraftSource{drafts: []*payables.Payment{keptDraft, deletedDraft, failingDraft}}
	policy := newFakeDraftPolicy()
	policy.kept[keptDraft.ID] = true
	policy.errFor[failingDraft.ID] = errors.New("boom")

	sweeper := NewDraftSweeper(DefaultDraftSweeperConfig(), source, policy, zap.NewNop())
	result := sweeper.Sweep(context.Background())

	assert.Equal(t, 3, result.Examined)
	assert.Equal(t, 1, result.Kept)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, policy.closed, 3)
}

func TestDraftSweeper_SweepUsesConfiguredCutoffAndBatch(t *testing.T) {
	source := &fakeDraftSource{}
	cfg := DefaultDraftSweeperConfig()
	cfg.DraftMaxAge = 48 * time.Hour
	cfg.BatchSize = 25

	sweeper := NewDraftSweeper(cfg, source, newFakeDraftPolicy(), zap.NewNop())
	sweeper.Sweep(context.Background())

	assert.Equal(t, 25, source.limit)
	assert.WithinDuration(t, time.Now().Add(-48*time.Hour), source.before, time.Minute)
}

func TestDraftSweeper_SweepListError(t *testing.T) {
	source := &fakeDraftSource{err: errors.New("db down")}
	sweeper := NewDraftSweeper(DefaultDraftSweeperConfig(), source, newFakeDraftPolicy(), zap.NewNop())

	result := sweeper.Sweep(context.Background())

	assert.Equal(t, 0, result.Examined)
	assert.Equal(t, 1, result.Failed)
}

func TestDraftSweeper_StartDisabled(t *testing.T) {
	sweeper := NewDraftSweeper(DraftSweeperConfig{Enabled: false}, &fakeDraftSource{}, newFakeDraftPolicy(), zap.NewNop())
	sweeper.Start(context.Background())
	// Stop on a never-started sweeper must not block.
	sweeper.Stop()
}

func TestDraftSweeper_StartStop(t *testing.T) {
	source := &fakeDraftSource{}
	cfg := DefaultDraftSweeperConfig()
	cfg.Interval = 10 * time.Millisecond

	sweeper := NewDraftSweeper(cfg, source, newFakeDraftPolicy(), zap.NewNop())
	sweeper.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	sweeper.Stop()

	assert.False(t, source.before.IsZero(), "expected at least one sweep")
}
