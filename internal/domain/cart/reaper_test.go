package cart

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

type mockEvictionStore struct {
	expired  []uint
	listErr  error
	evictErr map[uint]error
	evicted  []uint
}

func (m *mockEvictionStore) ListExpired(_ context.Context, _ time.Time, limit int) ([]uint, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if len(m.expired) > limit {
		return m.expired[:limit], nil
	}
	return m.expired, nil
}

func (m *mockEvictionStore) Evict(_ context.Context, userID uint, _ time.Time) error {
	if err := m.evictErr[userID]; err != nil {
		return err
	}
	m.evicted = append(m.evicted, userID)
	return nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSweepContinuesAfterFailingEviction(t *testing.T) {
	store := &mockEvictionStore{
		expired: []uint{1, 2, 3},
		evictErr: map[uint]error{
			2: apperrors.New(apperrors.KindPersistence, "redis unavailable"),
		},
	}

	reaper := NewReaper(store, time.Minute, 100, testLogger())
	reaper.Sweep(context.Background())

	assert.Equal(t, []uint{1, 3}, store.evicted)
}

func TestSweepRespectsBatchSize(t *testing.T) {
	store := &mockEvictionStore{expired: []uint{1, 2, 3, 4, 5}}

	reaper := NewReaper(store, time.Minute, 2, testLogger())
	reaper.Sweep(context.Background())

	assert.Equal(t, []uint{1, 2}, store.evicted)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &mockEvictionStore{}
	reaper := NewReaper(store, time.Millisecond, 100, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after context cancellation")
	}
}
