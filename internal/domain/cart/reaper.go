// internal/domain/cart/reaper.go
package cart

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// EvictionStore is the slice of the cart store the reaper needs.
type EvictionStore interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]uint, error)
	Evict(ctx context.Context, userID uint, now time.Time) error
}

// Reaper periodically evicts abandoned carts: expired and not
// checkout-pending. It deletes one cart at a time so a single failing
// delete never blocks the batch. The storage-level key TTL remains the
// independent backstop; the reaper only keeps the working set tidy between
// expirations.
type Reaper struct {
	store     EvictionStore
	interval  time.Duration
	batchSize int
	log       *logrus.Logger
}

// NewReaper creates a cart reaper.
func NewReaper(store EvictionStore, interval time.Duration, batchSize int, log *logrus.Logger) *Reaper {
	return &Reaper{
		store:     store,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled. The in-flight
// sweep is allowed to finish before Run returns.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.WithField("interval", r.interval.String()).Info("cart reaper started")

	for {
		select {
		case <-ctx.Done():
			r.log.Info("cart reaper stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs a single eviction pass.
func (r *Reaper) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	userIDs, err := r.store.ListExpired(ctx, now, r.batchSize)
	if err != nil {
		r.log.WithError(err).Error("cart reaper failed to list expired carts")
		return
	}
	if len(userIDs) == 0 {
		return
	}

	evicted := 0
	for _, userID := range userIDs {
		if err := r.store.Evict(ctx, userID, now); err != nil {
			r.log.WithError(err).WithField("user_id", userID).Warn("failed to evict abandoned cart")
			continue
		}
		evicted++
	}

	r.log.WithFields(logrus.Fields{
		"candidates": len(userIDs),
		"evicted":    evicted,
	}).Info("cart reaper sweep completed")
}
