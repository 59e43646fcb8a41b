// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/com2pa/backend-ecommerce/internal/config"
	"github.com/com2pa/backend-ecommerce/internal/domain/discount"
	"github.com/com2pa/backend-ecommerce/internal/domain/product"
	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

const expiryIndexKey = "carts:expiry"

// Service is the CartStore: it owns the single active cart per user and all
// of its lifecycle transitions. Cart documents live in Redis; every mutation
// is an optimistic compare-and-swap (WATCH + MULTI/EXEC) so concurrent
// requests against the same user's cart never lose updates. The key TTL
// mirrors ExpiresAt and is the authoritative cleanup backstop, independent
// of the application-level reaper.
type Service struct {
	redisClient *redis.Client
	catalog     product.Catalog
	discounts   discount.Resolver
	config      *config.Config
	log         *logrus.Logger
}

// NewService creates a new cart service
func NewService(redisClient *redis.Client, catalog product.Catalog, discounts discount.Resolver, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		redisClient: redisClient,
		catalog:     catalog,
		discounts:   discounts,
		config:      cfg,
		log:         log,
	}
}

func cartKey(userID uint) string {
	return fmt.Sprintf("cart:user:%d", userID)
}

func expiryMember(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// AddItem validates the product and stock, then accumulates the quantity
// onto the user's cart, capturing the unit price at add time. The TTL is
// re-armed on every mutation unless checkout is pending.
func (s *Service) AddItem(ctx context.Context, userID, productID uint, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, apperrors.New(apperrors.KindValidation, "quantity must be a positive integer")
	}

	prod, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	// Resolve the currently active discount before entering the CAS loop;
	// the resolution is read-only and must not be retried on contention.
	activeDiscount, err := s.discounts.FindActiveForProduct(ctx, productID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, true, func(c *Cart) error {
		if err := c.AddItem(prod.ID, prod.Name, prod.Price, qty, prod.Stock); err != nil {
			return err
		}
		if activeDiscount != nil {
			c.RecordDiscount(activeDiscount.ID)
		}
		return nil
	})
}

// UpdateItemQuantity replaces the quantity of an existing line.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID uint, newQty int) (*Cart, error) {
	if newQty <= 0 {
		return nil, apperrors.New(apperrors.KindValidation, "quantity must be a positive integer")
	}

	prod, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, false, func(c *Cart) error {
		return c.UpdateQuantity(prod.ID, newQty, prod.Stock)
	})
}

// RemoveItem deletes a line from the user's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) (*Cart, error) {
	return s.mutate(ctx, userID, false, func(c *Cart) error {
		return c.RemoveItem(productID)
	})
}

// GetCart returns the user's current cart.
func (s *Service) GetCart(ctx context.Context, userID uint) (*Cart, error) {
	data, err := s.redisClient.Get(ctx, cartKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.New(apperrors.KindNotFound, "cart not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to load cart")
	}

	var c Cart
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to decode cart")
	}
	return &c, nil
}

// StartCheckout flips the cart into the checkout-pending state and disarms
// its expiration in the same atomic update, closing the race with the
// reaper deleting the cart mid-transition.
func (s *Service) StartCheckout(ctx context.Context, userID uint) (*Cart, error) {
	return s.mutate(ctx, userID, false, func(c *Cart) error {
		if c.IsEmpty() {
			return apperrors.New(apperrors.KindEmptyCart, "cart is empty")
		}
		c.CheckoutPending = true
		return nil
	})
}

// CompleteCheckout deletes the cart record. Idempotent: deleting an absent
// cart is not an error at this layer.
func (s *Service) CompleteCheckout(ctx context.Context, userID uint) error {
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, cartKey(userID))
		pipe.ZRem(ctx, expiryIndexKey, expiryMember(userID))
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, err, "failed to retire cart")
	}
	return nil
}

// ClaimForOrder atomically marks the cart as claimed by an order-creation
// pipeline. Exactly one of N concurrent claims for the same cart id wins;
// the rest observe the cart as already consumed. An empty cart aborts
// before any write.
func (s *Service) ClaimForOrder(ctx context.Context, userID uint, cartID string) (*Cart, error) {
	return s.mutate(ctx, userID, false, func(c *Cart) error {
		if c.ID != cartID || c.Claimed {
			return apperrors.New(apperrors.KindNotFound, "cart not found or already consumed")
		}
		if c.IsEmpty() {
			return apperrors.New(apperrors.KindEmptyCart, "cart is empty")
		}
		c.Claimed = true
		return nil
	})
}

// ReleaseClaim undoes a claim after a failed order pipeline so the cart can
// be checked out again. Safe to call when the cart is already gone.
func (s *Service) ReleaseClaim(ctx context.Context, userID uint) error {
	_, err := s.mutate(ctx, userID, false, func(c *Cart) error {
		c.Claimed = false
		return nil
	})
	if apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil
	}
	return err
}

// ListExpired returns user ids whose carts the expiry index marks as due at
// now. The reaper confirms eligibility per cart before deleting.
func (s *Service) ListExpired(ctx context.Context, now time.Time, limit int) ([]uint, error) {
	members, err := s.redisClient.ZRangeByScore(ctx, expiryIndexKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to scan expiry index")
	}

	userIDs := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		userIDs = append(userIDs, uint(id))
	}
	return userIDs, nil
}

// Evict deletes one abandoned cart. It re-checks the lifecycle rules under
// WATCH: a checkout-pending cart is never deleted regardless of ExpiresAt,
// and a concurrently mutated cart is left for the next sweep.
func (s *Service) Evict(ctx context.Context, userID uint, now time.Time) error {
	key := cartKey(userID)
	err := s.redisClient.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			// Key TTL already fired; drop the stale index entry.
			return s.removeFromIndex(ctx, tx, userID)
		}
		if err != nil {
			return err
		}

		var c Cart
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return err
		}

		if c.CheckoutPending {
			// TTL is disarmed for pending carts; the index entry is stale.
			return s.removeFromIndex(ctx, tx, userID)
		}
		if !c.ExpiredAt(now) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, expiryIndexKey, expiryMember(userID))
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		// Cart mutated while we looked at it; it is no longer abandoned.
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, err, "failed to evict cart for user %d", userID)
	}
	return nil
}

func (s *Service) removeFromIndex(ctx context.Context, tx *redis.Tx, userID uint) error {
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, expiryIndexKey, expiryMember(userID))
		return nil
	})
	return err
}

// mutate runs fn against the user's cart document under an optimistic
// compare-and-swap. On contention (EXEC aborted by a concurrent write) the
// whole read-modify-write is retried a bounded number of times; business
// errors from fn abort immediately without a write.
func (s *Service) mutate(ctx context.Context, userID uint, createIfMissing bool, fn func(*Cart) error) (*Cart, error) {
	key := cartKey(userID)
	ttl := s.config.Commerce.CartTTL

	var result *Cart
	for attempt := 0; attempt <= s.config.Commerce.CartUpdateRetries; attempt++ {
		err := s.redisClient.Watch(ctx, func(tx *redis.Tx) error {
			var c *Cart
			data, err := tx.Get(ctx, key).Result()
			switch {
			case errors.Is(err, redis.Nil):
				if !createIfMissing {
					return apperrors.New(apperrors.KindNotFound, "cart not found")
				}
				c = New(userID)
			case err != nil:
				return apperrors.Wrap(apperrors.KindPersistence, err, "failed to load cart")
			default:
				c = &Cart{}
				if err := json.Unmarshal([]byte(data), c); err != nil {
					return apperrors.Wrap(apperrors.KindPersistence, err, "failed to decode cart")
				}
			}

			if err := fn(c); err != nil {
				return err
			}

			now := time.Now().UTC()
			c.Touch(now, ttl)
			c.Version++

			payload, err := json.Marshal(c)
			if err != nil {
				return apperrors.Wrap(apperrors.KindPersistence, err, "failed to encode cart")
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				if c.ExpiresAt != nil {
					pipe.ExpireAt(ctx, key, *c.ExpiresAt)
					pipe.ZAdd(ctx, expiryIndexKey, redis.Z{
						Score:  float64(c.ExpiresAt.Unix()),
						Member: expiryMember(userID),
					})
				} else {
					pipe.Persist(ctx, key)
					pipe.ZRem(ctx, expiryIndexKey, expiryMember(userID))
				}
				return nil
			})
			if err != nil {
				return err
			}

			result = c
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			s.log.WithFields(logrus.Fields{
				"user_id": userID,
				"attempt": attempt + 1,
			}).Debug("cart update contention, retrying")
			continue
		}
		if err != nil {
			var appErr *apperrors.Error
			if errors.As(err, &appErr) {
				return nil, err
			}
			return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to update cart")
		}
		return result, nil
	}

	return nil, apperrors.New(apperrors.KindConflict, "cart is being modified concurrently, try again")
}
