// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// Line represents one product line inside a cart. UnitPrice is captured at
// add time and never re-read from the catalog afterwards.
type Line struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns unit price times quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the per-user shopping cart document stored in Redis. Exactly one
// exists per user; the storage key enforces that. Subtotal and Total are
// derived, recomputed after every mutation, and never authoritative.
//
// Lifecycle: Active(empty) -> Active(non-empty, TTL armed) ->
// CheckoutPending (TTL disarmed) -> Consumed, or Expired via the reaper or
// the storage TTL. ExpiresAt is always nil while CheckoutPending is set or
// the cart is empty.
type Cart struct {
	ID              string          `json:"id"`
	UserID          uint            `json:"user_id"`
	Items           []Line          `json:"items"`
	DiscountIDs     []uint          `json:"discount_ids"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Total           decimal.Decimal `json:"total"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	CheckoutPending bool            `json:"checkout_pending"`
	Claimed         bool            `json:"claimed"`
	LastUpdated     time.Time       `json:"last_updated"`
	Version         int64           `json:"version"`
}

// New creates an empty cart for a user.
func New(userID uint) *Cart {
	return &Cart{
		ID:          uuid.New().String(),
		UserID:      userID,
		Items:       []Line{},
		DiscountIDs: []uint{},
		Subtotal:    decimal.Zero,
		Total:       decimal.Zero,
		LastUpdated: time.Now().UTC(),
	}
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// lineIndex returns the index of the line for productID, or -1.
func (c *Cart) lineIndex(productID uint) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem accumulates quantity onto an existing line or appends a new one
// with the captured unit price. availableStock bounds the accumulated line
// quantity. Not idempotent: repeated calls with the same qty keep adding.
func (c *Cart) AddItem(productID uint, name string, unitPrice decimal.Decimal, qty, availableStock int) error {
	if qty <= 0 {
		return apperrors.New(apperrors.KindValidation, "quantity must be a positive integer")
	}

	newQty := qty
	if i := c.lineIndex(productID); i >= 0 {
		newQty += c.Items[i].Quantity
	}
	if newQty > availableStock {
		return apperrors.New(apperrors.KindOutOfStock, "insufficient stock. Available: %d", availableStock)
	}

	if i := c.lineIndex(productID); i >= 0 {
		c.Items[i].Quantity = newQty
	} else {
		c.Items = append(c.Items, Line{
			ProductID: productID,
			Name:      name,
			Quantity:  qty,
			UnitPrice: unitPrice,
		})
	}

	c.recalculate()
	return nil
}

// UpdateQuantity replaces (never accumulates) the quantity on an existing
// line.
func (c *Cart) UpdateQuantity(productID uint, newQty, availableStock int) error {
	if newQty <= 0 {
		return apperrors.New(apperrors.KindValidation, "quantity must be a positive integer")
	}
	if newQty > availableStock {
		return apperrors.New(apperrors.KindOutOfStock, "insufficient stock. Available: %d", availableStock)
	}

	i := c.lineIndex(productID)
	if i < 0 {
		return apperrors.New(apperrors.KindNotFound, "product %d not found in cart", productID)
	}

	c.Items[i].Quantity = newQty
	c.recalculate()
	return nil
}

// RemoveItem deletes a line from the cart.
func (c *Cart) RemoveItem(productID uint) error {
	i := c.lineIndex(productID)
	if i < 0 {
		return apperrors.New(apperrors.KindNotFound, "product %d not found in cart", productID)
	}

	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.recalculate()
	return nil
}

// RecordDiscount remembers an active discount id once.
func (c *Cart) RecordDiscount(discountID uint) {
	for _, id := range c.DiscountIDs {
		if id == discountID {
			return
		}
	}
	c.DiscountIDs = append(c.DiscountIDs, discountID)
}

// recalculate restores the derived-totals invariant:
// subtotal == sum(unitPrice_i * quantity_i) after every mutation.
func (c *Cart) recalculate() {
	subtotal := decimal.Zero
	for _, line := range c.Items {
		subtotal = subtotal.Add(line.Subtotal())
	}
	c.Subtotal = subtotal
	// Discounts are only applied at order time; the cart total mirrors the
	// subtotal so the cart never pretends to be a fiscal document.
	c.Total = subtotal
}

// Touch updates the mutation timestamp and arms or disarms the expiration
// per the lifecycle rules: no TTL while checkout-pending, claimed, or empty.
func (c *Cart) Touch(now time.Time, ttl time.Duration) {
	c.LastUpdated = now
	if c.CheckoutPending || c.Claimed || c.IsEmpty() {
		c.ExpiresAt = nil
		return
	}
	expiry := now.Add(ttl)
	c.ExpiresAt = &expiry
}

// ExpiredAt reports whether the cart is eligible for eviction at now.
// A checkout-pending or claimed cart never expires, regardless of ExpiresAt.
func (c *Cart) ExpiredAt(now time.Time) bool {
	if c.CheckoutPending || c.Claimed {
		return false
	}
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}
