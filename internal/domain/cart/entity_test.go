package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	c := New(7)

	require.NoError(t, c.AddItem(1, "Harina PAN", price("2.50"), 2, 10))
	require.NoError(t, c.AddItem(1, "Harina PAN", price("2.50"), 3, 10))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, c.Subtotal.Equal(price("12.50")), "subtotal: %s", c.Subtotal)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	c := New(7)

	err := c.AddItem(1, "Harina PAN", price("2.50"), 0, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.True(t, c.IsEmpty())
}

func TestAddItemAccumulatedQuantityBoundedByStock(t *testing.T) {
	c := New(7)

	require.NoError(t, c.AddItem(1, "Harina PAN", price("2.50"), 4, 5))

	err := c.AddItem(1, "Harina PAN", price("2.50"), 2, 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindOutOfStock))

	// The failed add leaves the cart untouched
	assert.Equal(t, 4, c.Items[0].Quantity)
	assert.True(t, c.Subtotal.Equal(price("10.00")))
}

func TestUpdateQuantityReplaces(t *testing.T) {
	c := New(7)
	require.NoError(t, c.AddItem(1, "Harina PAN", price("2.50"), 4, 10))

	require.NoError(t, c.UpdateQuantity(1, 2, 10))

	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.True(t, c.Subtotal.Equal(price("5.00")))
}

func TestUpdateQuantityAbsentLine(t *testing.T) {
	c := New(7)
	require.NoError(t, c.AddItem(1, "Harina PAN", price("2.50"), 4, 10))

	err := c.UpdateQuantity(99, 2, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// Failed update leaves the cart unchanged
	assert.Equal(t, 4, c.Items[0].Quantity)
}

func TestRemoveItemRestoresSubtotalInvariant(t *testing.T) {
	c := New(7)
	require.NoError(t, c.AddItem(1, "Harina PAN", price("2.50"), 2, 10))
	require.NoError(t, c.AddItem(2, "Café", price("7.00"), 1, 10))

	require.NoError(t, c.RemoveItem(1))

	require.Len(t, c.Items, 1)
	assert.True(t, c.Subtotal.Equal(price("7.00")))

	err := c.RemoveItem(1)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestTouchArmsTTLOnlyForActiveNonEmptyCarts(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	ttl := 10 * time.Minute

	c := New(7)

	// Empty cart never carries an expiry
	c.Touch(now, ttl)
	assert.Nil(t, c.ExpiresAt)

	require.NoError(t, c.AddItem(1, "Harina PAN", price("2.50"), 1, 10))
	c.Touch(now, ttl)
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, now.Add(ttl), *c.ExpiresAt)

	// Starting checkout disarms the TTL
	c.CheckoutPending = true
	c.Touch(now, ttl)
	assert.Nil(t, c.ExpiresAt)
}

func TestExpiredAtNeverTrueWhilePending(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	c := New(7)
	require.NoError(t, c.AddItem(1, "Harina PAN", price("2.50"), 1, 10))
	c.Touch(now.Add(-time.Hour), 10*time.Minute)

	assert.True(t, c.ExpiredAt(now))

	c.CheckoutPending = true
	assert.False(t, c.ExpiredAt(now))
}

func TestRecordDiscountDeduplicates(t *testing.T) {
	c := New(7)

	c.RecordDiscount(3)
	c.RecordDiscount(3)
	c.RecordDiscount(5)

	assert.Equal(t, []uint{3, 5}, c.DiscountIDs)
}
