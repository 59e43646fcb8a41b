package order

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentStatusPending, PaymentStatusCompleted, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusRefunded, false},
		{PaymentStatusFailed, PaymentStatusPending, true},
		{PaymentStatusFailed, PaymentStatusCompleted, false},
		{PaymentStatusCompleted, PaymentStatusRefunded, true},
		{PaymentStatusCompleted, PaymentStatusPending, false},
		{PaymentStatusRefunded, PaymentStatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestPaymentMethodForeignCurrency(t *testing.T) {
	assert.True(t, PaymentMethodCreditCardUSD.ForeignCurrency())
	assert.False(t, PaymentMethodCreditCard.ForeignCurrency())
	assert.False(t, PaymentMethodPaypal.ForeignCurrency())
	assert.False(t, PaymentMethodBankTransfer.ForeignCurrency())
	assert.False(t, PaymentMethodCashOnDelivery.ForeignCurrency())
	assert.False(t, PaymentMethod("bitcoin").Valid())

	for _, m := range []PaymentMethod{
		PaymentMethodCreditCard, PaymentMethodCreditCardUSD, PaymentMethodPaypal,
		PaymentMethodBankTransfer, PaymentMethodCashOnDelivery,
	} {
		assert.True(t, m.Valid(), "method %s", m)
	}
}

func TestFormatFiscalNumber(t *testing.T) {
	assert.Equal(t, "FAC-00001", formatFiscalNumber("FAC-", 1))
	assert.Equal(t, "FAC-00042", formatFiscalNumber("FAC-", 42))
	assert.Equal(t, "FAC-123456", formatFiscalNumber("FAC-", 123456))
}

func TestGenerateOrderNumber(t *testing.T) {
	o := &Order{ID: 42, CreatedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)}
	assert.Equal(t, "ORD-20260829-00042", o.GenerateOrderNumber())
}

func TestPlaceholderOrderNumberIsUniquePerCall(t *testing.T) {
	a := PlaceholderOrderNumber()
	b := PlaceholderOrderNumber()

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "PND-"))
	assert.LessOrEqual(t, len(a), 50)
}
