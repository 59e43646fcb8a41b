package order

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/com2pa/backend-ecommerce/internal/config"
	"github.com/com2pa/backend-ecommerce/internal/domain/aliquot"
	"github.com/com2pa/backend-ecommerce/internal/domain/cart"
	"github.com/com2pa/backend-ecommerce/internal/domain/discount"
	"github.com/com2pa/backend-ecommerce/internal/domain/pricing"
	"github.com/com2pa/backend-ecommerce/internal/domain/rate"
	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// --- Mock implementations ---

type mockCartStore struct {
	cart         *cart.Cart
	claimErr     error
	claimCalls   int
	releaseCalls int
	retireCalls  int
}

func (m *mockCartStore) ClaimForOrder(_ context.Context, _ uint, _ string) (*cart.Cart, error) {
	m.claimCalls++
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	return m.cart, nil
}

func (m *mockCartStore) ReleaseClaim(_ context.Context, _ uint) error {
	m.releaseCalls++
	return nil
}

func (m *mockCartStore) CompleteCheckout(_ context.Context, _ uint) error {
	m.retireCalls++
	return nil
}

type mockRates struct {
	rates map[string]rate.Snapshot
	err   error
}

func (m *mockRates) LatestRate(_ context.Context, currency string) (*rate.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	snap := m.rates[currency]
	return &snap, nil
}

func (m *mockRates) LatestRates(_ context.Context, _ []string) (map[string]rate.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rates, nil
}

type mockDiscounts struct{}

func (m *mockDiscounts) FindActiveForProduct(_ context.Context, _ uint, _ time.Time) (*discount.Discount, error) {
	return nil, nil
}

type mockAliquots struct{}

func (m *mockAliquots) ForProduct(_ context.Context, _ uint) ([]aliquot.Aliquot, error) {
	return nil, nil
}

type mockSequencer struct {
	number string
	err    error
	calls  int
}

func (m *mockSequencer) Next(_ context.Context, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.number, nil
}

type mockIdemStore struct {
	values map[string]string
}

func newMockIdemStore() *mockIdemStore {
	return &mockIdemStore{values: map[string]string{}}
}

func (m *mockIdemStore) Reserve(_ context.Context, key, marker string, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = marker
	return true, nil
}

func (m *mockIdemStore) Lookup(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockIdemStore) Store(_ context.Context, key, value string, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *mockIdemStore) Release(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

// --- Helpers ---

func testConfig() *config.Config {
	return &config.Config{
		Commerce: config.CommerceConfig{
			BaseCurrency:       "USD",
			LocalCurrency:      "VES",
			QuotedCurrencies:   []string{"USD"},
			CartUpdateRetries:  1,
			RetireRetryBackoff: time.Millisecond,
			IdempotencyKeyTTL:  time.Hour,
			CardForeignFeePct:  3.0,
		},
	}
}

func claimedCart() *cart.Cart {
	c := cart.New(7)
	c.ID = "11111111-1111-1111-1111-111111111111"
	c.Items = []cart.Line{{
		ProductID: 1,
		Name:      "Harina PAN",
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("2.50"),
	}}
	c.Claimed = true
	return c
}

func newTestService(carts CartStore, rates rate.Provider, sequencer Sequencer) *Service {
	cfg := testConfig()
	log := logrus.New()
	log.SetOutput(io.Discard)

	engine := pricing.NewEngine(cfg.Commerce.BaseCurrency, cfg.Commerce.LocalCurrency, cfg.Commerce.QuotedCurrencies)
	svc := NewService(nil, nil, carts, &mockDiscounts{}, &mockAliquots{}, rates, engine, sequencer, cfg, log)
	svc.idem = newMockIdemStore()
	return svc
}

// --- Tests ---

func TestCreateOrderRejectsUnknownPaymentMethod(t *testing.T) {
	carts := &mockCartStore{cart: claimedCart()}
	svc := newTestService(carts, &mockRates{}, &mockSequencer{})

	_, err := svc.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		CartID:        "11111111-1111-1111-1111-111111111111",
		PaymentMethod: PaymentMethod("bitcoin"),
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Zero(t, carts.claimCalls, "cart must not be claimed for an invalid request")
}

func TestCreateOrderConcurrentLoserGetsNotFound(t *testing.T) {
	carts := &mockCartStore{
		claimErr: apperrors.New(apperrors.KindNotFound, "cart not found or already consumed"),
	}
	svc := newTestService(carts, &mockRates{}, &mockSequencer{})

	_, err := svc.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		CartID:        "11111111-1111-1111-1111-111111111111",
		PaymentMethod: PaymentMethodBankTransfer,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	assert.Zero(t, carts.releaseCalls, "a failed claim leaves nothing to release")
	assert.Zero(t, carts.retireCalls)
}

func TestCreateOrderEmptyCartRejectedAtClaim(t *testing.T) {
	carts := &mockCartStore{
		claimErr: apperrors.New(apperrors.KindEmptyCart, "cart is empty"),
	}
	svc := newTestService(carts, &mockRates{}, &mockSequencer{})

	_, err := svc.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		CartID:        "11111111-1111-1111-1111-111111111111",
		PaymentMethod: PaymentMethodBankTransfer,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindEmptyCart))
	assert.Zero(t, carts.releaseCalls)
}

func TestCreateOrderReleasesClaimWhenRatesUnavailable(t *testing.T) {
	carts := &mockCartStore{cart: claimedCart()}
	rates := &mockRates{err: apperrors.New(apperrors.KindRateUnavailable, "no exchange rate available for USD")}
	svc := newTestService(carts, rates, &mockSequencer{})

	_, err := svc.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		CartID:        "11111111-1111-1111-1111-111111111111",
		PaymentMethod: PaymentMethodBankTransfer,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindRateUnavailable))
	assert.Equal(t, 1, carts.claimCalls)
	assert.Equal(t, 1, carts.releaseCalls, "the claim must be released so the cart stays usable")
	assert.Zero(t, carts.retireCalls)
}

func TestCreateOrderReleasesClaimWhenSequenceFails(t *testing.T) {
	carts := &mockCartStore{cart: claimedCart()}
	rates := &mockRates{rates: map[string]rate.Snapshot{
		"USD": {Currency: "USD", OfficialRate: decimal.RequireFromString("36.50")},
	}}
	sequencer := &mockSequencer{err: apperrors.New(apperrors.KindPersistence, "series row locked")}
	svc := newTestService(carts, rates, sequencer)

	_, err := svc.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		CartID:        "11111111-1111-1111-1111-111111111111",
		PaymentMethod: PaymentMethodBankTransfer,
	})

	require.Error(t, err)
	assert.Equal(t, 1, sequencer.calls)
	assert.Equal(t, 1, carts.releaseCalls)
	assert.Zero(t, carts.retireCalls)
}

func TestBeginIdempotentReplayReturnsRecordedOrderID(t *testing.T) {
	svc := newTestService(&mockCartStore{}, &mockRates{}, &mockSequencer{})
	idem := svc.idem.(*mockIdemStore)
	idem.values[idempotencyKey(7, "retry-abc")] = "42"

	existingID, acquired, err := svc.beginIdempotent(context.Background(), 7, "retry-abc")

	require.NoError(t, err)
	assert.False(t, acquired, "a recorded key must never be re-acquired")
	assert.Equal(t, uint(42), existingID)
}

func TestCreateOrderDuplicateKeyWhileInFlightConflicts(t *testing.T) {
	carts := &mockCartStore{cart: claimedCart()}
	svc := newTestService(carts, &mockRates{}, &mockSequencer{})
	idem := svc.idem.(*mockIdemStore)
	idem.values[idempotencyKey(7, "retry-abc")] = idempotencyPending

	_, err := svc.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		CartID:         "11111111-1111-1111-1111-111111111111",
		PaymentMethod:  PaymentMethodBankTransfer,
		IdempotencyKey: "retry-abc",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Zero(t, carts.claimCalls, "the duplicate must not touch the cart")
}

func TestCreateOrderFailureReleasesIdempotencyKey(t *testing.T) {
	carts := &mockCartStore{cart: claimedCart()}
	rates := &mockRates{err: apperrors.New(apperrors.KindRateUnavailable, "no exchange rate available for USD")}
	svc := newTestService(carts, rates, &mockSequencer{})
	idem := svc.idem.(*mockIdemStore)

	_, err := svc.CreateOrder(context.Background(), 7, &CreateOrderRequest{
		CartID:         "11111111-1111-1111-1111-111111111111",
		PaymentMethod:  PaymentMethodBankTransfer,
		IdempotencyKey: "retry-abc",
	})

	require.Error(t, err)
	_, held, lookupErr := idem.Lookup(context.Background(), idempotencyKey(7, "retry-abc"))
	require.NoError(t, lookupErr)
	assert.False(t, held, "a failed creation must free the key for the client to retry")
}
