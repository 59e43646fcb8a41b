package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindPersistence, cause, "failed to save order %d", 42)

	assert.Contains(t, err.Error(), "failed to save order 42")
	assert.True(t, errors.Is(err, cause))
}

func TestKindSurvivesFurtherWrapping(t *testing.T) {
	inner := New(KindOutOfStock, "insufficient stock. Available: %d", 3)
	outer := fmt.Errorf("adding item: %w", inner)

	assert.Equal(t, KindOutOfStock, KindOf(outer))
	assert.True(t, IsKind(outer, KindOutOfStock))
	assert.False(t, IsKind(outer, KindNotFound))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindPersistence, KindOf(errors.New("boom")))
}

func TestRetryableOnlyForPersistence(t *testing.T) {
	require.True(t, Retryable(New(KindPersistence, "deadlock")))

	for _, kind := range []Kind{
		KindValidation, KindNotFound, KindUnauthorized, KindOutOfStock,
		KindRateUnavailable, KindEmptyCart, KindDuplicateFiscal, KindConflict,
	} {
		assert.False(t, Retryable(New(kind, "x")), "kind %s must not be retryable", kind)
	}
}
