package pdf

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/com2pa/backend-ecommerce/internal/config"
	"github.com/com2pa/backend-ecommerce/internal/domain/pricing"
)

func TestCurrencyColumnsBaseFirstThenAlphabetical(t *testing.T) {
	svc := NewService(&config.Config{
		Commerce: config.CommerceConfig{BaseCurrency: "USD"},
	})

	b := pricing.Breakdown{GrandTotal: pricing.Amounts{
		"VES": decimal.Zero,
		"EUR": decimal.Zero,
		"USD": decimal.Zero,
	}}

	assert.Equal(t, []string{"USD", "EUR", "VES"}, svc.currencyColumns(b))
}
