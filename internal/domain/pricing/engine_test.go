package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/com2pa/backend-ecommerce/internal/domain/aliquot"
	"github.com/com2pa/backend-ecommerce/internal/domain/discount"
	"github.com/com2pa/backend-ecommerce/internal/domain/rate"
	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// --- Helpers ---

func usdRate(value string) map[string]rate.Snapshot {
	return map[string]rate.Snapshot{
		"USD": {
			Currency:      "USD",
			OfficialRate:  decimal.RequireFromString(value),
			EffectiveDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			Source:        "BCV",
		},
	}
}

func generalIVA(pct string) aliquot.Aliquot {
	return aliquot.Aliquot{
		Code:       aliquot.CodeGeneral,
		Name:       "IVA Alícuota General",
		Percentage: decimal.RequireFromString(pct),
	}
}

func igtf() aliquot.Aliquot {
	return aliquot.Aliquot{
		Code:                     aliquot.CodeIGTF,
		Name:                     "IGTF",
		Percentage:               decimal.NewFromInt(3),
		AppliesToForeignCurrency: true,
	}
}

func tenPercentOff() *discount.Snapshot {
	return &discount.Snapshot{
		DiscountID: 1,
		Code:       "PROMO10",
		Percentage: decimal.NewFromInt(10),
	}
}

// --- Tests ---

func TestComputeGoldenScenario(t *testing.T) {
	engine := NewEngine("USD", "VES", []string{"USD"})

	result, err := engine.Compute(Input{
		Lines: []LineInput{{
			ProductID: 1,
			Name:      "Harina PAN",
			Quantity:  3,
			UnitPrice: decimal.RequireFromString("10.00"),
			Discount:  tenPercentOff(),
			Aliquots:  []aliquot.Aliquot{generalIVA("16")},
		}},
		Rates:      usdRate("36.50"),
		FeeRatePct: decimal.Zero,
	})
	require.NoError(t, err)

	b := result.Breakdown
	assert.True(t, b.Subtotal["USD"].Equal(decimal.RequireFromString("30.00")), "subtotal: %s", b.Subtotal["USD"])
	assert.True(t, b.Discount["USD"].Equal(decimal.RequireFromString("3.00")), "discount: %s", b.Discount["USD"])
	assert.True(t, b.TotalTaxes["USD"].Equal(decimal.RequireFromString("4.32")), "taxes: %s", b.TotalTaxes["USD"])
	assert.True(t, b.PaymentFee["USD"].IsZero())
	assert.True(t, b.GrandTotal["USD"].Equal(decimal.RequireFromString("31.32")), "grand: %s", b.GrandTotal["USD"])
	assert.True(t, b.GrandTotal["VES"].Equal(decimal.RequireFromString("1143.18")), "grand VES: %s", b.GrandTotal["VES"])

	require.Len(t, result.Lines, 1)
	line := result.Lines[0]
	assert.True(t, line.LineSubtotal.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, line.DiscountAmount.Equal(decimal.RequireFromString("3.00")))
	assert.True(t, line.TaxByCode[aliquot.CodeGeneral].Equal(decimal.RequireFromString("4.32")))
}

func TestComputeLocalTotalConvertsGrandTotalOnce(t *testing.T) {
	engine := NewEngine("USD", "VES", []string{"USD"})

	// Components whose individually rounded local values would not re-sum
	// to the converted grand total.
	result, err := engine.Compute(Input{
		Lines: []LineInput{
			{ProductID: 1, Name: "A", Quantity: 1, UnitPrice: decimal.RequireFromString("0.07")},
			{ProductID: 2, Name: "B", Quantity: 1, UnitPrice: decimal.RequireFromString("0.07")},
			{ProductID: 3, Name: "C", Quantity: 1, UnitPrice: decimal.RequireFromString("0.07")},
		},
		Rates:      usdRate("36.55"),
		FeeRatePct: decimal.Zero,
	})
	require.NoError(t, err)

	// 0.21 * 36.55 = 7.6755 -> 7.68 exactly once, never 3 x round(2.558...)
	assert.True(t, result.Breakdown.GrandTotal["VES"].Equal(decimal.RequireFromString("7.68")),
		"grand VES: %s", result.Breakdown.GrandTotal["VES"])
}

func TestComputeQuotedCurrencyUsesCrossRate(t *testing.T) {
	engine := NewEngine("USD", "VES", []string{"USD", "EUR"})

	rates := usdRate("36.50")
	rates["EUR"] = rate.Snapshot{
		Currency:      "EUR",
		OfficialRate:  decimal.RequireFromString("40.00"),
		EffectiveDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Source:        "BCV",
	}

	result, err := engine.Compute(Input{
		Lines: []LineInput{{
			ProductID: 1, Name: "A", Quantity: 1,
			UnitPrice: decimal.RequireFromString("100.00"),
		}},
		Rates:      rates,
		FeeRatePct: decimal.Zero,
	})
	require.NoError(t, err)

	// 100 USD -> 3650 VES -> 91.25 EUR
	assert.True(t, result.Breakdown.GrandTotal["EUR"].Equal(decimal.RequireFromString("91.25")),
		"grand EUR: %s", result.Breakdown.GrandTotal["EUR"])
}

func TestComputeIGTFOnlyForForeignCurrencyPayments(t *testing.T) {
	engine := NewEngine("USD", "VES", []string{"USD"})

	input := Input{
		Lines: []LineInput{{
			ProductID: 1, Name: "A", Quantity: 1,
			UnitPrice: decimal.RequireFromString("100.00"),
			Aliquots:  []aliquot.Aliquot{generalIVA("16"), igtf()},
		}},
		Rates:      usdRate("36.50"),
		FeeRatePct: decimal.Zero,
	}

	input.ForeignCurrencyPayment = false
	local, err := engine.Compute(input)
	require.NoError(t, err)
	assert.True(t, local.Breakdown.TotalTaxes["USD"].Equal(decimal.RequireFromString("16.00")),
		"local payment taxes: %s", local.Breakdown.TotalTaxes["USD"])

	input.ForeignCurrencyPayment = true
	foreign, err := engine.Compute(input)
	require.NoError(t, err)
	assert.True(t, foreign.Breakdown.TotalTaxes["USD"].Equal(decimal.RequireFromString("19.00")),
		"foreign payment taxes: %s", foreign.Breakdown.TotalTaxes["USD"])

	require.Len(t, foreign.Breakdown.Taxes, 2)
	assert.Equal(t, aliquot.CodeGeneral, foreign.Breakdown.Taxes[0].Code)
	assert.Equal(t, aliquot.CodeIGTF, foreign.Breakdown.Taxes[1].Code)
}

func TestComputePaymentFeeAppliesToDiscountedSubtotal(t *testing.T) {
	engine := NewEngine("USD", "VES", []string{"USD"})

	result, err := engine.Compute(Input{
		Lines: []LineInput{{
			ProductID: 1, Name: "A", Quantity: 1,
			UnitPrice: decimal.RequireFromString("100.00"),
			Discount:  tenPercentOff(),
		}},
		Rates:                  usdRate("36.50"),
		FeeRatePct:             decimal.NewFromInt(3),
		ForeignCurrencyPayment: true,
	})
	require.NoError(t, err)

	// fee = 3% of 90.00
	assert.True(t, result.Breakdown.PaymentFee["USD"].Equal(decimal.RequireFromString("2.70")),
		"fee: %s", result.Breakdown.PaymentFee["USD"])
	assert.True(t, result.Breakdown.GrandTotal["USD"].Equal(decimal.RequireFromString("92.70")))
}

func TestComputeMissingRateFailsWholeCalculation(t *testing.T) {
	engine := NewEngine("USD", "VES", []string{"USD", "EUR"})

	_, err := engine.Compute(Input{
		Lines: []LineInput{{
			ProductID: 1, Name: "A", Quantity: 1,
			UnitPrice: decimal.RequireFromString("10.00"),
		}},
		Rates: usdRate("36.50"), // no EUR snapshot
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindRateUnavailable))
}

func TestComputeEmptyLines(t *testing.T) {
	engine := NewEngine("USD", "VES", []string{"USD"})

	_, err := engine.Compute(Input{Rates: usdRate("36.50")})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindEmptyCart))
}
