// internal/domain/pricing/engine.go

// Package pricing turns a cart snapshot plus reference data into a fiscal
// breakdown. The engine is pure: no I/O, no clock, no mutation of its
// inputs, so the same snapshot always reproduces the same breakdown.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/com2pa/backend-ecommerce/internal/domain/aliquot"
	"github.com/com2pa/backend-ecommerce/internal/domain/discount"
	"github.com/com2pa/backend-ecommerce/internal/domain/rate"
	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

var hundred = decimal.NewFromInt(100)

// LineInput is one cart line with its resolved reference data. At most one
// discount applies per line: the first matching discount by catalog order,
// which is the documented tie-break policy.
type LineInput struct {
	ProductID uint
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal // captured at add time, base currency
	Discount  *discount.Snapshot
	Aliquots  []aliquot.Aliquot
}

// Input is a complete pricing request.
type Input struct {
	Lines []LineInput
	// Rates maps currency code to its snapshot (local units per one unit).
	Rates map[string]rate.Snapshot
	// FeeRatePct is the payment fee percentage for the chosen method.
	FeeRatePct decimal.Decimal
	// ForeignCurrencyPayment enables aliquots flagged AppliesToForeignCurrency.
	ForeignCurrencyPayment bool
}

// Amounts expresses one monetary value independently in several currencies.
// Every non-base value is derived by a single conversion of the exact base
// amount; converted values are never re-summed.
type Amounts map[string]decimal.Decimal

// TaxLine is one aliquot's accumulated amount across all lines.
type TaxLine struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     Amounts         `json:"amount"`
}

// LineDetail carries the per-line figures the order's item array captures.
// All values are exact base-currency amounts; display rounding happens at
// the formatting boundary.
type LineDetail struct {
	ProductID      uint                       `json:"product_id"`
	Name           string                     `json:"name"`
	Quantity       int                        `json:"quantity"`
	UnitPrice      decimal.Decimal            `json:"unit_price"`
	LineSubtotal   decimal.Decimal            `json:"line_subtotal"`
	Discount       *discount.Snapshot         `json:"discount,omitempty"`
	DiscountAmount decimal.Decimal            `json:"discount_amount"`
	TaxByCode      map[string]decimal.Decimal `json:"tax_by_code"`
	UnitPriceIn    Amounts                    `json:"unit_price_in"`
}

// Breakdown is the fiscal result: every component expressed per currency,
// rounded to display precision exactly once, plus the rate snapshots used.
type Breakdown struct {
	Subtotal   Amounts                  `json:"subtotal"`
	Discount   Amounts                  `json:"discount"`
	PaymentFee Amounts                  `json:"payment_fee"`
	Taxes      []TaxLine                `json:"taxes"`
	TotalTaxes Amounts                  `json:"total_taxes"`
	GrandTotal Amounts                  `json:"grand_total"`
	Rates      map[string]rate.Snapshot `json:"rates"`
}

// Result is the engine output.
type Result struct {
	Breakdown Breakdown
	Lines     []LineDetail
}

// Engine computes fiscal breakdowns across a base currency, the local
// currency, and any further quoted currencies.
type Engine struct {
	baseCurrency  string
	localCurrency string
	currencies    []string // every currency a breakdown is expressed in
}

// NewEngine creates a pricing engine. quoted lists the rate-backed
// currencies (the base currency among them); the local currency is derived
// through the base currency's official rate.
func NewEngine(baseCurrency, localCurrency string, quoted []string) *Engine {
	currencies := make([]string, 0, len(quoted)+1)
	seen := map[string]bool{}
	for _, c := range append([]string{baseCurrency}, quoted...) {
		if !seen[c] {
			currencies = append(currencies, c)
			seen[c] = true
		}
	}
	if !seen[localCurrency] {
		currencies = append(currencies, localCurrency)
	}
	return &Engine{
		baseCurrency:  baseCurrency,
		localCurrency: localCurrency,
		currencies:    currencies,
	}
}

// Compute runs the calculation pipeline over a cart snapshot.
//
// All intermediate arithmetic stays exact; rounding to two decimals happens
// once, on the final breakdown values.
func (e *Engine) Compute(in Input) (*Result, error) {
	if len(in.Lines) == 0 {
		return nil, apperrors.New(apperrors.KindEmptyCart, "cart is empty")
	}
	if err := e.checkRates(in.Rates); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	taxTotals := map[string]decimal.Decimal{}
	taxMeta := map[string]aliquot.Aliquot{}

	lines := make([]LineDetail, len(in.Lines))
	for i, line := range in.Lines {
		lineSubtotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineSubtotal)

		lineDiscount := decimal.Zero
		if line.Discount != nil {
			lineDiscount = lineSubtotal.Mul(line.Discount.Percentage).Div(hundred)
		}
		totalDiscount = totalDiscount.Add(lineDiscount)

		taxed := lineSubtotal.Sub(lineDiscount)
		lineTaxes := map[string]decimal.Decimal{}
		for _, al := range line.Aliquots {
			if al.AppliesToForeignCurrency && !in.ForeignCurrencyPayment {
				continue
			}
			tax := taxed.Mul(al.Percentage).Div(hundred)
			lineTaxes[al.Code] = lineTaxes[al.Code].Add(tax)
			taxTotals[al.Code] = taxTotals[al.Code].Add(tax)
			taxMeta[al.Code] = al
		}

		lines[i] = LineDetail{
			ProductID:      line.ProductID,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			LineSubtotal:   lineSubtotal,
			Discount:       line.Discount,
			DiscountAmount: lineDiscount,
			TaxByCode:      lineTaxes,
			UnitPriceIn:    e.express(line.UnitPrice, in.Rates),
		}
	}

	discountedSubtotal := subtotal.Sub(totalDiscount)
	paymentFee := discountedSubtotal.Mul(in.FeeRatePct).Div(hundred)

	totalTaxes := decimal.Zero
	for _, amount := range taxTotals {
		totalTaxes = totalTaxes.Add(amount)
	}

	grandTotal := discountedSubtotal.Add(paymentFee).Add(totalTaxes)

	taxes := make([]TaxLine, 0, len(taxTotals))
	for code, amount := range taxTotals {
		taxes = append(taxes, TaxLine{
			Code:       code,
			Name:       taxMeta[code].Name,
			Percentage: taxMeta[code].Percentage,
			Amount:     e.express(amount, in.Rates),
		})
	}
	sort.Slice(taxes, func(i, j int) bool { return taxes[i].Code < taxes[j].Code })

	return &Result{
		Breakdown: Breakdown{
			Subtotal:   e.express(subtotal, in.Rates),
			Discount:   e.express(totalDiscount, in.Rates),
			PaymentFee: e.express(paymentFee, in.Rates),
			Taxes:      taxes,
			TotalTaxes: e.express(totalTaxes, in.Rates),
			GrandTotal: e.express(grandTotal, in.Rates),
			Rates:      in.Rates,
		},
		Lines: lines,
	}, nil
}

// checkRates ensures every rate-backed currency has a snapshot.
func (e *Engine) checkRates(rates map[string]rate.Snapshot) error {
	for _, currency := range e.currencies {
		if currency == e.localCurrency {
			continue // local amounts derive through the base rate
		}
		if _, ok := rates[currency]; !ok {
			return apperrors.New(apperrors.KindRateUnavailable, "no exchange rate available for %s", currency)
		}
	}
	return nil
}

// express converts one exact base-currency amount into every configured
// currency with a single conversion each, then rounds to display precision.
// Converted amounts are never derived from other converted amounts' sums,
// so the two computation paths the rounding drift would need cannot exist.
func (e *Engine) express(baseAmount decimal.Decimal, rates map[string]rate.Snapshot) Amounts {
	out := make(Amounts, len(e.currencies))
	baseRate := rates[e.baseCurrency].OfficialRate

	for _, currency := range e.currencies {
		switch currency {
		case e.baseCurrency:
			out[currency] = baseAmount.Round(2)
		case e.localCurrency:
			out[currency] = baseAmount.Mul(baseRate).Round(2)
		default:
			// Cross rate through the local currency: base -> local -> quoted.
			out[currency] = baseAmount.Mul(baseRate).Div(rates[currency].OfficialRate).Round(2)
		}
	}
	return out
}
