package discount

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestActiveAtWindowIsInclusive(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	d := &Discount{Code: "PROMO10", StartDate: start, EndDate: end}

	assert.False(t, d.ActiveAt(start.Add(-time.Second)))
	assert.True(t, d.ActiveAt(start))
	assert.True(t, d.ActiveAt(start.Add(15*24*time.Hour)))
	assert.True(t, d.ActiveAt(end))
	assert.False(t, d.ActiveAt(end.Add(time.Second)))
}

func TestCaptureFreezesFields(t *testing.T) {
	d := &Discount{
		ID:         9,
		Code:       "PROMO10",
		Percentage: decimal.NewFromInt(10),
	}

	snap := d.Capture()

	// Later edits to the discount must not leak into the capture
	d.Percentage = decimal.NewFromInt(50)
	d.Code = "PROMO50"

	assert.Equal(t, uint(9), snap.DiscountID)
	assert.Equal(t, "PROMO10", snap.Code)
	assert.True(t, snap.Percentage.Equal(decimal.NewFromInt(10)))
}
