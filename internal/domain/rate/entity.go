// internal/domain/rate/entity.go
package rate

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the cached official exchange rate for one currency on one day.
// OfficialRate is expressed as local currency units per one unit of Currency.
// Immutable once recorded; one row per (currency, effective date).
type Snapshot struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Currency      string          `gorm:"not null;size:3;uniqueIndex:idx_rates_currency_date" json:"currency"`
	OfficialRate  decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"official_rate"`
	EffectiveDate time.Time       `gorm:"not null;uniqueIndex:idx_rates_currency_date" json:"effective_date"`
	Source        string          `gorm:"size:255;default:'manual'" json:"source"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TableName overrides the table name
func (Snapshot) TableName() string {
	return "exchange_rates"
}
