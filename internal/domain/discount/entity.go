// internal/domain/discount/entity.go
package discount

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/com2pa/backend-ecommerce/internal/domain/product"
)

// Discount represents a time-bounded percentage discount over a set of
// products. Once an order captures a discount it is copied by value, so
// later edits here never rewrite history.
type Discount struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Code       string            `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Percentage decimal.Decimal   `gorm:"type:numeric(5,2);not null" json:"percentage"`
	StartDate  time.Time         `gorm:"not null" json:"start_date"`
	EndDate    time.Time         `gorm:"not null" json:"end_date"`
	Products   []product.Product `gorm:"many2many:discount_products;" json:"products,omitempty"`
	CreatedBy  uint              `gorm:"index" json:"created_by"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DeletedAt  gorm.DeletedAt    `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Discount) TableName() string {
	return "discounts"
}

// ActiveAt reports whether the discount window covers the instant t.
// The window is inclusive on both ends.
func (d *Discount) ActiveAt(t time.Time) bool {
	return !t.Before(d.StartDate) && !t.After(d.EndDate)
}

// Online is the derived visibility flag: active right now.
func (d *Discount) Online() bool {
	return d.ActiveAt(time.Now().UTC())
}

// Snapshot is a by-value capture of a discount as applied to an order line.
type Snapshot struct {
	DiscountID uint            `json:"discount_id"`
	Code       string          `json:"code"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Capture freezes the fields an order needs.
func (d *Discount) Capture() Snapshot {
	return Snapshot{
		DiscountID: d.ID,
		Code:       d.Code,
		Percentage: d.Percentage,
	}
}
