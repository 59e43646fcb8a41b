// internal/domain/aliquot/entity.go
package aliquot

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/com2pa/backend-ecommerce/internal/domain/product"
)

// Standard aliquot codes. IGTF is the financial-transactions tax and only
// applies when the payment settles in a foreign currency.
const (
	CodeGeneral    = "G"
	CodeReduced    = "R"
	CodeAdditional = "A"
	CodeExempt     = "E"
	CodePerceived  = "P"
	CodeIGTF       = "IGTF"
)

// Aliquot represents a named tax rate category applied per product line.
// Read-only reference data for the pricing engine.
type Aliquot struct {
	ID                       uint              `gorm:"primaryKey" json:"id"`
	Code                     string            `gorm:"uniqueIndex;not null;size:10" json:"code"`
	Name                     string            `gorm:"not null;size:100" json:"name"`
	Percentage               decimal.Decimal   `gorm:"type:numeric(5,2);not null" json:"percentage"`
	AppliesToForeignCurrency bool              `gorm:"default:false" json:"applies_to_foreign_currency"`
	Products                 []product.Product `gorm:"many2many:aliquot_products;" json:"products,omitempty"`
	CreatedAt                time.Time         `json:"created_at"`
	UpdatedAt                time.Time         `json:"updated_at"`
	DeletedAt                gorm.DeletedAt    `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Aliquot) TableName() string {
	return "aliquots"
}

// DefaultTable is the standard Venezuelan IVA aliquot seed: general,
// reduced and additional rates, the exempt and untaxed categories, and
// IGTF for foreign-currency settlements.
func DefaultTable() []Aliquot {
	return []Aliquot{
		{Code: CodeGeneral, Name: "IVA Alícuota General", Percentage: decimal.NewFromInt(16)},
		{Code: CodeReduced, Name: "IVA Alícuota Reducida", Percentage: decimal.NewFromInt(8)},
		{Code: CodeAdditional, Name: "IVA Alícuota Adicional", Percentage: decimal.NewFromInt(31)},
		{Code: CodeExempt, Name: "Exento", Percentage: decimal.Zero},
		{Code: CodePerceived, Name: "No Gravado", Percentage: decimal.Zero},
		{
			Code:                     CodeIGTF,
			Name:                     "IGTF",
			Percentage:               decimal.NewFromInt(3),
			AppliesToForeignCurrency: true,
		},
	}
}
