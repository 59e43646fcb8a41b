// internal/domain/aliquot/service.go
package aliquot

import (
	"context"

	"gorm.io/gorm"

	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// Table is the tax-category lookup contract consumed by the order factory.
type Table interface {
	ForProduct(ctx context.Context, productID uint) ([]Aliquot, error)
}

// Service handles aliquot reference data
type Service struct {
	db *gorm.DB
}

// NewService creates a new aliquot service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ForProduct returns the aliquots attached to a product plus every
// foreign-currency aliquot. The pricing engine decides whether the
// foreign-currency ones actually apply for the chosen payment method.
func (s *Service) ForProduct(ctx context.Context, productID uint) ([]Aliquot, error) {
	var aliquots []Aliquot
	err := s.db.WithContext(ctx).
		Joins("LEFT JOIN aliquot_products ap ON ap.aliquot_id = aliquots.id").
		Where("ap.product_id = ? OR aliquots.applies_to_foreign_currency = ?", productID, true).
		Group("aliquots.id").
		Order("aliquots.id").
		Find(&aliquots).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to load aliquots for product %d", productID)
	}
	return aliquots, nil
}

// List returns the full aliquot table.
func (s *Service) List(ctx context.Context) ([]Aliquot, error) {
	var aliquots []Aliquot
	if err := s.db.WithContext(ctx).Order("id").Find(&aliquots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to list aliquots")
	}
	return aliquots, nil
}
