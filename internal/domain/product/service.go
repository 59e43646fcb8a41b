// internal/domain/product/service.go
package product

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// Catalog is the product lookup contract consumed by the cart service.
type Catalog interface {
	Get(ctx context.Context, productID uint) (*Product, error)
}

// Service handles product catalog business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new product service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get retrieves an active product by id.
func (s *Service) Get(ctx context.Context, productID uint) (*Product, error) {
	var prod Product
	result := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).
		First(&prod)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "product %d not found", productID)
		}
		return nil, apperrors.Wrap(apperrors.KindPersistence, result.Error, "failed to retrieve product %d", productID)
	}
	return &prod, nil
}

// DecrementStock atomically reduces stock for a product on the given
// handle, which may be a transaction. The guard in the WHERE clause keeps
// concurrent order creations from driving stock negative.
func DecrementStock(db *gorm.DB, productID uint, qty int) error {
	result := db.Model(&Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.KindPersistence, result.Error, "failed to decrement stock for product %d", productID)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.KindOutOfStock, "insufficient stock for product %d", productID)
	}
	return nil
}

// RestoreStock returns qty units to inventory after a cancellation.
func RestoreStock(db *gorm.DB, productID uint, qty int) error {
	err := db.Model(&Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, err, "failed to restore stock for product %d", productID)
	}
	return nil
}

// ListByCategory answers the reverse category lookup with a query instead of
// a back-reference array on the category row.
func (s *Service) ListByCategory(ctx context.Context, categoryID uint) ([]Product, error) {
	var products []Product
	err := s.db.WithContext(ctx).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("id").
		Find(&products).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to list products for category %d", categoryID)
	}
	return products, nil
}

// List returns active products ordered by id.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	var products []Product
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&products).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to list products")
	}
	return products, nil
}
