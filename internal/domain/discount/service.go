// internal/domain/discount/service.go
package discount

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/com2pa/backend-ecommerce/internal/domain/product"
	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// Resolver is the contract the cart and order services consume: the active
// discount for a product at an instant, if any.
type Resolver interface {
	FindActiveForProduct(ctx context.Context, productID uint, now time.Time) (*Discount, error)
}

// Service handles discount business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new discount service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateDiscountRequest represents discount creation data
type CreateDiscountRequest struct {
	Code       string          `json:"code" binding:"required"`
	Percentage decimal.Decimal `json:"percentage" binding:"required"`
	StartDate  time.Time       `json:"start_date" binding:"required"`
	EndDate    time.Time       `json:"end_date" binding:"required"`
	ProductIDs []uint          `json:"product_ids" binding:"required,min=1"`
}

// FindActiveForProduct returns the discount whose window covers now and whose
// product set contains productID. When several match, the first by catalog
// order (lowest id) wins; that is the documented tie-break.
func (s *Service) FindActiveForProduct(ctx context.Context, productID uint, now time.Time) (*Discount, error) {
	var d Discount
	err := s.db.WithContext(ctx).
		Joins("JOIN discount_products dp ON dp.discount_id = discounts.id").
		Where("dp.product_id = ? AND discounts.start_date <= ? AND discounts.end_date >= ?", productID, now, now).
		Order("discounts.id").
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // no active discount is not an error
		}
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to resolve discount for product %d", productID)
	}
	return &d, nil
}

// Create validates the product set and persists a new discount.
func (s *Service) Create(ctx context.Context, req *CreateDiscountRequest, createdBy uint) (*Discount, error) {
	if req.Percentage.LessThanOrEqual(decimal.Zero) || req.Percentage.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return nil, apperrors.New(apperrors.KindValidation, "percentage must be between 0 and 100 exclusive")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, apperrors.New(apperrors.KindValidation, "end_date must be after start_date")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&product.Product{}).Where("id IN ?", req.ProductIDs).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to verify products")
	}
	if count != int64(len(req.ProductIDs)) {
		return nil, apperrors.New(apperrors.KindValidation, "some products do not exist")
	}

	var existing Discount
	err := s.db.WithContext(ctx).Where("code = ?", req.Code).First(&existing).Error
	if err == nil {
		return nil, apperrors.New(apperrors.KindConflict, "discount code %q already exists", req.Code)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to check discount code")
	}

	products := make([]product.Product, len(req.ProductIDs))
	for i, id := range req.ProductIDs {
		products[i] = product.Product{ID: id}
	}

	d := Discount{
		Code:       req.Code,
		Percentage: req.Percentage,
		StartDate:  req.StartDate.UTC(),
		EndDate:    req.EndDate.UTC(),
		Products:   products,
		CreatedBy:  createdBy,
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to create discount")
	}
	return &d, nil
}

// List returns all discounts with their product sets.
func (s *Service) List(ctx context.Context) ([]Discount, error) {
	var discounts []Discount
	if err := s.db.WithContext(ctx).Preload("Products").Order("id").Find(&discounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to list discounts")
	}
	return discounts, nil
}

// Delete removes a discount. Orders that captured it keep their by-value copy.
func (s *Service) Delete(ctx context.Context, discountID uint) error {
	result := s.db.WithContext(ctx).Delete(&Discount{}, discountID)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.KindPersistence, result.Error, "failed to delete discount %d", discountID)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.KindNotFound, "discount %d not found", discountID)
	}
	return nil
}
