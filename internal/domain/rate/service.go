// internal/domain/rate/service.go
package rate

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// Provider supplies the latest cached exchange rate per currency. It never
// scrapes inline; when no snapshot exists the caller gets RateUnavailable.
type Provider interface {
	LatestRate(ctx context.Context, currency string) (*Snapshot, error)
	LatestRates(ctx context.Context, currencies []string) (map[string]Snapshot, error)
}

// Service handles exchange rate snapshots
type Service struct {
	db *gorm.DB
}

// NewService creates a new rate service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RecordRateRequest represents a manual rate entry
type RecordRateRequest struct {
	Currency      string          `json:"currency" binding:"required,len=3"`
	OfficialRate  decimal.Decimal `json:"official_rate" binding:"required"`
	EffectiveDate time.Time       `json:"effective_date" binding:"required"`
}

// LatestRate returns the most recent snapshot for a currency.
func (s *Service) LatestRate(ctx context.Context, currency string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.WithContext(ctx).
		Where("currency = ?", currency).
		Order("effective_date DESC").
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindRateUnavailable, "no exchange rate available for %s", currency)
		}
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to load exchange rate for %s", currency)
	}
	return &snap, nil
}

// LatestRates returns the most recent snapshot per requested currency.
// A single missing currency makes the whole call fail with RateUnavailable
// because the fiscal breakdown needs every quoted currency.
func (s *Service) LatestRates(ctx context.Context, currencies []string) (map[string]Snapshot, error) {
	rates := make(map[string]Snapshot, len(currencies))
	for _, currency := range currencies {
		snap, err := s.LatestRate(ctx, currency)
		if err != nil {
			return nil, err
		}
		rates[currency] = *snap
	}
	return rates, nil
}

// Record stores one snapshot for (currency, effective date). Snapshots are
// immutable once recorded; a second record for the same day is rejected by
// the unique index and surfaces as a conflict.
func (s *Service) Record(ctx context.Context, req *RecordRateRequest) (*Snapshot, error) {
	if req.OfficialRate.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.New(apperrors.KindValidation, "official_rate must be positive")
	}

	snap := Snapshot{
		Currency:      req.Currency,
		OfficialRate:  req.OfficialRate,
		EffectiveDate: req.EffectiveDate.UTC().Truncate(24 * time.Hour),
		Source:        "manual",
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&snap).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to record exchange rate")
	}
	if snap.ID == 0 {
		return nil, apperrors.New(apperrors.KindConflict,
			"rate for %s on %s already recorded", req.Currency, snap.EffectiveDate.Format("2006-01-02"))
	}
	return &snap, nil
}
