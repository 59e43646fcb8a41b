// internal/domain/order/sequence.go
package order

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// Sequencer reserves fiscal numbers
type Sequencer interface {
	Next(ctx context.Context, document string) (string, error)
}

// SequenceAllocator hands out consecutive fiscal numbers from the
// document_series table.
type SequenceAllocator struct {
	db *gorm.DB
}

// NewSequenceAllocator creates a fiscal number allocator
func NewSequenceAllocator(db *gorm.DB) *SequenceAllocator {
	return &SequenceAllocator{db: db}
}

// Next reserves the next number for a document series and returns it
// formatted, e.g. FAC-00042. The increment and the read happen in one
// UPDATE ... RETURNING, so concurrent callers can never observe the same
// value. Numbers reserved for orders that later fail to persist are
// burned, never reused.
func (a *SequenceAllocator) Next(ctx context.Context, document string) (string, error) {
	var allocated struct {
		Prefix     string
		LastNumber int64
	}

	result := a.db.WithContext(ctx).Raw(
		`UPDATE document_series
		 SET last_number = last_number + 1, updated_at = NOW()
		 WHERE document = ?
		 RETURNING prefix, last_number`,
		document,
	).Scan(&allocated)

	if result.Error != nil {
		return "", apperrors.Wrap(apperrors.KindPersistence, result.Error, "failed to allocate fiscal number")
	}
	if result.RowsAffected == 0 {
		return "", apperrors.New(apperrors.KindNotFound, "document series not found: %s", document)
	}

	return formatFiscalNumber(allocated.Prefix, allocated.LastNumber), nil
}

// formatFiscalNumber renders a sequence value, zero-padded to five digits,
// e.g. FAC-00042. Values past 99999 keep all their digits.
func formatFiscalNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s%05d", prefix, n)
}
