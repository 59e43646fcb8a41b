// internal/domain/order/service.go
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/com2pa/backend-ecommerce/internal/config"
	"github.com/com2pa/backend-ecommerce/internal/domain/aliquot"
	"github.com/com2pa/backend-ecommerce/internal/domain/cart"
	"github.com/com2pa/backend-ecommerce/internal/domain/discount"
	"github.com/com2pa/backend-ecommerce/internal/domain/pricing"
	"github.com/com2pa/backend-ecommerce/internal/domain/product"
	"github.com/com2pa/backend-ecommerce/internal/domain/rate"
	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// invoiceSeries is the document series invoices draw fiscal numbers from
const invoiceSeries = "invoice"

// CartStore is the slice of the cart service the order factory needs.
// Claiming is the exactly-once gate: of any number of concurrent creation
// attempts for the same cart, exactly one claim succeeds.
type CartStore interface {
	ClaimForOrder(ctx context.Context, userID uint, cartID string) (*cart.Cart, error)
	ReleaseClaim(ctx context.Context, userID uint) error
	CompleteCheckout(ctx context.Context, userID uint) error
}

// Service converts claimed carts into persisted orders
type Service struct {
	db        *gorm.DB
	idem      IdempotencyStore
	carts     CartStore
	discounts discount.Resolver
	aliquots  aliquot.Table
	rates     rate.Provider
	engine    *pricing.Engine
	sequencer Sequencer
	config    *config.Config
	log       *logrus.Logger
}

// NewService creates a new order service
func NewService(
	db *gorm.DB,
	redisClient *redis.Client,
	carts CartStore,
	discounts discount.Resolver,
	aliquots aliquot.Table,
	rates rate.Provider,
	engine *pricing.Engine,
	sequencer Sequencer,
	cfg *config.Config,
	log *logrus.Logger,
) *Service {
	return &Service{
		db:        db,
		idem:      &redisIdempotency{client: redisClient},
		carts:     carts,
		discounts: discounts,
		aliquots:  aliquots,
		rates:     rates,
		engine:    engine,
		sequencer: sequencer,
		config:    cfg,
		log:       log,
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	CartID         string        `json:"cart_id" binding:"required"`
	PaymentMethod  PaymentMethod `json:"payment_method" binding:"required"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	Notes          string        `json:"notes,omitempty"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page      int         `form:"page,default=1"`
	Limit     int         `form:"limit,default=20"`
	Status    OrderStatus `form:"status"`
	UserID    uint        `form:"user_id"`
	SortBy    string      `form:"sort_by,default=created_at"`
	SortOrder string      `form:"sort_order,default=desc"`
}

// OrderResponse represents an order list with pagination
type OrderResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// CreateOrder converts the user's cart into an order. The cart is claimed
// first, so a given cart produces at most one order no matter how many
// concurrent requests race for it; everything after the claim either
// commits fully or releases the claim so the cart stays usable.
func (s *Service) CreateOrder(ctx context.Context, userID uint, req *CreateOrderRequest) (*Order, error) {
	if !req.PaymentMethod.Valid() {
		return nil, apperrors.New(apperrors.KindValidation, "unknown payment method: %s", req.PaymentMethod)
	}

	if req.IdempotencyKey != "" {
		existingID, acquired, err := s.beginIdempotent(ctx, userID, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return s.GetOrder(ctx, existingID, userID, false)
		}
	}

	order, err := s.createOrder(ctx, userID, req)

	if req.IdempotencyKey != "" {
		s.finishIdempotent(ctx, userID, req.IdempotencyKey, order, err)
	}
	return order, err
}

func (s *Service) createOrder(ctx context.Context, userID uint, req *CreateOrderRequest) (*Order, error) {
	claimed, err := s.carts.ClaimForOrder(ctx, userID, req.CartID)
	if err != nil {
		return nil, err
	}

	order, err := s.buildAndPersist(ctx, userID, claimed, req)
	if err != nil {
		if releaseErr := s.carts.ReleaseClaim(ctx, userID); releaseErr != nil {
			s.log.WithError(releaseErr).WithField("user_id", userID).
				Error("failed to release cart claim after order failure")
		}
		return nil, err
	}

	s.retireCart(ctx, userID, order)
	return order, nil
}

func (s *Service) buildAndPersist(ctx context.Context, userID uint, claimed *cart.Cart, req *CreateOrderRequest) (*Order, error) {
	now := time.Now().UTC()

	rates, err := s.rates.LatestRates(ctx, s.config.Commerce.QuotedCurrencies)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.LineInput, len(claimed.Items))
	for i, item := range claimed.Items {
		var snap *discount.Snapshot
		active, err := s.discounts.FindActiveForProduct(ctx, item.ProductID, now)
		if err != nil {
			return nil, err
		}
		if active != nil {
			captured := active.Capture()
			snap = &captured
		}

		taxes, err := s.aliquots.ForProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		lines[i] = pricing.LineInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  snap,
			Aliquots:  taxes,
		}
	}

	result, err := s.engine.Compute(pricing.Input{
		Lines:                  lines,
		Rates:                  rates,
		FeeRatePct:             s.feeRate(req.PaymentMethod),
		ForeignCurrencyPayment: req.PaymentMethod.ForeignCurrency(),
	})
	if err != nil {
		return nil, err
	}

	fiscalNumber, err := s.sequencer.Next(ctx, invoiceSeries)
	if err != nil {
		return nil, err
	}

	breakdownJSON, err := json.Marshal(result.Breakdown)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to encode fiscal breakdown")
	}

	base := s.config.Commerce.BaseCurrency
	order := &Order{
		FiscalNumber:   fiscalNumber,
		UserID:         userID,
		CartID:         claimed.ID,
		Status:         OrderStatusPending,
		PaymentStatus:  PaymentStatusPending,
		PaymentMethod:  req.PaymentMethod,
		Currency:       base,
		SubtotalAmount: result.Breakdown.Subtotal[base],
		DiscountAmount: result.Breakdown.Discount[base],
		PaymentFee:     result.Breakdown.PaymentFee[base],
		TaxAmount:      result.Breakdown.TotalTaxes[base],
		TotalAmount:    result.Breakdown.GrandTotal[base],
		Breakdown:      breakdownJSON,
		Notes:          req.Notes,
	}

	for _, line := range result.Lines {
		item := OrderItem{
			ProductID:      line.ProductID,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			Subtotal:       line.LineSubtotal,
			DiscountAmount: line.DiscountAmount,
		}
		if line.Discount != nil {
			id := line.Discount.DiscountID
			item.DiscountID = &id
			item.DiscountCode = line.Discount.Code
		}
		if len(line.TaxByCode) > 0 {
			detail, err := json.Marshal(line.TaxByCode)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to encode line taxes")
			}
			item.TaxDetail = detail
		}
		order.Items = append(order.Items, item)
	}

	if err := s.persist(ctx, order, claimed); err != nil {
		return nil, err
	}
	return order, nil
}

// persist writes the order, its items, and the stock decrements in one
// transaction.
func (s *Service) persist(ctx context.Context, order *Order, claimed *cart.Cart) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// With a unique placeholder in order_number, the only unique
		// index this insert can violate is fiscal_number.
		order.OrderNumber = PlaceholderOrderNumber()
		if err := tx.Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Wrap(apperrors.KindDuplicateFiscal, err,
					"fiscal number %s already issued", order.FiscalNumber)
			}
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to create order")
		}

		for _, item := range claimed.Items {
			if err := product.DecrementStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order.OrderNumber = order.GenerateOrderNumber()
		if err := tx.Model(order).Update("order_number", order.OrderNumber).Error; err != nil {
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to set order number")
		}

		history := OrderStatusHistory{
			OrderID:   order.ID,
			Status:    OrderStatusPending,
			Comment:   "order created",
			CreatedBy: order.UserID,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to record status history")
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.Wrap(apperrors.KindPersistence, err, "order transaction failed")
	}
	return nil
}

// retireCart removes the consumed cart. The order is already committed, so
// failures here only leave a claimed cart behind for the TTL backstop to
// collect; they never fail the order.
func (s *Service) retireCart(ctx context.Context, userID uint, order *Order) {
	var err error
	for attempt := 0; attempt < s.config.Commerce.CartUpdateRetries; attempt++ {
		if err = s.carts.CompleteCheckout(ctx, userID); err == nil {
			return
		}
		time.Sleep(s.config.Commerce.RetireRetryBackoff)
	}
	s.log.WithError(err).WithFields(logrus.Fields{
		"user_id":  userID,
		"order_id": order.ID,
	}).Error("failed to retire consumed cart; storage TTL will collect it")
}

// feeRate returns the processing surcharge percentage for the method
func (s *Service) feeRate(method PaymentMethod) decimal.Decimal {
	if method == PaymentMethodCreditCardUSD {
		return decimal.NewFromFloat(s.config.Commerce.CardForeignFeePct)
	}
	return decimal.Zero
}


// beginIdempotent reserves the idempotency key. acquired means this caller
// owns the key and must create the order; otherwise existingID carries the
// id recorded by the first request. A Conflict is returned while the first
// request is still running.
func (s *Service) beginIdempotent(ctx context.Context, userID uint, key string) (existingID uint, acquired bool, err error) {
	storeKey := idempotencyKey(userID, key)
	ok, err := s.idem.Reserve(ctx, storeKey, idempotencyPending, s.config.Commerce.IdempotencyKeyTTL)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}

	val, found, err := s.idem.Lookup(ctx, storeKey)
	if err != nil {
		return 0, false, err
	}
	if !found || val == idempotencyPending {
		// Either the first request is still running, or its key expired
		// between the reservation attempt and the lookup.
		return 0, false, apperrors.New(apperrors.KindConflict, "order creation already in progress")
	}

	if _, err := fmt.Sscanf(val, "%d", &existingID); err != nil {
		return 0, false, apperrors.Wrap(apperrors.KindPersistence, err, "corrupt idempotency record")
	}
	return existingID, false, nil
}

// finishIdempotent records the outcome under the key: the order ID on
// success, or frees the key on failure so the client can retry.
func (s *Service) finishIdempotent(ctx context.Context, userID uint, key string, order *Order, createErr error) {
	storeKey := idempotencyKey(userID, key)
	if createErr != nil {
		if err := s.idem.Release(ctx, storeKey); err != nil {
			s.log.WithError(err).Warn("failed to release idempotency key")
		}
		return
	}
	if err := s.idem.Store(ctx, storeKey, fmt.Sprintf("%d", order.ID), s.config.Commerce.IdempotencyKeyTTL); err != nil {
		s.log.WithError(err).Warn("failed to record idempotency result")
	}
}

// GetOrder retrieves an order by ID. Non-admin callers only see their own
// orders.
func (s *Service) GetOrder(ctx context.Context, orderID, userID uint, isAdmin bool) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "order not found")
		}
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to load order")
	}
	if !isAdmin && order.UserID != userID {
		return nil, apperrors.New(apperrors.KindUnauthorized, "order belongs to another user")
	}
	return &order, nil
}

// GetOrderByFiscalNumber retrieves an order by its fiscal number
func (s *Service) GetOrderByFiscalNumber(ctx context.Context, fiscalNumber string) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("fiscal_number = ?", fiscalNumber).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "order not found")
		}
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to load order")
	}
	return &order, nil
}

// GetOrders lists orders with pagination and filters
func (s *Service) GetOrders(ctx context.Context, req *OrderListRequest) (*OrderResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to count orders")
	}

	sortBy := req.SortBy
	switch sortBy {
	case "created_at", "total_amount", "status":
	default:
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if req.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	var orders []Order
	err := query.
		Preload("Items").
		Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to list orders")
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetUserOrders lists the caller's own orders
func (s *Service) GetUserOrders(ctx context.Context, userID uint, page, limit int) (*OrderResponse, error) {
	return s.GetOrders(ctx, &OrderListRequest{Page: page, Limit: limit, UserID: userID})
}

// UpdateOrderStatus moves the order along the fulfillment state machine
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID uint, status OrderStatus, comment string, updatedBy uint) error {
	if !ValidOrderStatus(status) {
		return apperrors.New(apperrors.KindValidation, "unknown order status: %s", status)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.KindNotFound, "order not found")
			}
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to load order")
		}

		if !order.Status.CanTransitionTo(status) {
			return apperrors.New(apperrors.KindValidation,
				"invalid status transition from %s to %s", order.Status, status)
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{"status": status}
		switch status {
		case OrderStatusProcessing:
			updates["processed_at"] = now
		case OrderStatusShipped:
			updates["shipped_at"] = now
		case OrderStatusDelivered:
			updates["delivered_at"] = now
		}

		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to update order status")
		}

		history := OrderStatusHistory{
			OrderID:   orderID,
			Status:    status,
			Comment:   comment,
			CreatedBy: updatedBy,
			CreatedAt: now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to record status history")
		}

		if status == OrderStatusCancelled {
			return s.restoreStock(tx, orderID)
		}
		return nil
	})
}

// UpdatePaymentStatus moves the order along the payment state machine
func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID uint, status PaymentStatus) error {
	if !ValidPaymentStatus(status) {
		return apperrors.New(apperrors.KindValidation, "unknown payment status: %s", status)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.KindNotFound, "order not found")
			}
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to load order")
		}

		if !order.PaymentStatus.CanTransitionTo(status) {
			return apperrors.New(apperrors.KindValidation,
				"invalid payment status transition from %s to %s", order.PaymentStatus, status)
		}

		if err := tx.Model(&order).Update("payment_status", status).Error; err != nil {
			return apperrors.Wrap(apperrors.KindPersistence, err, "failed to update payment status")
		}
		return nil
	})
}

// restoreStock returns the order's quantities to inventory on cancellation
func (s *Service) restoreStock(tx *gorm.DB, orderID uint) error {
	var items []OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, err, "failed to load order items")
	}
	for _, item := range items {
		if err := product.RestoreStock(tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
