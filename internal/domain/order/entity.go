// internal/domain/order/entity.go
package order

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the fulfillment status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus represents the payment status
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// statusTransitions is the fulfillment state machine. Absent keys and
// absent targets are rejected transitions.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// paymentTransitions is the payment state machine. A failed payment can
// return to pending for retry; completed payments can only be refunded.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusFailed:    {PaymentStatusPending},
	PaymentStatusCompleted: {PaymentStatusRefunded},
	PaymentStatusRefunded:  {},
}

// CanTransitionTo checks the fulfillment state machine
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanTransitionTo checks the payment state machine
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether s is a known fulfillment status
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// ValidPaymentStatus reports whether s is a known payment status
func ValidPaymentStatus(s PaymentStatus) bool {
	_, ok := paymentTransitions[s]
	return ok
}

// PaymentMethod identifies how the customer pays. The method decides the
// settlement currency class and whether a processing fee applies.
type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodCreditCardUSD  PaymentMethod = "credit_card_usd"
	PaymentMethodPaypal         PaymentMethod = "paypal"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// ForeignCurrency reports whether the method settles outside the local
// currency, which activates the foreign-currency tax aliquots.
func (m PaymentMethod) ForeignCurrency() bool {
	return m == PaymentMethodCreditCardUSD
}

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodCreditCardUSD, PaymentMethodPaypal,
		PaymentMethodBankTransfer, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}

// Order represents a confirmed purchase. Financial figures are captured at
// creation and never recomputed: the breakdown column holds the full
// per-currency fiscal detail, the decimal columns hold base-currency values
// for querying and reporting.
type Order struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	OrderNumber  string `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	FiscalNumber string `gorm:"uniqueIndex;not null;size:20" json:"fiscal_number"`
	UserID       uint   `gorm:"not null;index" json:"user_id"`
	CartID       string `gorm:"size:36;not null" json:"cart_id"`

	Status        OrderStatus   `gorm:"not null;default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending'" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"not null;size:30" json:"payment_method"`

	// Financial information, base currency
	Currency       string          `gorm:"size:3;not null" json:"currency"`
	SubtotalAmount decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"subtotal_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"discount_amount"`
	PaymentFee     decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"payment_fee"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"total_amount"`

	// Full per-currency breakdown with the exchange-rate snapshots used
	Breakdown json.RawMessage `gorm:"type:jsonb;not null" json:"breakdown"`

	Notes string `gorm:"type:text" json:"notes"`

	// Timestamps
	ProcessedAt *time.Time     `json:"processed_at"`
	ShippedAt   *time.Time     `json:"shipped_at"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is one purchased line with its price, discount, and taxes as
// they stood at creation time.
type OrderItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OrderID   uint   `gorm:"not null;index" json:"order_id"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Name      string `gorm:"not null;size:255" json:"name"`
	Quantity  int    `gorm:"not null" json:"quantity"`

	UnitPrice decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"subtotal"`

	DiscountID     *uint           `json:"discount_id"`
	DiscountCode   string          `gorm:"size:50" json:"discount_code"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"discount_amount"`

	// Per-aliquot tax amounts for this line, base currency
	TaxDetail json.RawMessage `gorm:"type:jsonb" json:"tax_detail"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderStatusHistory tracks status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy uint        `gorm:"index" json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

// Series allocates consecutive fiscal numbers per document type. Rows are
// only ever mutated through an atomic increment.
type Series struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Document   string    `gorm:"uniqueIndex;not null;size:30" json:"document"`
	Prefix     string    `gorm:"not null;size:10" json:"prefix"`
	LastNumber int64     `gorm:"not null;default:0" json:"last_number"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }
func (Series) TableName() string             { return "document_series" }

// GenerateOrderNumber builds the customer-facing order reference.
// Format: ORD-YYYYMMDD-XXXXX
func (o *Order) GenerateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%05d", o.CreatedAt.Format("20060102"), o.ID)
}

// PlaceholderOrderNumber returns a unique provisional order number. The
// definitive one needs the row id, so the insert carries this placeholder
// to keep the unique order_number index from colliding two in-flight
// orders on an empty value.
func PlaceholderOrderNumber() string {
	return "PND-" + uuid.NewString()
}

// CanBeCancelled checks if the order can still be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status.CanTransitionTo(OrderStatusCancelled)
}

// AddStatusHistory appends a status change to the history
func (o *Order) AddStatusHistory(status OrderStatus, comment string, createdBy uint) {
	o.StatusHistory = append(o.StatusHistory, OrderStatusHistory{
		OrderID:   o.ID,
		Status:    status,
		Comment:   comment,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	})
}
