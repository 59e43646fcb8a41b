// internal/interfaces/http/handlers/order.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/com2pa/backend-ecommerce/internal/domain/order"
	"github.com/com2pa/backend-ecommerce/internal/interfaces/http/middleware"
	"github.com/com2pa/backend-ecommerce/internal/pkg/pdf"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, pdfService *pdf.Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		pdfService:   pdfService,
	}
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	created, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, "Order created successfully", created)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	isAdmin := middleware.IsAdminFromContext(c)

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindingError(c, err)
		return
	}

	found, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Order retrieved successfully", found)
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	// Non-admin callers only ever see their own orders
	if !middleware.IsAdminFromContext(c) {
		req.UserID = userID
	}

	response, err := h.orderService.GetOrders(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Orders retrieved successfully", response)
}

// GetInvoice handles GET /orders/:id/invoice
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	isAdmin := middleware.IsAdminFromContext(c)

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindingError(c, err)
		return
	}

	found, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	h.renderInvoice(c, found)
}

// GetInvoiceByFiscalNumber handles GET /orders/invoice/:fiscalNumber
func (h *OrderHandler) GetInvoiceByFiscalNumber(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	isAdmin := middleware.IsAdminFromContext(c)

	found, err := h.orderService.GetOrderByFiscalNumber(c.Request.Context(), c.Param("fiscalNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !isAdmin && found.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"kind":    "unauthorized",
			"message": "order belongs to another user",
		})
		return
	}

	h.renderInvoice(c, found)
}

func (h *OrderHandler) renderInvoice(c *gin.Context, o *order.Order) {
	document, err := h.pdfService.GenerateInvoice(o)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, o.FiscalNumber))
	c.Data(http.StatusOK, "application/pdf", document.Bytes())
}

// UpdateStatusRequest represents a status change payload
type UpdateStatusRequest struct {
	Status  order.OrderStatus `json:"status" binding:"required"`
	Comment string            `json:"comment,omitempty"`
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	adminID, _ := middleware.GetUserIDFromContext(c)

	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindingError(c, err)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := h.orderService.UpdateOrderStatus(c.Request.Context(), orderID, req.Status, req.Comment, adminID); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Order status updated successfully", nil)
}

// UpdatePaymentStatusRequest represents a payment status change payload
type UpdatePaymentStatusRequest struct {
	Status order.PaymentStatus `json:"status" binding:"required"`
}

// UpdatePaymentStatus handles PUT /admin/orders/:id/payment-status
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindingError(c, err)
		return
	}

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := h.orderService.UpdatePaymentStatus(c.Request.Context(), orderID, req.Status); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Payment status updated successfully", nil)
}
