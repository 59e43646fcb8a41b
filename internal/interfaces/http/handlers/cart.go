// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/com2pa/backend-ecommerce/internal/domain/cart"
	"github.com/com2pa/backend-ecommerce/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// AddItemRequest represents the add-to-cart payload
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// UpdateItemRequest represents the quantity update payload
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	snapshot, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Cart retrieved successfully", snapshot)
}

// AddItem handles POST /cart
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	snapshot, err := h.cartService.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Item added to cart successfully", snapshot)
}

// UpdateItem handles PUT /cart/:productId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	productID, err := parseUintParam(c, "productId")
	if err != nil {
		respondBindingError(c, err)
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	snapshot, err := h.cartService.UpdateItemQuantity(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Cart item updated successfully", snapshot)
}

// RemoveItem handles DELETE /cart/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	productID, err := parseUintParam(c, "productId")
	if err != nil {
		respondBindingError(c, err)
		return
	}

	snapshot, err := h.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Item removed from cart successfully", snapshot)
}

// StartCheckout handles POST /cart/checkout/start
func (h *CartHandler) StartCheckout(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	snapshot, err := h.cartService.StartCheckout(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Checkout started", snapshot)
}

// CompleteCheckout handles POST /cart/checkout/complete
func (h *CartHandler) CompleteCheckout(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	if err := h.cartService.CompleteCheckout(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Checkout completed", nil)
}

// parseUintParam parses a numeric path parameter
func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// parseUintQuery parses a numeric query value
func parseUintQuery(raw string) (uint, error) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
