// internal/interfaces/http/handlers/discount.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/com2pa/backend-ecommerce/internal/domain/discount"
	"github.com/com2pa/backend-ecommerce/internal/interfaces/http/middleware"
)

// DiscountHandler handles discount administration endpoints
type DiscountHandler struct {
	discountService *discount.Service
}

// NewDiscountHandler creates a new discount handler
func NewDiscountHandler(discountService *discount.Service) *DiscountHandler {
	return &DiscountHandler{discountService: discountService}
}

// ListDiscounts handles GET /admin/discounts
func (h *DiscountHandler) ListDiscounts(c *gin.Context) {
	discounts, err := h.discountService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Discounts retrieved successfully", discounts)
}

// CreateDiscount handles POST /admin/discounts
func (h *DiscountHandler) CreateDiscount(c *gin.Context) {
	adminID, _ := middleware.GetUserIDFromContext(c)

	var req discount.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	created, err := h.discountService.Create(c.Request.Context(), &req, adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, "Discount created successfully", created)
}

// DeleteDiscount handles DELETE /admin/discounts/:id
func (h *DiscountHandler) DeleteDiscount(c *gin.Context) {
	discountID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindingError(c, err)
		return
	}

	if err := h.discountService.Delete(c.Request.Context(), discountID); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Discount deleted successfully", nil)
}
