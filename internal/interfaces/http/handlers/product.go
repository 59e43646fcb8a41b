// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/com2pa/backend-ecommerce/internal/domain/product"
)

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	productService *product.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	if categoryParam := c.Query("category_id"); categoryParam != "" {
		categoryID, err := parseUintQuery(categoryParam)
		if err != nil {
			respondBindingError(c, err)
			return
		}
		products, err := h.productService.ListByCategory(c.Request.Context(), categoryID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, "Products retrieved successfully", products)
		return
	}

	products, err := h.productService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Products retrieved successfully", products)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, err := parseUintParam(c, "id")
	if err != nil {
		respondBindingError(c, err)
		return
	}

	found, err := h.productService.Get(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Product retrieved successfully", found)
}
