// internal/interfaces/http/handlers/rate.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/com2pa/backend-ecommerce/internal/config"
	"github.com/com2pa/backend-ecommerce/internal/domain/rate"
)

// RateHandler handles exchange rate endpoints
type RateHandler struct {
	rateService *rate.Service
	config      *config.Config
}

// NewRateHandler creates a new rate handler
func NewRateHandler(rateService *rate.Service, cfg *config.Config) *RateHandler {
	return &RateHandler{rateService: rateService, config: cfg}
}

// GetLatestRates handles GET /rates
func (h *RateHandler) GetLatestRates(c *gin.Context) {
	rates, err := h.rateService.LatestRates(c.Request.Context(), h.config.Commerce.QuotedCurrencies)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Exchange rates retrieved successfully", rates)
}

// GetLatestRate handles GET /rates/:currency
func (h *RateHandler) GetLatestRate(c *gin.Context) {
	snapshot, err := h.rateService.LatestRate(c.Request.Context(), c.Param("currency"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Exchange rate retrieved successfully", snapshot)
}

// RecordRate handles POST /admin/rates
func (h *RateHandler) RecordRate(c *gin.Context) {
	var req rate.RecordRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	snapshot, err := h.rateService.Record(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, "Exchange rate recorded successfully", snapshot)
}
