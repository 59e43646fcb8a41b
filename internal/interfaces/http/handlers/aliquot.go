// internal/interfaces/http/handlers/aliquot.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/com2pa/backend-ecommerce/internal/domain/aliquot"
)

// AliquotHandler handles tax aliquot endpoints
type AliquotHandler struct {
	aliquotService *aliquot.Service
}

// NewAliquotHandler creates a new aliquot handler
func NewAliquotHandler(aliquotService *aliquot.Service) *AliquotHandler {
	return &AliquotHandler{aliquotService: aliquotService}
}

// ListAliquots handles GET /aliquots
func (h *AliquotHandler) ListAliquots(c *gin.Context) {
	aliquots, err := h.aliquotService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Aliquots retrieved successfully", aliquots)
}
