// internal/interfaces/http/handlers/response.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/com2pa/backend-ecommerce/internal/pkg/apperrors"
)

// statusForKind maps error kinds to HTTP statuses. Anything not listed is
// a server-side failure.
var statusForKind = map[apperrors.Kind]int{
	apperrors.KindValidation:      http.StatusBadRequest,
	apperrors.KindNotFound:        http.StatusNotFound,
	apperrors.KindUnauthorized:    http.StatusForbidden,
	apperrors.KindOutOfStock:      http.StatusConflict,
	apperrors.KindRateUnavailable: http.StatusServiceUnavailable,
	apperrors.KindEmptyCart:       http.StatusUnprocessableEntity,
	apperrors.KindConflict:        http.StatusConflict,
}

// respondError writes the canonical error body. Clients only ever see the
// kind and message; causes stay in the logs.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)

	status, ok := statusForKind[kind]
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"kind":    string(apperrors.KindPersistence),
			"message": "internal error",
		})
		return
	}

	message := "internal error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	c.JSON(status, gin.H{
		"kind":    string(kind),
		"message": message,
	})
}

// respondBindingError maps gin binding failures to the validation shape
func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"kind":    string(apperrors.KindValidation),
		"message": err.Error(),
	})
}

// respondData writes a success envelope
func respondData(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}
