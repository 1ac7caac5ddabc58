package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tourrental/internal/pkg/apperr"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError writes the envelope for a service error, choosing the HTTP status from its code.
func FromError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := StatusFor(code)
	message := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal server error"
	}
	Error(c, status, string(code), message)
}

func StatusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict, apperr.CodeTransactionAborted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
