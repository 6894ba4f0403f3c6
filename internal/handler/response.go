// Package handler holds the shared HTTP response conventions. Every endpoint
// replies with {"status":"success","data":...} or
// {"status":"error","error":{"kind":...,"message":...}}.
package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/careconnect/api/pkg/errors"
)

func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}

// Error maps application errors to their HTTP status and wire kind. Untyped
// errors become opaque 500s; their details stay in the logs.
func Error(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	if appErr.Kind == apperrors.KindInternal {
		// Surface the cause to the error-logging middleware, not the client.
		_ = c.Error(err)
	}

	c.JSON(appErr.StatusCode(), gin.H{
		"status": "error",
		"error": gin.H{
			"kind":    appErr.Kind,
			"message": appErr.Message,
		},
	})
}

// BindError reports a request-body validation failure.
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status": "error",
		"error": gin.H{
			"kind":    apperrors.KindValidation,
			"message": err.Error(),
		},
	})
}
