package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
)

// errorStatus maps an error to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, apperrors.ErrDataIntegrity):
		return http.StatusConflict, "data_integrity"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func errorBody(err error) (int, gin.H) {
	status, code := errorStatus(err)
	body := gin.H{"error": code, "detail": err.Error()}
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}
	return status, body
}

func writeError(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[http] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, body)
}
