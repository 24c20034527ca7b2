package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ierrors "github.com/julianstephens/innerlog/internal/errors"
)

// statusFor maps the ledger error taxonomy onto HTTP statuses
func statusFor(err error) int {
	var verr *ierrors.ValidationError
	switch {
	case errors.Is(err, ierrors.ErrNotFoundOrForbidden):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ierrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as JSON. Internal details are not exposed for 5xx.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	body := gin.H{"error": err.Error()}
	var verr *ierrors.ValidationError
	switch {
	case errors.As(err, &verr):
		body = gin.H{"error": verr.Message, "field": verr.Field}
	case status == http.StatusNotFound:
		body = gin.H{"error": "not found"}
	case status == http.StatusServiceUnavailable:
		body = gin.H{"error": "store unavailable, retry later"}
	case status >= 500:
		body = gin.H{"error": "internal error"}
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, field string, err error) {
	abortWithError(c, ierrors.Invalid(field, "%v", err))
}
