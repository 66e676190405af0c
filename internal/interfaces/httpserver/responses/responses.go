// Package responses provides uniform JSON error replies for the gateway.
package responses

import (
	"errors"

	"github.com/gin-gonic/gin"

	"glot-server/internal/utils/apperrors"
)

// ErrorResponse is the JSON body for every gateway failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleError maps err to its HTTP status through the error taxonomy and
// aborts the request with a structured body. Secrets and upstream keys never
// appear in err messages by construction, so the message passes through.
func HandleError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	kind := apperrors.KindOf(err)
	if kind == "" {
		kind = "internal"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   string(kind),
		Message: errMessage(err),
	})
}

// HandleErrorWithStatus replies with an explicit status, bypassing the
// kind-to-status mapping.
func HandleErrorWithStatus(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: kind, Message: message})
}

func errMessage(err error) string {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
