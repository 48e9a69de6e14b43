package transport

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// mapServiceError maps an orchestrator/pipeline error to an HTTP status and
// response body, generalized from the teacher's mapServiceError switch over
// sentinel service errors to a switch over searcherr.Kind.
func mapServiceError(err error) (int, ErrorResponse) {
	var se *searcherr.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case searcherr.KindValidation:
			return http.StatusBadRequest, ErrorResponse{Code: se.Code, Message: se.Message}
		case searcherr.KindAuthMismatch:
			return http.StatusUnauthorized, ErrorResponse{Code: se.Code, Message: "session is invalid or expired"}
		case searcherr.KindNotFound:
			return http.StatusNotFound, ErrorResponse{Code: se.Code, Message: "resource not found"}
		case searcherr.KindDependencyDown:
			return http.StatusServiceUnavailable, ErrorResponse{Code: se.Code, Message: "a dependency is unavailable"}
		case searcherr.KindTimeout:
			return http.StatusGatewayTimeout, ErrorResponse{Code: se.Code, Message: "request timed out"}
		}
	}

	slog.Error("transport: unexpected service error", "err", err)
	return http.StatusInternalServerError, ErrorResponse{Code: "internal_error", Message: "internal server error"}
}

func respondError(c *gin.Context, err error) {
	status, body := mapServiceError(err)
	c.JSON(status, body)
}
