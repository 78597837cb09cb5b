package handlers

import (
	"errors"
	"net/http"

	"pagefun/app/internal/services"
	"pagefun/shared/logger"

	"github.com/gin-gonic/gin"
)

// writeError turns a taxonomy error into a structured JSON response.
// Validation detail is safe to expose; upstream failures get a generic
// message and full detail in the server log only.
func writeError(c *gin.Context, appLogger *logger.Logger, err error) {
	requestID := c.GetString(requestIDKey)

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Kind:    "VALIDATION_ERROR",
			Message: "Request payload failed validation.",
			Fields:  verr.Fields,
		}})
		return
	}

	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: ErrorBody{
			Kind:    "UNAUTHENTICATED",
			Message: "Authentication required.",
		}})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: ErrorBody{
			Kind:    "NOT_OWNER",
			Message: "You are not authorized to modify this page.",
		}})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorBody{
			Kind:    "NOT_FOUND",
			Message: "Page or item not found.",
		}})
	case errors.Is(err, services.ErrSlugTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: ErrorBody{
			Kind:    "SLUG_TAKEN",
			Message: "This URL is already taken.",
		}})
	case errors.Is(err, services.ErrVersionConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: ErrorBody{
			Kind:    "VERSION_CONFLICT",
			Message: "The page was modified by another request. Reload and retry.",
		}})
	case errors.Is(err, services.ErrNotGated):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Kind:    "NOT_GATED",
			Message: "This link is not token gated.",
		}})
	case errors.Is(err, services.ErrInsufficientBalance):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: ErrorBody{
			Kind:    "INSUFFICIENT_BALANCE",
			Message: "Your wallet does not hold enough of the required token.",
		}})
	case errors.Is(err, services.ErrOracleUnavailable):
		appLogger.Error("Balance oracle failure surfaced to client", "requestID", requestID, "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: ErrorBody{
			Kind:    "ORACLE_UNAVAILABLE",
			Message: "Token verification is temporarily unavailable. Try again later.",
		}})
	case errors.Is(err, services.ErrStoreUnavailable):
		appLogger.Error("Page store failure surfaced to client", "requestID", requestID, "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: ErrorBody{
			Kind:    "STORE_UNAVAILABLE",
			Message: "Storage is temporarily unavailable. Try again later.",
		}})
	default:
		appLogger.Error("Unhandled error in request handler", "requestID", requestID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorBody{
			Kind:    "INTERNAL",
			Message: "An internal error occurred.",
		}})
	}
}
