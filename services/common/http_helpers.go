package common

import (
	"errors"
	"fmt"
	"net/http"

	"auction-site/internal/auctionerrors"
	"auction-site/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrImageNotFound):
		return http.StatusNotFound, "image not found"

	case errors.Is(err, auctionerrors.ErrCategoryNotFound):
		return http.StatusBadRequest, "category does not exist"
	case errors.Is(err, auctionerrors.ErrInvalidUser):
		return http.StatusBadRequest, "invalid user details"
	case errors.Is(err, auctionerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrInvalidQuery):
		return http.StatusBadRequest, "invalid query parameters"
	case errors.Is(err, auctionerrors.ErrInvalidID):
		return http.StatusBadRequest, "invalid id"
	case errors.Is(err, auctionerrors.ErrUnsupportedImage):
		return http.StatusBadRequest, "unsupported image type"
	case errors.Is(err, auctionerrors.ErrInvalidCredentials):
		return http.StatusBadRequest, "invalid email or password"
	case errors.Is(err, auctionerrors.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "image too large"

	case errors.Is(err, auctionerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"

	case errors.Is(err, auctionerrors.ErrEmailInUse):
		return http.StatusForbidden, "email already in use"
	case errors.Is(err, auctionerrors.ErrWrongPassword):
		return http.StatusForbidden, "current password is incorrect"
	case errors.Is(err, auctionerrors.ErrNotSeller):
		return http.StatusForbidden, "only the seller may modify this auction"
	case errors.Is(err, auctionerrors.ErrAuctionHasBids):
		return http.StatusForbidden, "auction already has bids"
	case errors.Is(err, auctionerrors.ErrOwnAuction):
		return http.StatusForbidden, "cannot bid on your own auction"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return http.StatusForbidden, "auction has closed"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusForbidden, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError maps err, writes the error envelope and logs the failure.
// Server errors are logged at error level, client errors as warnings.
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": "+message, fields)
	} else {
		utils.Warn(handlerName+": "+message, fields)
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
