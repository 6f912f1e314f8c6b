package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-house/internal/auctionerrors"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// context keys set by the auth middleware
const (
	userIDKey   = "auth_user_id"
	usernameKey = "auth_username"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// HandleServiceError maps err to a status, replies and logs it
func HandleServiceError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()

	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrListingNotFound):
		return http.StatusNotFound, "listing not found"
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, auctionerrors.ErrCategoryNotFound):
		return http.StatusNotFound, "category not found"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusNotFound, "no bids found for listing"
	case errors.Is(err, auctionerrors.ErrForbidden):
		return http.StatusForbidden, "only the seller can do that"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return http.StatusConflict, "auction is closed"
	case errors.Is(err, auctionerrors.ErrUsernameTaken):
		return http.StatusConflict, "username already taken"
	case errors.Is(err, auctionerrors.ErrCategoryExists):
		return http.StatusConflict, "category already exists"
	case errors.Is(err, auctionerrors.ErrTooManyCategories):
		return http.StatusBadRequest, "a listing can have at most 3 categories"
	case errors.Is(err, auctionerrors.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid amount"
	case errors.Is(err, auctionerrors.ErrInvalidListing):
		return http.StatusBadRequest, "invalid listing details"
	case errors.Is(err, auctionerrors.ErrInvalidCategory):
		return http.StatusBadRequest, "invalid category name"
	case errors.Is(err, auctionerrors.ErrEmptyComment):
		return http.StatusBadRequest, "comment is empty"
	case errors.Is(err, auctionerrors.ErrInvalidUsername):
		return http.StatusBadRequest, "invalid username"
	case errors.Is(err, auctionerrors.ErrWeakPassword):
		return http.StatusBadRequest, "password too weak"
	case errors.Is(err, auctionerrors.ErrPasswordTooLong):
		return http.StatusBadRequest, "password too long"
	case errors.Is(err, auctionerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, auctionerrors.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, auctionerrors.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, auctionerrors.ErrLockTimeout):
		return http.StatusServiceUnavailable, "listing is busy, try again"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// SetCurrentUser records the authenticated caller on the request context
func SetCurrentUser(c *gin.Context, userID, username string) {
	c.Set(userIDKey, userID)
	c.Set(usernameKey, username)
}

// CurrentUserID returns the authenticated caller's id, if any
func CurrentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDKey)
	return userID, userID != ""
}

// RequireUser returns the caller's id or replies 401
func RequireUser(c *gin.Context, handlerName string) (string, bool) {
	userID, ok := CurrentUserID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrInvalidToken, "authentication required")
		utils.Warn(handlerName+": missing identity", nil)
	}
	return userID, ok
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
