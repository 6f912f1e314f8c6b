package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	account "auction-house/internal/accountService"
	"auction-house/internal/auctionerrors"
	"auction-house/internal/metrics"
	"auction-house/services/auction/helpers"
	"auction-house/utils"
)

// TokenValidator resolves a bearer token to its claims
type TokenValidator interface {
	ValidateToken(tokenString string) (*account.Claims, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if userID, ok := helpers.CurrentUserID(c); ok {
		fields["user_id"] = userID
	}
	utils.Info("HTTP Request", fields)
}

// MetricsMiddleware records request latency per matched route
func MetricsMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next()

	metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
}

// AuthMiddleware requires a valid bearer token and records the caller on the context
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			utils.AbortJSONError(c, http.StatusUnauthorized, auctionerrors.ErrInvalidToken, "authorization header required")
			utils.Warn("AuthMiddleware: missing bearer token", map[string]any{"path": c.Request.URL.Path})
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, auctionerrors.ErrInvalidToken) {
				status = http.StatusInternalServerError
			}
			utils.AbortJSONError(c, status, err, "invalid or expired token")
			utils.Warn("AuthMiddleware: token rejected", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			return
		}

		helpers.SetCurrentUser(c, claims.UserID, claims.Username)
		c.Next()
	}
}
