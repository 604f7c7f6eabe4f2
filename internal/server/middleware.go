package server

//go:generate mockgen -source=middleware.go -destination=mock_middleware.go -package=server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-site/internal/auctionerrors"
	"auction-site/internal/auth"
	model "auction-site/internal/models"
	"auction-site/services/common"
	"auction-site/utils"

	"github.com/gin-gonic/gin"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// Authenticator resolves a session token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// RequestIDMiddleware propagates the caller's X-Request-ID or assigns a new one
func RequestIDMiddleware(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = utils.GenerateID()
	}
	c.Set(requestIDKey, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"request_id": c.GetString(requestIDKey),
	}
	if userID, ok := common.CurrentUserID(c); ok {
		fields["user_id"] = userID
	}
	if msg := c.Writer.Header().Get(utils.MessageHeader); msg != "" {
		fields["message"] = msg
	}
	utils.Info("HTTP Request", fields)
}

// RequireAuth rejects requests without a valid session token
func RequireAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.TokenFromRequest(c.Request)
		if token == "" {
			err := fmt.Errorf("%w: missing %s header", auctionerrors.ErrUnauthorized, auth.HeaderName)
			utils.AbortWithError(c, http.StatusUnauthorized, err, "unauthorized")
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			status, message := http.StatusUnauthorized, "unauthorized"
			if !errors.Is(err, auctionerrors.ErrUnauthorized) {
				status, message = common.MapErrorToHTTP(err)
				utils.Error("RequireAuth: failed to authenticate", map[string]any{"error": err.Error()})
			}
			utils.AbortWithError(c, status, err, message)
			return
		}

		c.Set(common.ContextKeyUserID, user.UserID)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets everyone else through anonymously
func OptionalAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := auth.TokenFromRequest(c.Request); token != "" {
			if user, err := authn.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(common.ContextKeyUserID, user.UserID)
			} else {
				utils.Debug("OptionalAuth: ignoring invalid token", map[string]any{"error": err.Error()})
			}
		}
		c.Next()
	}
}
