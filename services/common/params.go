package common

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auction-site/internal/auctionerrors"

	"github.com/gin-gonic/gin"
)

// ContextKeyUserID is where the auth middleware stores the authenticated user's id
const ContextKeyUserID = "userID"

// CurrentUserID returns the authenticated user's id, if any
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// ParseIDParam reads a positive integer path parameter
func ParseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s=%q", auctionerrors.ErrInvalidID, name, raw)
	}
	return uint(id), nil
}

// dateLayouts are the accepted end date formats; the ones without a zone are read as UTC
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDate parses an auction end date
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised date %q", auctionerrors.ErrInvalidAuction, value)
}

// ReadImageBody reads a raw image upload of at most maxBytes and returns it with its declared content type
func ReadImageBody(c *gin.Context, maxBytes int64) ([]byte, string, error) {
	contentType := c.GetHeader("Content-Type")
	if contentType == "" {
		return nil, "", fmt.Errorf("%w: missing Content-Type", auctionerrors.ErrUnsupportedImage)
	}
	body := c.Request.Body
	if maxBytes > 0 {
		body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("%w: limit is %d bytes", auctionerrors.ErrImageTooLarge, maxBytes)
		}
		return nil, "", fmt.Errorf("read image body: %w", err)
	}
	return data, contentType, nil
}

// WriteImage sends raw image bytes with their content type
func WriteImage(c *gin.Context, data []byte, contentType string) {
	c.Data(http.StatusOK, contentType, data)
}

// RequireUserID returns the authenticated user's id or responds 401
func RequireUserID(c *gin.Context, handlerName string) (uint, bool) {
	id, ok := CurrentUserID(c)
	if !ok {
		RespondError(c, handlerName, fmt.Errorf("%w: no authenticated user", auctionerrors.ErrUnauthorized), nil)
		return 0, false
	}
	return id, true
}
