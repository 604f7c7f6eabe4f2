package common

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-site/internal/auctionerrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{auctionerrors.ErrUserNotFound, http.StatusNotFound},
		{auctionerrors.ErrAuctionNotFound, http.StatusNotFound},
		{auctionerrors.ErrImageNotFound, http.StatusNotFound},
		{auctionerrors.ErrCategoryNotFound, http.StatusBadRequest},
		{auctionerrors.ErrInvalidAuction, http.StatusBadRequest},
		{auctionerrors.ErrInvalidQuery, http.StatusBadRequest},
		{auctionerrors.ErrInvalidCredentials, http.StatusBadRequest},
		{auctionerrors.ErrUnsupportedImage, http.StatusBadRequest},
		{auctionerrors.ErrImageTooLarge, http.StatusRequestEntityTooLarge},
		{auctionerrors.ErrUnauthorized, http.StatusUnauthorized},
		{auctionerrors.ErrEmailInUse, http.StatusForbidden},
		{auctionerrors.ErrWrongPassword, http.StatusForbidden},
		{auctionerrors.ErrNotSeller, http.StatusForbidden},
		{auctionerrors.ErrAuctionHasBids, http.StatusForbidden},
		{auctionerrors.ErrBidTooLow, http.StatusForbidden},
		{fmt.Errorf("service: update auction 3: %w", auctionerrors.ErrAuctionHasBids), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		status, msg := MapErrorToHTTP(tc.err)
		require.Equal(t, tc.status, status, tc.err.Error())
		require.NotEmpty(t, msg)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2031, 5, 4, 13, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2031-05-04T13:30:00Z",
		"2031-05-04T15:30:00+02:00",
		"2031-05-04 13:30:00",
		"2031-05-04 13:30:00.000",
		"2031-05-04T13:30:00",
	} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		require.True(t, want.Equal(got), in)
		require.Equal(t, time.UTC, got.Location())
	}

	for _, in := range []string{"", "tomorrow", "2031-13-01 00:00:00", "04/05/2031"} {
		_, err := ParseDate(in)
		require.ErrorIs(t, err, auctionerrors.ErrInvalidAuction, in)
	}
}

func TestParseIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/things/:id", func(c *gin.Context) {
		id, err := ParseIDParam(c, "id")
		if err != nil {
			RespondError(c, "test", err, nil)
			return
		}
		c.String(http.StatusOK, "%d", id)
	})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/things/42", http.StatusOK, "42"},
		{"/things/0", http.StatusBadRequest, ""},
		{"/things/-1", http.StatusBadRequest, ""},
		{"/things/abc", http.StatusBadRequest, ""},
		{"/things/99999999999", http.StatusBadRequest, ""},
	}
	for _, tc := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.Equal(t, tc.status, w.Code, tc.path)
		if tc.body != "" {
			require.Equal(t, tc.body, w.Body.String())
		}
	}
}

func TestRequireUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := func(c *gin.Context) {
		id, ok := RequireUserID(c, "test")
		if !ok {
			return
		}
		c.String(http.StatusOK, "%d", id)
	}

	router := gin.New()
	router.GET("/anon", handler)
	router.GET("/me", func(c *gin.Context) { c.Set(ContextKeyUserID, uint(9)) }, handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anon", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "9", w.Body.String())
}

func TestReadImageBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.PUT("/image", func(c *gin.Context) {
		data, contentType, err := ReadImageBody(c, 8)
		if err != nil {
			RespondError(c, "test", err, nil)
			return
		}
		c.Data(http.StatusOK, contentType, data)
	})

	tests := []struct {
		name        string
		body        []byte
		contentType string
		status      int
	}{
		{"within_limit", []byte("1234"), "image/png", http.StatusOK},
		{"exactly_limit", []byte("12345678"), "image/gif", http.StatusOK},
		{"too_large", []byte("123456789"), "image/png", http.StatusRequestEntityTooLarge},
		{"missing_content_type", []byte("1234"), "", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/image", bytes.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				require.Equal(t, tc.body, w.Body.Bytes())
				require.Equal(t, tc.contentType, w.Header().Get("Content-Type"))
			}
		})
	}
}
