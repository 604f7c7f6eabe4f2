package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"auction-site/internal/auctionerrors"
	"auction-site/internal/auth"
	model "auction-site/internal/models"
	"auction-site/services/common"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

// whoAmI echoes the authenticated user id, or 0 for anonymous callers
func whoAmI(c *gin.Context) {
	id, _ := common.CurrentUserID(c)
	c.JSON(http.StatusOK, gin.H{"userId": id})
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	authn := NewMockAuthenticator(ctrl)

	router := gin.New()
	router.GET("/private", RequireAuth(authn), whoAmI)

	tests := []struct {
		name           string
		setup          func(r *http.Request)
		mockSetup      func()
		expectedStatus int
		expectedUserID float64
	}{
		{
			name:           "missing_token",
			setup:          func(r *http.Request) {},
			mockSetup:      func() {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:  "valid_header_token",
			setup: func(r *http.Request) { r.Header.Set(auth.HeaderName, "good") },
			mockSetup: func() {
				authn.EXPECT().Authenticate(gomock.Any(), "good").Return(model.User{UserID: 4}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedUserID: 4,
		},
		{
			name:  "valid_cookie_token",
			setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "cookie"}) },
			mockSetup: func() {
				authn.EXPECT().Authenticate(gomock.Any(), "cookie").Return(model.User{UserID: 8}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedUserID: 8,
		},
		{
			name:  "revoked_token",
			setup: func(r *http.Request) { r.Header.Set(auth.HeaderName, "old") },
			mockSetup: func() {
				authn.EXPECT().Authenticate(gomock.Any(), "old").Return(model.User{}, auctionerrors.ErrUnauthorized)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:  "store_failure",
			setup: func(r *http.Request) { r.Header.Set(auth.HeaderName, "any") },
			mockSetup: func() {
				authn.EXPECT().Authenticate(gomock.Any(), "any").Return(model.User{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if w.Code == http.StatusOK {
				require.Equal(t, tc.expectedUserID, resp["userId"])
			} else {
				require.NotEmpty(t, resp["error"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	authn := NewMockAuthenticator(ctrl)

	router := gin.New()
	router.GET("/public", OptionalAuth(authn), whoAmI)

	get := func(token string) float64 {
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		if token != "" {
			req.Header.Set(auth.HeaderName, token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp["userId"].(float64)
	}

	require.Equal(t, 0.0, get(""))

	authn.EXPECT().Authenticate(gomock.Any(), "good").Return(model.User{UserID: 2}, nil)
	require.Equal(t, 2.0, get("good"))

	authn.EXPECT().Authenticate(gomock.Any(), "bad").Return(model.User{}, auctionerrors.ErrUnauthorized)
	require.Equal(t, 0.0, get("bad"))
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware, RequestLoggerMiddleware)
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(requestIDHeader)
	require.NotEmpty(t, generated)
	require.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	require.Equal(t, "abc-123", w.Body.String())
}
