package integrationtests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	auctions "auction-site/internal/auctionService"
	"auction-site/internal/auth"
	bidding "auction-site/internal/biddingService"
	"auction-site/internal/config"
	"auction-site/internal/events"
	"auction-site/internal/imagestore"
	"auction-site/internal/repository"
	"auction-site/internal/server"
	users "auction-site/internal/userService"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const api = "/api/v1"

// pngBytes is the smallest body the image store recognises as a PNG
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 17)...)

// testApp is the full server wired to an in-memory store and a temporary image directory
type testApp struct {
	router *gin.Engine
	repo   *repository.MemoryRepo
	images *imagestore.FileStore
}

// SetupTestApp initializes the router with in-memory repository for integration testing.
func SetupTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Images.Directory = t.TempDir()
	cfg.Images.MaxBytes = 1 << 10

	repo := repository.NewMemoryRepo()
	images, err := imagestore.NewFileStore(cfg.Images.Directory)
	require.NoError(t, err)
	tokens := auth.NewTokenManager("integration-secret", "auction-site-test", time.Hour)

	userSvc := users.NewUserService(repo, tokens, images)
	router := server.SetupRouter(cfg, server.Dependencies{
		Users:    userSvc,
		Auth:     userSvc,
		Auctions: auctions.NewAuctionService(repo, images, events.NopPublisher{}),
		Bidding:  bidding.NewBiddingService(repo, events.NopPublisher{}),
		Seeder:   repo,
		Images:   images,
	})
	return &testApp{router: router, repo: repo, images: images}
}

// ExecuteRequest executes an HTTP request and returns the parsed JSON object body with the recorder.
// A []byte body is sent as is, anything else is JSON encoded. Array bodies are read with listBody.
func (a *testApp) ExecuteRequest(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, api+url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.HeaderName, token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp map[string]any
	if isJSON(w) && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return resp, w
}

func isJSON(w *httptest.ResponseRecorder) bool {
	return w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json")
}

// listBody decodes a JSON array response
func listBody(t *testing.T, w *httptest.ResponseRecorder) []any {
	t.Helper()
	require.True(t, isJSON(w), w.Body.String())
	var rows []any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows), w.Body.String())
	return rows
}

// RegisterAndLogin creates an account and returns its id and session token
func (a *testApp) RegisterAndLogin(t *testing.T, firstName string) (uint, string) {
	t.Helper()
	email := fmt.Sprintf("%s@example.com", firstName)

	resp, w := a.ExecuteRequest(t, http.MethodPost, "/users/register", "", map[string]any{
		"firstName": firstName,
		"lastName":  "Tester",
		"email":     email,
		"password":  "password",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	userID := uint(resp["userId"].(float64))

	resp, w = a.ExecuteRequest(t, http.MethodPost, "/users/login", "", map[string]any{
		"email":    email,
		"password": "password",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, float64(userID), resp["userId"])
	return userID, resp["token"].(string)
}

// CreateAuction posts a valid listing with the given overrides and returns its id
func (a *testApp) CreateAuction(t *testing.T, token string, overrides map[string]any) uint {
	t.Helper()
	body := map[string]any{
		"title":       "Test auction",
		"description": "Something worth bidding on",
		"categoryId":  1,
		"endDate":     time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02 15:04:05"),
		"reserve":     10,
	}
	for k, v := range overrides {
		body[k] = v
	}

	resp, w := a.ExecuteRequest(t, http.MethodPost, "/auctions", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(resp["auctionId"].(float64))
}

// PlaceBid posts a bid and returns the response recorder
func (a *testApp) PlaceBid(t *testing.T, token string, auctionID uint, amount int) *httptest.ResponseRecorder {
	t.Helper()
	_, w := a.ExecuteRequest(t, http.MethodPost, fmt.Sprintf("/auctions/%d/bids", auctionID), token, map[string]any{"amount": amount})
	return w
}

func newRawRequest(method, url, token, contentType string, body []byte) *http.Request {
	req := httptest.NewRequest(method, api+url, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set(auth.HeaderName, token)
	}
	return req
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}
