package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"auction-site/internal/auctionerrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// HeaderName carries the session token on every authenticated request
	HeaderName = "X-Authorization"
	// CookieName is where the browser client keeps the token
	CookieName = "token"
)

// TokenManager issues and verifies HS256 session tokens
type TokenManager struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager; a non-positive expiry defaults to 24 hours
func NewTokenManager(secret, issuer string, expiry time.Duration) *TokenManager {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue creates a signed token for userID. Every call yields a distinct token.
func (m *TokenManager) Issue(userID uint) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, issuer and expiry of a token and returns its user id
func (m *TokenManager) Parse(token string) (uint, error) {
	if token == "" {
		return 0, fmt.Errorf("auth: %w - missing token", auctionerrors.ErrUnauthorized)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return 0, fmt.Errorf("auth: %w - invalid token: %v", auctionerrors.ErrUnauthorized, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("auth: %w - invalid subject %q", auctionerrors.ErrUnauthorized, claims.Subject)
	}
	return uint(id), nil
}

// TokenFromRequest reads the token from the X-Authorization header, falling back to the token cookie
func TokenFromRequest(r *http.Request) string {
	if v := r.Header.Get(HeaderName); v != "" {
		return v
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
