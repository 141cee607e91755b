package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/task-service/internal/domain"
)

// Codec-level verification failures. The HTTP layer collapses all of these
// into one generic 401; the distinction exists for logging and tests only.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenPayload   = errors.New("token payload invalid")
)

// TokenManager signs and verifies JWT tokens. Verification is pure: validity
// is determined entirely by the signature and the embedded expiry, never by
// server-side state.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager. now may be nil, in which case the
// wall clock is used; tests inject a fixed clock.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, now func() time.Time) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: now}
}

// Claims describes the JWT payload. Kind is fixed at signing time and must be
// checked by every consumer; the codec itself only guarantees authenticity
// and freshness.
type Claims struct {
	Email string           `json:"email"`
	Role  string           `json:"role"`
	Kind  domain.TokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

// Identity rebuilds the caller principal from the claim set.
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{Subject: c.Subject, Email: c.Email, Role: c.Role}
}

// TTL returns the configured lifetime for the given token kind.
func (tm *TokenManager) TTL(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenKindRefresh {
		return tm.refreshTTL
	}
	return tm.accessTTL
}

// Sign builds and signs a token of the given kind for the identity. The
// returned time is the embedded expiry.
func (tm *TokenManager) Sign(identity domain.Identity, kind domain.TokenKind) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.TTL(kind))
	claims := &Claims{
		Email: identity.Email,
		Role:  identity.Role,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Parse verifies a token and returns its claims. Signature integrity is
// checked before anything else; a token whose exp equals the current instant
// is already expired. Kind is deliberately not checked here.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrTokenSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrTokenPayload
	}
	return claims, nil
}
