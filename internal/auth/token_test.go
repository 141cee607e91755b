package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/task-service/internal/domain"
)

var testIdentity = domain.Identity{Subject: "user-1", Email: "a@x.com", Role: "Developer"}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSignParseRoundTrip(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret-1", 15*time.Minute, 7*24*time.Hour, fixedClock(issued))

	tests := []struct {
		name    string
		kind    domain.TokenKind
		wantTTL time.Duration
	}{
		{name: "access token", kind: domain.TokenKindAccess, wantTTL: 15 * time.Minute},
		{name: "refresh token", kind: domain.TokenKindRefresh, wantTTL: 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, exp, err := tm.Sign(testIdentity, tt.kind)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			if got, want := exp, issued.Add(tt.wantTTL); !got.Equal(want) {
				t.Fatalf("expiry = %v, want %v", got, want)
			}

			claims, err := tm.Parse(token)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if claims.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", claims.Kind, tt.kind)
			}
			if got := claims.Identity(); got != testIdentity {
				t.Errorf("identity = %+v, want %+v", got, testIdentity)
			}
			if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != tt.wantTTL {
				t.Errorf("exp-iat = %v, want %v", got, tt.wantTTL)
			}
		})
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	now := time.Now()
	signer := NewTokenManager("secret-1", time.Minute, time.Hour, fixedClock(now))
	verifier := NewTokenManager("secret-2", time.Minute, time.Hour, fixedClock(now))

	token, _, err := signer.Sign(testIdentity, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := verifier.Parse(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("Parse err = %v, want %v", err, ErrTokenSignature)
	}
}

func TestParseExpiryBoundary(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := 15 * time.Minute
	signer := NewTokenManager("secret-1", ttl, time.Hour, fixedClock(issued))
	token, _, err := signer.Sign(testIdentity, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{name: "one second before expiry", now: issued.Add(ttl - time.Second), wantErr: nil},
		{name: "exactly at expiry", now: issued.Add(ttl), wantErr: ErrTokenExpired},
		{name: "after expiry", now: issued.Add(ttl + time.Second), wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := NewTokenManager("secret-1", ttl, time.Hour, fixedClock(tt.now))
			_, err := verifier.Parse(token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tm := NewTokenManager("secret-1", time.Minute, time.Hour, nil)

	valid, _, err := tm.Sign(testIdentity, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "truncated", token: valid[:len(valid)/2]},
		{name: "missing signature", token: strings.Join(strings.Split(valid, ".")[:2], ".")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tm.Parse(tt.token); !errors.Is(err, ErrTokenMalformed) {
				t.Fatalf("Parse err = %v, want %v", err, ErrTokenMalformed)
			}
		})
	}
}

func TestParseRejectsUnexpectedMethod(t *testing.T) {
	tm := NewTokenManager("secret-1", time.Minute, time.Hour, nil)

	claims := &Claims{
		Email: testIdentity.Email,
		Role:  testIdentity.Role,
		Kind:  domain.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testIdentity.Subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret-1"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := tm.Parse(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("Parse err = %v, want %v", err, ErrTokenSignature)
	}
}

func TestParseRejectsMissingClaims(t *testing.T) {
	tm := NewTokenManager("secret-1", time.Minute, time.Hour, nil)

	tests := []struct {
		name     string
		identity domain.Identity
	}{
		{name: "missing subject", identity: domain.Identity{Email: "a@x.com", Role: "Developer"}},
		{name: "missing email", identity: domain.Identity{Subject: "user-1", Role: "Developer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := tm.Sign(tt.identity, domain.TokenKindAccess)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			if _, err := tm.Parse(token); !errors.Is(err, ErrTokenPayload) {
				t.Fatalf("Parse err = %v, want %v", err, ErrTokenPayload)
			}
		})
	}
}

func TestDefaultTTLs(t *testing.T) {
	tm := NewTokenManager("secret-1", 0, 0, nil)
	if got := tm.TTL(domain.TokenKindAccess); got != 15*time.Minute {
		t.Errorf("access TTL = %v, want 15m", got)
	}
	if got := tm.TTL(domain.TokenKindRefresh); got != 7*24*time.Hour {
		t.Errorf("refresh TTL = %v, want 168h", got)
	}
}
