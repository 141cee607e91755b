package domain

// TokenKind differentiates access tokens from refresh tokens. The kind is
// fixed when a token is signed and every consumer checks it: an access
// endpoint never accepts a refresh token and vice versa.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Identity is the resolved caller principal. It is rebuilt from token claims
// on every request; there is no server-side session state behind it.
type Identity struct {
	Subject string
	Email   string
	Role    string
}
