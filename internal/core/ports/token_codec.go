package ports

// SessionClaims is the payload carried by a self-issued session token.
type SessionClaims struct {
	Subject string
	Email   string
	Roles   []string
}

// TokenCodec signs and verifies session tokens. Verify must not reveal
// whether a failure was expiry, signature, or malformation.
type TokenCodec interface {
	Sign(claims SessionClaims) (string, error)
	Verify(token string) (*SessionClaims, error)
}
