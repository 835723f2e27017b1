package auth

import (
	"strings"

	"github.com/dmitrijs2005/idkeeper/internal/common"
)

// TokenVerifier is what the gate needs from Verifier.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Gate turns a raw Authorization value into verified claims. Transports wrap
// it: gin middleware for HTTP, an interceptor for gRPC.
type Gate struct {
	verifier TokenVerifier
}

func NewGate(v TokenVerifier) *Gate {
	return &Gate{verifier: v}
}

// Authenticate extracts the bearer token from header and verifies it.
func (g *Gate) Authenticate(header string) (*Claims, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	return g.verifier.Verify(token)
}

// BearerToken parses "Bearer <token>". The scheme is case-insensitive. An
// absent header, another scheme or an empty token all give
// common.ErrMissingToken.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", common.ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", common.ErrMissingToken
	}
	return token, nil
}

// Preview is the loggable prefix of a token. The first 8 characters belong
// to the JWT header, never to claims or signature.
func Preview(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}
