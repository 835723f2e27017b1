package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/idkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// MinKeyLength is the minimum HS256 secret size (256 bits).
const MinKeyLength = 32

// SigningKey is the process-wide HMAC secret shared by Issuer and Verifier.
type SigningKey []byte

// NewSigningKey validates secret and wraps it as a SigningKey.
func NewSigningKey(secret string) (SigningKey, error) {
	if len(secret) < MinKeyLength {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", common.ErrSigningKeyUnavailable, MinKeyLength, len(secret))
	}
	return SigningKey(secret), nil
}

// Claims is the identity embedded in a token.
type Claims struct {
	SubjectID  int64
	Identifier string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// tokenClaims is the wire form: sub carries the decimal subject id.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Issuer signs identity claims into HS256 JWTs.
type Issuer struct {
	key SigningKey
	now func() time.Time
}

func NewIssuer(key SigningKey) (*Issuer, error) {
	if len(key) == 0 {
		return nil, common.ErrSigningKeyUnavailable
	}
	return &Issuer{key: key, now: time.Now}, nil
}

// Issue signs c with issuedAt = now and expiresAt = now + ttl. Both are
// truncated to whole seconds, the precision of JWT numeric dates.
func (i *Issuer) Issue(c Claims, ttl time.Duration) (string, error) {
	now := i.now().Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(c.SubjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: c.Identifier,
	})

	signed, err := token.SignedString([]byte(i.key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verifier checks HS256 JWTs produced by Issuer. It holds no mutable state
// and is safe for concurrent use.
type Verifier struct {
	key    SigningKey
	now    func() time.Time
	parser *jwt.Parser
}

func NewVerifier(key SigningKey) (*Verifier, error) {
	if len(key) == 0 {
		return nil, common.ErrSigningKeyUnavailable
	}
	v := &Verifier{key: key, now: time.Now}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)
	return v, nil
}

// Verify returns the claims of a valid token. Failures are, in order of
// checking: common.ErrTokenMalformed, common.ErrTokenInvalidSignature and
// common.ErrTokenExpired.
func (v *Verifier) Verify(token string) (*Claims, error) {
	tc := &tokenClaims{}
	_, err := v.parser.ParseWithClaims(token, tc, func(*jwt.Token) (any, error) {
		return []byte(v.key), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) && onlySignatureUndecodable(token) {
			return nil, fmt.Errorf("%w: %v", common.ErrTokenInvalidSignature, err)
		}
		return nil, classify(err)
	}

	id, err := strconv.ParseInt(tc.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: bad subject", common.ErrTokenMalformed)
	}
	if tc.Email == "" || tc.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing claims", common.ErrTokenMalformed)
	}

	return &Claims{
		SubjectID:  id,
		Identifier: tc.Email,
		IssuedAt:   tc.IssuedAt.Time,
		ExpiresAt:  tc.ExpiresAt.Time,
	}, nil
}

// onlySignatureUndecodable reports whether the header and claims segments of
// token are valid base64url JSON while the signature segment does not decode
// strictly. An altered trailing signature character lands here.
func onlySignatureUndecodable(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	enc := base64.RawURLEncoding.Strict()
	for _, seg := range parts[:2] {
		b, err := enc.DecodeString(seg)
		if err != nil || !json.Valid(b) {
			return false
		}
	}
	_, err := enc.DecodeString(parts[2])
	return err != nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", common.ErrTokenInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}
}

// Kind names the auth failure in err for audit logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, common.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, common.ErrTokenInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "internal"
	}
}
