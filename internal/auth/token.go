package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sukut-platform/go-portal/internal/db/models"
)

// TokenIssuer signs and verifies the portal's session tokens.
// A token is an HS256 JWT whose ID claim keys a server-side session record,
// so logout can revoke it before the embedded expiry passes.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer with the given HMAC secret and token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for the given user and session ID.
func (t *TokenIssuer) Issue(user *models.User, sessionID string) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   strconv.FormatUint(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// Verify parses and validates a token and returns the session ID it carries.
// Expired, malformed and tampered tokens all yield ErrTokenInvalid.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := new(jwt.RegisteredClaims)

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(_ *jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", errors.Join(ErrTokenInvalid, err)
	}

	if claims.ID == "" {
		return "", ErrTokenInvalid
	}

	return claims.ID, nil
}
