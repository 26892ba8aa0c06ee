package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a session token fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// TokenIssuer signs session handles into HS256 tokens so clients can carry
// them in a cookie or an Authorization header. A valid token only proves the
// handle was issued by this server; the handle must still be live in the SessionStore.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for s.
func (t *TokenIssuer) Issue(s Session) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   s.Username,
		ID:        string(s.Handle),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns the session handle it carries.
func (t *TokenIssuer) Parse(token string) (Handle, error) {
	claims, err := t.parse(token)
	if err != nil {
		return "", err
	}
	return Handle(claims.ID), nil
}

// Renew re-signs token with a fresh expiry once less than half of its
// lifetime is left. It reports false when token is still fresh enough.
func (t *TokenIssuer) Renew(token string) (string, bool, error) {
	claims, err := t.parse(token)
	if err != nil {
		return "", false, err
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Sub(t.now()) > t.ttl/2 {
		return "", false, nil
	}

	signed, err := t.Issue(Session{Handle: Handle(claims.ID), Username: claims.Subject})
	if err != nil {
		return "", false, err
	}
	return signed, true, nil
}

func (t *TokenIssuer) parse(token string) (*jwt.RegisteredClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TTL returns the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}
