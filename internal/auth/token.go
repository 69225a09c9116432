package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	minKeyLength    = 32
)

var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// Claims is the typed payload of an access token. The subject carries the user id.
type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens with a fixed configured key.
type TokenManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type TokenOption func(*TokenManager)

func WithTTL(ttl time.Duration) TokenOption {
	return func(m *TokenManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewTokenManager(signingKey string, opts ...TokenOption) (*TokenManager, error) {
	if len(signingKey) < minKeyLength {
		return nil, fmt.Errorf("auth: signing key must be at least %d bytes", minKeyLength)
	}

	m := &TokenManager{
		key: []byte(signingKey),
		ttl: DefaultTokenTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *TokenManager) Issue(userID, username string, role Role) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("userID is empty")
	}
	if _, ok := ParseRole(string(role)); !ok {
		return "", fmt.Errorf("role %q is unknown", role)
	}

	now := m.now()
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("token.SignedString: %w", err)
	}

	return signed, nil
}

func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	var claims Claims

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, ErrTokenExpired
	case err != nil:
		return Identity{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	role, ok := ParseRole(string(claims.Role))
	if !ok || claims.Subject == "" {
		return Identity{}, fmt.Errorf("subject or role missing: %w", ErrTokenInvalid)
	}

	return Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Role:     role,
	}, nil
}
