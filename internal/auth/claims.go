package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 15 * time.Minute

// CustomClaims extends the registered JWT claims with the caller's role.
// The subject is the username.
type CustomClaims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// GenerateAccessToken signs an HS256 access token for user. A non-positive
// ttl falls back to 15 minutes.
func GenerateAccessToken(user *User, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Role: user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies an HS256 token signed with secret and returns its
// claims. Expired tokens, tokens without a subject and tokens naming an
// unknown role are rejected with an error wrapping ErrTokenInvalid.
func ParseToken(tokenString, secret string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return claims, nil
}

// Validate is called by the jwt parser after the registered claims pass.
func (c *CustomClaims) Validate() error {
	if c.Subject == "" {
		return errors.New("missing subject")
	}
	if !IsValidRole(c.Role) {
		return fmt.Errorf("invalid role %q", c.Role)
	}
	return nil
}
