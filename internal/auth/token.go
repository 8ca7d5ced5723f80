// Package auth issues and verifies the bearer tokens that carry a viewer's
// wallet identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"creatorvault/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the JWT payload: the wallet address and display name.
type Claims struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. now may be nil to use the wall clock.
func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Issue returns a signed token for the identity.
func (i *TokenIssuer) Issue(id model.Identity) (string, error) {
	if id.IsAnonymous() {
		return "", fmt.Errorf("cannot issue a token without an address")
	}

	now := i.now()
	claims := Claims{
		Address: model.NormalizeAddress(id.Address),
		Name:    id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   model.NormalizeAddress(id.Address),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the identity it carries.
func (i *TokenIssuer) Parse(tokenString string) (model.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Identity{}, ErrTokenExpired
		}
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Address == "" {
		return model.Identity{}, ErrInvalidToken
	}
	return model.Identity{Address: model.NormalizeAddress(claims.Address), Name: claims.Name}, nil
}
