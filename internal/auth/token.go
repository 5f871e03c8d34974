package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hongminglow/invest-be/internal/models"
)

// ErrInvalidToken is returned when a bearer token cannot be trusted.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity carried by an access token.
type Claims struct {
	UserID int64
	Email  string
	Role   string
}

// IsAdmin reports whether the token was issued to an administrator.
func (c Claims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// TokenManager issues and verifies signed JWTs for authenticated profiles.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate issues a signed JWT string for the provided profile.
func (t *TokenManager) Generate(profile models.Profile) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"iss":   t.issuer,
		"sub":   strconv.FormatInt(profile.ID, 10),
		"email": profile.Email,
		"role":  profile.Role,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies signature, issuer, and lifetime, then extracts the caller identity.
func (t *TokenManager) Parse(raw string) (Claims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return Claims{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, sub)
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return Claims{UserID: id, Email: email, Role: role}, nil
}
