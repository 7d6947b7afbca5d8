package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "agrivisor"

// Roles assignable to accounts.
const (
	RoleFarmer = "farmer"
	RoleAdmin  = "admin"
)

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrExpiredToken = errors.New("auth: token expired")
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// FarmerID returns the subject as a farmer identifier.
func (c Claims) FarmerID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidToken, err)
	}
	return id, nil
}

// TokenService issues and validates HMAC-signed access tokens.
type TokenService struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewTokenService creates a token service with the given signing secret and
// token lifetime.
func NewTokenService(secret string, tokenTTL time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), tokenTTL: tokenTTL}
}

// Issue creates a signed access token for the account.
func (s *TokenService) Issue(accountID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates a token string and returns its claims.
func (s *TokenService) Parse(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
