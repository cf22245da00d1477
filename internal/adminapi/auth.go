package adminapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenDuration is how long an operator bearer token stays valid once
// issued. There is exactly one operator console, so a relatively long
// lifetime trades a little blast radius for not having to re-authenticate
// a long-running admin session.
const tokenDuration = 12 * time.Hour

var (
	// ErrTokenExpired is returned by ValidateToken for a well-formed but
	// expired token.
	ErrTokenExpired = errors.New("adminapi: token expired")
	// ErrTokenInvalid is returned for anything else wrong with a token:
	// bad signature, wrong algorithm, malformed claims.
	ErrTokenInvalid = errors.New("adminapi: token invalid")
)

// Claims holds the custom JWT claims embedded in every operator token.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 operator bearer tokens. Unlike the
// multi-user RS256 scheme this is adapted from, a single shared secret is
// sufficient: there is one operator, not a user directory.
type JWTManager struct {
	secret []byte
	issuer string
}

// NewJWTManager builds a JWTManager around secret. An empty secret is
// rejected since it would make every token trivially forgeable.
func NewJWTManager(secret, issuer string) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("adminapi: JWT secret must not be empty")
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer}, nil
}

// GenerateToken issues a signed HS256 token for the operator.
func (m *JWTManager) GenerateToken() (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   "operator",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("adminapi: signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies tokenString, rejecting anything not
// signed with HS256 under this manager's secret.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("adminapi: unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
