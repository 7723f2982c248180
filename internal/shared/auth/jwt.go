package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the identity contained in a session token.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

const defaultTokenTTL = 24 * time.Hour

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer. Production environments must supply a secret;
// elsewhere a development secret is used when none is set.
func NewIssuer(secret, env string) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if isProduction(env) {
			return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
		secret = "dev-secret"
	}
	return &Issuer{secret: []byte(secret), ttl: defaultTokenTTL, now: time.Now}, nil
}

// TTL is how long issued tokens stay valid.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Sign issues a token for the subject in claims.
func (i *Issuer) Sign(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("sub is required")
	}
	now := i.now().UTC()
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks the signature and expiry of a token and returns its claims.
func (i *Issuer) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func isProduction(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "production" || env == "prod"
}
