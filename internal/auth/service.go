// Package auth issues and verifies the bearer tokens that calling services
// present to the coordinator.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const serviceKey ctxKey = 1

var ErrNoSubject = errors.New("token has no subject")

// WithService adds the calling service name to the context.
func WithService(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, serviceKey, name)
}

// Service extracts the calling service, "anon" when auth is disabled.
func Service(ctx context.Context) string {
	v, _ := ctx.Value(serviceKey).(string)
	if v == "" {
		return "anon"
	}
	return v
}

// ServiceTokens signs and verifies HS256 service tokens.
type ServiceTokens struct {
	secret []byte
	issuer string
}

func New(secret, issuer string) *ServiceTokens {
	return &ServiceTokens{secret: []byte(secret), issuer: issuer}
}

// Enabled reports whether a signing secret is configured.
func (t *ServiceTokens) Enabled() bool {
	return t != nil && len(t.secret) > 0
}

// Verify checks a token and returns its subject, the service name.
func (t *ServiceTokens) Verify(tok string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tok, &claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrNoSubject
	}
	return claims.Subject, nil
}

// Sign creates a token for a service with the given TTL.
func (t *ServiceTokens) Sign(service string, ttl time.Duration) (string, error) {
	if service == "" {
		return "", ErrNoSubject
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   service,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}
