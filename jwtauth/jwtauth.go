// Package jwtauth guards xroute endpoints with HS256 bearer tokens and
// documents the requirement on the operations it protects.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bjaus/xroute"
)

// SchemeName is the security scheme name used in documents.
const SchemeName = "bearerAuth"

// ErrMissingToken is returned when the Authorization header carries no
// bearer token.
var ErrMissingToken = errors.New("missing bearer token")

// Config configures token signing and verification.
type Config struct {
	Secret []byte
	TTL    time.Duration // default: 1h
	Issuer string
}

// Claims are the verified token claims stored in the request context.
type Claims jwt.MapClaims

// Subject returns the "sub" claim.
func (c Claims) Subject() string {
	s, _ := c["sub"].(string)
	return s
}

// Sign issues a token for subject carrying the extra claims.
func Sign(cfg Config, subject string, extra map[string]any) (string, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if cfg.Issuer != "" {
		claims["iss"] = cfg.Issuer
	}
	for k, v := range extra {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// Verify parses token and checks its signature, expiry and issuer.
func Verify(cfg Config, token string) (Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return cfg.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return Claims(claims), nil
}

// Require returns an endpoint option that rejects requests without a valid
// bearer token with 401, stores the claims for Claims and ClaimsArg, and
// documents the security requirement and the 401 response.
func Require(cfg Config) xroute.Option {
	mw := func(r *xroute.Request) error {
		token, ok := bearer(r.Header.Get("Authorization"))
		if !ok {
			return xroute.Error(http.StatusUnauthorized, ErrMissingToken.Error())
		}
		claims, err := Verify(cfg, token)
		if err != nil {
			return xroute.Errorf(http.StatusUnauthorized, "invalid token: %v", err)
		}
		xroute.SetValue(r, claims)
		return nil
	}

	return xroute.WithMiddleware(mw,
		xroute.PushDoc("security", xroute.SecurityRequirement{SchemeName: {}}),
		xroute.WithErrors(http.StatusUnauthorized),
	)
}

// SecurityScheme returns the scheme to register under SchemeName.
func SecurityScheme() *xroute.SecurityScheme {
	return xroute.BearerAuth("JWT")
}

// FromContext returns the claims stored by Require.
func FromContext(ctx context.Context) (Claims, bool) {
	return xroute.GetValue[Claims](ctx)
}

// ClaimsArg binds the verified claims, or nil when none were stored.
func ClaimsArg() xroute.Binder {
	return func(r *xroute.Request) any {
		claims, ok := FromContext(r.Context())
		if !ok {
			return nil
		}
		return claims
	}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
