// Package csrf gates the mutating scan endpoint behind a short-lived
// HMAC-signed token. The verification page obtains a token from GET
// /api/v1/scan-token and echoes it back in the X-Scan-Token header; requests
// without a valid token are rejected before any core logic runs.
package csrf

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "veritag/pkg/domain-errors"
	"veritag/pkg/platform/httputil"
)

// HeaderName carries the signed scan token.
const HeaderName = "X-Scan-Token"

// Validator issues and checks signed scan tokens.
type Validator struct {
	signingKey []byte
	ttl        time.Duration
	logger     *slog.Logger
	disabled   bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithDisabled turns the gate off (testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(v *Validator) { v.disabled = disabled }
}

// WithTTL overrides the default 15-minute token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(v *Validator) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

// New constructs a Validator with the given HMAC signing key.
func New(signingKey []byte, logger *slog.Logger, opts ...Option) *Validator {
	v := &Validator{
		signingKey: signingKey,
		ttl:        15 * time.Minute,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Issue creates a new signed token valid for the configured TTL.
func (v *Validator) Issue(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   "scan",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.signingKey)
}

// TTL returns the configured token lifetime.
func (v *Validator) TTL() time.Duration {
	return v.ttl
}

// Check verifies a token string.
func (v *Validator) Check(tokenString string) error {
	if v.disabled {
		return nil
	}
	if tokenString == "" {
		return dErrors.New(dErrors.CodeForbidden, "scan token is required")
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return dErrors.New(dErrors.CodeForbidden, "scan token is invalid or expired")
	}
	return nil
}

// Require is middleware that rejects requests lacking a valid scan token.
func (v *Validator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := v.Check(r.Header.Get(HeaderName)); err != nil {
			v.logger.InfoContext(r.Context(), "scan token rejected", "path", r.URL.Path)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
