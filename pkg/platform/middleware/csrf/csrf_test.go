package csrf

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValidator(t *testing.T, opts ...Option) *Validator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New([]byte("test-signing-key"), logger, opts...)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequire_MissingTokenRejected(t *testing.T) {
	v := testValidator(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scan", nil)

	v.Require(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequire_ValidTokenPasses(t *testing.T) {
	v := testValidator(t)
	token, err := v.Issue(time.Now())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scan", nil)
	req.Header.Set(HeaderName, token)

	v.Require(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequire_ExpiredTokenRejected(t *testing.T) {
	v := testValidator(t, WithTTL(time.Minute))
	token, err := v.Issue(time.Now().Add(-2 * time.Minute))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scan", nil)
	req.Header.Set(HeaderName, token)

	v.Require(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequire_DisabledPassesThrough(t *testing.T) {
	v := testValidator(t, WithDisabled(true))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scan", nil)

	v.Require(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
