package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")
	token, err := v.Sign(model.Identity{UserID: "u-1", Name: "Ana", Email: "ana@example.com"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, model.Identity{UserID: "u-1", Name: "Ana", Email: "ana@example.com"}, id)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("test-secret")

	expired, err := v.Sign(model.Identity{UserID: "u-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewVerifier("other-secret").Sign(model.Identity{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := v.Sign(model.Identity{}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewVerifier("").Verify("anything")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("test-secret")
	var seen model.Identity
	var authed bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, authed = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	reject := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnauthorized) }
	h := Middleware(v, zap.NewNop(), reject)(next)

	t.Run("anonymous passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, authed)
	})

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := v.Sign(model.Identity{UserID: "host-1"}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, authed)
		assert.Equal(t, "host-1", seen.UserID)
	})

	t.Run("bad token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-bearer scheme rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
