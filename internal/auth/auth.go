// Package auth verifies session bearer tokens issued by the identity
// provider and carries the resulting identity through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the session claims the identity provider signs.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 session tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier constructs a Verifier for secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify parses token and returns the identity it names.
func (v *Verifier) Verify(token string) (model.Identity, error) {
	if len(v.secret) == 0 {
		return model.Identity{}, ErrInvalidToken
	}

	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return model.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return model.Identity{UserID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}

// Sign issues a token for id valid for ttl. The real issuer is the
// identity provider; this exists for local tooling and tests.
func (v *Verifier) Sign(id model.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  id.Name,
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

type ctxKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the authenticated identity, if any.
func FromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(model.Identity)
	return id, ok && id.UserID != ""
}

// Middleware attaches the identity from a valid bearer token. Requests
// without a token pass through anonymously; requests with a bad token are
// rejected so a stale session is never silently treated as a guest.
func Middleware(v *Verifier, log *zap.Logger, reject func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				reject(w, r)
				return
			}
			id, err := v.Verify(strings.TrimSpace(token))
			if err != nil {
				log.Debug("rejected session token", zap.Error(err))
				reject(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
