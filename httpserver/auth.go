package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veridoc/document-registry-backend/interfaces"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Authenticator resolves bearer tokens to identities. Tokens are HS256 JWTs
// issued by the external user system; the subject claim carries the
// identity's public id.
type Authenticator struct {
	secret []byte
	dir    interfaces.IdentityDirectory
}

// NewAuthenticator creates a bearer-token authenticator over the directory.
func NewAuthenticator(secret []byte, dir interfaces.IdentityDirectory) *Authenticator {
	return &Authenticator{secret: secret, dir: dir}
}

// Middleware rejects requests without a valid bearer token and attaches the
// resolved identity to the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.Subject == "" {
			writeJSONError(w, http.StatusUnauthorized, "token has no subject")
			return
		}

		ident, err := a.dir.ByPublicID(r.Context(), claims.Subject)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unknown identity")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFrom returns the identity the auth middleware attached.
func identityFrom(r *http.Request) (*interfaces.Identity, bool) {
	ident, ok := r.Context().Value(identityContextKey).(*interfaces.Identity)
	return ident, ok
}

// IssueToken mints a token for the given public id. Used by tests and local
// tooling; production tokens come from the external user system.
func (a *Authenticator) IssueToken(publicID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: publicID})
	return token.SignedString(a.secret)
}
