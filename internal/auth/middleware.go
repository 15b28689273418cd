package auth

import (
	"net/http"
	"strings"

	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/platform/httpx"
)

// Authenticator parses a bearer token when present and stores the caller
// identity in the request context. Requests without an Authorization header
// pass through unauthenticated; protected routes reject them downstream.
// A header that is present but invalid is a hard 401.
func Authenticator(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}

			ident, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(authz.ContextWithIdentity(r.Context(), ident)))
		})
	}
}
