package authz

import (
	"log/slog"
	"net/http"

	"github.com/warebase/warebase/internal/platform/httpx"
)

// Authorization modes.
const (
	ModeDB     = "db"
	ModeClaims = "claims"
)

// Middleware wires authorization helpers for HTTP handlers. In db mode each
// check hits the permission store; in claims mode the decision is made from
// the permission claims carried by the caller's token.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Mode    string
}

// Require ensures the caller holds the named action. The resolved decision
// is not stored; handlers that need the own-only flag perform their own
// service-level checks so ownership is evaluated against the loaded resource.
func (m Middleware) Require(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}

			var d Decision
			if m.Mode == ModeClaims {
				d = Match(ident.Claims, r.Method, r.URL.Path)
			} else {
				d = m.Service.HasPermission(r.Context(), ident.UserID, action)
			}
			if !d.Granted {
				if m.Logger != nil {
					m.Logger.Warn("authz: denied",
						slog.Int64("user_id", ident.UserID),
						slog.String("action", action),
						slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated only checks that a caller identity is present.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
