package rbac

import (
	"log/slog"
	"net/http"

	"github.com/branded-hq/branded/internal/shared"
)

// Middleware wires authorization gates for HTTP handlers. Gates read the
// principal installed by the app middleware; a missing principal is a 403.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequirePermission ensures the current user holds the permission at the
// given level or better. Scope narrowing is not applied at the route level;
// handlers needing instance scoping call the service themselves.
func (m Middleware) RequirePermission(permission string, required AccessLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			result := m.Service.CheckPermission(r.Context(), principal.UserID, permission, CheckOptions{RequiredLevel: required})
			if !result.Granted {
				if m.Logger != nil {
					m.Logger.Info("authorization denied",
						slog.String("user_id", principal.UserID.String()),
						slog.String("permission", permission),
						slog.String("required", string(required)),
						slog.String("level", string(result.Level)))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission ensures the current user holds at least one of the
// permissions at view level or better.
func (m Middleware) RequireAnyPermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(permissions) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			for _, permission := range permissions {
				if m.Service.HasPermission(r.Context(), principal.UserID, permission, CheckOptions{}) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireRoleLevel ensures the current user holds a role with authority at
// or above the given level (lower number wins).
func (m Middleware) RequireRoleLevel(maximumLevel int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if !m.Service.HasRoleLevel(r.Context(), principal.UserID, maximumLevel, ScopeFilter{}) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
