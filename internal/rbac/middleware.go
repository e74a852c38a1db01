package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

func deny(w http.ResponseWriter) { http.Error(w, "forbidden", http.StatusForbidden) }

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Has(role, perm) {
				deny(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOr lets owners through when their role grants ownPerm, and
// anyone whose role grants perm.
func RequireOwnerOr(perm, ownPerm string, isOwner func(r *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" {
				deny(w)
				return
			}
			if defaultChecker.Has(role, perm) || (defaultChecker.Has(role, ownPerm) && isOwner(r)) {
				next.ServeHTTP(w, r)
				return
			}
			deny(w)
		})
	}
}
