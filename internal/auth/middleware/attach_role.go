package auth

import (
	"net/http"

	"github.com/mind-engage/mindengage-pathways/internal/rbac"
)

// AttachRole copies the role claim, normalized, into the rbac context.
// Anonymous requests get anonRole; pass "" to leave them without a role so
// every rbac check denies them.
func AttachRole(anonRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := anonRole
			if c := ClaimsFromContext(ctx); c != nil {
				role = rbac.NormalizeRole(c.Role)
			}
			if role == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
		})
	}
}
