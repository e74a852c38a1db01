package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-pathways/internal/auth/middleware"
	"github.com/mind-engage/mindengage-pathways/internal/rbac"
)

// Mount registers the gateway API on r. Health probes stay outside auth.
func Mount(r chi.Router, d Deps) {
	d = d.withDefaults()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", ReadyHandler(d))

	anon := ""
	if !d.RequireAuth {
		anon = rbac.RoleGuest
	}

	// Protected API (JWT → role in context → RBAC)
	r.Route("/api", func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth, d.RequireAuth), auth.AttachRole(anon))

		pr.With(rbac.Require(rbac.PermScoringNormalize)).
			Post("/scoring/normalize", NormalizeHandler(d.Normalizer))
		pr.With(rbac.Require(rbac.PermSchemeView)).
			Get("/scoring/scheme", SchemeHandler(d.Normalizer))

		pr.With(rbac.Require(rbac.PermAttemptEvaluate)).
			Post("/attempts/evaluate", EvaluateAttemptHandler(d))
		pr.With(rbac.Require(rbac.PermProgressionView)).
			Get("/progression/next/{topicID}", NextTargetHandler(d))

		pr.With(rbac.RequireOwnerOr(rbac.PermPerformanceViewAll, rbac.PermPerformanceViewOwn, ownsStudent(d))).
			Get("/students/{studentID}/performance", PerformanceHandler(d))
	})
}

func ReadyHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				d.Log.WarnContext(r.Context(), "not ready", "err", err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
