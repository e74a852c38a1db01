package http

import (
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-pathways/internal/analytics"
	"github.com/mind-engage/mindengage-pathways/internal/catalog"
	"github.com/mind-engage/mindengage-pathways/internal/identity"
)

// GET /api/students/{studentID}/performance
func PerformanceHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID, ok := int64Param(r, "studentID")
		if !ok {
			http.Error(w, "bad student id", http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		svc := analytics.Service{
			Directory:  d.Backend(ctx),
			Normalizer: d.Normalizer,
		}
		sum, err := svc.Performance(ctx, identity.Candidate{ID: studentID})
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, sum)
		case errors.Is(err, catalog.ErrNotFound):
			http.Error(w, "student not found", http.StatusNotFound)
		case errors.Is(err, catalog.ErrUnavailable):
			d.Log.WarnContext(ctx, "performance: backend unavailable", "student_id", studentID, "err", err)
			http.Error(w, "backend unavailable", http.StatusBadGateway)
		default:
			d.Log.ErrorContext(ctx, "performance failed", "student_id", studentID, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// ownsStudent reports whether the caller's token is linked to the student
// in the path by the memo, a user id or an email.
func ownsStudent(d Deps) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		studentID, ok := int64Param(r, "studentID")
		if !ok {
			return false
		}
		id, ok := d.caller(r.Context())
		return ok && id == studentID
	}
}
