package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-pathways/internal/events"
	"github.com/mind-engage/mindengage-pathways/internal/progression"
)

func int64Param(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// GET /api/progression/next/{topicID}
//
// Resolution problems come back as an ERROR target with status 200.
func NextTargetHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topicID, ok := int64Param(r, "topicID")
		if !ok {
			http.Error(w, "bad topic id", http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		target := progression.New(d.Backend(ctx), progression.WithLogger(d.Log)).FindNextTarget(ctx, topicID)

		studentID, _ := d.caller(ctx)
		if ev, err := events.TargetResolved(events.TargetResolvedPayload{
			StudentID: studentID, FromTopic: topicID, Target: target,
		}); err == nil {
			d.emit(ctx, ev)
		}
		writeJSON(w, http.StatusOK, target)
	}
}
