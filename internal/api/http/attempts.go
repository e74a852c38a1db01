package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/mind-engage/mindengage-pathways/internal/events"
	"github.com/mind-engage/mindengage-pathways/internal/progression"
	"github.com/mind-engage/mindengage-pathways/internal/scoring"
)

// Evaluation is the answer to a submitted attempt. Next is only set when the
// attempt passed and named its topic.
type Evaluation struct {
	Result scoring.Normalized  `json:"result"`
	Next   *progression.Target `json:"next,omitempty"`
}

// POST /api/attempts/evaluate  body: raw attempt result with topicId
func EvaluateAttemptHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in scoring.AttemptResult
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		out := Evaluation{Result: d.Normalizer.Normalize(in)}

		var wg sync.WaitGroup
		if out.Result.Passed && in.TopicID > 0 {
			backend := d.Backend(ctx)
			wg.Add(1)
			go func() {
				defer wg.Done()
				t := progression.New(backend, progression.WithLogger(d.Log)).FindNextTarget(ctx, in.TopicID)
				out.Next = &t
			}()
		}

		studentID, _ := d.caller(ctx)
		wg.Wait()

		var evs []events.Event
		if ev, err := events.AttemptScored(events.AttemptScoredPayload{
			StudentID: studentID, TopicID: in.TopicID, QuizID: in.QuizID, Result: out.Result,
		}); err == nil {
			evs = append(evs, ev)
		}
		if out.Next != nil {
			if ev, err := events.TargetResolved(events.TargetResolvedPayload{
				StudentID: studentID, FromTopic: in.TopicID, Target: *out.Next,
			}); err == nil {
				evs = append(evs, ev)
			}
		}
		d.emit(ctx, evs...)

		writeJSON(w, http.StatusOK, out)
	}
}
