package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-pathways/internal/scoring"
)

// POST /api/scoring/normalize  body: raw attempt result
func NormalizeHandler(n *scoring.Normalizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in scoring.AttemptResult
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, n.Normalize(in))
	}
}

type schemeView struct {
	Scheme        scoring.Scheme `json:"scheme"`
	Ladder        scoring.Ladder `json:"ladder"`
	PassThreshold int            `json:"passThreshold"`
}

// GET /api/scoring/scheme
func SchemeHandler(n *scoring.Normalizer) http.HandlerFunc {
	view := schemeView{Scheme: n.Scheme(), Ladder: n.Ladder(), PassThreshold: n.PassThreshold()}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, view)
	}
}
