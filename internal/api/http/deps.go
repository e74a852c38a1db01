package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	auth "github.com/mind-engage/mindengage-pathways/internal/auth/middleware"
	"github.com/mind-engage/mindengage-pathways/internal/catalog"
	"github.com/mind-engage/mindengage-pathways/internal/events"
	"github.com/mind-engage/mindengage-pathways/internal/identity"
	"github.com/mind-engage/mindengage-pathways/internal/scoring"
)

// Backend is the LMS backend as seen by one request.
type Backend interface {
	catalog.Catalog
	catalog.Directory
}

// BackendFunc picks the backend view for a request context, usually a client
// that forwards the caller's bearer token.
type BackendFunc func(ctx context.Context) Backend

// Static serves every request from the same backend.
func Static(b Backend) BackendFunc { return func(context.Context) Backend { return b } }

type Deps struct {
	Auth        *auth.AuthService
	RequireAuth bool

	Normalizer *scoring.Normalizer
	Backend    BackendFunc
	Memo       identity.Memo
	Events     events.Sink
	Log        *slog.Logger

	// Ready reports whether dependencies answer; nil means always ready.
	Ready func(ctx context.Context) error
}

func (d Deps) withDefaults() Deps {
	if d.Normalizer == nil {
		d.Normalizer = scoring.Default
	}
	if d.Memo == nil {
		d.Memo = identity.NewMemoryMemo()
	}
	if d.Events == nil {
		d.Events = events.Discard{}
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return d
}

func (d Deps) identity(ctx context.Context) *identity.Resolver {
	return identity.NewResolver(d.Backend(ctx), d.Memo, d.Log)
}

// caller is the student the token proves to be, if any.
func (d Deps) caller(ctx context.Context) (int64, bool) {
	c := auth.ClaimsFromContext(ctx)
	if c == nil {
		return 0, false
	}
	return d.identity(ctx).Owner(ctx, c.Candidate())
}

// emit records events without failing the request.
func (d Deps) emit(ctx context.Context, evs ...events.Event) {
	if len(evs) == 0 {
		return
	}
	if err := d.Events.Append(ctx, evs...); err != nil {
		d.Log.WarnContext(ctx, "events: append failed", "count", len(evs), "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
