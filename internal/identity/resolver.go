// Package identity maps the user id carried in a token to the id of the
// matching student record.
package identity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mind-engage/mindengage-pathways/internal/catalog"
)

// Candidate is what the caller knows about the learner, usually taken from
// token claims. ID may be a user id or already a student id.
type Candidate struct {
	ID    int64
	Email string
}

type Source string

const (
	SourceNone     Source = "none"
	SourceMemo     Source = "memo"
	SourceDirect   Source = "direct"
	SourceMatched  Source = "matched"
	SourceFallback Source = "fallback"
)

type Resolution struct {
	StudentID int64  `json:"studentId"`
	Source    Source `json:"source"`
}

type Resolver struct {
	dir  catalog.Directory
	memo Memo
	log  *slog.Logger
}

func NewResolver(dir catalog.Directory, memo Memo, log *slog.Logger) *Resolver {
	if memo == nil {
		memo = NewMemoryMemo()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{dir: dir, memo: memo, log: log}
}

// Resolve never fails. When nothing maps the candidate it is returned as is.
func (r *Resolver) Resolve(ctx context.Context, c Candidate) Resolution {
	if c.ID == 0 {
		if id, ok := r.lookup(ctx, c); ok {
			return Resolution{StudentID: id, Source: SourceMatched}
		}
		return Resolution{Source: SourceNone}
	}

	if id, ok := r.recall(ctx, c.ID); ok {
		return Resolution{StudentID: id, Source: SourceMemo}
	}

	// A bare student id is served but not memoized: the memo only holds
	// mappings that tie a user to a student.
	_, err := r.dir.Student(ctx, c.ID)
	if err == nil {
		return Resolution{StudentID: c.ID, Source: SourceDirect}
	}
	r.log.DebugContext(ctx, "identity: candidate is not a student id", "candidate", c.ID, "err", err)

	if id, ok := r.lookup(ctx, c); ok {
		return Resolution{StudentID: id, Source: SourceMatched}
	}
	return Resolution{StudentID: c.ID, Source: SourceFallback}
}

// Owner reports the student the candidate is, using only evidence linking
// the two: a memoized mapping, a user id or an email. An id that merely
// names some student proves nothing, so there is no direct or fallback path.
func (r *Resolver) Owner(ctx context.Context, c Candidate) (int64, bool) {
	if c.ID == 0 && c.Email == "" {
		return 0, false
	}
	if c.ID != 0 {
		if id, ok := r.recall(ctx, c.ID); ok {
			return id, true
		}
	}
	return r.lookup(ctx, c)
}

func (r *Resolver) recall(ctx context.Context, candidate int64) (int64, bool) {
	id, ok, err := r.memo.Get(ctx, candidate)
	if err != nil {
		r.log.WarnContext(ctx, "identity: memo get failed", "candidate", candidate, "err", err)
		return 0, false
	}
	return id, ok
}

// lookup scans the student listing. Email-only candidates have no id to key
// the memo with, so they consult the listing every time.
func (r *Resolver) lookup(ctx context.Context, c Candidate) (int64, bool) {
	students, err := r.dir.Students(ctx)
	if err != nil {
		r.log.WarnContext(ctx, "identity: list students failed", "candidate", c.ID, "email", c.Email, "err", err)
		return 0, false
	}
	for _, s := range students {
		if matches(s, c) {
			if c.ID != 0 {
				r.remember(ctx, c.ID, s.ID)
			}
			return s.ID, true
		}
	}
	return 0, false
}

func (r *Resolver) remember(ctx context.Context, candidate, studentID int64) {
	if err := r.memo.Set(ctx, candidate, studentID); err != nil {
		r.log.WarnContext(ctx, "identity: memo set failed", "candidate", candidate, "err", err)
	}
}

// matches links a student to the candidate's user id or email. The student's
// own id is never compared.
func matches(s catalog.Student, c Candidate) bool {
	switch {
	case c.ID != 0 && s.UserID == c.ID:
		return true
	case c.ID != 0 && s.User != nil && (s.User.ID == c.ID || s.User.UserID == c.ID):
		return true
	case c.Email != "" && s.Email != "" && strings.EqualFold(s.Email, c.Email):
		return true
	}
	return false
}
