package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-pathways/internal/analytics"
	api "github.com/mind-engage/mindengage-pathways/internal/api/http"
	auth "github.com/mind-engage/mindengage-pathways/internal/auth/middleware"
	"github.com/mind-engage/mindengage-pathways/internal/catalog"
	"github.com/mind-engage/mindengage-pathways/internal/events"
	"github.com/mind-engage/mindengage-pathways/internal/progression"
	"github.com/mind-engage/mindengage-pathways/internal/scoring"
)

const secret = "test-secret"

/* ---------------- fixtures ---------------- */

type recorder struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recorder) Append(_ context.Context, evs ...events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, evs...)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.evs))
	for _, e := range r.evs {
		out = append(out, e.Type)
	}
	return out
}

// flaky fails attempt listings the way the HTTP client does when the
// backend is down.
type flaky struct{ *catalog.Static }

func (flaky) Attempts(context.Context, int64) ([]catalog.Attempt, error) {
	return nil, fmt.Errorf("GET /api/students/5/attempts: status 503: %w", catalog.ErrUnavailable)
}

func backend() *catalog.Static {
	a := catalog.Attempt{ID: 1, Quiz: &catalog.QuizRef{Title: "Quiz 1", Topic: &catalog.Topic{Title: "Fractions"}}}
	a.Score = scoring.Of(8)
	a.TotalQuestions = scoring.Of(10)
	c := catalog.Attempt{ID: 2}
	c.Score = scoring.Of(3)
	c.TotalQuestions = scoring.Of(10)

	return &catalog.Static{
		CourseList:  []catalog.Course{{ID: 1, Title: "Maths"}},
		SubjectList: []catalog.Subject{{ID: 10, Name: "Arithmetic", CourseID: 1}},
		TopicList: []catalog.Topic{
			{ID: 100, Title: "Fractions", SubjectID: 10},
			{ID: 101, Title: "Decimals", SubjectID: 10},
		},
		StudentList: []catalog.Student{
			{ID: 5, UserID: 42, Name: "Ana", Email: "ana@example.com"},
			{ID: 6, UserID: 43, Name: "Ben"},
			{ID: 42, UserID: 99, Name: "Carl"},
		},
		AttemptsByID: map[int64][]catalog.Attempt{5: {a}, 42: {c}},
	}
}

func server(t *testing.T, b api.Backend, requireAuth bool) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	r := chi.NewRouter()
	api.Mount(r, api.Deps{
		Auth:        auth.NewAuthService(secret),
		RequireAuth: requireAuth,
		Backend:     api.Static(b),
		Events:      rec,
		Ready: func(context.Context) error {
			if _, ok := b.(flaky); ok {
				return errors.New("backend down")
			}
			return nil
		},
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, rec
}

func token(t *testing.T, c auth.Claims) string {
	t.Helper()
	tok, err := auth.NewAuthService(secret).IssueJWT(c, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func call(t *testing.T, srv *httptest.Server, method, path, tok, body string, out any) int {
	t.Helper()
	req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if out != nil && res.StatusCode == http.StatusOK {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return res.StatusCode
}

/* ---------------- tests ---------------- */

func TestNormalize_AnonymousOffline(t *testing.T) {
	srv, _ := server(t, backend(), false)

	var got scoring.Normalized
	code := call(t, srv, http.MethodPost, "/api/scoring/normalize", "", `{"correctAnswers":8,"totalQuestions":10}`, &got)
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if got.Percentage != 80 || got.Bucket != scoring.BucketGood || got.NextDifficulty != scoring.DifficultyHard || !got.Passed {
		t.Fatalf("got %+v", got)
	}
}

func TestNormalize_BadJSON(t *testing.T) {
	srv, _ := server(t, backend(), false)
	if code := call(t, srv, http.MethodPost, "/api/scoring/normalize", "", `{`, nil); code != http.StatusBadRequest {
		t.Fatalf("code = %d", code)
	}
}

func TestNormalize_MalformedIsDefaulted(t *testing.T) {
	srv, _ := server(t, backend(), false)
	var got scoring.Normalized
	call(t, srv, http.MethodPost, "/api/scoring/normalize", "", `{"score":"abc"}`, &got)
	if got.Percentage != 0 || !got.Defaulted || got.Reason == "" {
		t.Fatalf("got %+v", got)
	}
}

func TestRequireAuth(t *testing.T) {
	srv, _ := server(t, backend(), true)
	if code := call(t, srv, http.MethodGet, "/api/scoring/scheme", "", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous code = %d", code)
	}
	tok := token(t, auth.Claims{Sub: "42", Role: "STUDENT"})
	var view struct {
		Scheme        scoring.Scheme `json:"scheme"`
		PassThreshold int            `json:"passThreshold"`
	}
	if code := call(t, srv, http.MethodGet, "/api/scoring/scheme", tok, "", &view); code != http.StatusOK {
		t.Fatalf("student code = %d", code)
	}
	if view.Scheme.Name != scoring.SchemeFourBand || len(view.Scheme.Bands) != 4 || view.PassThreshold != scoring.PassThreshold {
		t.Fatalf("view = %+v", view)
	}
	if code := call(t, srv, http.MethodGet, "/healthz", "", "", nil); code != http.StatusOK {
		t.Fatalf("healthz = %d", code)
	}
}

func TestEvaluate_PassedResolvesNextTopic(t *testing.T) {
	srv, rec := server(t, backend(), true)
	tok := token(t, auth.Claims{Sub: "ana", Role: "ROLE_STUDENT", UserID: 42})

	var got api.Evaluation
	code := call(t, srv, http.MethodPost, "/api/attempts/evaluate", tok,
		`{"score":8,"totalQuestions":10,"topicId":100,"quizId":7}`, &got)
	if code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if got.Result.Percentage != 80 || got.Next == nil {
		t.Fatalf("got %+v", got)
	}
	if got.Next.Type != progression.KindTopic || got.Next.ID != 101 || got.Next.SubjectID != 10 {
		t.Fatalf("next = %+v", got.Next)
	}

	types := rec.types()
	if len(types) != 2 || types[0] != events.TypeAttemptScored || types[1] != events.TypeTargetResolved {
		t.Fatalf("events = %v", types)
	}
	var p events.AttemptScoredPayload
	if err := json.Unmarshal(rec.evs[0].Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.StudentID != 5 || p.QuizID != 7 || p.TopicID != 100 {
		t.Fatalf("payload = %+v", p)
	}
}

func TestEvaluate_FailedSkipsResolver(t *testing.T) {
	srv, rec := server(t, backend(), false)

	var got api.Evaluation
	call(t, srv, http.MethodPost, "/api/attempts/evaluate", "", `{"score":0.42,"topicId":100}`, &got)
	if got.Result.Percentage != 42 || got.Result.Bucket != scoring.BucketPoor || got.Result.Passed {
		t.Fatalf("result = %+v", got.Result)
	}
	if got.Next != nil {
		t.Fatalf("next = %+v", got.Next)
	}
	if types := rec.types(); len(types) != 1 || types[0] != events.TypeAttemptScored {
		t.Fatalf("events = %v", types)
	}
}

func TestNextTarget(t *testing.T) {
	srv, rec := server(t, backend(), false)

	var got progression.Target
	if code := call(t, srv, http.MethodGet, "/api/progression/next/101", "", "", &got); code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if got.Type != progression.KindCompleted {
		t.Fatalf("got %+v", got)
	}

	got = progression.Target{}
	if code := call(t, srv, http.MethodGet, "/api/progression/next/999", "", "", &got); code != http.StatusOK {
		t.Fatalf("unknown topic code = %d", code)
	}
	if got.Type != progression.KindError || got.Message != progression.MsgTopicNotFound {
		t.Fatalf("got %+v", got)
	}

	if code := call(t, srv, http.MethodGet, "/api/progression/next/abc", "", "", nil); code != http.StatusBadRequest {
		t.Fatalf("bad id code = %d", code)
	}
	if n := len(rec.types()); n != 2 {
		t.Fatalf("events = %d", n)
	}
}

func TestPerformance_Access(t *testing.T) {
	srv, _ := server(t, backend(), true)
	ana := token(t, auth.Claims{Sub: "ana", Role: "STUDENT", UserID: 42})
	teacher := token(t, auth.Claims{Sub: "9", Role: "INSTRUCTOR"})

	var sum analytics.Summary
	if code := call(t, srv, http.MethodGet, "/api/students/5/performance", ana, "", &sum); code != http.StatusOK {
		t.Fatalf("own code = %d", code)
	}
	if sum.StudentID != 5 || sum.TotalAttempts != 1 || sum.Accuracy != 80 || sum.Status != analytics.StatusPassed {
		t.Fatalf("summary = %+v", sum)
	}

	if code := call(t, srv, http.MethodGet, "/api/students/6/performance", ana, "", nil); code != http.StatusForbidden {
		t.Fatalf("other student code = %d", code)
	}
	if code := call(t, srv, http.MethodGet, "/api/students/6/performance", teacher, "", nil); code != http.StatusOK {
		t.Fatalf("instructor code = %d", code)
	}
}

func TestPerformance_OwnershipFollowsUserLink(t *testing.T) {
	srv, _ := server(t, backend(), true)
	// Ana is user 42, and student 42 is Carl
	ana := token(t, auth.Claims{Sub: "ana", Role: "STUDENT", UserID: 42})
	carl := token(t, auth.Claims{Sub: "carl", Role: "STUDENT", UserID: 99})
	bare := token(t, auth.Claims{Sub: "5", Role: "STUDENT"})

	if code := call(t, srv, http.MethodGet, "/api/students/42/performance", ana, "", nil); code != http.StatusForbidden {
		t.Fatalf("ana on student 42: code = %d", code)
	}
	var sum analytics.Summary
	if code := call(t, srv, http.MethodGet, "/api/students/5/performance", ana, "", &sum); code != http.StatusOK || sum.StudentID != 5 {
		t.Fatalf("ana on student 5: code = %d, summary = %+v", code, sum)
	}

	sum = analytics.Summary{}
	if code := call(t, srv, http.MethodGet, "/api/students/42/performance", carl, "", &sum); code != http.StatusOK {
		t.Fatalf("carl: code = %d", code)
	}
	if sum.StudentID != 42 || sum.Accuracy != 30 {
		t.Fatalf("carl summary = %+v", sum)
	}

	if code := call(t, srv, http.MethodGet, "/api/students/5/performance", bare, "", nil); code != http.StatusForbidden {
		t.Fatalf("unlinked user 5 on student 5: code = %d", code)
	}
}

func TestEvaluate_UnlinkedCallerIsNotAttributed(t *testing.T) {
	srv, rec := server(t, backend(), true)
	tok := token(t, auth.Claims{Sub: "6", Role: "STUDENT"})

	call(t, srv, http.MethodPost, "/api/attempts/evaluate", tok, `{"score":0.3,"quizId":7}`, nil)
	var p events.AttemptScoredPayload
	if len(rec.evs) != 1 {
		t.Fatalf("events = %v", rec.types())
	}
	if err := json.Unmarshal(rec.evs[0].Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.StudentID != 0 {
		t.Fatalf("attributed to student %d", p.StudentID)
	}
}

func TestPerformance_BackendDown(t *testing.T) {
	srv, _ := server(t, flaky{backend()}, false)
	admin := token(t, auth.Claims{Sub: "1", Role: "ADMIN"})

	if code := call(t, srv, http.MethodGet, "/api/students/5/performance", admin, "", nil); code != http.StatusBadGateway {
		t.Fatalf("code = %d", code)
	}
	if code := call(t, srv, http.MethodGet, "/readyz", "", "", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("readyz = %d", code)
	}
}

func TestGuestCannotReadPerformance(t *testing.T) {
	srv, _ := server(t, backend(), false)
	if code := call(t, srv, http.MethodGet, "/api/students/5/performance", "", "", nil); code != http.StatusForbidden {
		t.Fatalf("code = %d", code)
	}
}
