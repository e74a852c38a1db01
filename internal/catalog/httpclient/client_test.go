package httpclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-pathways/internal/catalog"
	"github.com/mind-engage/mindengage-pathways/internal/catalog/httpclient"
)

func newClient(url string) *httpclient.Client {
	return httpclient.New(httpclient.Config{
		BaseURL:     url,
		Timeout:     2 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	})
}

func TestClient_ListsAndForwardsBearer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/topics/subject/10", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":101,"title":"Linear","subjectId":10,"sequenceNumber":2},{"id":102,"title":"Quadratics","subjectId":10}]`))
	})
	mux.HandleFunc("/api/subjects/course/1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]catalog.Subject{{ID: 10, Name: "Algebra", CourseID: 1}})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := newClient(ts.URL).WithToken("user-token")
	topics, err := c.TopicsBySubject(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 || topics[0].SequenceNumber == nil || *topics[0].SequenceNumber != 2 || topics[1].SequenceNumber != nil {
		t.Fatalf("unexpected topics %+v", topics)
	}
	subs, err := c.SubjectsByCourse(context.Background(), 1)
	if err != nil || len(subs) != 1 || subs[0].Name != "Algebra" {
		t.Fatalf("subjects: %+v, %v", subs, err)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"title":"Maths"}]`))
	}))
	defer ts.Close()

	courses, err := newClient(ts.URL).Courses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 1 || hits.Load() != 3 {
		t.Fatalf("courses=%+v hits=%d", courses, hits.Load())
	}
}

func TestClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := newClient(ts.URL).Topics(context.Background())
	if !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestClient_PingAcceptsProtectedBackend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := newClient(ts.URL)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping against a 401 backend: %v", err)
	}
	if _, err := c.Courses(context.Background()); !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("Courses without a token should stay unavailable, got %v", err)
	}
}

func TestClient_PingFailsOnServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	if err := newClient(ts.URL).Ping(context.Background()); !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestClient_DecodeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>login</html>`))
	}))
	defer ts.Close()

	_, err := newClient(ts.URL).Subjects(context.Background())
	if !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := newClient(ts.URL).Student(context.Background(), 7)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("404 reported as unavailable: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("hits = %d, want 1", hits.Load())
	}
}

func TestClient_ClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("token: ParseForm: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("token: unexpected grant_type=%q", r.PostForm.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"svc-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/api/students/5/attempts", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer svc-token" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`[{"id":1,"score":8,"totalQuestions":10,"attemptedAt":"2025-03-01T10:00:00","quiz":{"title":"Q1","topic":{"id":3,"title":"Fractions"}}}]`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := httpclient.New(httpclient.Config{
		BaseURL:      ts.URL,
		TokenURL:     ts.URL + "/oauth/token",
		ClientID:     "pathways",
		ClientSecret: "secret",
		Timeout:      2 * time.Second,
	})
	attempts, err := c.Attempts(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempts = %+v", attempts)
	}
	a := attempts[0]
	if a.TopicTitle() != "Fractions" || a.Score.Value != 8 || a.TotalQuestions.Value != 10 {
		t.Fatalf("unexpected attempt %+v", a)
	}
	if _, ok := a.When(); !ok {
		t.Fatalf("attemptedAt not parsed: %q", a.AttemptedAt)
	}
}

func TestClient_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newClient(ts.URL).Courses(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
