// Package httpclient reads the course catalog and student records from the
// LMS REST backend.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mind-engage/mindengage-pathways/internal/catalog"
)

type Config struct {
	BaseURL string
	Timeout time.Duration

	// Optional client-credentials grant for service-to-service calls.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	MaxAttempts int
	RetryDelay  time.Duration

	Logger *slog.Logger
}

// Client implements catalog.Catalog and catalog.Directory.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	breaker circuitbreaker.CircuitBreaker[*response]
	retrier retry.Retry[*response]
	log     *slog.Logger
}

var (
	_ catalog.Catalog   = (*Client)(nil)
	_ catalog.Directory = (*Client)(nil)
)

type response struct {
	status int
	body   []byte
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string { return e.status }

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var h *http.Client
	if cfg.TokenURL != "" && cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		h = cc.Client(context.Background())
	} else {
		h = &http.Client{}
	}
	h.Timeout = cfg.Timeout

	c := &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		http:    h,
		timeout: cfg.Timeout,
		log:     log,
	}
	c.breaker = circuitbreaker.New[*response](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("catalog backend circuit breaker state change",
				"base_url", c.base, "from", from.String(), "to", to.String())
		},
	})
	c.retrier = retry.New[*response](retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.RetryDelay,
		MaxDelay:      5 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryable,
	})
	return c
}

// WithToken returns a client that forwards the caller's bearer token. The
// copy shares the circuit breaker with its parent.
func (c *Client) WithToken(token string) *Client {
	if token == "" {
		return c
	}
	cp := *c
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	cp.http = oauth2.NewClient(context.Background(), ts)
	cp.http.Timeout = c.timeout
	return &cp
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}

func (c *Client) do(ctx context.Context, path string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	// 4xx other than 429 is an answer, not a backend failure
	if res.StatusCode/100 == 2 || (res.StatusCode/100 == 4 && res.StatusCode != http.StatusTooManyRequests) {
		return &response{status: res.StatusCode, body: body}, nil
	}
	return nil, &statusError{code: res.StatusCode, status: res.Status}
}

func (c *Client) fetch(ctx context.Context, path string) (*response, error) {
	return c.breaker.Execute(ctx, func(ctx context.Context) (*response, error) {
		return c.retrier.Do(ctx, func(ctx context.Context) (*response, error) {
			return c.do(ctx, path)
		})
	})
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	res, err := c.fetch(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", catalog.ErrUnavailable, path, err)
	}
	switch {
	case res.status == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, catalog.ErrNotFound)
	case res.status/100 != 2:
		return fmt.Errorf("%w: GET %s: status %d", catalog.ErrUnavailable, path, res.status)
	}
	if err := json.Unmarshal(res.body, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", catalog.ErrUnavailable, path, err)
	}
	return nil
}

// get decodes a JSON GET into a fresh T.
func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	if err := c.getJSON(ctx, path, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (c *Client) Topics(ctx context.Context) ([]catalog.Topic, error) {
	return get[[]catalog.Topic](ctx, c, "/api/topics")
}

func (c *Client) TopicsBySubject(ctx context.Context, subjectID int64) ([]catalog.Topic, error) {
	return get[[]catalog.Topic](ctx, c, fmt.Sprintf("/api/topics/subject/%d", subjectID))
}

func (c *Client) Subjects(ctx context.Context) ([]catalog.Subject, error) {
	return get[[]catalog.Subject](ctx, c, "/api/subjects")
}

func (c *Client) SubjectsByCourse(ctx context.Context, courseID int64) ([]catalog.Subject, error) {
	return get[[]catalog.Subject](ctx, c, fmt.Sprintf("/api/subjects/course/%d", courseID))
}

func (c *Client) Courses(ctx context.Context) ([]catalog.Course, error) {
	return get[[]catalog.Course](ctx, c, "/api/courses")
}

func (c *Client) Student(ctx context.Context, id int64) (catalog.Student, error) {
	return get[catalog.Student](ctx, c, fmt.Sprintf("/api/students/%d", id))
}

func (c *Client) Students(ctx context.Context) ([]catalog.Student, error) {
	return get[[]catalog.Student](ctx, c, "/api/students")
}

func (c *Client) Attempts(ctx context.Context, studentID int64) ([]catalog.Attempt, error) {
	return get[[]catalog.Attempt](ctx, c, fmt.Sprintf("/api/students/%d/attempts", studentID))
}

// Ping checks that the backend answers the course listing. Any answer short
// of a server error counts, so a backend that wants a token is still up.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.fetch(ctx, "/api/courses"); err != nil {
		return fmt.Errorf("%w: ping: %w", catalog.ErrUnavailable, err)
	}
	return nil
}
