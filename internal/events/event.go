// Package events records what the gateway decided, to the SQL event log and
// optionally to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-pathways/internal/progression"
	"github.com/mind-engage/mindengage-pathways/internal/scoring"
)

type Type string

const (
	TypeAttemptScored  Type = "AttemptScored"
	TypeTargetResolved Type = "TargetResolved"
)

type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      Type            `json:"type"`
	Key       string          `json:"key"`
	SiteID    string          `json:"siteId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

func New(typ Type, key string, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Event{
		ID:        uuid.New(),
		Type:      typ,
		Key:       key,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type AttemptScoredPayload struct {
	StudentID int64              `json:"studentId,omitempty"`
	TopicID   int64              `json:"topicId,omitempty"`
	QuizID    int64              `json:"quizId,omitempty"`
	Result    scoring.Normalized `json:"result"`
}

type TargetResolvedPayload struct {
	StudentID int64              `json:"studentId,omitempty"`
	FromTopic int64              `json:"fromTopicId"`
	Target    progression.Target `json:"target"`
}

func AttemptScored(p AttemptScoredPayload) (Event, error) {
	return New(TypeAttemptScored, strconv.FormatInt(p.TopicID, 10), p)
}

func TargetResolved(p TargetResolvedPayload) (Event, error) {
	return New(TypeTargetResolved, strconv.FormatInt(p.FromTopic, 10), p)
}

// Sink accepts events. Implementations must be safe for concurrent use.
type Sink interface {
	Append(ctx context.Context, evs ...Event) error
}

// Multi fans out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Append(ctx context.Context, evs ...Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Append(ctx, evs...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Append(context.Context, ...Event) error { return nil }
