// Package catalog holds the course hierarchy and student records served by
// the LMS backend, and the interfaces used to read them.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-pathways/internal/scoring"
)

// ErrUnavailable wraps transport, status and decode failures.
var ErrUnavailable = errors.New("catalog unavailable")

// ErrNotFound is returned for single-entity lookups that came back 404.
var ErrNotFound = errors.New("not found")

type Course struct {
	ID             int64  `json:"id" yaml:"id"`
	Title          string `json:"title" yaml:"title"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	SequenceNumber *int   `json:"sequenceNumber,omitempty" yaml:"sequenceNumber,omitempty"`
}

type Subject struct {
	ID             int64  `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	CourseID       int64  `json:"courseId" yaml:"courseId"`
	SequenceNumber *int   `json:"sequenceNumber,omitempty" yaml:"sequenceNumber,omitempty"`
}

type Topic struct {
	ID             int64  `json:"id" yaml:"id"`
	Title          string `json:"title" yaml:"title"`
	SubjectID      int64  `json:"subjectId" yaml:"subjectId"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	ExternalLink   string `json:"externalLink,omitempty" yaml:"externalLink,omitempty"`
	SequenceNumber *int   `json:"sequenceNumber,omitempty" yaml:"sequenceNumber,omitempty"`
}

// Catalog lists the course hierarchy. Implementations must be safe for
// concurrent use.
type Catalog interface {
	Topics(ctx context.Context) ([]Topic, error)
	TopicsBySubject(ctx context.Context, subjectID int64) ([]Topic, error)
	Subjects(ctx context.Context) ([]Subject, error)
	SubjectsByCourse(ctx context.Context, courseID int64) ([]Subject, error)
	Courses(ctx context.Context) ([]Course, error)
}

// UserRef is the nested user some student payloads carry.
type UserRef struct {
	ID     int64  `json:"id,omitempty" yaml:"id,omitempty"`
	UserID int64  `json:"userId,omitempty" yaml:"userId,omitempty"`
	Email  string `json:"email,omitempty" yaml:"email,omitempty"`
}

type Student struct {
	ID     int64    `json:"id" yaml:"id"`
	UserID int64    `json:"userId,omitempty" yaml:"userId,omitempty"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Email  string   `json:"email,omitempty" yaml:"email,omitempty"`
	User   *UserRef `json:"user,omitempty" yaml:"user,omitempty"`
}

type QuizRef struct {
	ID    int64  `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Topic *Topic `json:"topic,omitempty"`
}

// Attempt is one stored quiz attempt of a student.
type Attempt struct {
	scoring.AttemptResult

	ID          int64    `json:"id"`
	Name        string   `json:"name,omitempty"`
	TopicName   string   `json:"topicName,omitempty"`
	Quiz        *QuizRef `json:"quiz,omitempty"`
	AttemptedAt string   `json:"attemptedAt,omitempty"`
	Date        string   `json:"date,omitempty"`
}

// backend timestamps may come without a zone
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// When returns the attempt timestamp, if one parses.
func (a Attempt) When() (time.Time, bool) {
	for _, v := range []string{a.AttemptedAt, a.Date} {
		if v == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// TopicTitle names the topic an attempt belongs to, "General" when unknown.
func (a Attempt) TopicTitle() string {
	switch {
	case a.Quiz != nil && a.Quiz.Topic != nil && a.Quiz.Topic.Title != "":
		return a.Quiz.Topic.Title
	case a.TopicName != "":
		return a.TopicName
	case a.Quiz != nil && a.Quiz.Title != "":
		return a.Quiz.Title
	}
	return "General"
}

// Directory reads student records.
type Directory interface {
	Student(ctx context.Context, id int64) (Student, error)
	Students(ctx context.Context) ([]Student, error)
	Attempts(ctx context.Context, studentID int64) ([]Attempt, error)
}
