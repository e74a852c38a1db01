// Package progression decides what a learner should study after completing
// a topic by walking the course, subject and topic hierarchy.
package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mind-engage/mindengage-pathways/internal/catalog"
)

var (
	ErrTopicNotFound   = errors.New("topic not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrCourseNotFound  = errors.New("course not found")
)

type Option func(*Resolver)

func WithLogger(l *slog.Logger) Option { return func(r *Resolver) { r.log = l } }

// Resolver holds no per-call state and is safe for concurrent use.
type Resolver struct {
	cat catalog.Catalog
	log *slog.Logger
}

func New(cat catalog.Catalog, opts ...Option) *Resolver {
	r := &Resolver{cat: cat, log: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// FindNextTarget never fails; problems are reported as an ERROR target.
func (r *Resolver) FindNextTarget(ctx context.Context, topicID int64) Target {
	t, err := r.Resolve(ctx, topicID)
	if err != nil {
		r.log.WarnContext(ctx, "progression: resolve failed", "topic_id", topicID, "err", err)
	}
	return t
}

// Resolve returns the next target and, on failure, the cause alongside the
// ERROR target FindNextTarget would report.
func (r *Resolver) Resolve(ctx context.Context, topicID int64) (Target, error) {
	t, err := r.resolve(ctx, topicID)
	if err != nil {
		return failed(messageFor(err)), err
	}
	return t, nil
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, ErrTopicNotFound):
		return MsgTopicNotFound
	case errors.Is(err, ErrSubjectNotFound):
		return MsgSubjectNotFound
	case errors.Is(err, ErrCourseNotFound):
		return MsgCourseNotFound
	}
	return MsgFailed
}

func (r *Resolver) resolve(ctx context.Context, topicID int64) (Target, error) {
	if err := ctx.Err(); err != nil {
		return Target{}, err
	}

	// 1) current topic
	topics, err := r.cat.Topics(ctx)
	if err != nil {
		return Target{}, fmt.Errorf("list topics: %w", err)
	}
	var current *catalog.Topic
	for i := range topics {
		if topics[i].ID == topicID {
			current = &topics[i]
			break
		}
	}
	if current == nil {
		return Target{}, fmt.Errorf("%w: %d", ErrTopicNotFound, topicID)
	}
	subjectID := current.SubjectID

	// 2) next topic in the subject
	siblings, err := r.cat.TopicsBySubject(ctx, subjectID)
	if err != nil {
		return Target{}, fmt.Errorf("list topics of subject %d: %w", subjectID, err)
	}
	if next, ok := after(sortTopics(siblings), topicID, func(t catalog.Topic) int64 { return t.ID }); ok {
		return Target{Type: KindTopic, ID: next.ID, Title: next.Title, SubjectID: subjectID}, nil
	}

	// 3) next subject in the course
	subjects, err := r.cat.Subjects(ctx)
	if err != nil {
		return Target{}, fmt.Errorf("list subjects: %w", err)
	}
	var subject *catalog.Subject
	for i := range subjects {
		if subjects[i].ID == subjectID {
			subject = &subjects[i]
			break
		}
	}
	if subject == nil {
		return Target{}, fmt.Errorf("%w: %d", ErrSubjectNotFound, subjectID)
	}
	courseID := subject.CourseID

	courseSubjects, err := r.cat.SubjectsByCourse(ctx, courseID)
	if err != nil {
		return Target{}, fmt.Errorf("list subjects of course %d: %w", courseID, err)
	}
	if next, ok := after(sortSubjects(courseSubjects), subjectID, func(s catalog.Subject) int64 { return s.ID }); ok {
		return Target{Type: KindSubject, ID: next.ID, Title: next.Name, CourseID: courseID}, nil
	}

	// 4) next course
	courses, err := r.cat.Courses(ctx)
	if err != nil {
		return Target{}, fmt.Errorf("list courses: %w", err)
	}
	sorted := sortCourses(courses)
	found := false
	for _, c := range sorted {
		if c.ID == courseID {
			found = true
			break
		}
	}
	if !found {
		return Target{}, fmt.Errorf("%w: %d", ErrCourseNotFound, courseID)
	}
	if next, ok := after(sorted, courseID, func(c catalog.Course) int64 { return c.ID }); ok {
		return Target{Type: KindCourse, ID: next.ID, Title: next.Title}, nil
	}

	return completed(), nil
}
