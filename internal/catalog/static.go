package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Static is an in-memory Catalog and Directory, loaded from a fixture file
// for offline runs.
type Static struct {
	CourseList   []Course            `yaml:"courses"`
	SubjectList  []Subject           `yaml:"subjects"`
	TopicList    []Topic             `yaml:"topics"`
	StudentList  []Student           `yaml:"students"`
	AttemptsByID map[int64][]Attempt `yaml:"-"`
}

var (
	_ Catalog   = (*Static)(nil)
	_ Directory = (*Static)(nil)
)

// LoadStatic reads a YAML fixture with courses, subjects, topics and students.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog fixture: %w", err)
	}
	var s Static
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse catalog fixture %s: %w", path, err)
	}
	return &s, nil
}

func (s *Static) Topics(ctx context.Context) ([]Topic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Topic(nil), s.TopicList...), nil
}

func (s *Static) TopicsBySubject(ctx context.Context, subjectID int64) ([]Topic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Topic
	for _, t := range s.TopicList {
		if t.SubjectID == subjectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Static) Subjects(ctx context.Context) ([]Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Subject(nil), s.SubjectList...), nil
}

func (s *Static) SubjectsByCourse(ctx context.Context, courseID int64) ([]Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Subject
	for _, sub := range s.SubjectList {
		if sub.CourseID == courseID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *Static) Courses(ctx context.Context) ([]Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Course(nil), s.CourseList...), nil
}

func (s *Static) Student(ctx context.Context, id int64) (Student, error) {
	if err := ctx.Err(); err != nil {
		return Student{}, err
	}
	for _, st := range s.StudentList {
		if st.ID == id {
			return st, nil
		}
	}
	return Student{}, fmt.Errorf("student %d: %w", id, ErrNotFound)
}

func (s *Static) Students(ctx context.Context) ([]Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Student(nil), s.StudentList...), nil
}

func (s *Static) Attempts(ctx context.Context, studentID int64) ([]Attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Attempt(nil), s.AttemptsByID[studentID]...), nil
}
