// Package analytics aggregates a student's quiz attempts into a
// performance summary.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mind-engage/mindengage-pathways/internal/catalog"
	"github.com/mind-engage/mindengage-pathways/internal/identity"
	"github.com/mind-engage/mindengage-pathways/internal/scoring"
)

type Level string

const (
	LevelBeginner Level = "Beginner"
	LevelMedium   Level = "Medium"
	LevelAdvanced Level = "Advanced"
	LevelExpert   Level = "Expert"
)

type Status string

const (
	StatusPassed           Status = "Passed"
	StatusNeedsImprovement Status = "Needs Improvement"
)

// Topic averages at or above StrengthFloor are strengths, below
// WeaknessCeiling weaknesses.
const (
	StrengthFloor   = scoring.AverageCeiling
	WeaknessCeiling = scoring.PassThreshold
)

type TopicStat struct {
	Topic    string `json:"topic"`
	Attempts int    `json:"attempts"`
	Average  int    `json:"avg"`
}

type AttemptRow struct {
	ID          int64          `json:"id,omitempty"`
	Title       string         `json:"title"`
	Topic       string         `json:"topic"`
	Score       float64        `json:"score"`
	Percentage  int            `json:"percentage"`
	Bucket      scoring.Bucket `json:"bucket"`
	Label       string         `json:"label"`
	Color       string         `json:"color"`
	AttemptedAt *time.Time     `json:"attemptedAt,omitempty"`
}

type Summary struct {
	StudentID     int64        `json:"studentId"`
	TotalAttempts int          `json:"totalAttempts"`
	AverageScore  int          `json:"avgScore"`
	Accuracy      int          `json:"accuracy"`
	HighestScore  float64      `json:"highestScore"`
	Level         Level        `json:"level"`
	Status        Status       `json:"status"`
	Topics        []TopicStat  `json:"topics"`
	Strengths     []string     `json:"strengths"`
	Weaknesses    []string     `json:"weaknesses"`
	Attempts      []AttemptRow `json:"attempts"`
}

// LevelFor grades overall accuracy on the same boundaries as the display bands.
func LevelFor(accuracy int) Level {
	switch {
	case accuracy < scoring.PassThreshold:
		return LevelBeginner
	case accuracy <= scoring.AverageCeiling:
		return LevelMedium
	case accuracy < scoring.ExcellentFloor:
		return LevelAdvanced
	}
	return LevelExpert
}

func round(x float64) int { return int(math.Floor(x + 0.5)) }

func rawScore(a catalog.Attempt) float64 {
	if a.Score.Valid {
		return a.Score.Value
	}
	return 0
}

// Summarize is pure; attempts that cannot be scored count as 0%.
func Summarize(studentID int64, attempts []catalog.Attempt, n *scoring.Normalizer) Summary {
	if n == nil {
		n = scoring.Default
	}
	s := Summary{
		StudentID:     studentID,
		TotalAttempts: len(attempts),
		Topics:        []TopicStat{},
		Strengths:     []string{},
		Weaknesses:    []string{},
		Attempts:      make([]AttemptRow, 0, len(attempts)),
	}

	type agg struct{ sum, count int }
	byTopic := map[string]*agg{}
	var order []string
	var scoreSum float64
	pctSum := 0

	for i, a := range attempts {
		norm := n.Normalize(a.AttemptResult)
		raw := rawScore(a)
		scoreSum += raw
		pctSum += norm.Percentage
		if raw > s.HighestScore {
			s.HighestScore = raw
		}

		topic := a.TopicTitle()
		if byTopic[topic] == nil {
			byTopic[topic] = &agg{}
			order = append(order, topic)
		}
		byTopic[topic].sum += norm.Percentage
		byTopic[topic].count++

		row := AttemptRow{
			ID:         a.ID,
			Title:      attemptTitle(a, i),
			Topic:      topic,
			Score:      raw,
			Percentage: norm.Percentage,
			Bucket:     norm.Bucket,
			Label:      norm.Label,
			Color:      norm.Color,
		}
		if t, ok := a.When(); ok {
			row.AttemptedAt = &t
		}
		s.Attempts = append(s.Attempts, row)
	}

	if len(attempts) > 0 {
		s.AverageScore = round(scoreSum / float64(len(attempts)))
		s.Accuracy = round(float64(pctSum) / float64(len(attempts)))
	}
	s.Level = LevelFor(s.Accuracy)
	s.Status = StatusNeedsImprovement
	if s.Accuracy >= n.PassThreshold() {
		s.Status = StatusPassed
	}

	for _, topic := range order {
		a := byTopic[topic]
		st := TopicStat{Topic: topic, Attempts: a.count, Average: round(float64(a.sum) / float64(a.count))}
		s.Topics = append(s.Topics, st)
		switch {
		case st.Average >= StrengthFloor:
			s.Strengths = append(s.Strengths, topic)
		case st.Average < WeaknessCeiling:
			s.Weaknesses = append(s.Weaknesses, topic)
		}
	}
	return s
}

func attemptTitle(a catalog.Attempt, i int) string {
	switch {
	case a.Quiz != nil && a.Quiz.Title != "":
		return a.Quiz.Title
	case a.Name != "":
		return a.Name
	}
	return fmt.Sprintf("Quiz %d", i+1)
}

// Service resolves the student behind a candidate id and summarizes their
// stored attempts.
type Service struct {
	Directory  catalog.Directory
	Identity   *identity.Resolver
	Normalizer *scoring.Normalizer
}

func (s *Service) Performance(ctx context.Context, c identity.Candidate) (Summary, error) {
	studentID := c.ID
	if s.Identity != nil {
		studentID = s.Identity.Resolve(ctx, c).StudentID
	}
	attempts, err := s.Directory.Attempts(ctx, studentID)
	if err != nil {
		return Summary{}, fmt.Errorf("attempts of student %d: %w", studentID, err)
	}
	return Summarize(studentID, attempts, s.Normalizer), nil
}
