package scoring

// QuestionResult is one graded question inside an attempt result.
type QuestionResult struct {
	QuestionText   string `json:"questionText,omitempty"`
	SelectedAnswer string `json:"selectedAnswer,omitempty"`
	CorrectAnswer  string `json:"correctAnswer,omitempty"`
	IsCorrect      bool   `json:"isCorrect"`
	Explanation    string `json:"explanation,omitempty"`
}

// AttemptResult is a raw quiz submission result as returned by the backend.
// Several field names coexist for the same quantity; the first present one
// wins, in declaration order.
type AttemptResult struct {
	// totals
	TotalQuestions  Number           `json:"totalQuestions"`
	Total           Number           `json:"total"`
	QuestionResults []QuestionResult `json:"questionResults,omitempty"`

	// correct count
	CorrectAnswers      Number `json:"correctAnswers"`
	CorrectAnswersSnake Number `json:"correct_answers"`
	Correct             Number `json:"correct"`

	// Score is a correct count when a total is known, otherwise an
	// already-normalized fraction or percentage.
	Score      Number `json:"score"`
	Percentage Number `json:"percentage"`
	Accuracy   Number `json:"accuracy"`

	TopicID int64 `json:"topicId,omitempty"`
	QuizID  int64 `json:"quizId,omitempty"`
}

func firstPresent(ns ...Number) (Number, bool) {
	for _, n := range ns {
		if n.Present {
			return n, true
		}
	}
	return Number{}, false
}

func (r AttemptResult) totalField() (Number, bool) {
	if n, ok := firstPresent(r.TotalQuestions, r.Total); ok {
		return n, true
	}
	if r.QuestionResults != nil {
		return Of(float64(len(r.QuestionResults))), true
	}
	return Number{}, false
}

func (r AttemptResult) correctField() (Number, bool) {
	return firstPresent(r.CorrectAnswers, r.CorrectAnswersSnake, r.Correct, r.Score)
}

func (r AttemptResult) standaloneField() (Number, bool) {
	return firstPresent(r.Score, r.Percentage, r.Accuracy)
}
