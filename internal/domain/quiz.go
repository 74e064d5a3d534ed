package domain

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

// Quiz question validation errors
var (
	ErrQuizQuestionIDEmpty     = errors.New("quiz question ID cannot be empty")
	ErrQuizQuestionItemIDEmpty = errors.New("quiz question item ID cannot be empty")
	ErrQuizQuestionTextEmpty   = errors.New("quiz question text cannot be empty")
	ErrQuizTooFewChoices       = errors.New("quiz question needs at least two choices")
	ErrQuizCorrectIndex        = errors.New("quiz correct index is out of range")
)

// QuizQuestion is one multiple choice question attached to an item.
type QuizQuestion struct {
	ID           uuid.UUID `json:"id"`
	ItemID       uuid.UUID `json:"item_id"`
	Position     int       `json:"position"`
	Question     string    `json:"question"`
	Choices      []string  `json:"choices"`
	CorrectIndex int       `json:"-"`
}

// NewQuizQuestion creates a validated QuizQuestion.
func NewQuizQuestion(
	itemID uuid.UUID,
	position int,
	question string,
	choices []string,
	correctIndex int,
) (*QuizQuestion, error) {
	q := &QuizQuestion{
		ID:           uuid.New(),
		ItemID:       itemID,
		Position:     position,
		Question:     question,
		Choices:      choices,
		CorrectIndex: correctIndex,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks if the QuizQuestion has valid data.
func (q *QuizQuestion) Validate() error {
	if q.ID == uuid.Nil {
		return ErrQuizQuestionIDEmpty
	}
	if q.ItemID == uuid.Nil {
		return ErrQuizQuestionItemIDEmpty
	}
	if q.Question == "" {
		return ErrQuizQuestionTextEmpty
	}
	if len(q.Choices) < 2 {
		return ErrQuizTooFewChoices
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
		return ErrQuizCorrectIndex
	}
	return nil
}

// QuizResult is the outcome of scoring one quiz submission.
type QuizResult struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Score   int `json:"score"`
}

// ScoreQuiz compares answers positionally with questions. Answers beyond the
// number of questions are ignored; missing answers count as incorrect.
// Score is round(correct/total*100), or 0 when there are no questions.
func ScoreQuiz(questions []QuizQuestion, answers []int) QuizResult {
	result := QuizResult{Total: len(questions)}
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectIndex {
			result.Correct++
		}
	}
	if result.Total > 0 {
		result.Score = int(math.Round(float64(result.Correct) / float64(result.Total) * 100))
	}
	return result
}
