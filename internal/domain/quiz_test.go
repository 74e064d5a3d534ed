package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quizFixture(t *testing.T, correct ...int) []QuizQuestion {
	t.Helper()
	itemID := uuid.New()
	questions := make([]QuizQuestion, 0, len(correct))
	for i, c := range correct {
		q, err := NewQuizQuestion(itemID, i, "question", []string{"a", "b", "c", "d"}, c)
		require.NoError(t, err)
		questions = append(questions, *q)
	}
	return questions
}

func TestScoreQuiz(t *testing.T) {
	t.Parallel()
	questions := quizFixture(t, 0, 1, 2, 3)

	tests := []struct {
		name    string
		answers []int
		want    QuizResult
	}{
		{"three of four", []int{0, 1, 9, 3}, QuizResult{Correct: 3, Total: 4, Score: 75}},
		{"all correct", []int{0, 1, 2, 3}, QuizResult{Correct: 4, Total: 4, Score: 100}},
		{"none correct", []int{3, 3, 3, 0}, QuizResult{Correct: 0, Total: 4, Score: 0}},
		{"short answers count as wrong", []int{0, 1}, QuizResult{Correct: 2, Total: 4, Score: 50}},
		{"extra answers ignored", []int{0, 1, 2, 3, 0, 0}, QuizResult{Correct: 4, Total: 4, Score: 100}},
		{"negative answers are wrong", []int{0, -1, -2, 3}, QuizResult{Correct: 2, Total: 4, Score: 50}},
		{"nil answers", nil, QuizResult{Correct: 0, Total: 4, Score: 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreQuiz(questions, tc.answers))
		})
	}
}

func TestScoreQuizRounding(t *testing.T) {
	t.Parallel()

	// 1/3 = 33.33 and 2/3 = 66.67
	questions := quizFixture(t, 0, 0, 0)
	assert.Equal(t, 33, ScoreQuiz(questions, []int{0, 1, 1}).Score)
	assert.Equal(t, 67, ScoreQuiz(questions, []int{0, 0, 1}).Score)

	// 1/8 = 12.5 rounds half away from zero
	questions = quizFixture(t, 0, 0, 0, 0, 0, 0, 0, 0)
	assert.Equal(t, 13, ScoreQuiz(questions, []int{0, 1, 1, 1, 1, 1, 1, 1}).Score)
}

func TestScoreQuizEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, QuizResult{}, ScoreQuiz(nil, []int{1, 2}))
}

func TestQuizQuestionValidate(t *testing.T) {
	t.Parallel()
	itemID := uuid.New()

	_, err := NewQuizQuestion(itemID, 0, "q", []string{"only"}, 0)
	assert.ErrorIs(t, err, ErrQuizTooFewChoices)

	_, err = NewQuizQuestion(itemID, 0, "q", []string{"a", "b"}, 2)
	assert.ErrorIs(t, err, ErrQuizCorrectIndex)

	_, err = NewQuizQuestion(uuid.Nil, 0, "q", []string{"a", "b"}, 0)
	assert.ErrorIs(t, err, ErrQuizQuestionItemIDEmpty)

	_, err = NewQuizQuestion(itemID, 0, "", []string{"a", "b"}, 0)
	assert.ErrorIs(t, err, ErrQuizQuestionTextEmpty)
}
