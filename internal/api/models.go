package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/service/study"
)

// ReviewRequest is the payload of POST /api/study/review.
type ReviewRequest struct {
	CardID string `json:"card_id" validate:"required,uuid"`
	Rating string `json:"rating"  validate:"required,rating"`
}

// QuizSubmissionRequest is the payload of POST /api/study/quiz/{itemID}.
type QuizSubmissionRequest struct {
	// Answers holds the chosen choice index per question, in question order.
	Answers []int `json:"answers" validate:"required"`
}

// FlashcardResponse is a card with its scheduling state.
type FlashcardResponse struct {
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"item_id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	EaseFactor  float64   `json:"ease_factor"`
	Interval    int       `json:"interval"`
	ReviewCount int       `json:"review_count"`
	NextDueAt   time.Time `json:"next_due_at"`
	LastRating  *string   `json:"last_rating,omitempty"`
}

// DueQueueResponse is the body of GET /api/study/queue.
type DueQueueResponse struct {
	Cards []FlashcardResponse `json:"cards"`
	AsOf  time.Time           `json:"as_of"`
}

// QuizQuestionResponse is one question as shown to the learner. The correct
// choice is never included.
type QuizQuestionResponse struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
	Question string    `json:"question"`
	Choices  []string  `json:"choices"`
}

// QuizResponse is the body of GET /api/study/quiz/{itemID}.
type QuizResponse struct {
	ItemID    uuid.UUID              `json:"item_id"`
	Title     string                 `json:"title"`
	Questions []QuizQuestionResponse `json:"questions"`
}

// QuizResultResponse is the body of POST /api/study/quiz/{itemID}.
type QuizResultResponse struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Score   int `json:"score"`
}

// TrendPointResponse is one entry of the quiz score trend.
type TrendPointResponse struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

// ProgressResponse is the body of GET /api/study/progress.
type ProgressResponse struct {
	TotalItems    int                  `json:"total_items"`
	DueFlashcards int                  `json:"due_flashcards"`
	QuizTrend     []TrendPointResponse `json:"quiz_trend"`
}

func flashcardToResponse(card *domain.Flashcard) FlashcardResponse {
	resp := FlashcardResponse{
		ID:          card.ID,
		ItemID:      card.ItemID,
		Question:    card.Question,
		Answer:      card.Answer,
		EaseFactor:  card.EaseFactor,
		Interval:    card.Interval,
		ReviewCount: card.ReviewCount,
		NextDueAt:   card.NextDueAt,
	}
	if card.LastRating != nil {
		r := card.LastRating.String()
		resp.LastRating = &r
	}
	return resp
}

func dueQueueToResponse(q *study.DueQueue) DueQueueResponse {
	cards := make([]FlashcardResponse, 0, len(q.Cards))
	for _, c := range q.Cards {
		cards = append(cards, flashcardToResponse(c))
	}
	return DueQueueResponse{Cards: cards, AsOf: q.AsOf}
}

func quizToResponse(q *study.Quiz) QuizResponse {
	questions := make([]QuizQuestionResponse, 0, len(q.Questions))
	for _, qq := range q.Questions {
		questions = append(questions, QuizQuestionResponse{
			ID:       qq.ID,
			Position: qq.Position,
			Question: qq.Question,
			Choices:  qq.Choices,
		})
	}
	return QuizResponse{ItemID: q.ItemID, Title: q.Title, Questions: questions}
}

func progressToResponse(p *study.Progress) ProgressResponse {
	trend := make([]TrendPointResponse, 0, len(p.QuizTrend))
	for _, tp := range p.QuizTrend {
		trend = append(trend, TrendPointResponse{Date: tp.Date, Score: tp.Score})
	}
	return ProgressResponse{
		TotalItems:    p.TotalItems,
		DueFlashcards: p.DueFlashcards,
		QuizTrend:     trend,
	}
}
