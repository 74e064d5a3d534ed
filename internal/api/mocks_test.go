package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/service/study"
	"github.com/stretchr/testify/mock"
)

// MockStudyService is a testify mock of study.Service.
type MockStudyService struct {
	mock.Mock
}

var _ study.Service = (*MockStudyService)(nil)

func (m *MockStudyService) GetDueQueue(ctx context.Context, ownerID uuid.UUID, limit int) (*study.DueQueue, error) {
	args := m.Called(ctx, ownerID, limit)
	q, _ := args.Get(0).(*study.DueQueue)
	return q, args.Error(1)
}

func (m *MockStudyService) SelectDue(
	ctx context.Context,
	ownerID uuid.UUID,
	asOf time.Time,
	limit int,
) ([]*domain.Flashcard, error) {
	args := m.Called(ctx, ownerID, asOf, limit)
	cards, _ := args.Get(0).([]*domain.Flashcard)
	return cards, args.Error(1)
}

func (m *MockStudyService) SubmitReview(
	ctx context.Context,
	ownerID, cardID uuid.UUID,
	rating domain.Rating,
) (*domain.Flashcard, error) {
	args := m.Called(ctx, ownerID, cardID, rating)
	card, _ := args.Get(0).(*domain.Flashcard)
	return card, args.Error(1)
}

func (m *MockStudyService) GetQuiz(ctx context.Context, ownerID, itemID uuid.UUID) (*study.Quiz, error) {
	args := m.Called(ctx, ownerID, itemID)
	q, _ := args.Get(0).(*study.Quiz)
	return q, args.Error(1)
}

func (m *MockStudyService) SubmitQuiz(
	ctx context.Context,
	ownerID, itemID uuid.UUID,
	answers []int,
) (*domain.QuizResult, error) {
	args := m.Called(ctx, ownerID, itemID, answers)
	r, _ := args.Get(0).(*domain.QuizResult)
	return r, args.Error(1)
}

func (m *MockStudyService) GetProgress(ctx context.Context, ownerID uuid.UUID) (*study.Progress, error) {
	args := m.Called(ctx, ownerID)
	p, _ := args.Get(0).(*study.Progress)
	return p, args.Error(1)
}
