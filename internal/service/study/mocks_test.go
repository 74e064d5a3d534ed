package study_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockFlashcardStore is a testify mock of store.FlashcardStore.
type MockFlashcardStore struct {
	mock.Mock
}

func (m *MockFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	return m.Called(ctx, cards).Error(0)
}

func (m *MockFlashcardStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Flashcard, error) {
	args := m.Called(ctx, ownerID, id)
	card, _ := args.Get(0).(*domain.Flashcard)
	return card, args.Error(1)
}

func (m *MockFlashcardStore) GetForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*domain.Flashcard, error) {
	args := m.Called(ctx, ownerID, id)
	card, _ := args.Get(0).(*domain.Flashcard)
	return card, args.Error(1)
}

func (m *MockFlashcardStore) UpdateSchedule(ctx context.Context, card *domain.Flashcard, expectedVersion int) error {
	return m.Called(ctx, card, expectedVersion).Error(0)
}

func (m *MockFlashcardStore) QueryDue(
	ctx context.Context,
	ownerID uuid.UUID,
	asOf time.Time,
	limit int,
) ([]*domain.Flashcard, error) {
	args := m.Called(ctx, ownerID, asOf, limit)
	cards, _ := args.Get(0).([]*domain.Flashcard)
	return cards, args.Error(1)
}

func (m *MockFlashcardStore) CountDue(ctx context.Context, ownerID uuid.UUID, asOf time.Time) (int, error) {
	args := m.Called(ctx, ownerID, asOf)
	return args.Int(0), args.Error(1)
}

func (m *MockFlashcardStore) WithTx(*sql.Tx) store.FlashcardStore { return m }

// MockSessionLogStore is a testify mock of store.SessionLogStore.
type MockSessionLogStore struct {
	mock.Mock
}

func (m *MockSessionLogStore) Append(ctx context.Context, entry *domain.SessionLogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockSessionLogStore) ListRecent(
	ctx context.Context,
	ownerID uuid.UUID,
	kind domain.SessionKind,
	limit int,
) ([]*domain.SessionLogEntry, error) {
	args := m.Called(ctx, ownerID, kind, limit)
	entries, _ := args.Get(0).([]*domain.SessionLogEntry)
	return entries, args.Error(1)
}

func (m *MockSessionLogStore) WithTx(*sql.Tx) store.SessionLogStore { return m }

// MockItemStore is a testify mock of store.ItemStore.
type MockItemStore struct {
	mock.Mock
}

func (m *MockItemStore) Create(ctx context.Context, item *domain.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Item, error) {
	args := m.Called(ctx, ownerID, id)
	item, _ := args.Get(0).(*domain.Item)
	return item, args.Error(1)
}

func (m *MockItemStore) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *MockItemStore) WithTx(*sql.Tx) store.ItemStore { return m }

// MockQuizQuestionStore is a testify mock of store.QuizQuestionStore.
type MockQuizQuestionStore struct {
	mock.Mock
}

func (m *MockQuizQuestionStore) CreateMultiple(ctx context.Context, questions []*domain.QuizQuestion) error {
	return m.Called(ctx, questions).Error(0)
}

func (m *MockQuizQuestionStore) ListByItem(ctx context.Context, itemID uuid.UUID) ([]domain.QuizQuestion, error) {
	args := m.Called(ctx, itemID)
	questions, _ := args.Get(0).([]domain.QuizQuestion)
	return questions, args.Error(1)
}

func (m *MockQuizQuestionStore) WithTx(*sql.Tx) store.QuizQuestionStore { return m }

// fakeTxRunner runs the function without a real transaction and counts calls.
type fakeTxRunner struct {
	calls int
}

func (r *fakeTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	r.calls++
	return fn(ctx, nil)
}

var (
	_ store.FlashcardStore    = (*MockFlashcardStore)(nil)
	_ store.SessionLogStore   = (*MockSessionLogStore)(nil)
	_ store.ItemStore         = (*MockItemStore)(nil)
	_ store.QuizQuestionStore = (*MockQuizQuestionStore)(nil)
	_ store.TxRunner          = (*fakeTxRunner)(nil)
)
