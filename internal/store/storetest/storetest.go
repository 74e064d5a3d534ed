// Package storetest holds a compliance suite that every store backend must
// pass. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Backend bundles one migrated, empty database and the stores built on it.
type Backend struct {
	DB        *sql.DB
	Items     store.ItemStore
	Questions store.QuizQuestionStore
	Cards     store.FlashcardStore
	Logs      store.SessionLogStore
}

// Factory returns a fresh Backend. It registers its own cleanup on t.
type Factory func(t *testing.T) Backend

// base is a fixed instant with microsecond precision, which both backends
// store without loss.
var base = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

// Run executes the compliance suite against the backend produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Run("Items", func(t *testing.T) { testItems(t, newBackend(t)) })
	t.Run("QuizQuestions", func(t *testing.T) { testQuizQuestions(t, newBackend(t)) })
	t.Run("FlashcardReads", func(t *testing.T) { testFlashcardReads(t, newBackend(t)) })
	t.Run("UpdateSchedule", func(t *testing.T) { testUpdateSchedule(t, newBackend(t)) })
	t.Run("QueryDue", func(t *testing.T) { testQueryDue(t, newBackend(t)) })
	t.Run("SessionLog", func(t *testing.T) { testSessionLog(t, newBackend(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newBackend(t)) })
}

// SeedItem creates an item for owner.
func SeedItem(t *testing.T, b Backend, owner uuid.UUID) *domain.Item {
	t.Helper()
	item, err := domain.NewItem(owner, "item "+uuid.NewString()[:8], base)
	require.NoError(t, err)
	require.NoError(t, b.Items.Create(context.Background(), item))
	return item
}

// SeedCard creates a flashcard under item that falls due at due.
func SeedCard(t *testing.T, b Backend, item *domain.Item, due time.Time) *domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(item.ID, "question", "answer", base)
	require.NoError(t, err)
	card.NextDueAt = due.UTC()
	card.OwnerID = item.OwnerID
	require.NoError(t, b.Cards.CreateMultiple(context.Background(), []*domain.Flashcard{card}))
	return card
}

func testItems(t *testing.T, b Backend) {
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	item := SeedItem(t, b, owner)
	SeedItem(t, b, owner)
	SeedItem(t, b, other)

	t.Run("get own item", func(t *testing.T) {
		got, err := b.Items.GetByID(ctx, owner, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.ID, got.ID)
		assert.Equal(t, item.Title, got.Title)
		assert.True(t, item.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("other owner sees not found", func(t *testing.T) {
		_, err := b.Items.GetByID(ctx, other, item.ID)
		assert.ErrorIs(t, err, store.ErrItemNotFound)
	})

	t.Run("count by owner", func(t *testing.T) {
		n, err := b.Items.CountByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = b.Items.CountByOwner(ctx, uuid.New())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := b.Items.Create(ctx, item)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("invalid item", func(t *testing.T) {
		err := b.Items.Create(ctx, &domain.Item{ID: uuid.New(), OwnerID: owner})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func testQuizQuestions(t *testing.T, b Backend) {
	ctx := context.Background()
	item := SeedItem(t, b, uuid.New())

	q2, err := domain.NewQuizQuestion(item.ID, 2, "second?", []string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	q1, err := domain.NewQuizQuestion(item.ID, 1, "first?", []string{"yes", "no"}, 0)
	require.NoError(t, err)
	require.NoError(t, b.Questions.CreateMultiple(ctx, []*domain.QuizQuestion{q2, q1}))

	got, err := b.Questions.ListByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, q1.ID, got[0].ID, "questions are ordered by position")
	assert.Equal(t, []string{"yes", "no"}, got[0].Choices)
	assert.Equal(t, 0, got[0].CorrectIndex)
	assert.Equal(t, []string{"a", "b", "c"}, got[1].Choices)
	assert.Equal(t, 2, got[1].CorrectIndex)

	empty, err := b.Questions.ListByItem(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	dup, err := domain.NewQuizQuestion(item.ID, 1, "clash", []string{"x", "y"}, 1)
	require.NoError(t, err)
	err = b.Questions.CreateMultiple(ctx, []*domain.QuizQuestion{dup})
	assert.ErrorIs(t, err, store.ErrDuplicate, "position is unique per item")
}

func testFlashcardReads(t *testing.T, b Backend) {
	ctx := context.Background()
	owner := uuid.New()
	item := SeedItem(t, b, owner)
	card := SeedCard(t, b, item, base)

	t.Run("get by id", func(t *testing.T) {
		got, err := b.Cards.GetByID(ctx, owner, card.ID)
		require.NoError(t, err)
		assert.Equal(t, card.ID, got.ID)
		assert.Equal(t, item.ID, got.ItemID)
		assert.Equal(t, owner, got.OwnerID)
		assert.Equal(t, domain.DefaultEaseFactor, got.EaseFactor)
		assert.Equal(t, domain.DefaultInterval, got.Interval)
		assert.Zero(t, got.ReviewCount)
		assert.Nil(t, got.LastRating)
		assert.True(t, base.Equal(got.NextDueAt))
	})

	t.Run("other owner sees not found", func(t *testing.T) {
		_, err := b.Cards.GetByID(ctx, uuid.New(), card.ID)
		assert.ErrorIs(t, err, store.ErrFlashcardNotFound)
	})

	t.Run("missing card", func(t *testing.T) {
		_, err := b.Cards.GetByID(ctx, owner, uuid.New())
		assert.ErrorIs(t, err, store.ErrFlashcardNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("unknown parent item", func(t *testing.T) {
		orphan, err := domain.NewFlashcard(uuid.New(), "q", "a", base)
		require.NoError(t, err)
		err = b.Cards.CreateMultiple(ctx, []*domain.Flashcard{orphan})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func testUpdateSchedule(t *testing.T, b Backend) {
	ctx := context.Background()
	owner := uuid.New()
	item := SeedItem(t, b, owner)
	card := SeedCard(t, b, item, base)

	stored, err := b.Cards.GetByID(ctx, owner, card.ID)
	require.NoError(t, err)
	version := stored.Version

	rating := domain.RatingGood
	next := stored.Clone()
	next.EaseFactor = 2.5
	next.Interval = 6
	next.ReviewCount = 2
	next.NextDueAt = base.AddDate(0, 0, 6)
	next.LastRating = &rating
	next.UpdatedAt = base.Add(time.Minute)

	t.Run("applies with current version", func(t *testing.T) {
		require.NoError(t, b.Cards.UpdateSchedule(ctx, next, version))
		assert.Equal(t, version+1, next.Version)

		got, err := b.Cards.GetByID(ctx, owner, card.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Interval)
		assert.Equal(t, 2, got.ReviewCount)
		assert.True(t, base.AddDate(0, 0, 6).Equal(got.NextDueAt))
		require.NotNil(t, got.LastRating)
		assert.Equal(t, domain.RatingGood, *got.LastRating)
		assert.Equal(t, version+1, got.Version)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		stale := next.Clone()
		err := b.Cards.UpdateSchedule(ctx, stale, version)
		assert.ErrorIs(t, err, store.ErrConflict)
		assert.True(t, store.IsConflictError(err))

		got, err := b.Cards.GetByID(ctx, owner, card.ID)
		require.NoError(t, err)
		assert.Equal(t, version+1, got.Version, "conflicting write must not change the row")
	})

	t.Run("missing card", func(t *testing.T) {
		ghost := next.Clone()
		ghost.ID = uuid.New()
		err := b.Cards.UpdateSchedule(ctx, ghost, 0)
		assert.ErrorIs(t, err, store.ErrFlashcardNotFound)
	})

	t.Run("invalid state rejected", func(t *testing.T) {
		bad := next.Clone()
		bad.EaseFactor = 1.0
		err := b.Cards.UpdateSchedule(ctx, bad, next.Version)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func testQueryDue(t *testing.T, b Backend) {
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()
	item := SeedItem(t, b, owner)
	otherItem := SeedItem(t, b, other)

	asOf := base.Add(12 * time.Hour)

	early := SeedCard(t, b, item, base.Add(-48*time.Hour))
	tieA := SeedCard(t, b, item, base)
	tieB := SeedCard(t, b, item, base)
	atBoundary := SeedCard(t, b, item, asOf)
	SeedCard(t, b, item, asOf.Add(time.Microsecond))
	SeedCard(t, b, otherItem, base.Add(-72*time.Hour))

	first, second := tieA, tieB
	if second.ID.String() < first.ID.String() {
		first, second = second, first
	}

	t.Run("ordered by due time then id", func(t *testing.T) {
		due, err := b.Cards.QueryDue(ctx, owner, asOf, 50)
		require.NoError(t, err)
		require.Len(t, due, 4)
		assert.Equal(t, early.ID, due[0].ID)
		assert.Equal(t, first.ID, due[1].ID)
		assert.Equal(t, second.ID, due[2].ID)
		assert.Equal(t, atBoundary.ID, due[3].ID, "cards due exactly at asOf are included")
		for _, c := range due {
			assert.Equal(t, owner, c.OwnerID)
		}
	})

	t.Run("limit keeps the earliest", func(t *testing.T) {
		due, err := b.Cards.QueryDue(ctx, owner, asOf, 2)
		require.NoError(t, err)
		require.Len(t, due, 2)
		assert.Equal(t, early.ID, due[0].ID)
		assert.Equal(t, first.ID, due[1].ID)
	})

	t.Run("repeated selection is identical and read-only", func(t *testing.T) {
		before, err := b.Cards.QueryDue(ctx, owner, asOf, 50)
		require.NoError(t, err)
		after, err := b.Cards.QueryDue(ctx, owner, asOf, 50)
		require.NoError(t, err)

		require.Equal(t, len(before), len(after))
		for i := range before {
			assert.Equal(t, before[i].ID, after[i].ID, "position %d", i)
			assert.True(t, before[i].NextDueAt.Equal(after[i].NextDueAt), "position %d", i)
			assert.Equal(t, before[i].Version, after[i].Version, "position %d", i)

			stored, err := b.Cards.GetByID(ctx, owner, before[i].ID)
			require.NoError(t, err)
			assert.True(t, stored.NextDueAt.Equal(before[i].NextDueAt))
			assert.Equal(t, before[i].Version, stored.Version)
		}
	})

	t.Run("count matches unlimited query", func(t *testing.T) {
		n, err := b.Cards.CountDue(ctx, owner, asOf)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("nothing due", func(t *testing.T) {
		due, err := b.Cards.QueryDue(ctx, uuid.New(), asOf, 50)
		require.NoError(t, err)
		assert.NotNil(t, due)
		assert.Empty(t, due)
	})
}

func testSessionLog(t *testing.T, b Backend) {
	ctx := context.Background()
	owner := uuid.New()
	itemID := uuid.New()

	var quizIDs []uuid.UUID
	for i := 0; i < 3; i++ {
		entry, err := domain.NewQuizLogEntry(owner, itemID,
			domain.QuizResult{Correct: i, Total: 2, Score: i * 50},
			base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, b.Logs.Append(ctx, entry))
		quizIDs = append(quizIDs, entry.ID)
	}

	review, err := domain.NewReviewLogEntry(owner, uuid.New(), domain.RatingGood, 2.5, base.Add(5*time.Hour))
	require.NoError(t, err)
	require.NoError(t, b.Logs.Append(ctx, review))

	t.Run("newest first and filtered by kind", func(t *testing.T) {
		got, err := b.Logs.ListRecent(ctx, owner, domain.SessionKindQuiz, 20)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, quizIDs[2], got[0].ID)
		assert.Equal(t, quizIDs[1], got[1].ID)
		assert.Equal(t, quizIDs[0], got[2].ID)
		assert.Equal(t, 100.0, got[0].Score)

		var meta domain.QuizMetadata
		require.NoError(t, json.Unmarshal(got[0].Metadata, &meta))
		assert.Equal(t, itemID, meta.ItemID)
		assert.Equal(t, 2, meta.Correct)
		assert.Equal(t, 2, meta.Total)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := b.Logs.ListRecent(ctx, owner, domain.SessionKindQuiz, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, quizIDs[2], got[0].ID)
	})

	t.Run("review entries", func(t *testing.T) {
		got, err := b.Logs.ListRecent(ctx, owner, domain.SessionKindFlashcardReview, 20)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, review.ID, got[0].ID)
		assert.True(t, review.CreatedAt.Equal(got[0].CreatedAt))
	})

	t.Run("other owner has no history", func(t *testing.T) {
		got, err := b.Logs.ListRecent(ctx, uuid.New(), domain.SessionKindQuiz, 20)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func testTransactions(t *testing.T, b Backend) {
	ctx := context.Background()
	owner := uuid.New()
	item := SeedItem(t, b, owner)
	card := SeedCard(t, b, item, base)
	errBoom := errors.New("boom")

	err := store.RunInTransaction(ctx, b.DB, func(ctx context.Context, tx *sql.Tx) error {
		cards := b.Cards.WithTx(tx)
		logs := b.Logs.WithTx(tx)

		locked, err := cards.GetForUpdate(ctx, owner, card.ID)
		if err != nil {
			return err
		}
		next := locked.Clone()
		next.Interval = 6
		next.NextDueAt = base.AddDate(0, 0, 6)
		if err := cards.UpdateSchedule(ctx, next, locked.Version); err != nil {
			return err
		}

		entry, err := domain.NewReviewLogEntry(owner, card.ID, domain.RatingGood, next.EaseFactor, base)
		if err != nil {
			return err
		}
		if err := logs.Append(ctx, entry); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := b.Cards.GetByID(ctx, owner, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultInterval, got.Interval, "rolled back update must not persist")
	assert.True(t, base.Equal(got.NextDueAt))

	entries, err := b.Logs.ListRecent(ctx, owner, domain.SessionKindFlashcardReview, 20)
	require.NoError(t, err)
	assert.Empty(t, entries, "rolled back append must not persist")
}
