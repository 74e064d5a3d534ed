package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshCard(t *testing.T, now time.Time) domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(uuid.New(), "What is SM-2?", "A scheduling algorithm", now)
	require.NoError(t, err)
	return *card
}

func TestEaseDelta(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		grade    int
		expected float64
	}{
		{5, 0.1},
		{4, 0.0},
		{3, -0.14},
	}

	for _, tc := range testCases {
		assert.InDelta(t, tc.expected, easeDelta(tc.grade), 1e-9, "grade %d", tc.grade)
	}
}

func TestApplyThreeGoodReviews(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	t0 := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	card := freshCard(t, t0)

	expectedIntervals := []int{1, 6, 15}
	now := t0
	for i, want := range expectedIntervals {
		card = Apply(card, domain.RatingGood, now, params)
		assert.Equal(t, want, card.Interval, "review %d", i+1)
		assert.Equal(t, i+1, card.ReviewCount, "review %d", i+1)
		assert.InDelta(t, 2.5, card.EaseFactor, 1e-9, "review %d", i+1)
		assert.True(t, card.NextDueAt.Equal(now.AddDate(0, 0, want)), "review %d", i+1)
		now = now.Add(time.Duration(i+1) * time.Hour)
	}
}

func TestApplyLapseResetsProgress(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	card := freshCard(t, now)
	card.EaseFactor = 2.5
	card.Interval = 15
	card.ReviewCount = 2

	next := Apply(card, domain.RatingAgain, now, NewDefaultParams())

	assert.Equal(t, 2.5, next.EaseFactor)
	assert.Equal(t, 1, next.Interval)
	assert.Equal(t, 0, next.ReviewCount)
	assert.True(t, next.NextDueAt.Equal(now.AddDate(0, 0, 1)))
	require.NotNil(t, next.LastRating)
	assert.Equal(t, domain.RatingAgain, *next.LastRating)
}

func TestApplyLapseKeepsEase(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	for _, ease := range []float64{1.3, 1.7, 2.5, 3.1} {
		for n := 1; n < 5; n++ {
			card := freshCard(t, now)
			card.EaseFactor = ease
			card.ReviewCount = n
			card.Interval = 10 * n

			next := Apply(card, domain.RatingAgain, now, NewDefaultParams())
			assert.Equal(t, ease, next.EaseFactor)
			assert.Equal(t, 0, next.ReviewCount)
			assert.Equal(t, 1, next.Interval)
		}
	}
}

func TestApplyEaseFloor(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Now().UTC()

	card := freshCard(t, now)
	for i := 0; i < 20; i++ {
		card = Apply(card, domain.RatingHard, now, params)
		assert.GreaterOrEqual(t, card.EaseFactor, params.MinEaseFactor, "review %d", i+1)
	}
	assert.Equal(t, params.MinEaseFactor, card.EaseFactor)

	// Every rating from a state sitting on or below the floor stays on it.
	for _, r := range domain.Ratings {
		low := freshCard(t, now)
		low.EaseFactor = 1.1
		next := Apply(low, r, now, params)
		assert.GreaterOrEqual(t, next.EaseFactor, params.MinEaseFactor, r.String())
	}
}

func TestApplyGrowthUsesNewEase(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	card := freshCard(t, now)
	card.ReviewCount = 2
	card.Interval = 10

	easy := Apply(card, domain.RatingEasy, now, NewDefaultParams())
	assert.InDelta(t, 2.6, easy.EaseFactor, 1e-9)
	assert.Equal(t, 26, easy.Interval)

	hard := Apply(card, domain.RatingHard, now, NewDefaultParams())
	assert.InDelta(t, 2.36, hard.EaseFactor, 1e-9)
	assert.Equal(t, 24, hard.Interval) // round(23.6)
	assert.Equal(t, 3, hard.ReviewCount)
}

func TestApplyHardIsSuccessOnFirstReviews(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	card := freshCard(t, now)

	card = Apply(card, domain.RatingHard, now, NewDefaultParams())
	assert.Equal(t, 1, card.Interval)
	assert.Equal(t, 1, card.ReviewCount)

	card = Apply(card, domain.RatingHard, now, NewDefaultParams())
	assert.Equal(t, 6, card.Interval)
	assert.Equal(t, 2, card.ReviewCount)
}

func TestApplyNormalizesMissingState(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	card := domain.Flashcard{ID: uuid.New(), ItemID: uuid.New(), ReviewCount: 3}

	next := Apply(card, domain.RatingGood, now, nil)
	assert.Equal(t, 2.5, next.EaseFactor)
	// interval 0 is read as 1, so round(1 * 2.5) = 3
	assert.Equal(t, 3, next.Interval)
	assert.Equal(t, 4, next.ReviewCount)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	card := freshCard(t, now)
	before := card.Clone()

	_ = Apply(card, domain.RatingEasy, now.Add(time.Hour), NewDefaultParams())

	assert.Equal(t, *before, card)
}

func TestApplyIsRelativeToNow(t *testing.T) {
	t.Parallel()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	card := freshCard(t, created)
	card.NextDueAt = created.AddDate(0, 0, 10)

	// Reviewing early still schedules from the submission time.
	now := created.AddDate(0, 0, 2)
	next := Apply(card, domain.RatingGood, now, NewDefaultParams())
	assert.True(t, next.NextDueAt.Equal(now.AddDate(0, 0, 1)))
	assert.True(t, next.UpdatedAt.Equal(now))
}

func TestApplyCapsIntervalUnderRepeatedEasy(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	card := freshCard(t, now)

	// Reviewing early is allowed, so the same instant can be rated many times.
	for i := 0; i < 60; i++ {
		card = Apply(card, domain.RatingEasy, now, params)
		require.GreaterOrEqual(t, card.Interval, 1, "review %d", i+1)
		require.LessOrEqual(t, card.Interval, params.MaxInterval, "review %d", i+1)
		require.True(t, card.NextDueAt.Equal(now.AddDate(0, 0, card.Interval)), "review %d", i+1)
	}
	assert.Equal(t, params.MaxInterval, card.Interval)
	assert.Equal(t, 60, card.ReviewCount)
}

func TestApplyCapsPersistedOversizedInterval(t *testing.T) {
	t.Parallel()
	params := NewParams(ParamsConfig{MaxInterval: 100})
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	card := freshCard(t, now)
	card.ReviewCount = 5
	card.Interval = 1 << 40

	next := Apply(card, domain.RatingGood, now, params)
	assert.Equal(t, 100, next.Interval)
	assert.True(t, next.NextDueAt.Equal(now.AddDate(0, 0, 100)))
}
