package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/api/shared"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/service/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestRouter mounts the study routes behind a middleware that
// authenticates every request as userID. uuid.Nil leaves it unauthenticated.
func newTestRouter(svc study.Service, userID uuid.UUID) http.Handler {
	h := NewStudyHandler(svc, nil)
	r := chi.NewRouter()
	r.Route("/api/study", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if userID != uuid.Nil {
					req = req.WithContext(shared.WithUserID(req.Context(), userID))
				}
				next.ServeHTTP(w, req)
			})
		})
		h.Routes(r)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetQueue(t *testing.T) {
	userID := uuid.New()
	asOf := time.Date(2024, 3, 10, 23, 59, 59, 999999000, time.UTC)
	card := &domain.Flashcard{
		ID:         uuid.New(),
		ItemID:     uuid.New(),
		Question:   "Capital of France?",
		Answer:     "Paris",
		EaseFactor: 2.5,
		Interval:   1,
		NextDueAt:  asOf.Add(-time.Hour),
	}

	t.Run("default limit", func(t *testing.T) {
		svc := new(MockStudyService)
		svc.On("GetDueQueue", mock.Anything, userID, 0).
			Return(&study.DueQueue{Cards: []*domain.Flashcard{card}, AsOf: asOf}, nil)

		w := do(t, newTestRouter(svc, userID), http.MethodGet, "/api/study/queue", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp DueQueueResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Cards, 1)
		assert.Equal(t, card.ID, resp.Cards[0].ID)
		assert.Equal(t, "Paris", resp.Cards[0].Answer)
		assert.Nil(t, resp.Cards[0].LastRating)
		assert.True(t, resp.AsOf.Equal(asOf))
		svc.AssertExpectations(t)
	})

	t.Run("explicit limit", func(t *testing.T) {
		svc := new(MockStudyService)
		svc.On("GetDueQueue", mock.Anything, userID, 500).
			Return(&study.DueQueue{Cards: []*domain.Flashcard{}, AsOf: asOf}, nil)

		w := do(t, newTestRouter(svc, userID), http.MethodGet, "/api/study/queue?limit=500", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"cards":[]`)
		svc.AssertExpectations(t)
	})

	for _, raw := range []string{"abc", "-1", "1.5"} {
		t.Run("invalid limit "+raw, func(t *testing.T) {
			svc := new(MockStudyService)
			w := do(t, newTestRouter(svc, userID), http.MethodGet, "/api/study/queue?limit="+raw, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w).Error, "limit")
			svc.AssertNotCalled(t, "GetDueQueue", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(MockStudyService)
		w := do(t, newTestRouter(svc, uuid.Nil), http.MethodGet, "/api/study/queue", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("store failure is sanitized", func(t *testing.T) {
		svc := new(MockStudyService)
		svc.On("GetDueQueue", mock.Anything, userID, 0).
			Return(nil, study.NewServiceError("get_due_queue", "failed to query due cards",
				errors.New("pq: relation \"flashcards\" does not exist")))

		w := do(t, newTestRouter(svc, userID), http.MethodGet, "/api/study/queue", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "relation")
	})
}

func TestSubmitReview(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()
	good := domain.RatingGood
	updated := &domain.Flashcard{
		ID:          cardID,
		ItemID:      uuid.New(),
		Question:    "q",
		Answer:      "a",
		EaseFactor:  2.5,
		Interval:    6,
		ReviewCount: 1,
		NextDueAt:   time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
		LastRating:  &good,
	}

	t.Run("success", func(t *testing.T) {
		svc := new(MockStudyService)
		svc.On("SubmitReview", mock.Anything, userID, cardID, domain.RatingGood).Return(updated, nil)

		body := fmt.Sprintf(`{"card_id":%q,"rating":"GOOD"}`, cardID)
		w := do(t, newTestRouter(svc, userID), http.MethodPost, "/api/study/review", body)

		require.Equal(t, http.StatusOK, w.Code)
		var resp FlashcardResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 6, resp.Interval)
		assert.Equal(t, 1, resp.ReviewCount)
		require.NotNil(t, resp.LastRating)
		assert.Equal(t, "GOOD", *resp.LastRating)
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "malformed json",
			body:       `{"card_id":`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request format",
		},
		{
			name:       "unknown rating",
			body:       fmt.Sprintf(`{"card_id":%q,"rating":"PERFECT"}`, cardID),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid rating",
		},
		{
			name:       "lowercase rating",
			body:       fmt.Sprintf(`{"card_id":%q,"rating":"good"}`, cardID),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid rating: must be one of AGAIN, HARD, GOOD, EASY",
		},
		{
			name:       "missing rating",
			body:       fmt.Sprintf(`{"card_id":%q}`, cardID),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid rating: required field",
		},
		{
			name:       "bad card id",
			body:       `{"card_id":"not-a-uuid","rating":"GOOD"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid card_id: must be a UUID",
		},
		{
			name:       "card not found",
			body:       fmt.Sprintf(`{"card_id":%q,"rating":"GOOD"}`, cardID),
			serviceErr: study.ErrCardNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Card not found",
		},
		{
			name: "persistent conflict",
			body: fmt.Sprintf(`{"card_id":%q,"rating":"GOOD"}`, cardID),
			serviceErr: study.NewServiceError("submit_review", "too many concurrent reviews",
				fmt.Errorf("%w: concurrent modification", study.ErrTransient)),
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "The card is busy, please retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStudyService)
			if tt.serviceErr != nil {
				svc.On("SubmitReview", mock.Anything, userID, cardID, domain.RatingGood).Return(nil, tt.serviceErr)
			}

			w := do(t, newTestRouter(svc, userID), http.MethodPost, "/api/study/review", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, decodeError(t, w).Error, tt.wantMsg)
			if tt.serviceErr == nil {
				svc.AssertNotCalled(t, "SubmitReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "1", w.Header().Get("Retry-After"))
			}
		})
	}
}

func TestGetQuiz(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()

	t.Run("hides correct choice", func(t *testing.T) {
		svc := new(MockStudyService)
		svc.On("GetQuiz", mock.Anything, userID, itemID).Return(&study.Quiz{
			ItemID: itemID,
			Title:  "French geography",
			Questions: []domain.QuizQuestion{
				{ID: uuid.New(), ItemID: itemID, Position: 1, Question: "Capital?", Choices: []string{"Lyon", "Paris"}, CorrectIndex: 1},
			},
		}, nil)

		w := do(t, newTestRouter(svc, userID), http.MethodGet, "/api/study/quiz/"+itemID.String(), "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "correct")
		var resp QuizResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "French geography", resp.Title)
		require.Len(t, resp.Questions, 1)
		assert.Equal(t, []string{"Lyon", "Paris"}, resp.Questions[0].Choices)
	})

	t.Run("invalid item id", func(t *testing.T) {
		svc := new(MockStudyService)
		w := do(t, newTestRouter(svc, userID), http.MethodGet, "/api/study/quiz/nope", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid itemID: has invalid format", decodeError(t, w).Error)
	})

	t.Run("item not found", func(t *testing.T) {
		svc := new(MockStudyService)
		svc.On("GetQuiz", mock.Anything, userID, itemID).Return(nil, study.ErrItemNotFound)

		w := do(t, newTestRouter(svc, userID), http.MethodGet, "/api/study/quiz/"+itemID.String(), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Item not found", decodeError(t, w).Error)
	})
}

func TestSubmitQuiz(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()
	path := "/api/study/quiz/" + itemID.String()

	t.Run("scores answers", func(t *testing.T) {
		svc := new(MockStudyService)
		svc.On("SubmitQuiz", mock.Anything, userID, itemID, []int{1, 0, 2, 2}).
			Return(&domain.QuizResult{Correct: 3, Total: 4, Score: 75}, nil)

		w := do(t, newTestRouter(svc, userID), http.MethodPost, path, `{"answers":[1,0,2,2]}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"correct":3,"total":4,"score":75}`, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("negative answer is passed through", func(t *testing.T) {
		svc := new(MockStudyService)
		svc.On("SubmitQuiz", mock.Anything, userID, itemID, []int{1, -1}).
			Return(&domain.QuizResult{Correct: 1, Total: 2, Score: 50}, nil)

		w := do(t, newTestRouter(svc, userID), http.MethodPost, path, `{"answers":[1,-1]}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"correct":1,"total":2,"score":50}`, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("non-integer answer", func(t *testing.T) {
		svc := new(MockStudyService)
		w := do(t, newTestRouter(svc, userID), http.MethodPost, path, `{"answers":[1,"b"]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "SubmitQuiz", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing answers", func(t *testing.T) {
		svc := new(MockStudyService)
		w := do(t, newTestRouter(svc, userID), http.MethodPost, path, `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid answers: required field", decodeError(t, w).Error)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc := new(MockStudyService)
		svc.On("SubmitQuiz", mock.Anything, userID, itemID, []int{0}).Return(nil, study.ErrItemNotFound)

		w := do(t, newTestRouter(svc, userID), http.MethodPost, path, `{"answers":[0]}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetProgress(t *testing.T) {
	userID := uuid.New()

	t.Run("summary", func(t *testing.T) {
		svc := new(MockStudyService)
		day := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
		svc.On("GetProgress", mock.Anything, userID).Return(&study.Progress{
			TotalItems:    4,
			DueFlashcards: 7,
			QuizTrend:     []study.TrendPoint{{Date: day, Score: 75}},
		}, nil)

		w := do(t, newTestRouter(svc, userID), http.MethodGet, "/api/study/progress", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp ProgressResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 4, resp.TotalItems)
		assert.Equal(t, 7, resp.DueFlashcards)
		require.Len(t, resp.QuizTrend, 1)
		assert.Equal(t, 75.0, resp.QuizTrend[0].Score)
	})

	t.Run("empty trend is an array", func(t *testing.T) {
		svc := new(MockStudyService)
		svc.On("GetProgress", mock.Anything, userID).Return(&study.Progress{QuizTrend: []study.TrendPoint{}}, nil)

		w := do(t, newTestRouter(svc, userID), http.MethodGet, "/api/study/progress", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"quiz_trend":[]`)
	})
}
