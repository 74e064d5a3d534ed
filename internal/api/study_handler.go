package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/api/shared"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/platform/logger"
	"github.com/learnloop/learnloop-api/internal/service/study"
)

// StudyHandler serves the study session endpoints.
type StudyHandler struct {
	studyService study.Service
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService study.Service, logger *slog.Logger) *StudyHandler {
	if studyService == nil {
		panic("studyService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "study_handler")),
	}
}

// Routes mounts the study endpoints on r. The caller applies authentication.
func (h *StudyHandler) Routes(r chi.Router) {
	r.Get("/queue", h.GetQueue)
	r.Post("/review", h.SubmitReview)
	r.Get("/quiz/{itemID}", h.GetQuiz)
	r.Post("/quiz/{itemID}", h.SubmitQuiz)
	r.Get("/progress", h.GetProgress)
}

// GetQueue handles GET /api/study/queue?limit=N.
func (h *StudyHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			HandleAPIError(w, r,
				domain.NewValidationError("limit", "must be a non-negative integer", domain.ErrValidation),
				"Invalid limit: must be a non-negative integer")
			return
		}
		limit = n
	}

	queue, err := h.studyService.GetDueQueue(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load the review queue")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, dueQueueToResponse(queue))
}

// SubmitReview handles POST /api/study/review.
func (h *StudyHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		handleDecodeError(w, r, log, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	// Both parse calls succeed after validation.
	cardID, _ := uuid.Parse(req.CardID)
	rating, _ := domain.ParseRating(req.Rating)

	card, err := h.studyService.SubmitReview(r.Context(), userID, cardID, rating)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("review submitted",
		slog.String("card_id", cardID.String()),
		slog.String("rating", rating.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, flashcardToResponse(card))
}

// GetQuiz handles GET /api/study/quiz/{itemID}.
func (h *StudyHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "itemID", log)
	if !ok {
		return
	}

	quiz, err := h.studyService.GetQuiz(r.Context(), userID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, quizToResponse(quiz))
}

// SubmitQuiz handles POST /api/study/quiz/{itemID}.
func (h *StudyHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "itemID", log)
	if !ok {
		return
	}

	var req QuizSubmissionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		handleDecodeError(w, r, log, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.studyService.SubmitQuiz(r.Context(), userID, itemID, req.Answers)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, QuizResultResponse{
		Correct: result.Correct,
		Total:   result.Total,
		Score:   result.Score,
	})
}

// GetProgress handles GET /api/study/progress.
func (h *StudyHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	progress, err := h.studyService.GetProgress(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(progress))
}
