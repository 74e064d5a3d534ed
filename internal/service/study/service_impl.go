package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/learnloop-api/internal/domain"
	"github.com/learnloop/learnloop-api/internal/domain/srs"
	"github.com/learnloop/learnloop-api/internal/platform/logger"
	"github.com/learnloop/learnloop-api/internal/store"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// Stores groups the persistence dependencies of the study service.
type Stores struct {
	Items     store.ItemStore
	Questions store.QuizQuestionStore
	Cards     store.FlashcardStore
	Logs      store.SessionLogStore
}

var _ Service = (*studyServiceImpl)(nil)

type studyServiceImpl struct {
	stores     Stores
	txRunner   store.TxRunner
	srsService srs.Service
	cfg        Config
	logger     *slog.Logger
}

// NewService creates the study service.
func NewService(
	stores Stores,
	txRunner store.TxRunner,
	srsService srs.Service,
	cfg Config,
	logger *slog.Logger,
) Service {
	if stores.Items == nil || stores.Questions == nil || stores.Cards == nil || stores.Logs == nil {
		panic("stores cannot be nil")
	}
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		stores:     stores,
		txRunner:   txRunner,
		srsService: srsService,
		cfg:        cfg.withDefaults(),
		logger:     logger.With(slog.String("component", "study_service")),
	}
}

func (s *studyServiceImpl) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultQueueLimit
	}
	if limit > s.cfg.MaxQueueLimit {
		return s.cfg.MaxQueueLimit
	}
	return limit
}

// GetDueQueue implements Service.GetDueQueue.
func (s *studyServiceImpl) GetDueQueue(ctx context.Context, ownerID uuid.UUID, limit int) (*DueQueue, error) {
	asOf := endOfDay(s.cfg.Now(), s.cfg.Location)

	cards, err := s.SelectDue(ctx, ownerID, asOf, limit)
	if err != nil {
		return nil, err
	}
	return &DueQueue{Cards: cards, AsOf: asOf}, nil
}

// SelectDue implements Service.SelectDue.
func (s *studyServiceImpl) SelectDue(
	ctx context.Context,
	ownerID uuid.UUID,
	asOf time.Time,
	limit int,
) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	limit = s.clampLimit(limit)

	cards, err := s.stores.Cards.QueryDue(ctx, ownerID, asOf, limit)
	if err != nil {
		log.Error("failed to query due cards",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, NewServiceError("get_due_queue", "failed to query due cards", err)
	}

	log.Debug("selected due cards",
		slog.String("owner_id", ownerID.String()),
		slog.Time("as_of", asOf),
		slog.Int("limit", limit),
		slog.Int("count", len(cards)))
	return cards, nil
}

// SubmitReview implements Service.SubmitReview.
func (s *studyServiceImpl) SubmitReview(
	ctx context.Context,
	ownerID, cardID uuid.UUID,
	rating domain.Rating,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("owner_id", ownerID.String()),
		slog.String("card_id", cardID.String()))

	if !rating.Valid() {
		log.Warn("invalid rating", slog.String("rating", string(rating)))
		return nil, ErrInvalidRating
	}

	var updated *domain.Flashcard
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxConflictRetries), retry.NewConstant(s.cfg.RetryBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		card, err := s.reviewOnce(ctx, ownerID, cardID, rating)
		if err != nil {
			if store.IsConflictError(err) {
				log.Warn("review conflicted with a concurrent review",
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()))
				return retry.RetryableError(err)
			}
			return err
		}
		updated = card
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCardNotFound):
			log.Debug("card not found for review")
			return nil, err
		case store.IsConflictError(err):
			log.Error("review abandoned after repeated conflicts", slog.Int("attempts", attempt))
			return nil, NewServiceError("submit_review", "too many concurrent reviews",
				fmt.Errorf("%w: %v", ErrTransient, err))
		default:
			log.Error("failed to submit review", slog.String("error", err.Error()))
			return nil, NewServiceError("submit_review", "failed to record review", err)
		}
	}

	log.Debug("review recorded",
		slog.String("rating", string(rating)),
		slog.Float64("ease_factor", updated.EaseFactor),
		slog.Int("interval", updated.Interval),
		slog.Time("next_due_at", updated.NextDueAt))
	return updated, nil
}

// reviewOnce runs one attempt of the review transaction.
func (s *studyServiceImpl) reviewOnce(
	ctx context.Context,
	ownerID, cardID uuid.UUID,
	rating domain.Rating,
) (*domain.Flashcard, error) {
	var updated *domain.Flashcard

	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.stores.Cards.WithTx(tx)
		logs := s.stores.Logs.WithTx(tx)
		now := s.cfg.Now().UTC()

		card, err := cards.GetForUpdate(ctx, ownerID, cardID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrCardNotFound
			}
			return fmt.Errorf("failed to load card: %w", err)
		}

		next, err := s.srsService.CalculateNextReview(card, rating, now)
		if err != nil {
			return fmt.Errorf("failed to calculate next review: %w", err)
		}

		if err := cards.UpdateSchedule(ctx, next, card.Version); err != nil {
			if errors.Is(err, store.ErrFlashcardNotFound) {
				return ErrCardNotFound
			}
			return fmt.Errorf("failed to update card schedule: %w", err)
		}

		entry, err := domain.NewReviewLogEntry(ownerID, cardID, rating, next.EaseFactor, now)
		if err != nil {
			return fmt.Errorf("failed to build review log entry: %w", err)
		}
		if err := logs.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append review log entry: %w", err)
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetQuiz implements Service.GetQuiz.
func (s *studyServiceImpl) GetQuiz(ctx context.Context, ownerID, itemID uuid.UUID) (*Quiz, error) {
	item, questions, err := s.loadQuiz(ctx, "get_quiz", ownerID, itemID)
	if err != nil {
		return nil, err
	}
	return &Quiz{ItemID: item.ID, Title: item.Title, Questions: questions}, nil
}

func (s *studyServiceImpl) loadQuiz(
	ctx context.Context,
	op string,
	ownerID, itemID uuid.UUID,
) (*domain.Item, []domain.QuizQuestion, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := s.stores.Items.GetByID(ctx, ownerID, itemID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, nil, ErrItemNotFound
		}
		log.Error("failed to load item",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return nil, nil, NewServiceError(op, "failed to load item", err)
	}

	questions, err := s.stores.Questions.ListByItem(ctx, item.ID)
	if err != nil {
		log.Error("failed to load quiz questions",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return nil, nil, NewServiceError(op, "failed to load quiz questions", err)
	}
	return item, questions, nil
}

// SubmitQuiz implements Service.SubmitQuiz.
func (s *studyServiceImpl) SubmitQuiz(
	ctx context.Context,
	ownerID, itemID uuid.UUID,
	answers []int,
) (*domain.QuizResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("owner_id", ownerID.String()),
		slog.String("item_id", itemID.String()))

	if answers == nil {
		return nil, ErrInvalidAnswers
	}

	_, questions, err := s.loadQuiz(ctx, "submit_quiz", ownerID, itemID)
	if err != nil {
		return nil, err
	}

	result := domain.ScoreQuiz(questions, answers)
	entry, err := domain.NewQuizLogEntry(ownerID, itemID, result, s.cfg.Now())
	if err != nil {
		return nil, NewServiceError("submit_quiz", "failed to build quiz log entry", err)
	}

	err = s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.stores.Logs.WithTx(tx).Append(ctx, entry)
	})
	if err != nil {
		log.Error("failed to record quiz result", slog.String("error", err.Error()))
		return nil, NewServiceError("submit_quiz", "failed to record quiz result", err)
	}

	log.Debug("quiz recorded",
		slog.Int("correct", result.Correct),
		slog.Int("total", result.Total),
		slog.Int("score", result.Score))
	return &result, nil
}

// GetProgress implements Service.GetProgress.
func (s *studyServiceImpl) GetProgress(ctx context.Context, ownerID uuid.UUID) (*Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	asOf := endOfDay(s.cfg.Now(), s.cfg.Location)

	var (
		totalItems int
		due        int
		recent     []*domain.SessionLogEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.stores.Items.CountByOwner(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("failed to count items: %w", err)
		}
		totalItems = n
		return nil
	})
	g.Go(func() error {
		n, err := s.stores.Cards.CountDue(gctx, ownerID, asOf)
		if err != nil {
			return fmt.Errorf("failed to count due cards: %w", err)
		}
		due = n
		return nil
	})
	g.Go(func() error {
		entries, err := s.stores.Logs.ListRecent(gctx, ownerID, domain.SessionKindQuiz, s.cfg.TrendSize)
		if err != nil {
			return fmt.Errorf("failed to list quiz history: %w", err)
		}
		recent = entries
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("failed to build progress summary",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, NewServiceError("get_progress", "failed to build progress summary", err)
	}

	trend := make([]TrendPoint, 0, len(recent))
	for _, e := range recent {
		trend = append(trend, TrendPoint{Date: e.CreatedAt, Score: e.Score})
	}

	return &Progress{
		TotalItems:    totalItems,
		DueFlashcards: due,
		QuizTrend:     trend,
	}, nil
}
