package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/store"
)

// QuizScraper is the live-fetch surface behind the score matrix.
type QuizScraper interface {
	FetchQuizScores(ctx context.Context, courseID, groupID int) (models.QuizScoreMatrix, error)
}

// QuizView is the practice-quiz score matrix plus its freshness and the
// CSV snapshot written for it.
type QuizView struct {
	Matrix   models.QuizScoreMatrix `json:"matrix"`
	CachedAt time.Time              `json:"cached_at"`
	Stale    bool                   `json:"stale"`
	CSVPath  string                 `json:"csv_path,omitempty"`
}

// QuizService collects per-student best scores across a course's practice
// quizzes.
type QuizService interface {
	Scores(ctx context.Context, courseID, groupID int, force bool) (QuizView, error)
}

type quizService struct {
	scraper   QuizScraper
	cache     *store.TieredStore
	snapshots *store.CSVSnapshots
	logger    zerolog.Logger
}

// NewQuizService builds the quiz score service.
func NewQuizService(scraper QuizScraper, cache *store.TieredStore, snapshots *store.CSVSnapshots, logger zerolog.Logger) QuizService {
	return &quizService{
		scraper:   scraper,
		cache:     cache,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
	}
}

// Scores serves the cached matrix for the whole-course view; a group
// filter always reads live because the cache holds only the unfiltered
// matrix.
func (s *quizService) Scores(ctx context.Context, courseID, groupID int, force bool) (QuizView, error) {
	if !force && groupID == 0 {
		var cached models.QuizScoreMatrix
		if at, ok := s.cache.Load(ctx, store.KeyQuizScores(courseID), &cached); ok {
			return QuizView{Matrix: cached, CachedAt: at, Stale: true}, nil
		}
	}

	matrix, err := s.scraper.FetchQuizScores(ctx, courseID, groupID)
	if err != nil {
		return QuizView{}, fmt.Errorf("fetch quiz scores: %w", err)
	}

	if groupID == 0 {
		if err := s.cache.Save(ctx, store.KeyQuizScores(courseID), matrix); err != nil {
			s.logger.Warn().Err(err).Int("course_id", courseID).Msg("quiz cache write failed")
		}
	}

	csvPath, err := s.snapshots.WriteQuizScores(courseID, matrix)
	if err != nil {
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("quiz snapshot write failed")
		csvPath = ""
	}

	return QuizView{Matrix: matrix, CachedAt: time.Now().UTC(), CSVPath: csvPath}, nil
}
