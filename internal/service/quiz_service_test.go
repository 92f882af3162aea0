package service

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/store"
)

type quizScraperStub struct {
	matrix  models.QuizScoreMatrix
	fetches int
	groups  []int
}

func (s *quizScraperStub) FetchQuizScores(ctx context.Context, courseID, groupID int) (models.QuizScoreMatrix, error) {
	s.fetches++
	s.groups = append(s.groups, groupID)
	return s.matrix, nil
}

func sampleMatrix() models.QuizScoreMatrix {
	return models.QuizScoreMatrix{
		Quizzes: []string{"Quiz 1", "Quiz 2"},
		Rows: map[string]map[string]float64{
			"Alice": {"Quiz 1": 8.5, "Quiz 2": 9},
			"Bob":   {"Quiz 1": 6},
		},
	}
}

func newQuizFixture(t *testing.T, scraper *quizScraperStub) (QuizService, *store.TieredStore) {
	t.Helper()
	cache := newTestStore(t)
	snapshots := store.NewCSVSnapshots(t.TempDir(), testLogger())
	return NewQuizService(scraper, cache, snapshots, testLogger()), cache
}

func TestQuizServiceCachesUnfilteredMatrix(t *testing.T) {
	scraper := &quizScraperStub{matrix: sampleMatrix()}
	svc, cache := newQuizFixture(t, scraper)

	view, err := svc.Scores(context.Background(), 7, 0, false)
	require.NoError(t, err)
	require.False(t, view.Stale)
	require.Equal(t, 1, scraper.fetches)
	require.NotEmpty(t, view.CSVPath)
	_, err = os.Stat(view.CSVPath)
	require.NoError(t, err)

	var cached models.QuizScoreMatrix
	_, ok := cache.Load(context.Background(), store.KeyQuizScores(7), &cached)
	require.True(t, ok)
	require.Equal(t, []string{"Quiz 1", "Quiz 2"}, cached.Quizzes)

	again, err := svc.Scores(context.Background(), 7, 0, false)
	require.NoError(t, err)
	require.True(t, again.Stale)
	require.Equal(t, 1, scraper.fetches)
}

func TestQuizServiceGroupFilterAlwaysReadsLive(t *testing.T) {
	scraper := &quizScraperStub{matrix: sampleMatrix()}
	svc, cache := newQuizFixture(t, scraper)
	require.NoError(t, cache.Save(context.Background(), store.KeyQuizScores(7), models.QuizScoreMatrix{Quizzes: []string{"Old"}}))

	view, err := svc.Scores(context.Background(), 7, 31, false)
	require.NoError(t, err)
	require.False(t, view.Stale)
	require.Equal(t, []int{31}, scraper.groups)

	// The filtered read must not overwrite the whole-course cache.
	var cached models.QuizScoreMatrix
	_, ok := cache.Load(context.Background(), store.KeyQuizScores(7), &cached)
	require.True(t, ok)
	require.Equal(t, []string{"Old"}, cached.Quizzes)
}

func TestQuizServiceForceRefetches(t *testing.T) {
	scraper := &quizScraperStub{matrix: sampleMatrix()}
	svc, cache := newQuizFixture(t, scraper)
	require.NoError(t, cache.Save(context.Background(), store.KeyQuizScores(7), models.QuizScoreMatrix{Quizzes: []string{"Old"}}))

	view, err := svc.Scores(context.Background(), 7, 0, true)
	require.NoError(t, err)
	require.False(t, view.Stale)
	require.Equal(t, []string{"Quiz 1", "Quiz 2"}, view.Matrix.Quizzes)

	var cached models.QuizScoreMatrix
	_, ok := cache.Load(context.Background(), store.KeyQuizScores(7), &cached)
	require.True(t, ok)
	require.Equal(t, []string{"Quiz 1", "Quiz 2"}, cached.Quizzes)
}
