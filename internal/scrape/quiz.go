package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/observability"
	"github.com/noah-isme/paatshala-go-api/internal/parser"
)

const practiceQuizMarker = "practice quiz"

// FetchQuizScores assembles the per-student best scores across a course's
// practice quizzes. The course page supplies the quiz list, filtered to
// names carrying the practice marker; overview reports are fetched through
// the worker pool and a failed report leaves its column empty rather than
// sinking the batch. Group zero means no group filter.
func (s *Scraper) FetchQuizScores(ctx context.Context, courseID, groupID int) (models.QuizScoreMatrix, error) {
	ctx, span := s.tracer.Start(ctx, "scrape.quiz_scores")
	defer span.End()
	span.SetAttributes(attribute.Int("course.id", courseID), attribute.Int("group.id", groupID))

	matrix := models.QuizScoreMatrix{Rows: make(map[string]map[string]float64)}

	client, err := s.session.Client(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_unavailable")
		return matrix, err
	}

	page, err := s.fetchPage(ctx, client, s.coursePageURL(courseID), "course", true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_unreachable")
		return matrix, err
	}

	all, err := parser.ParseQuizList(page, s.baseURL())
	if err != nil {
		observability.ParseFailures().WithLabelValues("course").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_unparseable")
		return matrix, err
	}

	var quizzes []models.Quiz
	for _, quiz := range all {
		if strings.Contains(strings.ToLower(quiz.Name), practiceQuizMarker) {
			quizzes = append(quizzes, quiz)
		}
	}

	reports := make([][]models.QuizAttempt, len(quizzes))
	s.runOrdered(ctx, len(quizzes), func(ctx context.Context, client *http.Client, i int) error {
		url := fmt.Sprintf("%s/mod/quiz/report.php?id=%d&mode=overview", s.baseURL(), quizzes[i].ModuleID)
		if groupID > 0 {
			url += fmt.Sprintf("&group=%d", groupID)
		}
		body, err := s.fetchPage(ctx, client, url, "quiz_report", true)
		if err != nil {
			s.logger.Warn().Err(err).Int("module_id", quizzes[i].ModuleID).Msg("quiz report unavailable, leaving column empty")
			return nil
		}
		attempts, err := parser.ParseQuizReport(body)
		if err != nil {
			observability.ParseFailures().WithLabelValues("quiz_report").Inc()
			s.logger.Warn().Err(err).Int("module_id", quizzes[i].ModuleID).Msg("quiz report unparseable, leaving column empty")
			return nil
		}
		reports[i] = attempts
		return nil
	})
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return matrix, err
	}

	for i, quiz := range quizzes {
		matrix.Quizzes = append(matrix.Quizzes, quiz.Name)
		for _, attempt := range reports[i] {
			row, ok := matrix.Rows[attempt.Student]
			if !ok {
				row = make(map[string]float64)
				matrix.Rows[attempt.Student] = row
			}
			row[quiz.Name] = attempt.Score
		}
	}

	span.SetAttributes(
		attribute.Int("quizzes.count", len(matrix.Quizzes)),
		attribute.Int("students.count", len(matrix.Rows)),
	)
	return matrix, nil
}
