package scrape

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/observability"
	"github.com/noah-isme/paatshala-go-api/internal/parser"
)

// FetchTasks lists a course's assignments with their detail fields. The
// course page supplies the links; detail pages are fetched through the
// worker pool. A failed detail page degrades to a bare row with empty
// fields, it never sinks the batch, and rows keep course-page order.
func (s *Scraper) FetchTasks(ctx context.Context, courseID int) ([]models.TaskRow, error) {
	ctx, span := s.tracer.Start(ctx, "scrape.tasks")
	defer span.End()
	span.SetAttributes(attribute.Int("course.id", courseID))

	client, err := s.session.Client(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_unavailable")
		return nil, err
	}

	page, err := s.fetchPage(ctx, client, s.coursePageURL(courseID), "course", true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_unreachable")
		return nil, err
	}

	links, err := parser.ParseCourseTasks(page, s.baseURL())
	if err != nil {
		observability.ParseFailures().WithLabelValues("course").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_unparseable")
		return nil, err
	}

	rows := make([]models.TaskRow, len(links))
	s.runOrdered(ctx, len(links), func(ctx context.Context, client *http.Client, i int) error {
		rows[i] = links[i].Row(s.assignmentDetail(ctx, client, links[i]))
		return nil
	})
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return nil, err
	}

	span.SetAttributes(attribute.Int("tasks.count", len(rows)))
	return rows, nil
}

// assignmentDetail fetches and parses one detail page, degrading to the
// zero detail on any failure.
func (s *Scraper) assignmentDetail(ctx context.Context, client *http.Client, link models.TaskLink) models.AssignmentDetail {
	body, err := s.fetchPage(ctx, client, link.URL, "assignment", true)
	if err != nil {
		s.logger.Warn().Err(err).Int("module_id", link.ModuleID).Msg("assignment detail unavailable, keeping bare row")
		return models.AssignmentDetail{}
	}
	detail, err := parser.ParseAssignmentDetail(body)
	if err != nil {
		observability.ParseFailures().WithLabelValues("assignment").Inc()
		s.logger.Warn().Err(err).Int("module_id", link.ModuleID).Msg("assignment detail unparseable, keeping bare row")
		return models.AssignmentDetail{}
	}
	return detail
}

// FetchAssignmentDetail fetches one assignment's detail page by module id.
func (s *Scraper) FetchAssignmentDetail(ctx context.Context, moduleID int) (models.AssignmentDetail, error) {
	ctx, span := s.tracer.Start(ctx, "scrape.assignment")
	defer span.End()
	span.SetAttributes(attribute.Int("module.id", moduleID))

	client, err := s.session.Client(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_unavailable")
		return models.AssignmentDetail{}, err
	}

	url := fmt.Sprintf("%s/mod/assign/view.php?id=%d", s.baseURL(), moduleID)
	body, err := s.fetchPage(ctx, client, url, "assignment", true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_unreachable")
		return models.AssignmentDetail{}, err
	}

	detail, err := parser.ParseAssignmentDetail(body)
	if err != nil {
		observability.ParseFailures().WithLabelValues("assignment").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_unparseable")
		return models.AssignmentDetail{}, err
	}
	return detail, nil
}
