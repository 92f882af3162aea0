package scrape

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/observability"
	"github.com/noah-isme/paatshala-go-api/internal/parser"
)

// FetchGradingTable reads an assignment's grading page: one row per student
// plus the table-level max grade and submission kind. Group zero means no
// group filter.
func (s *Scraper) FetchGradingTable(ctx context.Context, moduleID, groupID int) (parser.GradingTable, error) {
	ctx, span := s.tracer.Start(ctx, "scrape.grading_table")
	defer span.End()
	span.SetAttributes(attribute.Int("module.id", moduleID), attribute.Int("group.id", groupID))

	client, err := s.session.Client(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_unavailable")
		return parser.GradingTable{}, err
	}

	url := fmt.Sprintf("%s/mod/assign/view.php?id=%d&action=grading", s.baseURL(), moduleID)
	if groupID > 0 {
		url += fmt.Sprintf("&group=%d", groupID)
	}
	body, err := s.fetchPage(ctx, client, url, "grading", true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading_unreachable")
		return parser.GradingTable{}, err
	}

	table, err := parser.ParseGradingTable(body, s.baseURL())
	if err != nil {
		observability.ParseFailures().WithLabelValues("grading").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading_unparseable")
		return parser.GradingTable{}, err
	}

	span.SetAttributes(attribute.Int("rows.count", len(table.Rows)))
	return table, nil
}

// FetchGroups reads the group filter offered on one module's grading or
// report page. Quiz modules expose it on the overview report, assignments
// on the grading view.
func (s *Scraper) FetchGroups(ctx context.Context, moduleID int, isQuiz bool) ([]models.Group, error) {
	ctx, span := s.tracer.Start(ctx, "scrape.groups")
	defer span.End()
	span.SetAttributes(attribute.Int("module.id", moduleID))

	url := fmt.Sprintf("%s/mod/assign/view.php?id=%d&action=grading", s.baseURL(), moduleID)
	if isQuiz {
		url = fmt.Sprintf("%s/mod/quiz/report.php?id=%d&mode=overview", s.baseURL(), moduleID)
	}
	return s.groupsFrom(ctx, span, url)
}

// FetchCourseGroups reads the group filter from the course participants
// page, the course-wide selector the restriction screens use.
func (s *Scraper) FetchCourseGroups(ctx context.Context, courseID int) ([]models.Group, error) {
	ctx, span := s.tracer.Start(ctx, "scrape.course_groups")
	defer span.End()
	span.SetAttributes(attribute.Int("course.id", courseID))

	url := fmt.Sprintf("%s/user/index.php?id=%d", s.baseURL(), courseID)
	return s.groupsFrom(ctx, span, url)
}

func (s *Scraper) groupsFrom(ctx context.Context, span trace.Span, url string) ([]models.Group, error) {
	client, err := s.session.Client(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_unavailable")
		return nil, err
	}

	body, err := s.fetchPage(ctx, client, url, "groups", true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "groups_unreachable")
		return nil, err
	}

	groups, err := parser.ParseGroups(body)
	if err != nil {
		observability.ParseFailures().WithLabelValues("groups").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "groups_unparseable")
		return nil, err
	}

	span.SetAttributes(attribute.Int("groups.count", len(groups)))
	return groups, nil
}
