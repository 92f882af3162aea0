package scrape

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/observability"
	"github.com/noah-isme/paatshala-go-api/internal/parser"
)

// FetchTopics reads a course's section tree. When the plain page leaves
// section database ids unresolved, the page is fetched once more with edit
// mode forced on and the ids are merged in; a failed edit fetch degrades to
// the plain tree rather than erroring.
func (s *Scraper) FetchTopics(ctx context.Context, courseID int) ([]models.Topic, error) {
	ctx, span := s.tracer.Start(ctx, "scrape.topics")
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

	topics, needsEdit, err := parser.ParseTopics(page, s.baseURL())
	if err != nil {
		observability.ParseFailures().WithLabelValues("topics").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_unparseable")
		return nil, err
	}

	if needsEdit {
		editURL := s.coursePageURL(courseID) + "&edit=on"
		if sesskey := parser.ParseSesskey(page); sesskey != "" {
			editURL += "&sesskey=" + sesskey
		}
		edited, err := s.fetchPage(ctx, client, editURL, "course_edit", false)
		if err != nil {
			s.logger.Warn().Err(err).Int("course_id", courseID).Msg("edit-mode fetch failed, section ids stay unresolved")
		} else if editedTopics, _, err := parser.ParseTopics(edited, s.baseURL()); err != nil {
			observability.ParseFailures().WithLabelValues("topics").Inc()
			s.logger.Warn().Err(err).Int("course_id", courseID).Msg("edit-mode page unparseable, section ids stay unresolved")
		} else {
			topics = parser.MergeSectionIDs(topics, editedTopics)
		}
	}

	span.SetAttributes(attribute.Int("topics.count", len(topics)))
	return topics, nil
}

// FetchGradeItems lists the gradebook items and completion-capable
// activities of a course, the two target vocabularies of grade and
// completion restrictions. Pass the already-fetched topic tree to avoid a
// second course-page round trip; nil fetches it.
func (s *Scraper) FetchGradeItems(ctx context.Context, courseID int, topics []models.Topic) ([]models.GradeItem, []models.CompletionItem, error) {
	ctx, span := s.tracer.Start(ctx, "scrape.grade_items")
	defer span.End()
	span.SetAttributes(attribute.Int("course.id", courseID))

	if topics == nil {
		var err error
		topics, err = s.FetchTopics(ctx, courseID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "topics_unavailable")
			return nil, nil, err
		}
	}

	client, err := s.session.Client(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_unavailable")
		return nil, nil, err
	}

	url := fmt.Sprintf("%s/grade/edit/tree/index.php?id=%d", s.baseURL(), courseID)
	page, err := s.fetchPage(ctx, client, url, "gradebook", true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gradebook_unreachable")
		return nil, nil, err
	}

	items, err := parser.ParseGradeItems(page)
	if err != nil {
		observability.ParseFailures().WithLabelValues("gradebook").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "gradebook_unparseable")
		return nil, nil, err
	}

	completions := completionItems(topics)
	span.SetAttributes(
		attribute.Int("grade_items.count", len(items)),
		attribute.Int("completion_items.count", len(completions)),
	)
	return items, completions, nil
}

// completionItems flattens a topic tree into the activities that can carry
// a completion condition. Labels have no completion state and are skipped.
func completionItems(topics []models.Topic) []models.CompletionItem {
	var items []models.CompletionItem
	for _, topic := range topics {
		for _, act := range topic.Activities {
			if act.ModuleID <= 0 || act.Type == models.ActivityLabel {
				continue
			}
			items = append(items, models.CompletionItem{ModuleID: act.ModuleID, Name: act.Name})
		}
	}
	return items
}
