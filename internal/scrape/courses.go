package scrape

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/parser"
)

// FetchCourses lists the instructor's courses. The AJAX course services are
// asked first (enrolled plus recently accessed, merged first-wins); when
// both are rejected the dashboard markup itself is parsed. Starred courses
// sort ahead of the rest, alphabetical within each half.
func (s *Scraper) FetchCourses(ctx context.Context) ([]models.Course, error) {
	ctx, span := s.tracer.Start(ctx, "scrape.courses")
	defer span.End()

	client, err := s.session.Client(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_unavailable")
		return nil, err
	}

	dashboard, err := s.fetchPage(ctx, client, s.baseURL()+"/my/", "dashboard", true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dashboard_unreachable")
		return nil, err
	}

	var courses []models.Course
	if sesskey := parser.ParseSesskey(dashboard); sesskey != "" {
		courses = s.coursesFromService(ctx, client, sesskey)
	}
	if len(courses) == 0 {
		courses, err = parser.ParseCourseLinks(dashboard, s.baseURL())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dashboard_unparseable")
			return nil, err
		}
	}

	sort.SliceStable(courses, func(i, j int) bool {
		if courses[i].Starred != courses[j].Starred {
			return courses[i].Starred
		}
		return strings.ToLower(courses[i].FullName) < strings.ToLower(courses[j].FullName)
	})

	span.SetAttributes(attribute.Int("courses.count", len(courses)))
	return courses, nil
}

// coursesFromService merges the two course-list service methods. The
// enrolled list is authoritative; recent courses only add entries the
// enrolled list missed. Service failures degrade to whatever the other
// call produced.
func (s *Scraper) coursesFromService(ctx context.Context, client *http.Client, sesskey string) []models.Course {
	var merged []models.Course
	seen := make(map[int]struct{})

	add := func(courses []models.Course) {
		for _, c := range courses {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			merged = append(merged, c)
		}
	}

	enrolledArgs := map[string]any{
		"offset":           0,
		"limit":            0,
		"classification":   "all",
		"sort":             "fullname",
		"customfieldname":  "",
		"customfieldvalue": "",
	}
	if body, err := s.serviceCall(ctx, client, sesskey, "core_course_get_enrolled_courses_by_timeline_classification", enrolledArgs); err != nil {
		s.logger.Debug().Err(err).Msg("enrolled-courses service call failed")
	} else if courses, err := parser.ParseEnrolledCourses(body); err != nil {
		s.logger.Debug().Err(err).Msg("enrolled-courses response unparseable")
	} else {
		add(courses)
	}

	recentArgs := map[string]any{
		"userid": 0,
		"limit":  0,
		"offset": 0,
		"sort":   "fullname",
	}
	if body, err := s.serviceCall(ctx, client, sesskey, "core_course_get_recent_courses", recentArgs); err != nil {
		s.logger.Debug().Err(err).Msg("recent-courses service call failed")
	} else if courses, err := parser.ParseRecentCourses(body); err != nil {
		s.logger.Debug().Err(err).Msg("recent-courses response unparseable")
	} else {
		add(courses)
	}

	return merged
}
