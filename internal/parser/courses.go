package parser

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

// ParseCourseLinks recovers the enrolled course list from dashboard markup,
// the fallback for when the course-list AJAX call is rejected. Courses keep
// first-seen order and duplicates collapse onto the first link.
func ParseCourseLinks(html, baseURL string) ([]models.Course, error) {
	doc, err := Document(html)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard: %w", err)
	}

	seen := make(map[int]struct{})
	var courses []models.Course
	doc.Find(`a[href*="course/view.php"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id := courseIDFromHref(href)
		if id == 0 {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		name := text(a)
		if name == "" {
			name = collapse(a.AttrOr("title", ""))
		}
		if name == "" {
			return
		}
		seen[id] = struct{}{}
		courses = append(courses, models.Course{ID: id, FullName: name})
	})
	return courses, nil
}

// ParseCourseTasks lists the assignment links of one course page in
// document order, deduplicated by module id.
func ParseCourseTasks(html, baseURL string) ([]models.TaskLink, error) {
	doc, err := Document(html)
	if err != nil {
		return nil, fmt.Errorf("parse course page: %w", err)
	}

	seen := make(map[int]struct{})
	var tasks []models.TaskLink
	doc.Find(`a[href*="mod/assign/view.php"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id := moduleIDFromHref(href)
		if id == 0 {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		tasks = append(tasks, models.TaskLink{
			Name:     instanceNameOf(a),
			ModuleID: id,
			URL:      absoluteURL(baseURL, href),
		})
	})
	return tasks, nil
}

// ParseQuizList lists every quiz link on a course page. Callers filter for
// the practice subset by name.
func ParseQuizList(html, baseURL string) ([]models.Quiz, error) {
	doc, err := Document(html)
	if err != nil {
		return nil, fmt.Errorf("parse course page: %w", err)
	}

	seen := make(map[int]struct{})
	var quizzes []models.Quiz
	doc.Find(`a[href*="mod/quiz/view.php"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id := moduleIDFromHref(href)
		if id == 0 {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		quizzes = append(quizzes, models.Quiz{
			ModuleID: id,
			Name:     instanceNameOf(a),
			URL:      absoluteURL(baseURL, href),
		})
	})
	return quizzes, nil
}

// instanceNameOf returns the activity name behind a module link, stripped of
// the screen-reader type suffix. Index-page links carry plain text instead
// of an instancename span.
func instanceNameOf(a *goquery.Selection) string {
	if instance := a.Find("span.instancename").First(); instance.Length() > 0 {
		full := text(instance)
		if hide := text(instance.Find("span.accesshide")); hide != "" && strings.HasSuffix(full, hide) {
			full = collapse(strings.TrimSuffix(full, hide))
		}
		return full
	}
	return text(a)
}

// courseIDFromHref extracts the course id from a course/view.php link.
func courseIDFromHref(href string) int {
	parsed, err := url.Parse(href)
	if err != nil {
		return 0
	}
	id, err := strconv.Atoi(parsed.Query().Get("id"))
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
