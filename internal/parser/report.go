package parser

import (
	"fmt"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

// ParseQuizReport reduces a quiz overview report to one attempt record per
// student, keeping each student's best score. Rows without a profile link
// or a numeric grade are attempt noise (averages, overall rows) and are
// skipped.
func ParseQuizReport(html string) ([]models.QuizAttempt, error) {
	doc, err := Document(html)
	if err != nil {
		return nil, fmt.Errorf("parse quiz report: %w", err)
	}

	table := doc.Find("table.generaltable").First()
	if table.Length() == 0 {
		return nil, nil
	}

	best := make(map[string]*models.QuizAttempt)
	var order []string
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 || hasClassToken(row, "emptyrow") {
			return
		}
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() < 9 {
			return
		}
		student := text(cells.Eq(2).Find(`a[href*="user/view.php"]`).First())
		if student == "" {
			return
		}
		m := scorePattern.FindString(cells.Eq(8).Text())
		if m == "" {
			return
		}
		score, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return
		}

		attempt, seen := best[student]
		if !seen {
			attempt = &models.QuizAttempt{Student: student}
			best[student] = attempt
			order = append(order, student)
		}
		attempt.Attempts++
		if attempt.Attempts == 1 || score > attempt.Score {
			attempt.Score = score
		}
	})

	attempts := make([]models.QuizAttempt, 0, len(best))
	for _, student := range order {
		attempts = append(attempts, *best[student])
	}
	return attempts, nil
}

// ParseGroups reads the group selector offered on grading and report pages.
// The "all participants" option with value 0 is kept so callers can offer
// it too.
func ParseGroups(html string) ([]models.Group, error) {
	doc, err := Document(html)
	if err != nil {
		return nil, fmt.Errorf("parse group selector: %w", err)
	}

	var groups []models.Group
	doc.Find(`select[name="group"] option`).Each(func(_ int, opt *goquery.Selection) {
		raw, ok := opt.Attr("value")
		if !ok || raw == "" {
			return
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return
		}
		name := text(opt)
		if name == "" {
			return
		}
		groups = append(groups, models.Group{ID: id, Name: name})
	})
	return groups, nil
}

// ParseGradeItems lists the gradebook entries of the course setup page,
// which restriction building uses as grade-condition targets. Course
// totals and category rows keep their ids too; filtering is a caller
// decision.
func ParseGradeItems(html string) ([]models.GradeItem, error) {
	doc, err := Document(html)
	if err != nil {
		return nil, fmt.Errorf("parse gradebook: %w", err)
	}

	seen := make(map[int]struct{})
	var items []models.GradeItem
	doc.Find("tr[data-itemid]").Each(func(_ int, row *goquery.Selection) {
		raw, _ := row.Attr("data-itemid")
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		name := text(row.Find("span.gradeitemheader").First())
		if name == "" {
			name = text(row.Find("th").First())
		}
		if name == "" {
			return
		}
		seen[id] = struct{}{}
		items = append(items, models.GradeItem{ID: id, Name: name})
	})
	return items, nil
}
