package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

var commentsCountPattern = regexp.MustCompile(`(?i)Comments\s*\((\d+)\)`)

// assignmentLabels maps the label substrings of the grading-summary and
// submission-status tables onto detail fields. Both table families resolve
// through one first-occurrence-wins scan.
var assignmentLabels = map[string]string{
	"participants":        "participants",
	"drafts":              "drafts",
	"submitted":           "submitted",
	"needs grading":       "needs_grading",
	"due date":            "due_date",
	"time remaining":      "time_remaining",
	"late submissions":    "late_submissions",
	"submission status":   "submission_status",
	"grading status":      "grading_status",
	"last modified":       "last_modified",
	"submission comments": "comments",
	"maximum grade":       "max_grade",
	"max grade":           "max_grade",
}

// ParseAssignmentDetail extracts the label/value fields and description of
// one assignment view page. Absent labels yield empty fields.
func ParseAssignmentDetail(html string) (models.AssignmentDetail, error) {
	doc, err := Document(html)
	if err != nil {
		return models.AssignmentDetail{}, fmt.Errorf("parse assignment page: %w", err)
	}

	fields := LabelValueTable(doc, assignmentLabels)

	detail := models.AssignmentDetail{
		Participants:     fields["participants"],
		Drafts:           fields["drafts"],
		Submitted:        fields["submitted"],
		NeedsGrading:     fields["needs_grading"],
		DueDate:          fields["due_date"],
		TimeRemaining:    fields["time_remaining"],
		LateSubmissions:  fields["late_submissions"],
		SubmissionStatus: fields["submission_status"],
		GradingStatus:    fields["grading_status"],
		LastModified:     fields["last_modified"],
		Comments:         fields["comments"],
		MaxGrade:         fields["max_grade"],
		Description:      parseDescription(doc),
	}

	if count := commentsCount(doc); count != "" {
		detail.Comments = count
	}

	return detail, nil
}

// commentsCount pulls the numeric count from the first "Comments (n)"
// anchor, if any.
func commentsCount(doc *goquery.Document) string {
	count := ""
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if m := commentsCountPattern.FindStringSubmatch(a.Text()); m != nil {
			count = m[1]
			return false
		}
		return true
	})
	return count
}

// parseDescription renders the assignment intro block as plain text: ordered
// lists become "1. item" lines, unordered lists "• item" lines, paragraphs
// their own text, all joined by newlines.
func parseDescription(doc *goquery.Document) string {
	intro := doc.Find("div#intro").First()
	if intro.Length() == 0 {
		return ""
	}
	if inner := intro.Find("div.no-overflow").First(); inner.Length() > 0 {
		intro = inner
	}

	var lines []string
	intro.Children().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "ol":
			child.Find("li").Each(func(i int, item *goquery.Selection) {
				if t := text(item); t != "" {
					lines = append(lines, fmt.Sprintf("%d. %s", i+1, t))
				}
			})
		case "ul":
			child.Find("li").Each(func(_ int, item *goquery.Selection) {
				if t := text(item); t != "" {
					lines = append(lines, "• "+t)
				}
			})
		default:
			if t := text(child); t != "" {
				lines = append(lines, t)
			}
		}
	})

	if len(lines) == 0 {
		if t := text(intro); t != "" {
			return t
		}
	}

	return strings.Join(lines, "\n")
}
