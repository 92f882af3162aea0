package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

// Fixed cell positions in the grading table. Rows with fewer cells are
// layout artifacts and are skipped.
const (
	gradingCellName       = 2
	gradingCellEmail      = 3
	gradingCellStatus     = 4
	gradingCellModified   = 7
	gradingCellSubmission = 8
	gradingCellFeedback   = 11
	gradingCellFinalGrade = 13
	gradingMinCells       = 14
)

// GradingTable is the parsed per-student view of an assignment's grading
// page, plus the table-level facts read from its header row.
type GradingTable struct {
	Rows     []models.SubmissionRow
	MaxGrade string
	Kind     models.SubmissionType
}

// ParseGradingTable extracts student rows from an assignment grading page.
// The grade column is discovered from the header row; every other column
// sits at a fixed position.
func ParseGradingTable(html, baseURL string) (GradingTable, error) {
	doc, err := Document(html)
	if err != nil {
		return GradingTable{}, fmt.Errorf("parse grading page: %w", err)
	}

	table := doc.Find("table.flexible.generaltable.generalbox").First()
	if table.Length() == 0 {
		return GradingTable{}, fmt.Errorf("grading table not found")
	}

	result := GradingTable{Kind: models.SubmissionLink}
	gradeCol := -1
	table.Find("thead th, thead td").Each(func(i int, th *goquery.Selection) {
		header := strings.ToLower(text(th))
		if strings.Contains(header, "file submissions") {
			result.Kind = models.SubmissionFileUpload
		}
		if strings.HasPrefix(header, "grade") && !strings.Contains(header, "final") {
			if gradeCol == -1 {
				gradeCol = i
				desc, _ := th.Find("[data-gradedesc]").Attr("data-gradedesc")
				result.MaxGrade = maxGradeFromHeader(th.Text(), desc)
			}
		}
	})

	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		if hasClassToken(row, "emptyrow") {
			return
		}
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() < gradingMinCells {
			return
		}

		sub := models.SubmissionRow{
			Student:      cellName(cells.Eq(gradingCellName)),
			Email:        text(cells.Eq(gradingCellEmail)),
			Status:       cellStatus(cells.Eq(gradingCellStatus)),
			LastModified: text(cells.Eq(gradingCellModified)),
			Feedback:     text(cells.Eq(gradingCellFeedback)),
			FinalGrade:   text(cells.Eq(gradingCellFinalGrade)),
		}
		sub.Submission, sub.Files = cellSubmission(cells.Eq(gradingCellSubmission), baseURL)
		sub.Type = models.ClassifySubmission(sub.Submission, sub.Files)
		if gradeCol >= 0 && gradeCol < cells.Length() {
			sub.Grade = CleanGradeValue(cells.Eq(gradeCol).Text())
		}
		if sub.Student == "" {
			return
		}
		result.Rows = append(result.Rows, sub)
	})

	return result, nil
}

// cellName prefers the profile link text so icons and hidden labels in the
// cell do not leak into the student name.
func cellName(cell *goquery.Selection) string {
	if a := cell.Find("a").First(); a.Length() > 0 {
		if name := text(a); name != "" {
			return name
		}
	}
	return text(cell)
}

// cellStatus joins the status badges ("Submitted for grading", "Graded")
// that Moodle stacks as sibling divs.
func cellStatus(cell *goquery.Selection) string {
	var parts []string
	cell.Find("div").Each(func(_ int, div *goquery.Selection) {
		if div.Children().Is("div") {
			return
		}
		if t := text(div); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return text(cell)
	}
	return strings.Join(parts, " | ")
}

// cellSubmission reads the submission cell three ways: uploaded files from
// the file-upload plugin region, online text from the no-overflow wrapper,
// or the raw cell text.
func cellSubmission(cell *goquery.Selection, baseURL string) (string, []models.SubmissionFile) {
	var files []models.SubmissionFile
	cell.Find("div.fileuploadsubmission a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, "pluginfile.php") {
			return
		}
		files = append(files, models.SubmissionFile{
			Name: text(a),
			URL:  absoluteURL(baseURL, href),
		})
	})
	if len(files) > 0 {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name)
		}
		return strings.Join(names, ", "), files
	}
	if overflow := cell.Find("div.no-overflow").First(); overflow.Length() > 0 {
		return text(overflow), nil
	}
	return text(cell), nil
}
