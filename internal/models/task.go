package models

// AssignmentDetail holds the label/value fields scraped from one assignment
// view page. Every field is kept as the raw page string; absent labels are
// empty strings, never errors.
type AssignmentDetail struct {
	Participants     string `json:"participants"`
	Drafts           string `json:"drafts"`
	Submitted        string `json:"submitted"`
	NeedsGrading     string `json:"needs_grading"`
	DueDate          string `json:"due_date"`
	TimeRemaining    string `json:"time_remaining"`
	LateSubmissions  string `json:"late_submissions"`
	SubmissionStatus string `json:"submission_status"`
	GradingStatus    string `json:"grading_status"`
	LastModified     string `json:"last_modified"`
	Comments         string `json:"comments"`
	MaxGrade         string `json:"max_grade"`
	Description      string `json:"description"`
}

// TaskRow is one assignment row of the course task listing, the cheap link
// entry merged with its fetched detail page.
type TaskRow struct {
	Name          string `json:"name"`
	ModuleID      int    `json:"module_id"`
	DueDate       string `json:"due_date"`
	TimeRemaining string `json:"time_remaining"`
	MaxGrade      string `json:"max_grade"`
	Participants  string `json:"participants"`
	Submitted     string `json:"submitted"`
	NeedsGrading  string `json:"needs_grading"`
	URL           string `json:"url"`
}

// TaskLink is the cheap course-page entry for an assignment before its
// detail page has been fetched.
type TaskLink struct {
	Name     string `json:"name"`
	ModuleID int    `json:"module_id"`
	URL      string `json:"url"`
}

// Row merges a task link with its scraped detail into a listing row.
func (l TaskLink) Row(detail AssignmentDetail) TaskRow {
	return TaskRow{
		Name:          l.Name,
		ModuleID:      l.ModuleID,
		DueDate:       detail.DueDate,
		TimeRemaining: detail.TimeRemaining,
		MaxGrade:      detail.MaxGrade,
		Participants:  detail.Participants,
		Submitted:     detail.Submitted,
		NeedsGrading:  detail.NeedsGrading,
		URL:           l.URL,
	}
}
