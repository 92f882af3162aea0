package models

import "strings"

// SubmissionType discriminates the payload shape of a grading-table row.
type SubmissionType string

const (
	SubmissionFileUpload SubmissionType = "file"
	SubmissionLink       SubmissionType = "link"
	SubmissionText       SubmissionType = "text"
	SubmissionEmpty      SubmissionType = "empty"
)

// SubmissionFile is one uploaded file attached to a submission.
type SubmissionFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SubmissionRow is one student row of an assignment grading table. Grade is
// the raw "x / y" string from the grade-bearing column; FinalGrade the
// aggregated final-grade cell. Both are parsed on demand, never eagerly.
type SubmissionRow struct {
	Student      string           `json:"student"`
	Email        string           `json:"email"`
	Status       string           `json:"status"`
	LastModified string           `json:"last_modified"`
	Submission   string           `json:"submission"`
	Type         SubmissionType   `json:"type"`
	Files        []SubmissionFile `json:"files,omitempty"`
	Grade        string           `json:"grade"`
	Feedback     string           `json:"feedback"`
	FinalGrade   string           `json:"final_grade"`
}

// ClassifySubmission derives the payload discriminator from the scraped
// submission cell: uploaded files win, then link-bearing text, then free
// text, then empty.
func ClassifySubmission(text string, files []SubmissionFile) SubmissionType {
	switch {
	case len(files) > 0:
		return SubmissionFileUpload
	case strings.Contains(strings.ToLower(text), "http"):
		return SubmissionLink
	case strings.TrimSpace(text) != "":
		return SubmissionText
	default:
		return SubmissionEmpty
	}
}

// LinkEvaluation is the reachability/visibility verdict for a link
// submission.
type LinkEvaluation struct {
	URL         string `json:"url"`
	Reachable   bool   `json:"reachable"`
	RepoStatus  string `json:"repo_status,omitempty"`
	IsFork      bool   `json:"is_fork,omitempty"`
	ForkParent  string `json:"fork_parent,omitempty"`
	LastChecked string `json:"last_checked"`
}
