package models

// Course is one enrolled course as listed on the LMS dashboard.
type Course struct {
	ID       int    `json:"id"`
	FullName string `json:"fullname"`
	Category string `json:"category"`
	Starred  bool   `json:"starred"`
}

// Group is a course group offered by the grading and report pages.
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GradeItem is a gradebook entry usable as a grade restriction target.
type GradeItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CompletionItem is an activity usable as a completion restriction target.
type CompletionItem struct {
	ModuleID int    `json:"module_id"`
	Name     string `json:"name"`
}
