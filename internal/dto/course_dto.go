package dto

// RefreshResponse acknowledges a queued background refresh for a course.
type RefreshResponse struct {
	CourseID int    `json:"course_id"`
	JobID    string `json:"job_id"`
}
