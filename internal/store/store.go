// Package store owns every locally persisted artifact: the credentials
// file, the last-session state, the advisory JSON cache with its optional
// redis hot tier, and the per-course CSV snapshots. Cached values are
// advisory only; a live fetch is always ground truth and replaces whole
// values, never merges fields.
package store

import "fmt"

// Standard cache keys. Course-scoped keys embed the course id so refreshes
// for different courses never collide.
const (
	KeyCourses = "courses"
)

// KeyTopics names the cached topic tree of one course.
func KeyTopics(courseID int) string {
	return fmt.Sprintf("course_%d_topics", courseID)
}

// KeyGroups names the cached group list of one course.
func KeyGroups(courseID int) string {
	return fmt.Sprintf("course_%d_groups", courseID)
}

// KeyGradeItems names the cached gradebook items of one course.
func KeyGradeItems(courseID int) string {
	return fmt.Sprintf("course_%d_grade_items", courseID)
}

// KeyQuizScores names the cached practice-quiz matrix of one course.
func KeyQuizScores(courseID int) string {
	return fmt.Sprintf("course_%d_quiz_scores", courseID)
}

// KeyTasks names the cached assignment listing of one course.
func KeyTasks(courseID int) string {
	return fmt.Sprintf("course_%d_tasks", courseID)
}

// KeyLinkStatus names the cached link-check results of one course.
func KeyLinkStatus(courseID int) string {
	return fmt.Sprintf("course_%d_link_status", courseID)
}
