package models

// Quiz is a practice quiz module as listed on the course page.
type Quiz struct {
	ModuleID int    `json:"module_id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
}

// QuizAttempt is a single student's best result within one quiz report.
type QuizAttempt struct {
	Student  string  `json:"student"`
	Score    float64 `json:"score"`
	Attempts int     `json:"attempts"`
}

// QuizScoreMatrix collects per-student best scores across the practice
// quizzes of one course. Quizzes holds the column order; a nil entry in a
// row's Scores means the student never attempted that quiz.
type QuizScoreMatrix struct {
	Quizzes []string                      `json:"quizzes"`
	Rows    map[string]map[string]float64 `json:"rows"`
}

// Students returns the row keys in no particular order.
func (m QuizScoreMatrix) Students() []string {
	students := make([]string, 0, len(m.Rows))
	for name := range m.Rows {
		students = append(students, name)
	}
	return students
}
