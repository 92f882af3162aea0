package models

import "time"

// RubricCriterion is one weighted grading criterion of an AI rubric.
type RubricCriterion struct {
	Criterion     string `json:"criterion"`
	Description   string `json:"description"`
	WeightPercent int    `json:"weight_percent"`
}

// Rubric is an ordered criterion list. Weights sum to exactly 100 after
// normalization.
type Rubric []RubricCriterion

// TotalWeight sums the criterion weights.
func (r Rubric) TotalWeight() int {
	total := 0
	for _, c := range r {
		total += c.WeightPercent
	}
	return total
}

// RubricDocument is the persisted form of a rubric, scoped to a module and
// optionally a group.
type RubricDocument struct {
	ModuleID    int       `json:"module_id"`
	GroupID     int       `json:"group_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Criteria    Rubric    `json:"criteria"`
}

// CriterionScore is the per-criterion verdict of one scored submission.
type CriterionScore struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
	Comment   string  `json:"comment"`
}

// Evaluation is one scored submission. Total is the sum of criterion scores.
type Evaluation struct {
	StudentName     string           `json:"student_name"`
	ModuleID        int              `json:"module_id"`
	GroupID         int              `json:"group_id,omitempty"`
	EvaluatedAt     time.Time        `json:"evaluated_at"`
	CriteriaScores  []CriterionScore `json:"criteria_scores"`
	OverallComments string           `json:"overall_comments"`
	Total           float64          `json:"total"`
}

// SumScores recomputes the evaluation total from its criterion scores.
func (e Evaluation) SumScores() float64 {
	total := 0.0
	for _, s := range e.CriteriaScores {
		total += s.Score
	}
	return total
}
