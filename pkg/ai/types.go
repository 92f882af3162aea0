package ai

import "context"

// Criterion is one weighted item of a grading rubric.
type Criterion struct {
	Criterion     string `json:"criterion"`
	Description   string `json:"description"`
	WeightPercent int    `json:"weight_percent"`
}

// Rubric is an ordered criterion list. After NormalizeWeights the weights
// sum to exactly 100.
type Rubric []Criterion

// CriterionScore is the model's verdict on one rubric criterion.
type CriterionScore struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
	Comment   string  `json:"comment"`
}

// Evaluation is one scored submission. Total is always recomputed as the
// sum of the criterion scores, never taken from the model.
type Evaluation struct {
	CriteriaScores  []CriterionScore `json:"criteria_scores"`
	OverallComments string           `json:"overall_comments"`
	Total           float64          `json:"total"`
}

// ScoreInput carries one submission to grade against a rubric.
type ScoreInput struct {
	Student         string
	TaskDescription string
	Content         string
	Rubric          Rubric
}

// Evaluator is a model collaborator able to draft grading rubrics and score
// submissions against them.
type Evaluator interface {
	GenerateRubric(ctx context.Context, taskDescription string) (Rubric, error)
	RefineRubric(ctx context.Context, rubric Rubric, instruction string) (Rubric, error)
	ScoreSubmission(ctx context.Context, input ScoreInput) (Evaluation, error)
}
