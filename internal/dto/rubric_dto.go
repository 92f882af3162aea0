package dto

import (
	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/service"
)

// RubricGenerateRequest asks the model collaborator for a fresh rubric.
// TaskDescription is optional; when blank the assignment page supplies it.
type RubricGenerateRequest struct {
	CourseID        int    `json:"course_id" validate:"required,min=1"`
	ModuleID        int    `json:"module_id" validate:"required,min=1"`
	GroupID         int    `json:"group_id" validate:"omitempty,min=1"`
	TaskDescription string `json:"task_description" validate:"omitempty,max=8000"`
}

// RubricRefineRequest rewrites a saved rubric under an instruction.
type RubricRefineRequest struct {
	CourseID    int    `json:"course_id" validate:"required,min=1"`
	ModuleID    int    `json:"module_id" validate:"required,min=1"`
	GroupID     int    `json:"group_id" validate:"omitempty,min=1"`
	Instruction string `json:"instruction" validate:"required,min=1,max=2000"`
}

// RubricQuery addresses one persisted rubric or evaluation set.
type RubricQuery struct {
	CourseID int `query:"course_id" validate:"required,min=1"`
	ModuleID int `query:"module_id" validate:"required,min=1"`
	GroupID  int `query:"group_id" validate:"omitempty,min=1"`
}

// SubmissionPayload is the typed content of one student submission.
// FilePaths point at previously downloaded files under the output tree.
type SubmissionPayload struct {
	Type      string   `json:"type" validate:"required,oneof=file link text empty"`
	Text      string   `json:"text" validate:"omitempty,max=100000"`
	FilePaths []string `json:"file_paths" validate:"omitempty,dive,min=1"`
}

// ToContent converts the payload into the service submission form.
func (p SubmissionPayload) ToContent() service.SubmissionContent {
	return service.SubmissionContent{
		Type:      models.SubmissionType(p.Type),
		Text:      p.Text,
		FilePaths: p.FilePaths,
	}
}

// ScoreRequest scores one student's submission against the saved rubric.
type ScoreRequest struct {
	CourseID        int               `json:"course_id" validate:"required,min=1"`
	ModuleID        int               `json:"module_id" validate:"required,min=1"`
	GroupID         int               `json:"group_id" validate:"omitempty,min=1"`
	Student         string            `json:"student" validate:"required,min=1,max=255"`
	TaskDescription string            `json:"task_description" validate:"omitempty,max=8000"`
	Submission      SubmissionPayload `json:"submission" validate:"required"`
}
