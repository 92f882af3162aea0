package dto

import (
	"github.com/noah-isme/paatshala-go-api/internal/service"
)

// TopicAddRequest appends new sections to a course. Name and Position are
// optional; when set, the fresh sections are renamed and moved into place.
type TopicAddRequest struct {
	Count    int    `json:"count" validate:"required,min=1,max=20"`
	Name     string `json:"name" validate:"omitempty,max=255"`
	Position int    `json:"position" validate:"omitempty,min=1"`
}

// TopicMoveRequest reorders one section by its ordinal position.
type TopicMoveRequest struct {
	From int `json:"from" validate:"required,min=1"`
	To   int `json:"to" validate:"required,min=1"`
}

// RenameRequest renames a section or an activity.
type RenameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// VisibilityRequest shows or hides a section or an activity. The pointer
// keeps an explicit false distinguishable from an absent field.
type VisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

// DeleteTopicsRequest removes sections by their persistent DB ids.
type DeleteTopicsRequest struct {
	SectionIDs []int `json:"section_ids" validate:"required,min=1,dive,min=1"`
}

// ActivityMoveRequest relocates an activity into a section, optionally in
// front of a sibling module. SectionID is the persistent DB id, not the
// ordinal.
type ActivityMoveRequest struct {
	SectionID      int `json:"section_id" validate:"required,min=1"`
	BeforeModuleID int `json:"before_module_id" validate:"omitempty,min=1"`
}

// DeleteActivitiesRequest removes activities by module id.
type DeleteActivitiesRequest struct {
	ModuleIDs []int `json:"module_ids" validate:"required,min=1,dive,min=1"`
}

// MutationResponse is the wire form of one mutation outcome. A rejected
// change still answers 200; Applied false plus Reason tells the instructor
// what the LMS said.
type MutationResponse struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

// NewMutationResponse converts a mutation result into its wire form.
func NewMutationResponse(result service.MutationResult) MutationResponse {
	return MutationResponse{
		Applied: result.Applied,
		Reason:  result.Reason,
	}
}

// BatchResponse counts the per-item outcomes of a batch mutation.
type BatchResponse struct {
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
}

// NewBatchResponse converts a batch result into its wire form.
func NewBatchResponse(result service.BatchResult) BatchResponse {
	return BatchResponse{
		Applied: result.Applied,
		Failed:  result.Failed,
	}
}
