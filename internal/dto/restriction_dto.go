package dto

import (
	"time"

	"github.com/noah-isme/paatshala-go-api/internal/mutate"
)

// RestrictionPatchRequest is the wire form of a per-category restriction
// change set. An absent category keeps its existing conditions; a category
// with clear set removes them; anything else replaces them.
type RestrictionPatchRequest struct {
	Groups        *GroupsPatchRequest     `json:"groups"`
	Date          *DatePatchRequest       `json:"date"`
	Grade         *GradePatchRequest      `json:"grade"`
	Completion    *CompletionPatchRequest `json:"completion"`
	Op            string                  `json:"op" validate:"omitempty,oneof=& 0x7C"`
	HideWhenUnmet *bool                   `json:"hide_when_unmet"`
}

// GroupsPatchRequest replaces the group conditions, one per id. An empty
// list removes every group condition.
type GroupsPatchRequest struct {
	GroupIDs []int `json:"group_ids" validate:"dive,min=1"`
}

// DatePatchRequest replaces or clears the date condition. Direction ">="
// means available from At, "<" available until.
type DatePatchRequest struct {
	Clear     bool      `json:"clear"`
	Direction string    `json:"direction" validate:"omitempty,oneof=>= <"`
	At        time.Time `json:"at"`
}

// GradePatchRequest replaces or clears the grade condition.
type GradePatchRequest struct {
	Clear  bool     `json:"clear"`
	ItemID int      `json:"item_id" validate:"omitempty,min=1"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

// CompletionPatchRequest replaces or clears the completion condition.
// Expect 1 requires the module complete, 0 requires it incomplete.
type CompletionPatchRequest struct {
	Clear    bool `json:"clear"`
	ModuleID int  `json:"module_id" validate:"omitempty,min=1"`
	Expect   int  `json:"expect" validate:"min=0,max=1"`
}

// ToPatch converts the wire form into the mutation-layer change set.
func (r RestrictionPatchRequest) ToPatch() mutate.RestrictionPatch {
	patch := mutate.RestrictionPatch{
		Op:            r.Op,
		HideWhenUnmet: r.HideWhenUnmet,
	}
	if r.Groups != nil {
		patch.Groups = &mutate.GroupsPatch{GroupIDs: r.Groups.GroupIDs}
	}
	if r.Date != nil {
		patch.Date = &mutate.DatePatch{
			Clear:     r.Date.Clear,
			Direction: r.Date.Direction,
			At:        r.Date.At,
		}
	}
	if r.Grade != nil {
		patch.Grade = &mutate.GradePatch{
			Clear:  r.Grade.Clear,
			ItemID: r.Grade.ItemID,
			Min:    r.Grade.Min,
			Max:    r.Grade.Max,
		}
	}
	if r.Completion != nil {
		patch.Completion = &mutate.CompletionPatch{
			Clear:    r.Completion.Clear,
			ModuleID: r.Completion.ModuleID,
			Expect:   r.Completion.Expect,
		}
	}
	return patch
}

// RestrictionUpdateRequest patches a single section's access restrictions.
// CourseID scopes the session key used for the write.
type RestrictionUpdateRequest struct {
	CourseID int `json:"course_id" validate:"required,min=1"`
	RestrictionPatchRequest
}

// BatchRestrictionsRequest applies one patch to many sections of a course.
type BatchRestrictionsRequest struct {
	SectionIDs []int                   `json:"section_ids" validate:"required,min=1,dive,min=1"`
	Patch      RestrictionPatchRequest `json:"patch"`
}
