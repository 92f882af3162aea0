package mutate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

// GetRestriction reads the access-restriction tree of a section by scraping
// its edit form. A section with no restrictions yields the canonical empty
// tree.
func (c *Client) GetRestriction(ctx context.Context, sectionDBID int) (models.Restriction, error) {
	restriction := models.EmptyRestriction()
	err := c.do(ctx, "get_restriction", func(ctx context.Context, client *http.Client) error {
		formURL := fmt.Sprintf("%s/course/editsection.php?id=%d&sr=0", c.baseURL(), sectionDBID)
		fields, _, err := c.fetchForm(ctx, client, formURL)
		if err != nil {
			return err
		}

		raw := fields.Get("availabilityconditionsjson")
		if raw == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(raw), &restriction); err != nil {
			return fmt.Errorf("%w: %s", ErrRejected, err)
		}
		return nil
	})
	return restriction, err
}

// UpdateRestriction replaces the access-restriction tree of a section. The
// edit form is scraped first so the unrelated section settings survive the
// post unchanged.
func (c *Client) UpdateRestriction(ctx context.Context, sectionDBID int, restriction models.Restriction) error {
	return c.do(ctx, "update_restriction", func(ctx context.Context, client *http.Client) error {
		formURL := fmt.Sprintf("%s/course/editsection.php?id=%d&sr=0", c.baseURL(), sectionDBID)
		fields, action, err := c.fetchForm(ctx, client, formURL)
		if err != nil {
			return err
		}

		encoded, err := json.Marshal(restriction)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrRejected, err)
		}
		fields.Set("availabilityconditionsjson", string(encoded))
		fields.Set("submitbutton", "Save changes")

		finalURL, status, err := c.postForm(ctx, client, action, fields)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("%w: section form answered %d", ErrRejected, status)
		}
		if urlContains(finalURL, "editsection.php") {
			return fmt.Errorf("%w: section form re-rendered", ErrRejected)
		}
		return nil
	})
}

// RestrictionPatch is a per-category change set for rebuilding a
// restriction tree. A nil category leaves its existing conditions
// untouched; a non-nil patch replaces every condition of that category, or
// removes the category when flagged clear (or, for groups, left empty).
// Nested sub-trees belong to no category and always survive.
type RestrictionPatch struct {
	Groups     *GroupsPatch
	Date       *DatePatch
	Grade      *GradePatch
	Completion *CompletionPatch

	// Op replaces the top-level operator when set ("&" or "|").
	Op string
	// HideWhenUnmet overwrites every per-condition show flag: true hides
	// unmet items outright, false greys them out. Nil keeps existing flags.
	HideWhenUnmet *bool
}

// GroupsPatch replaces the group conditions with one condition per id. An
// empty id list removes every group condition.
type GroupsPatch struct {
	GroupIDs []int
}

// DatePatch replaces or clears the date condition.
type DatePatch struct {
	Clear     bool
	Direction string // ">=" available from, "<" available until
	At        time.Time
}

// GradePatch replaces or clears the grade condition.
type GradePatch struct {
	Clear  bool
	ItemID int
	Min    *float64
	Max    *float64
}

// CompletionPatch replaces or clears the completion condition.
type CompletionPatch struct {
	Clear    bool
	ModuleID int
	Expect   int
}

// RebuildRestriction applies a patch to an existing tree: changed
// categories have their conditions dropped and re-inserted, untouched
// categories keep theirs verbatim. The show flags of new conditions follow
// HideWhenUnmet when given, and default to greyed-out display otherwise.
func RebuildRestriction(existing models.Restriction, patch RestrictionPatch) (models.Restriction, error) {
	out := existing
	if out.Op == "" {
		out.Op = "&"
	}

	showNew := true
	if patch.HideWhenUnmet != nil {
		showNew = !*patch.HideWhenUnmet
	}

	if patch.Groups != nil {
		out = out.WithoutKind(models.CondGroup)
		for _, id := range patch.Groups.GroupIDs {
			out.Append(models.GroupCondition{GroupID: id}, showNew)
		}
	}

	if patch.Date != nil {
		out = out.WithoutKind(models.CondDate)
		if !patch.Date.Clear {
			if patch.Date.Direction != ">=" && patch.Date.Direction != "<" {
				return models.Restriction{}, fmt.Errorf("invalid date direction %q", patch.Date.Direction)
			}
			out.Append(models.DateCondition{Direction: patch.Date.Direction, Unix: patch.Date.At.Unix()}, showNew)
		}
	}

	if patch.Grade != nil {
		out = out.WithoutKind(models.CondGrade)
		if !patch.Grade.Clear {
			if patch.Grade.ItemID <= 0 {
				return models.Restriction{}, fmt.Errorf("grade condition needs a grade item id")
			}
			out.Append(models.GradeCondition{ItemID: patch.Grade.ItemID, Min: patch.Grade.Min, Max: patch.Grade.Max}, showNew)
		}
	}

	if patch.Completion != nil {
		out = out.WithoutKind(models.CondCompletion)
		if !patch.Completion.Clear {
			if patch.Completion.ModuleID <= 0 {
				return models.Restriction{}, fmt.Errorf("completion condition needs a module id")
			}
			if patch.Completion.Expect != 0 && patch.Completion.Expect != 1 {
				return models.Restriction{}, fmt.Errorf("invalid completion expectation %d", patch.Completion.Expect)
			}
			out.Append(models.CompletionCondition{ModuleID: patch.Completion.ModuleID, Expect: patch.Completion.Expect}, showNew)
		}
	}

	if patch.Op != "" {
		if patch.Op != "&" && patch.Op != "|" {
			return models.Restriction{}, fmt.Errorf("invalid restriction operator %q", patch.Op)
		}
		out.Op = patch.Op
	}
	if patch.HideWhenUnmet != nil {
		out.SetShowAll(!*patch.HideWhenUnmet)
	}

	if out.Conditions == nil {
		out.Conditions = []models.Condition{}
	}
	if out.ShowWhenUnmet == nil {
		out.ShowWhenUnmet = []bool{}
	}
	return out, nil
}
