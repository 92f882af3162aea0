package mutate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Activity operations always key on the persistent module id. Move targets
// name the destination section by its database id, reorder targets name the
// module to land before.

// MoveActivityToSection moves one activity to the end of another section.
func (c *Client) MoveActivityToSection(ctx context.Context, sesskey string, courseID, moduleID, sectionDBID int) error {
	return c.do(ctx, "move_activity", func(ctx context.Context, client *http.Client) error {
		return c.moveModule(ctx, client, sesskey, courseID, moduleID, sectionDBID, 0)
	})
}

// ReorderActivity places one activity before another within a section.
// beforeModuleID zero means move to the end of the section.
func (c *Client) ReorderActivity(ctx context.Context, sesskey string, courseID, moduleID, sectionDBID, beforeModuleID int) error {
	return c.do(ctx, "reorder_activity", func(ctx context.Context, client *http.Client) error {
		return c.moveModule(ctx, client, sesskey, courseID, moduleID, sectionDBID, beforeModuleID)
	})
}

func (c *Client) moveModule(ctx context.Context, client *http.Client, sesskey string, courseID, moduleID, sectionDBID, beforeModuleID int) error {
	fields := url.Values{
		"class":     {"resource"},
		"field":     {"move"},
		"id":        {strconv.Itoa(moduleID)},
		"sectionId": {strconv.Itoa(sectionDBID)},
		"courseId":  {strconv.Itoa(courseID)},
		"sesskey":   {sesskey},
	}
	if beforeModuleID > 0 {
		fields.Set("beforeId", strconv.Itoa(beforeModuleID))
	}
	return c.restCall(ctx, client, fields)
}

// DuplicateActivity clones one activity into its own section. The copy
// lands directly after the original with a "(copy)" suffix.
func (c *Client) DuplicateActivity(ctx context.Context, sesskey string, moduleID int) error {
	return c.do(ctx, "duplicate_activity", func(ctx context.Context, client *http.Client) error {
		u := fmt.Sprintf("%s/course/mod.php?sesskey=%s&sr=0&duplicate=%d", c.baseURL(), sesskey, moduleID)
		return c.getOK(ctx, client, u)
	})
}

// DeleteActivity removes one activity, answering the confirmation form
// inline.
func (c *Client) DeleteActivity(ctx context.Context, sesskey string, moduleID int) error {
	return c.do(ctx, "delete_activity", func(ctx context.Context, client *http.Client) error {
		action := c.baseURL() + "/course/mod.php"
		finalURL, status, err := c.postForm(ctx, client, action, url.Values{
			"delete":  {strconv.Itoa(moduleID)},
			"confirm": {"1"},
			"sr":      {"0"},
			"sesskey": {sesskey},
		})
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("%w: delete answered %d", ErrRejected, status)
		}
		if urlContains(finalURL, "mod.php") {
			return fmt.Errorf("%w: delete form re-rendered", ErrRejected)
		}
		return nil
	})
}

// RenameActivity renames one activity through the inline-edit service.
func (c *Client) RenameActivity(ctx context.Context, sesskey string, moduleID int, name string) error {
	return c.do(ctx, "rename_activity", func(ctx context.Context, client *http.Client) error {
		return c.inplaceEdit(ctx, client, sesskey, "core_course", "activityname", moduleID, name)
	})
}

// ToggleActivityVisibility hides or shows one activity.
func (c *Client) ToggleActivityVisibility(ctx context.Context, sesskey string, moduleID int, hide bool) error {
	param := "show"
	if hide {
		param = "hide"
	}
	return c.do(ctx, "activity_visibility", func(ctx context.Context, client *http.Client) error {
		u := fmt.Sprintf("%s/course/mod.php?sesskey=%s&sr=0&%s=%d", c.baseURL(), sesskey, param, moduleID)
		return c.getOK(ctx, client, u)
	})
}

// urlContains matches a path fragment against a final redirect URL.
func urlContains(rawURL, fragment string) bool {
	return strings.Contains(strings.ToLower(rawURL), strings.ToLower(fragment))
}
