package mutate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Topic operations run in two identifier spaces. Move and visibility calls
// key on the visible section number, an ordinal that shifts with every
// reorder. Rename and delete key on the persistent section database id.
// Mixing them up corrupts course ordering, so each signature names the one
// it takes.

// EnableEditMode turns the course editor on for the session. Several
// endpoints silently no-op outside edit mode, so batches enable it first.
func (c *Client) EnableEditMode(ctx context.Context, sesskey string, courseID int) error {
	return c.do(ctx, "enable_edit", func(ctx context.Context, client *http.Client) error {
		u := fmt.Sprintf("%s/course/view.php?id=%d&edit=on&sesskey=%s", c.baseURL(), courseID, sesskey)
		return c.getOK(ctx, client, u)
	})
}

// AddTopics appends count empty sections to the end of the course.
func (c *Client) AddTopics(ctx context.Context, sesskey string, courseID, count int) error {
	if count < 1 {
		return fmt.Errorf("topic count must be positive, got %d", count)
	}
	return c.do(ctx, "add_topics", func(ctx context.Context, client *http.Client) error {
		u := fmt.Sprintf("%s/course/changenumsections.php?courseid=%d&insertsection=0&sesskey=%s&sectionreturn=0&numsections=%d",
			c.baseURL(), courseID, sesskey, count)
		return c.getOK(ctx, client, u)
	})
}

// MoveTopic moves the section at fromSection to position toSection. Both
// are visible section numbers, not database ids.
func (c *Client) MoveTopic(ctx context.Context, sesskey string, courseID, fromSection, toSection int) error {
	return c.do(ctx, "move_topic", func(ctx context.Context, client *http.Client) error {
		return c.restCall(ctx, client, url.Values{
			"class":    {"section"},
			"field":    {"move"},
			"id":       {strconv.Itoa(fromSection)},
			"value":    {strconv.Itoa(toSection)},
			"courseId": {strconv.Itoa(courseID)},
			"sesskey":  {sesskey},
		})
	})
}

// RenameTopic renames the section with the given database id through the
// inline-edit service.
func (c *Client) RenameTopic(ctx context.Context, sesskey string, sectionDBID int, name string) error {
	return c.do(ctx, "rename_topic", func(ctx context.Context, client *http.Client) error {
		return c.inplaceEdit(ctx, client, sesskey, "format_topics", "sectionname", sectionDBID, name)
	})
}

// ToggleTopicVisibility hides or shows the section holding the given
// visible number.
func (c *Client) ToggleTopicVisibility(ctx context.Context, sesskey string, courseID, sectionNumber int, hide bool) error {
	value := "1"
	if hide {
		value = "0"
	}
	return c.do(ctx, "topic_visibility", func(ctx context.Context, client *http.Client) error {
		return c.restCall(ctx, client, url.Values{
			"class":    {"section"},
			"field":    {"visible"},
			"id":       {strconv.Itoa(sectionNumber)},
			"value":    {value},
			"courseId": {strconv.Itoa(courseID)},
			"sesskey":  {sesskey},
		})
	})
}

// DeleteTopic removes the section with the given database id along with its
// activities. The confirmation step of the delete form is answered inline.
func (c *Client) DeleteTopic(ctx context.Context, sesskey string, sectionDBID int) error {
	return c.do(ctx, "delete_topic", func(ctx context.Context, client *http.Client) error {
		action := c.baseURL() + "/course/editsection.php"
		finalURL, status, err := c.postForm(ctx, client, action, url.Values{
			"id":      {strconv.Itoa(sectionDBID)},
			"sr":      {"0"},
			"delete":  {"1"},
			"confirm": {"1"},
			"sesskey": {sesskey},
		})
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("%w: delete answered %d", ErrRejected, status)
		}
		// A successful delete bounces back to the course view; staying on the
		// edit form means the LMS refused.
		if urlContains(finalURL, "editsection.php") {
			return fmt.Errorf("%w: delete form re-rendered", ErrRejected)
		}
		return nil
	})
}
