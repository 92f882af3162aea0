package mutate

import (
	"context"
	"fmt"
	"net/http"
)

// AddPageWithEmbed creates a page activity whose body is the given embed
// markup, placed in the section with the given visible number. The creation
// form is scraped first so every hidden and required default survives the
// post; only the fields below are overridden. The LMS answers 200 both on
// success and on a re-rendered error form, so success is judged by the
// redirect landing back on the course view.
func (c *Client) AddPageWithEmbed(ctx context.Context, courseID, sectionNumber int, name, embedHTML string, visible bool) error {
	return c.do(ctx, "add_page", func(ctx context.Context, client *http.Client) error {
		formURL := fmt.Sprintf("%s/course/modedit.php?add=page&type=&course=%d&section=%d&return=0&sr=0",
			c.baseURL(), courseID, sectionNumber)
		fields, action, err := c.fetchForm(ctx, client, formURL)
		if err != nil {
			return err
		}

		fields.Set("name", name)
		fields.Set("page[text]", embedHTML)
		fields.Set("page[format]", "1")
		if fields.Get("introeditor[format]") == "" {
			fields.Set("introeditor[format]", "1")
		}
		if visible {
			fields.Set("visible", "1")
		} else {
			fields.Set("visible", "0")
		}
		fields.Set("submitbutton2", "Save and return to course")

		finalURL, status, err := c.postForm(ctx, client, action, fields)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("%w: page form answered %d", ErrRejected, status)
		}
		if !urlContains(finalURL, "/course/view.php") {
			return fmt.Errorf("%w: page form re-rendered at %s", ErrRejected, finalURL)
		}
		return nil
	})
}
