package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseFormFields captures the current state of a form so a mutation can
// re-submit it with a handful of fields changed. The returned values carry
// every named input, the chosen select options, and raw textarea content;
// submit buttons and file inputs are the caller's business. The second
// return is the form's action URL.
func ParseFormFields(html, selector string) (url.Values, string, error) {
	doc, err := Document(html)
	if err != nil {
		return nil, "", fmt.Errorf("parse form page: %w", err)
	}
	if selector == "" {
		selector = "form"
	}
	form := doc.Find(selector).First()
	if form.Length() == 0 {
		return nil, "", fmt.Errorf("form %q not found", selector)
	}

	values := url.Values{}
	form.Find("input").Each(func(_ int, in *goquery.Selection) {
		name, ok := in.Attr("name")
		if !ok || name == "" {
			return
		}
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "checkbox", "radio":
			if _, checked := in.Attr("checked"); checked {
				values.Add(name, in.AttrOr("value", "1"))
			}
		case "submit", "button", "image", "file":
		default:
			values.Add(name, in.AttrOr("value", ""))
		}
	})
	form.Find("select").Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("name")
		if !ok || name == "" {
			return
		}
		chosen := sel.Find("option[selected]")
		if chosen.Length() == 0 {
			chosen = sel.Find("option").First()
		}
		chosen.Each(func(_ int, opt *goquery.Selection) {
			values.Add(name, opt.AttrOr("value", text(opt)))
		})
	})
	form.Find("textarea").Each(func(_ int, area *goquery.Selection) {
		name, ok := area.Attr("name")
		if !ok || name == "" {
			return
		}
		values.Add(name, area.Text())
	})

	return values, form.AttrOr("action", ""), nil
}
