// Package parser turns raw LMS page markup into typed record sets.
//
// Every function here is a pure transform: no network access, no shared
// state, and no panics on malformed markup. Missing cells and absent labels
// degrade to empty strings so that partial pages still yield partial rows.
package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var moduleIDPattern = regexp.MustCompile(`[?&]id=(\d+)`)

// Document parses markup into a queryable document. It is the single entry
// point the scraping layer uses before handing the page to the typed
// parsers below.
func Document(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// text returns the node's whitespace-collapsed text, or "" for a nil/empty
// selection.
func text(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	return collapse(s.Text())
}

// collapse normalizes runs of whitespace to single spaces and trims the
// ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// absoluteURL resolves href against base, tolerating malformed input by
// returning the href unchanged.
func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// moduleIDFromHref extracts the course-module id from an activity URL.
func moduleIDFromHref(href string) int {
	m := moduleIDPattern.FindStringSubmatch(href)
	if m == nil {
		return 0
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return id
}

// classTokens splits an element's class attribute into its tokens.
func classTokens(s *goquery.Selection) []string {
	return strings.Fields(s.AttrOr("class", ""))
}

// hasClassToken reports whether the element's class attribute contains the
// exact token.
func hasClassToken(s *goquery.Selection, token string) bool {
	for _, t := range classTokens(s) {
		if t == token {
			return true
		}
	}
	return false
}
