package parser

import (
	"regexp"
	"strings"
)

var (
	gradeFractionPattern = regexp.MustCompile(`\d+(?:\.\d+)?\s*/\s*\d+(?:\.\d+)?`)
	headerMaxPattern     = regexp.MustCompile(`/\s*(\d+(?:\.\d+)?)`)
	gradeDescPattern     = regexp.MustCompile(`(?i)out of\s+(\d+(?:\.\d+)?)`)
	scorePattern         = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// CleanGradeValue normalizes one grade cell: "-" for unattempted cells, the
// exact "a / b" substring when the cell carries a graded fraction, and the
// trimmed original text for anything unrecognized. It never fails.
func CleanGradeValue(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "-" {
		return "-"
	}
	if fraction := gradeFractionPattern.FindString(trimmed); fraction != "" {
		return fraction
	}
	return trimmed
}

// maxGradeFromHeader extracts the denominator from a grade column header,
// first from the "/ n" pattern in the header text, then from a
// data-gradedesc attribute of the form "... out of n".
func maxGradeFromHeader(headerText, gradeDesc string) string {
	if m := headerMaxPattern.FindStringSubmatch(headerText); m != nil {
		return m[1]
	}
	if m := gradeDescPattern.FindStringSubmatch(gradeDesc); m != nil {
		return m[1]
	}
	return ""
}
