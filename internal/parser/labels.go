package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LabelValueTable scans every table on the page for <th>/<td> label rows and
// resolves the wanted keys by case-insensitive substring match against the
// label text. The first non-empty occurrence of each key wins; once a key is
// resolved, later rows and later tables are not consulted for it.
//
// keys maps a lowercase label substring to the output field name. The result
// holds only the fields that were found.
func LabelValueTable(doc *goquery.Document, keys map[string]string) map[string]string {
	found := make(map[string]string, len(keys))

	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label := strings.ToLower(text(row.Find("th").First()))
		if label == "" {
			return true
		}
		value := text(row.Find("td").First())
		if value == "" {
			return true
		}

		for substring, field := range keys {
			if _, done := found[field]; done {
				continue
			}
			if strings.Contains(label, substring) {
				found[field] = value
			}
		}

		return len(found) < len(distinctFields(keys))
	})

	return found
}

func distinctFields(keys map[string]string) map[string]struct{} {
	fields := make(map[string]struct{}, len(keys))
	for _, field := range keys {
		fields[field] = struct{}{}
	}
	return fields
}
