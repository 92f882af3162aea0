package parser

import "regexp"

var (
	sesskeyJSONPattern = regexp.MustCompile(`"sesskey":"([^"]+)"`)
	sesskeyHrefPattern = regexp.MustCompile(`sesskey=([^&"']+)`)
)

// ParseSesskey recovers the per-login CSRF token from any authenticated
// page: the M.cfg JSON blob first, then the token query parameter carried
// by the logout and edit links.
func ParseSesskey(html string) string {
	if m := sesskeyJSONPattern.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	if m := sesskeyHrefPattern.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	return ""
}
