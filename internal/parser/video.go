package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

var (
	videoSessionPattern    = regexp.MustCompile(`#(\d+)`)
	videoExtensionPattern  = regexp.MustCompile(`(?i)\.(mp4|mkv|avi|mov|webm)$`)
	videoMarkerPattern     = regexp.MustCompile(`#\d+\.?\d*`)
	videoResolutionPattern = regexp.MustCompile(`(?i)\(?\d{3,4}p\)?`)
	videoVersionPattern    = regexp.MustCompile(`(?i)v\d+\.?\d*`)
	videoEdgePattern       = regexp.MustCompile(`^[_\-\s]+|[_\-\s]+$`)
	underscoreRunPattern   = regexp.MustCompile(`_+`)
	hyphenRunPattern       = regexp.MustCompile(`-+`)
	drivePathPattern       = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)
)

// ParseVideoFilename splits a recorded-session filename like
// "#1.1_-_what_is_cyber_security_v30 (720p).mp4" into its session number
// and a title-cased clean name. Session 0 means the filename carried no
// session marker.
func ParseVideoFilename(filename string) (int, string) {
	session := 0
	if m := videoSessionPattern.FindStringSubmatch(filename); m != nil {
		session, _ = strconv.Atoi(m[1])
	}

	name := videoExtensionPattern.ReplaceAllString(filename, "")
	name = videoMarkerPattern.ReplaceAllString(name, "")
	name = videoResolutionPattern.ReplaceAllString(name, "")
	name = videoVersionPattern.ReplaceAllString(name, "")
	name = videoEdgePattern.ReplaceAllString(name, "")
	name = underscoreRunPattern.ReplaceAllString(name, " ")
	name = hyphenRunPattern.ReplaceAllString(name, " ")
	name = collapse(name)

	return session, titleCase(name)
}

// GroupVideosBySession annotates each video with its parsed session and
// title, then buckets them by session with name order inside every bucket.
// Videos without a session marker land in bucket 0.
func GroupVideosBySession(videos []models.VideoFile) map[int][]models.VideoFile {
	grouped := make(map[int][]models.VideoFile)
	for _, v := range videos {
		v.Session, v.Title = ParseVideoFilename(v.Name)
		grouped[v.Session] = append(grouped[v.Session], v)
	}
	for session := range grouped {
		bucket := grouped[session]
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Name < bucket[j].Name })
	}
	return grouped
}

// EmbedHTML builds the preview iframe for a Drive-hosted video.
func EmbedHTML(fileID string, width, height int) string {
	return fmt.Sprintf(
		`<iframe src="https://drive.google.com/file/d/%s/preview" width="%d" height="%d" allow="autoplay"></iframe>`,
		fileID, width, height,
	)
}

// ExtractFolderID pulls the folder id out of a shared Drive folder URL,
// returning "" when the URL has no folder path.
func ExtractFolderID(folderURL string) string {
	if m := drivePathPattern.FindStringSubmatch(folderURL); m != nil {
		return m[1]
	}
	return ""
}

// MatchSessionTopic finds the first topic name that refers to the given
// session, accepting "Session 3", "Day 03" and other zero-padded spellings.
// It returns the index into names, or -1 when nothing matches.
func MatchSessionTopic(names []string, session int) int {
	if session <= 0 {
		return -1
	}
	pattern := regexp.MustCompile(fmt.Sprintf(`(?i)\b(?:session|day)\s+0*%d\b`, session))
	for i, name := range names {
		if pattern.MatchString(name) {
			return i
		}
	}
	return -1
}

// titleCase uppercases the first letter of every space-separated word and
// lowercases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
