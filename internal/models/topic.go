package models

import "strings"

// ActivityType classifies a course module by its modtype marker class.
type ActivityType string

const (
	ActivityQuiz        ActivityType = "quiz"
	ActivityAssignment  ActivityType = "assignment"
	ActivityPage        ActivityType = "page"
	ActivityURL         ActivityType = "url"
	ActivityForum       ActivityType = "forum"
	ActivityFolder      ActivityType = "folder"
	ActivityBook        ActivityType = "book"
	ActivityLesson      ActivityType = "lesson"
	ActivityScorm       ActivityType = "scorm"
	ActivityCertificate ActivityType = "certificate"
	ActivityLabel       ActivityType = "label"
	ActivityResource    ActivityType = "resource"
	ActivityUnknown     ActivityType = "unknown"
)

var modTypeNames = map[string]ActivityType{
	"quiz":        ActivityQuiz,
	"assign":      ActivityAssignment,
	"page":        ActivityPage,
	"url":         ActivityURL,
	"forum":       ActivityForum,
	"folder":      ActivityFolder,
	"book":        ActivityBook,
	"lesson":      ActivityLesson,
	"scorm":       ActivityScorm,
	"customcert":  ActivityCertificate,
	"certificate": ActivityCertificate,
	"label":       ActivityLabel,
	"resource":    ActivityResource,
}

// ActivityTypeFromModClass maps a "modtype_xxx" class token to an ActivityType.
func ActivityTypeFromModClass(class string) ActivityType {
	name := strings.TrimPrefix(class, "modtype_")
	if t, ok := modTypeNames[name]; ok {
		return t
	}
	return ActivityUnknown
}

// Activity is a single course module owned by exactly one topic.
type Activity struct {
	ModuleID int          `json:"module_id"`
	Name     string       `json:"name"`
	Type     ActivityType `json:"type"`
	URL      string       `json:"url"`
	Visible  bool         `json:"visible"`
}

// Topic is an ordered course section.
//
// SectionNumber is the transient ordinal the reorder endpoints key on;
// SectionID is the persistent database id the edit and restriction endpoints
// key on. They are distinct identifier spaces and are never interchangeable.
type Topic struct {
	Name               string     `json:"name"`
	Visible            bool       `json:"visible"`
	SectionNumber      int        `json:"section_number"`
	SectionID          int        `json:"section_id"`
	Summary            string     `json:"summary"`
	RestrictionSummary string     `json:"restriction_summary"`
	Activities         []Activity `json:"activities"`
}

// HasSectionID reports whether the persistent database id was resolved.
// It is absent when the course page was rendered outside edit mode.
func (t Topic) HasSectionID() bool {
	return t.SectionID > 0
}
