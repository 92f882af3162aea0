package models

// VideoFile is one video in a shared Drive folder, annotated with the
// session number and clean title recovered from its filename.
type VideoFile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Session int    `json:"session"`
	Title   string `json:"title"`
}

// VideoImportPlan pairs one video with the topic its page will land in.
// Section 0 means no topic matched and the video is skipped unless the
// caller overrides the target.
type VideoImportPlan struct {
	Video         VideoFile `json:"video"`
	SectionNumber int       `json:"section_number"`
	SectionID     int       `json:"section_id"`
	PageName      string    `json:"page_name"`
}
