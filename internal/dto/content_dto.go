package dto

import (
	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/service"
)

// PageCreateRequest adds an embedded-content page to a section. The embed
// markup is sanitized down to iframe tags before it reaches the LMS.
type PageCreateRequest struct {
	SectionNumber int    `json:"section_number" validate:"min=0"`
	Name          string `json:"name" validate:"required,min=1,max=255"`
	EmbedHTML     string `json:"embed_html" validate:"required"`
	Visible       *bool  `json:"visible"`
}

// VideoFileRequest is one shared-folder video, identified by file id and
// raw filename. Session markers are recovered from the name.
type VideoFileRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// VideoImportRequest maps a batch of videos onto course topics by session
// number. DryRun stops after planning.
type VideoImportRequest struct {
	Files   []VideoFileRequest `json:"files" validate:"required,min=1,dive"`
	Width   int                `json:"width" validate:"omitempty,min=1"`
	Height  int                `json:"height" validate:"omitempty,min=1"`
	Visible *bool              `json:"visible"`
	DryRun  bool               `json:"dry_run"`
}

// ToVideoFiles converts the request files into their model form.
func (r VideoImportRequest) ToVideoFiles() []models.VideoFile {
	files := make([]models.VideoFile, 0, len(r.Files))
	for _, f := range r.Files {
		files = append(files, models.VideoFile{ID: f.ID, Name: f.Name})
	}
	return files
}

// VideoImportResponse returns the computed placement plan and, unless the
// run was a dry run, the per-video outcome counts.
type VideoImportResponse struct {
	Plans  []models.VideoImportPlan   `json:"plans"`
	Result *service.VideoImportResult `json:"result,omitempty"`
}
