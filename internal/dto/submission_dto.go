package dto

import (
	"sort"

	"github.com/noah-isme/paatshala-go-api/pkg/linkcheck"
)

// SubmissionFilter narrows a grading table read to one group.
type SubmissionFilter struct {
	GroupID int `query:"group_id" validate:"omitempty,min=1"`
}

// DownloadRequest fetches one submitted file from the LMS onto local disk.
type DownloadRequest struct {
	Student string `json:"student" validate:"required,min=1,max=255"`
	FileURL string `json:"file_url" validate:"required,url"`
}

// LinkCheckRequest probes a batch of submitted URLs.
type LinkCheckRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=200,dive,required,url"`
}

// LinkStatusResponse is one URL's health verdict with a human-readable
// recency marker.
type LinkStatusResponse struct {
	URL        string `json:"url"`
	Status     string `json:"status"`
	Code       int    `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	CheckedAgo string `json:"checked_ago"`
}

// NewLinkStatusResponses flattens a status map into a URL-sorted slice.
func NewLinkStatusResponses(statuses map[string]linkcheck.Result) []LinkStatusResponse {
	out := make([]LinkStatusResponse, 0, len(statuses))
	for url, result := range statuses {
		out = append(out, LinkStatusResponse{
			URL:        url,
			Status:     result.Status,
			Code:       result.Code,
			Message:    result.Message,
			CheckedAgo: linkcheck.FormatTimeAgo(result.CheckedAt),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}
