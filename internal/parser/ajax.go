package parser

import (
	"encoding/json"
	"fmt"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

// ajaxEnvelope is one element of a lib/ajax/service.php response array.
type ajaxEnvelope struct {
	Error bool            `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// ajaxCourse is a course record as both course-list service methods shape
// it.
type ajaxCourse struct {
	ID          int    `json:"id"`
	FullName    string `json:"fullname"`
	Category    string `json:"coursecategory"`
	IsFavourite bool   `json:"isfavourite"`
}

// ServiceData unwraps the first envelope of a service response, surfacing
// the remote error flag as a Go error.
func ServiceData(body []byte) (json.RawMessage, error) {
	var envelopes []ajaxEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, fmt.Errorf("decode service response: %w", err)
	}
	if len(envelopes) == 0 {
		return nil, fmt.Errorf("empty service response")
	}
	if envelopes[0].Error {
		return nil, fmt.Errorf("service call rejected")
	}
	return envelopes[0].Data, nil
}

// ParseEnrolledCourses decodes the enrolled-courses service response, where
// courses sit under a "courses" key.
func ParseEnrolledCourses(body []byte) ([]models.Course, error) {
	data, err := ServiceData(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Courses []ajaxCourse `json:"courses"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode enrolled courses: %w", err)
	}
	return coursesFromAjax(payload.Courses), nil
}

// ParseRecentCourses decodes the recent-courses service response, a bare
// course array.
func ParseRecentCourses(body []byte) ([]models.Course, error) {
	data, err := ServiceData(body)
	if err != nil {
		return nil, err
	}
	var records []ajaxCourse
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode recent courses: %w", err)
	}
	return coursesFromAjax(records), nil
}

func coursesFromAjax(records []ajaxCourse) []models.Course {
	courses := make([]models.Course, 0, len(records))
	for _, r := range records {
		if r.ID <= 0 {
			continue
		}
		courses = append(courses, models.Course{
			ID:       r.ID,
			FullName: r.FullName,
			Category: r.Category,
			Starred:  r.IsFavourite,
		})
	}
	return courses
}
