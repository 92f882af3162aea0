package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/store"
)

const (
	lastCourseKey        = "last_course_id"
	courseRefreshTimeout = 2 * time.Minute
)

// CourseScraper is the live-fetch surface the course service consumes.
type CourseScraper interface {
	FetchCourses(ctx context.Context) ([]models.Course, error)
}

// CourseList is the course listing plus the freshness of what backed it.
type CourseList struct {
	Courses  []models.Course `json:"courses"`
	CachedAt time.Time       `json:"cached_at"`
	Stale    bool            `json:"stale"`
}

// CourseService lists enrolled courses and remembers the instructor's
// course selection between runs.
type CourseService interface {
	Courses(ctx context.Context, force bool) (CourseList, error)
	Select(ctx context.Context, courseID int) (string, error)
	LastCourseID() (int, bool)
}

type courseService struct {
	scraper CourseScraper
	cache   *store.TieredStore
	last    *store.LastSession
	refresh RefreshQueue
	policy  *bluemonday.Policy
	logger  zerolog.Logger

	mu         sync.Mutex
	refreshing bool
}

// NewCourseService builds the course listing service. Course names arrive
// from scraped markup, so they pass a strict sanitizer before leaving the
// API.
func NewCourseService(scraper CourseScraper, cache *store.TieredStore, last *store.LastSession, refresh RefreshQueue, logger zerolog.Logger) CourseService {
	return &courseService{
		scraper: scraper,
		cache:   cache,
		last:    last,
		refresh: refresh,
		policy:  bluemonday.StrictPolicy(),
		logger:  logger.With().Str("component", "course_service").Logger(),
	}
}

// Courses returns the cached listing immediately when one exists and
// refreshes it behind the response; force skips the cache.
func (s *courseService) Courses(ctx context.Context, force bool) (CourseList, error) {
	if !force {
		var cached []models.Course
		if at, ok := s.cache.Load(ctx, store.KeyCourses, &cached); ok {
			s.refreshCourses()
			return CourseList{Courses: s.sanitize(cached), CachedAt: at, Stale: true}, nil
		}
	}

	courses, err := s.scraper.FetchCourses(ctx)
	if err != nil {
		return CourseList{}, fmt.Errorf("fetch courses: %w", err)
	}
	if err := s.cache.Save(ctx, store.KeyCourses, courses); err != nil {
		s.logger.Warn().Err(err).Msg("course cache write failed")
	}
	return CourseList{Courses: s.sanitize(courses), CachedAt: time.Now().UTC()}, nil
}

// Select persists the chosen course and warms its datasets. The returned
// job id is empty when the refresh queue was full.
func (s *courseService) Select(ctx context.Context, courseID int) (string, error) {
	if courseID <= 0 {
		return "", fmt.Errorf("course id must be positive")
	}
	if err := s.last.Set(lastCourseKey, courseID); err != nil {
		return "", fmt.Errorf("persist course selection: %w", err)
	}
	jobID, _ := s.refresh.Enqueue(courseID)
	return jobID, nil
}

func (s *courseService) LastCourseID() (int, bool) {
	var courseID int
	if !s.last.Get(lastCourseKey, &courseID) || courseID <= 0 {
		return 0, false
	}
	return courseID, true
}

// refreshCourses replaces the cached listing in the background. At most
// one refresh runs at a time; extra callers ride on the running one.
func (s *courseService) refreshCourses() {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.refreshing = false
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), courseRefreshTimeout)
		defer cancel()

		courses, err := s.scraper.FetchCourses(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("course refresh failed, stale listing kept")
			return
		}
		if err := s.cache.Save(ctx, store.KeyCourses, courses); err != nil {
			s.logger.Warn().Err(err).Msg("course cache write failed")
			return
		}
		s.logger.Info().Int("courses", len(courses)).Msg("course listing refreshed")
	}()
}

func (s *courseService) sanitize(courses []models.Course) []models.Course {
	out := make([]models.Course, len(courses))
	for i, course := range courses {
		course.FullName = s.policy.Sanitize(course.FullName)
		course.Category = s.policy.Sanitize(course.Category)
		out[i] = course
	}
	return out
}
