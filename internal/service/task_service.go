package service

import (
	"context"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/store"
)

// TaskScraper is the live-fetch surface behind assignment listings.
type TaskScraper interface {
	FetchTasks(ctx context.Context, courseID int) ([]models.TaskRow, error)
	FetchAssignmentDetail(ctx context.Context, moduleID int) (models.AssignmentDetail, error)
}

// TasksView is the assignment listing plus its freshness and the CSV
// snapshot written for it.
type TasksView struct {
	Tasks    []models.TaskRow `json:"tasks"`
	CachedAt time.Time        `json:"cached_at"`
	Stale    bool             `json:"stale"`
	CSVPath  string           `json:"csv_path,omitempty"`
}

// TaskService lists course assignments with their workload counters.
type TaskService interface {
	Tasks(ctx context.Context, courseID int, force bool) (TasksView, error)
	AssignmentDetail(ctx context.Context, moduleID int) (models.AssignmentDetail, error)
}

type taskService struct {
	scraper   TaskScraper
	cache     *store.TieredStore
	snapshots *store.CSVSnapshots
	summary   *bluemonday.Policy
	logger    zerolog.Logger
}

// NewTaskService builds the assignment listing service.
func NewTaskService(scraper TaskScraper, cache *store.TieredStore, snapshots *store.CSVSnapshots, logger zerolog.Logger) TaskService {
	return &taskService{
		scraper:   scraper,
		cache:     cache,
		snapshots: snapshots,
		summary:   bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "task_service").Logger(),
	}
}

// Tasks serves the cached listing when one exists; a live fetch replaces
// the cache and leaves a CSV snapshot beside it.
func (s *taskService) Tasks(ctx context.Context, courseID int, force bool) (TasksView, error) {
	if !force {
		var cached []models.TaskRow
		if at, ok := s.cache.Load(ctx, store.KeyTasks(courseID), &cached); ok {
			return TasksView{Tasks: cached, CachedAt: at, Stale: true}, nil
		}
	}

	tasks, err := s.scraper.FetchTasks(ctx, courseID)
	if err != nil {
		return TasksView{}, fmt.Errorf("fetch tasks: %w", err)
	}
	if err := s.cache.Save(ctx, store.KeyTasks(courseID), tasks); err != nil {
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("task cache write failed")
	}

	csvPath, err := s.snapshots.WriteTasks(courseID, tasks)
	if err != nil {
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("task snapshot write failed")
		csvPath = ""
	}

	return TasksView{Tasks: tasks, CachedAt: time.Now().UTC(), CSVPath: csvPath}, nil
}

// AssignmentDetail reads one assignment page. The scraped description is
// markup and passes the sanitizer before leaving the API.
func (s *taskService) AssignmentDetail(ctx context.Context, moduleID int) (models.AssignmentDetail, error) {
	detail, err := s.scraper.FetchAssignmentDetail(ctx, moduleID)
	if err != nil {
		return models.AssignmentDetail{}, fmt.Errorf("fetch assignment detail: %w", err)
	}
	detail.Description = s.summary.Sanitize(detail.Description)
	return detail, nil
}
