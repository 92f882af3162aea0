package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/parser"
	"github.com/noah-isme/paatshala-go-api/internal/store"
	"github.com/noah-isme/paatshala-go-api/pkg/github"
	"github.com/noah-isme/paatshala-go-api/pkg/linkcheck"
)

// GradingScraper is the live-fetch surface behind grading tables and
// submission files.
type GradingScraper interface {
	FetchGradingTable(ctx context.Context, moduleID, groupID int) (parser.GradingTable, error)
	FetchGroups(ctx context.Context, moduleID int, isQuiz bool) ([]models.Group, error)
	DownloadSubmission(ctx context.Context, root string, courseID int, student, fileURL string) (string, error)
}

// LinkChecker probes submitted URLs in batches.
type LinkChecker interface {
	CheckBatch(ctx context.Context, urls []string) map[string]linkcheck.Result
}

// RepoInspector reads repository visibility for link submissions.
type RepoInspector interface {
	RepoInfo(ctx context.Context, owner, repo string) github.RepoInfo
}

// SubmissionsView is one assignment's grading table plus the CSV snapshot
// written for it.
type SubmissionsView struct {
	Rows     []models.SubmissionRow `json:"rows"`
	MaxGrade string                 `json:"max_grade"`
	Kind     models.SubmissionType  `json:"kind"`
	CSVPath  string                 `json:"csv_path,omitempty"`
}

// DownloadedFile locates one fetched submission file on disk.
type DownloadedFile struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// SubmissionService reads grading tables, evaluates link submissions and
// fetches submitted files.
type SubmissionService interface {
	Submissions(ctx context.Context, courseID, moduleID, groupID int) (SubmissionsView, error)
	Groups(ctx context.Context, moduleID int, quiz bool) ([]models.Group, error)
	EvaluateLinks(ctx context.Context, courseID int, urls []string) (map[string]models.LinkEvaluation, error)
	LinkStatuses(ctx context.Context, courseID int) map[string]linkcheck.Result
	Download(ctx context.Context, courseID int, student, fileURL string) (DownloadedFile, error)
}

type submissionService struct {
	scraper    GradingScraper
	links      LinkChecker
	repos      RepoInspector
	cache      *store.TieredStore
	snapshots  *store.CSVSnapshots
	outputRoot string
	logger     zerolog.Logger
}

// NewSubmissionService builds the grading table service. outputRoot is
// where downloaded submissions land, course by course.
func NewSubmissionService(scraper GradingScraper, links LinkChecker, repos RepoInspector, cache *store.TieredStore, snapshots *store.CSVSnapshots, outputRoot string, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		scraper:    scraper,
		links:      links,
		repos:      repos,
		cache:      cache,
		snapshots:  snapshots,
		outputRoot: outputRoot,
		logger:     logger.With().Str("component", "submission_service").Logger(),
	}
}

// Submissions always reads live; grading state changes under the
// instructor's feet, so a stale table would mislead more than help. The
// fetched table leaves a CSV snapshot behind.
func (s *submissionService) Submissions(ctx context.Context, courseID, moduleID, groupID int) (SubmissionsView, error) {
	table, err := s.scraper.FetchGradingTable(ctx, moduleID, groupID)
	if err != nil {
		return SubmissionsView{}, fmt.Errorf("fetch grading table: %w", err)
	}

	csvPath, err := s.snapshots.WriteSubmissions(courseID, moduleID, table.Rows)
	if err != nil {
		s.logger.Warn().Err(err).Int("module_id", moduleID).Msg("submission snapshot write failed")
		csvPath = ""
	}

	return SubmissionsView{
		Rows:     table.Rows,
		MaxGrade: table.MaxGrade,
		Kind:     table.Kind,
		CSVPath:  csvPath,
	}, nil
}

func (s *submissionService) Groups(ctx context.Context, moduleID int, quiz bool) ([]models.Group, error) {
	groups, err := s.scraper.FetchGroups(ctx, moduleID, quiz)
	if err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}
	return groups, nil
}

// EvaluateLinks probes the given URLs and, for GitHub repositories, reads
// their visibility. Verdicts are merged into the course's link-status
// cache so later listings can show when each URL was last checked.
func (s *submissionService) EvaluateLinks(ctx context.Context, courseID int, urls []string) (map[string]models.LinkEvaluation, error) {
	if len(urls) == 0 {
		return map[string]models.LinkEvaluation{}, nil
	}

	results := s.links.CheckBatch(ctx, urls)
	now := time.Now().UTC()

	statuses := make(map[string]linkcheck.Result)
	key := store.KeyLinkStatus(courseID)
	s.cache.Load(ctx, key, &statuses)
	for url, result := range results {
		result.CheckedAt = now
		statuses[url] = result
	}
	if err := s.cache.Save(ctx, key, statuses); err != nil {
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("link status cache write failed")
	}

	evaluations := make(map[string]models.LinkEvaluation, len(results))
	for url, result := range results {
		evaluation := models.LinkEvaluation{
			URL:         url,
			Reachable:   result.Status == linkcheck.StatusOK || result.Status == linkcheck.StatusRedirect,
			LastChecked: linkcheck.FormatTimeAgo(now),
		}
		if owner, repo, ok := github.ParseRepoURL(url); ok {
			info := s.repos.RepoInfo(ctx, owner, repo)
			evaluation.RepoStatus = info.Status
			evaluation.IsFork = info.IsFork
			evaluation.ForkParent = info.ForkParent
		}
		evaluations[url] = evaluation
	}
	return evaluations, nil
}

// LinkStatuses returns the cached per-URL verdicts for one course. A
// course that was never checked gets an empty map.
func (s *submissionService) LinkStatuses(ctx context.Context, courseID int) map[string]linkcheck.Result {
	statuses := make(map[string]linkcheck.Result)
	s.cache.Load(ctx, store.KeyLinkStatus(courseID), &statuses)
	return statuses
}

// Download fetches one submitted file to the output tree and reports its
// sniffed content type.
func (s *submissionService) Download(ctx context.Context, courseID int, student, fileURL string) (DownloadedFile, error) {
	path, err := s.scraper.DownloadSubmission(ctx, s.outputRoot, courseID, student, fileURL)
	if err != nil {
		return DownloadedFile{}, fmt.Errorf("download submission: %w", err)
	}

	file := DownloadedFile{Path: path}
	if info, err := os.Stat(path); err == nil {
		file.Size = info.Size()
	}
	if kind, err := mimetype.DetectFile(path); err == nil {
		file.ContentType = kind.String()
	}
	return file, nil
}
