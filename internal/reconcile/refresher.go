// Package reconcile keeps cached course data fresh in the background.
// Reads stay cache-first: callers render whatever snapshot exists and
// enqueue a refresh here; when the live fetch lands, the cached value is
// replaced whole and subscribers are notified. A value is allowed to be
// stale for one refresh cycle.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/observability"
	"github.com/noah-isme/paatshala-go-api/internal/store"
)

// Dataset names carried in refresh events and meta records.
const (
	DatasetTopics     = "topics"
	DatasetGroups     = "groups"
	DatasetGradeItems = "grade_items"
)

const defaultQueueSize = 32

// CourseFetcher is the live-scrape surface the refresher drives.
type CourseFetcher interface {
	FetchTopics(ctx context.Context, courseID int) ([]models.Topic, error)
	FetchCourseGroups(ctx context.Context, courseID int) ([]models.Group, error)
	FetchGradeItems(ctx context.Context, courseID int, topics []models.Topic) ([]models.GradeItem, []models.CompletionItem, error)
}

// Job is one queued course refresh. seq orders jobs per course so a slow
// fetch can tell it was superseded by a later enqueue.
type Job struct {
	ID         string    `json:"id"`
	CourseID   int       `json:"course_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	seq uint64
}

// Refresher owns the refresh queue. Jobs are never cancelled mid-flight;
// a job whose course was re-enqueued while it ran is superseded and its
// results are discarded instead of overwriting the newer fetch.
type Refresher struct {
	fetcher CourseFetcher
	cache   *store.TieredStore
	broker  *Broker

	jobs   chan Job
	mu     sync.Mutex
	seq    uint64
	latest map[int]uint64

	tracer trace.Tracer
	logger zerolog.Logger
}

// NewRefresher wires the queue. queueSize <= 0 selects the default.
func NewRefresher(fetcher CourseFetcher, cache *store.TieredStore, broker *Broker, queueSize int, logger zerolog.Logger) *Refresher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	observability.RegisterMetrics()
	return &Refresher{
		fetcher: fetcher,
		cache:   cache,
		broker:  broker,
		jobs:    make(chan Job, queueSize),
		latest:  make(map[int]uint64),
		tracer:  otel.Tracer("github.com/noah-isme/paatshala-go-api/internal/reconcile"),
		logger:  logger.With().Str("component", "refresher").Logger(),
	}
}

// Start launches the worker loop and the broker's cross-node consumers;
// both stop when ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	r.broker.Start(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-r.jobs:
				r.run(ctx, job)
			}
		}
	}()
}

// Enqueue schedules a background refresh of one course and returns the job
// id. A full queue rejects the job; the caller keeps serving the cached
// value and may retry later.
func (r *Refresher) Enqueue(courseID int) (string, bool) {
	r.mu.Lock()
	r.seq++
	job := Job{ID: uuid.NewString(), CourseID: courseID, EnqueuedAt: time.Now().UTC(), seq: r.seq}
	r.mu.Unlock()

	select {
	case r.jobs <- job:
	default:
		observability.RefreshRuns().WithLabelValues("queue_full").Inc()
		r.logger.Warn().Int("course_id", courseID).Msg("refresh queue full, job dropped")
		return "", false
	}

	r.mu.Lock()
	if job.seq > r.latest[courseID] {
		r.latest[courseID] = job.seq
	}
	r.mu.Unlock()
	return job.ID, true
}

// Broker exposes the event broker for subscription endpoints.
func (r *Refresher) Broker() *Broker {
	return r.broker
}

func (r *Refresher) run(ctx context.Context, job Job) {
	ctx, span := r.tracer.Start(ctx, "reconcile.refresh", trace.WithAttributes(
		attribute.Int("course.id", job.CourseID),
		attribute.String("job.id", job.ID),
	))
	defer span.End()

	// The three datasets fetch independently; one failing leg leaves the
	// others' cached values refreshed rather than aborting the job.
	var g errgroup.Group
	g.Go(func() error {
		topics, err := r.fetcher.FetchTopics(ctx, job.CourseID)
		if err != nil {
			return fmt.Errorf("topics: %w", err)
		}
		return r.apply(ctx, job, DatasetTopics, store.KeyTopics(job.CourseID), topics, len(topics))
	})
	g.Go(func() error {
		groups, err := r.fetcher.FetchCourseGroups(ctx, job.CourseID)
		if err != nil {
			return fmt.Errorf("groups: %w", err)
		}
		return r.apply(ctx, job, DatasetGroups, store.KeyGroups(job.CourseID), groups, len(groups))
	})
	g.Go(func() error {
		items, _, err := r.fetcher.FetchGradeItems(ctx, job.CourseID, nil)
		if err != nil {
			return fmt.Errorf("grade items: %w", err)
		}
		return r.apply(ctx, job, DatasetGradeItems, store.KeyGradeItems(job.CourseID), items, len(items))
	})

	if err := g.Wait(); err != nil {
		observability.RefreshRuns().WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh_incomplete")
		r.logger.Warn().Err(err).Str("job_id", job.ID).Int("course_id", job.CourseID).
			Msg("background refresh incomplete, stale cache kept where the fetch failed")
		return
	}

	observability.RefreshRuns().WithLabelValues("ok").Inc()
	r.logger.Info().Str("job_id", job.ID).Int("course_id", job.CourseID).Msg("background refresh applied")
}

// apply replaces one cached dataset and announces it, unless a newer job
// for the same course superseded this one while it was fetching.
func (r *Refresher) apply(ctx context.Context, job Job, dataset, key string, value any, rows int) error {
	r.mu.Lock()
	superseded := r.latest[job.CourseID] > job.seq
	r.mu.Unlock()
	if superseded {
		r.logger.Debug().Str("job_id", job.ID).Str("dataset", dataset).Msg("refresh result superseded, discarded")
		return nil
	}

	if err := r.cache.Save(ctx, key, value); err != nil {
		return fmt.Errorf("save %s: %w", dataset, err)
	}
	r.broker.Publish(ctx, RefreshEvent{
		JobID:       job.ID,
		CourseID:    job.CourseID,
		Dataset:     dataset,
		Rows:        rows,
		RefreshedAt: time.Now().UTC(),
	})
	return nil
}
