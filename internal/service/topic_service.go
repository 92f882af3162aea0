package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/mutate"
	"github.com/noah-isme/paatshala-go-api/internal/parser"
	"github.com/noah-isme/paatshala-go-api/internal/store"
)

// TopicScraper is the live-fetch surface behind topic reads.
type TopicScraper interface {
	FetchTopics(ctx context.Context, courseID int) ([]models.Topic, error)
	FetchCourseGroups(ctx context.Context, courseID int) ([]models.Group, error)
	FetchGradeItems(ctx context.Context, courseID int, topics []models.Topic) ([]models.GradeItem, []models.CompletionItem, error)
}

// SectionMutator covers the per-section LMS operations.
type SectionMutator interface {
	EnableEditMode(ctx context.Context, sesskey string, courseID int) error
	AddTopics(ctx context.Context, sesskey string, courseID, count int) error
	MoveTopic(ctx context.Context, sesskey string, courseID, fromSection, toSection int) error
	RenameTopic(ctx context.Context, sesskey string, sectionDBID int, name string) error
	ToggleTopicVisibility(ctx context.Context, sesskey string, courseID, sectionNumber int, hide bool) error
	DeleteTopic(ctx context.Context, sesskey string, sectionDBID int) error
}

// ActivityMutator covers the per-module LMS operations.
type ActivityMutator interface {
	MoveActivityToSection(ctx context.Context, sesskey string, courseID, moduleID, sectionDBID int) error
	ReorderActivity(ctx context.Context, sesskey string, courseID, moduleID, sectionDBID, beforeModuleID int) error
	DuplicateActivity(ctx context.Context, sesskey string, moduleID int) error
	DeleteActivity(ctx context.Context, sesskey string, moduleID int) error
	RenameActivity(ctx context.Context, sesskey string, moduleID int, name string) error
	ToggleActivityVisibility(ctx context.Context, sesskey string, moduleID int, hide bool) error
}

// RestrictionEditor reads and replaces section access restrictions.
type RestrictionEditor interface {
	GetRestriction(ctx context.Context, sectionDBID int) (models.Restriction, error)
	UpdateRestriction(ctx context.Context, sectionDBID int, restriction models.Restriction) error
}

// PageCreator adds embedded-content pages to a course section.
type PageCreator interface {
	AddPageWithEmbed(ctx context.Context, courseID, sectionNumber int, name, embedHTML string, visible bool) error
}

// LMSMutator is the full mutation surface the topic service drives. A
// fresh sesskey is minted per operation or batch, never reused across
// them.
type LMSMutator interface {
	FreshSesskey(ctx context.Context, courseID int) (string, error)
	SectionMutator
	ActivityMutator
	RestrictionEditor
	PageCreator
}

// TopicsView is a course's section list plus the freshness of what backed
// it. RefreshJobID is set when a background refresh was enqueued for it.
type TopicsView struct {
	Topics       []models.Topic `json:"topics"`
	CachedAt     time.Time      `json:"cached_at"`
	Stale        bool           `json:"stale"`
	RefreshJobID string         `json:"refresh_job_id,omitempty"`
}

// RestrictionTargets lists everything a restriction condition can point
// at within one course.
type RestrictionTargets struct {
	Groups          []models.Group          `json:"groups"`
	GradeItems      []models.GradeItem      `json:"grade_items"`
	CompletionItems []models.CompletionItem `json:"completion_items"`
}

// VideoImportOptions shape the pages created for an import plan.
type VideoImportOptions struct {
	Width   int
	Height  int
	Visible bool
}

// VideoImportResult counts the outcome of executing an import plan.
// Skipped entries had no matching topic and were never attempted.
type VideoImportResult struct {
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// TopicService reads course sections cache-first and rewrites them
// through the LMS mutation surface.
type TopicService interface {
	Topics(ctx context.Context, courseID int, force bool) (TopicsView, error)

	AddTopics(ctx context.Context, courseID, count int, name string, position int) MutationResult
	MoveTopic(ctx context.Context, courseID, fromSection, toSection int) MutationResult
	RenameTopic(ctx context.Context, courseID, sectionID int, name string) MutationResult
	SetTopicVisibility(ctx context.Context, courseID, sectionNumber int, visible bool) MutationResult
	DeleteTopics(ctx context.Context, courseID int, sectionIDs []int) BatchResult

	MoveActivity(ctx context.Context, courseID, moduleID, sectionID, beforeModuleID int) MutationResult
	DuplicateActivity(ctx context.Context, courseID, moduleID int) MutationResult
	RenameActivity(ctx context.Context, courseID, moduleID int, name string) MutationResult
	SetActivityVisibility(ctx context.Context, courseID, moduleID int, visible bool) MutationResult
	DeleteActivities(ctx context.Context, courseID int, moduleIDs []int) BatchResult

	Restriction(ctx context.Context, sectionID int) (models.Restriction, error)
	UpdateRestriction(ctx context.Context, courseID, sectionID int, patch mutate.RestrictionPatch) MutationResult
	BatchRestrictions(ctx context.Context, courseID int, sectionIDs []int, patch mutate.RestrictionPatch) BatchResult
	RestrictionTargets(ctx context.Context, courseID int) (RestrictionTargets, error)

	AddPage(ctx context.Context, courseID, sectionNumber int, name, embedHTML string, visible bool) MutationResult
	PlanVideoImport(ctx context.Context, courseID int, videos []models.VideoFile) ([]models.VideoImportPlan, error)
	ImportVideos(ctx context.Context, courseID int, plans []models.VideoImportPlan, opts VideoImportOptions) VideoImportResult
}

type topicService struct {
	scraper TopicScraper
	mutator LMSMutator
	cache   *store.TieredStore
	state   *topicState
	refresh RefreshQueue
	names   *bluemonday.Policy
	summary *bluemonday.Policy
	embed   *bluemonday.Policy
	logger  zerolog.Logger
}

// NewTopicService builds the section read/write service. Scraped names
// pass a strict sanitizer and summaries a UGC one before they leave the
// API; page embeds are whitelisted down to iframe markup.
func NewTopicService(scraper TopicScraper, mutator LMSMutator, cache *store.TieredStore, refresh RefreshQueue, logger zerolog.Logger) TopicService {
	embed := bluemonday.UGCPolicy()
	embed.AllowElements("iframe")
	embed.AllowAttrs("src", "width", "height", "allow", "allowfullscreen", "frameborder").OnElements("iframe")

	return &topicService{
		scraper: scraper,
		mutator: mutator,
		cache:   cache,
		state:   newTopicState(),
		refresh: refresh,
		names:   bluemonday.StrictPolicy(),
		summary: bluemonday.UGCPolicy(),
		embed:   embed,
		logger:  logger.With().Str("component", "topic_service").Logger(),
	}
}

// Topics serves the freshest held snapshot and queues a live refresh
// behind it; force bypasses every cached copy.
func (s *topicService) Topics(ctx context.Context, courseID int, force bool) (TopicsView, error) {
	if !force {
		if topics, at, ok := s.heldTopics(ctx, courseID); ok {
			jobID, _ := s.refresh.Enqueue(courseID)
			return TopicsView{Topics: s.present(topics), CachedAt: at, Stale: true, RefreshJobID: jobID}, nil
		}
	}

	topics, err := s.scraper.FetchTopics(ctx, courseID)
	if err != nil {
		return TopicsView{}, fmt.Errorf("fetch topics: %w", err)
	}
	now := time.Now().UTC()
	s.storeTopics(ctx, courseID, topics, now)
	return TopicsView{Topics: s.present(topics), CachedAt: now}, nil
}

func (s *topicService) AddTopics(ctx context.Context, courseID, count int, name string, position int) MutationResult {
	if count <= 0 {
		count = 1
	}

	sesskey, err := s.mutator.FreshSesskey(ctx, courseID)
	if err != nil {
		return mutationOutcome(err)
	}
	if err := s.mutator.EnableEditMode(ctx, sesskey, courseID); err != nil {
		s.logger.Debug().Err(err).Int("course_id", courseID).Msg("edit mode toggle failed before add")
	}
	if err := s.mutator.AddTopics(ctx, sesskey, courseID, count); err != nil {
		return mutationOutcome(err)
	}

	// The LMS appends new sections at the end; re-read the page to learn
	// their ids before naming and placing the first one.
	after, err := s.scraper.FetchTopics(ctx, courseID)
	if err != nil || len(after) < count {
		s.refresh.Enqueue(courseID)
		return MutationResult{Applied: true, Reason: "added, but the course page could not be re-read to finish naming"}
	}
	s.storeTopics(ctx, courseID, after, time.Now().UTC())

	var notes []string
	first := after[len(after)-count]
	if name != "" {
		if !first.HasSectionID() {
			notes = append(notes, "new section id unresolved, name not set")
		} else if err := s.mutator.RenameTopic(ctx, sesskey, first.SectionID, name); err != nil {
			notes = append(notes, "renaming the new section failed")
		} else {
			s.patchTopics(ctx, courseID, renameSectionPatch(first.SectionID, name))
		}
	}
	if position > 0 && position < first.SectionNumber {
		if err := s.mutator.MoveTopic(ctx, sesskey, courseID, first.SectionNumber, position); err != nil {
			notes = append(notes, "moving the new section failed")
		} else {
			s.state.drop(courseID)
		}
	}

	s.refresh.Enqueue(courseID)
	return MutationResult{Applied: true, Reason: strings.Join(notes, "; ")}
}

func (s *topicService) MoveTopic(ctx context.Context, courseID, fromSection, toSection int) MutationResult {
	sesskey, err := s.mutator.FreshSesskey(ctx, courseID)
	if err != nil {
		return mutationOutcome(err)
	}
	if err := s.mutator.MoveTopic(ctx, sesskey, courseID, fromSection, toSection); err != nil {
		return mutationOutcome(err)
	}
	// Renumbering shifts every section between the two slots; let the
	// refresh rebuild the snapshot instead of guessing.
	s.state.drop(courseID)
	s.refresh.Enqueue(courseID)
	return MutationResult{Applied: true}
}

func (s *topicService) RenameTopic(ctx context.Context, courseID, sectionID int, name string) MutationResult {
	sesskey, err := s.mutator.FreshSesskey(ctx, courseID)
	if err != nil {
		return mutationOutcome(err)
	}
	if err := s.mutator.RenameTopic(ctx, sesskey, sectionID, name); err != nil {
		return mutationOutcome(err)
	}
	s.patchTopics(ctx, courseID, renameSectionPatch(sectionID, name))
	s.refresh.Enqueue(courseID)
	return MutationResult{Applied: true}
}

func (s *topicService) SetTopicVisibility(ctx context.Context, courseID, sectionNumber int, visible bool) MutationResult {
	sesskey, err := s.mutator.FreshSesskey(ctx, courseID)
	if err != nil {
		return mutationOutcome(err)
	}
	if err := s.mutator.ToggleTopicVisibility(ctx, sesskey, courseID, sectionNumber, !visible); err != nil {
		return mutationOutcome(err)
	}
	s.patchTopics(ctx, courseID, func(topics []models.Topic) []models.Topic {
		for i := range topics {
			if topics[i].SectionNumber == sectionNumber {
				topics[i].Visible = visible
			}
		}
		return topics
	})
	s.refresh.Enqueue(courseID)
	return MutationResult{Applied: true}
}

// DeleteTopics removes sections bottom-up so earlier deletions cannot
// renumber the ones still pending.
func (s *topicService) DeleteTopics(ctx context.Context, courseID int, sectionIDs []int) BatchResult {
	if len(sectionIDs) == 0 {
		return BatchResult{}
	}

	sesskey, err := s.mutator.FreshSesskey(ctx, courseID)
	if err != nil {
		return BatchResult{Failed: len(sectionIDs)}
	}

	ordered := append([]int(nil), sectionIDs...)
	numberOf := s.sectionNumbers(ctx, courseID)
	sort.SliceStable(ordered, func(i, j int) bool {
		return numberOf[ordered[i]] > numberOf[ordered[j]]
	})

	applied, failed := mutate.Batch(len(ordered), func(i int) error {
		return s.mutator.DeleteTopic(ctx, sesskey, ordered[i])
	})

	if failed == 0 {
		deleted := make(map[int]struct{}, len(ordered))
		for _, id := range ordered {
			deleted[id] = struct{}{}
		}
		s.patchTopics(ctx, courseID, func(topics []models.Topic) []models.Topic {
			kept := topics[:0]
			for _, t := range topics {
				if _, gone := deleted[t.SectionID]; !gone {
					kept = append(kept, t)
				}
			}
			return kept
		})
	} else {
		s.state.drop(courseID)
	}

	s.refresh.Enqueue(courseID)
	return BatchResult{Applied: applied, Failed: failed}
}

func (s *topicService) MoveActivity(ctx context.Context, courseID, moduleID, sectionID, beforeModuleID int) MutationResult {
	sesskey, err := s.mutator.FreshSesskey(ctx, courseID)
	if err != nil {
		return mutationOutcome(err)
	}
	if beforeModuleID > 0 {
		err = s.mutator.ReorderActivity(ctx, sesskey, courseID, moduleID, sectionID, beforeModuleID)
	} else {
		err = s.mutator.MoveActivityToSection(ctx, sesskey, courseID, moduleID, sectionID)
	}
	if err != nil {
		return mutationOutcome(err)
	}
	s.state.drop(courseID)
	s.refresh.Enqueue(courseID)
	return MutationResult{Applied: true}
}

func (s *topicService) DuplicateActivity(ctx context.Context, courseID, moduleID int) MutationResult {
	sesskey, err := s.mutator.FreshSesskey(ctx, courseID)
	if err != nil {
		return mutationOutcome(err)
	}
	if err := s.mutator.DuplicateActivity(ctx, sesskey, moduleID); err != nil {
		return mutationOutcome(err)
	}
	s.state.drop(courseID)
	s.refresh.Enqueue(courseID)
	return MutationResult{Applied: true}
}

func (s *topicService) RenameActivity(ctx context.Context, courseID, moduleID int, name string) MutationResult {
	sesskey, err := s.mutator.FreshSesskey(ctx, courseID)
	if err != nil {
		return mutationOutcome(err)
	}
	if err := s.mutator.RenameActivity(ctx, sesskey, moduleID, name); err != nil {
		return mutationOutcome(err)
	}
	s.patchTopics(ctx, courseID, func(topics []models.Topic) []models.Topic {
		for i := range topics {
			for j := range topics[i].Activities {
				if topics[i].Activities[j].ModuleID == moduleID {
					topics[i].Activities[j].Name = name
				}
			}
		}
		return topics
	})
	s.refresh.Enqueue(courseID)
	return MutationResult{Applied: true}
}

func (s *topicService) SetActivityVisibility(ctx context.Context, courseID, moduleID int, visible bool) MutationResult {
	sesskey, err := s.mutator.FreshSesskey(ctx, courseID)
	if err != nil {
		return mutationOutcome(err)
	}
	if err := s.mutator.ToggleActivityVisibility(ctx, sesskey, moduleID, !visible); err != nil {
		return mutationOutcome(err)
	}
	s.patchTopics(ctx, courseID, func(topics []models.Topic) []models.Topic {
		for i := range topics {
			for j := range topics[i].Activities {
				if topics[i].Activities[j].ModuleID == moduleID {
					topics[i].Activities[j].Visible = visible
				}
			}
		}
		return topics
	})
	s.refresh.Enqueue(courseID)
	return MutationResult{Applied: true}
}

func (s *topicService) DeleteActivities(ctx context.Context, courseID int, moduleIDs []int) BatchResult {
	if len(moduleIDs) == 0 {
		return BatchResult{}
	}

	sesskey, err := s.mutator.FreshSesskey(ctx, courseID)
	if err != nil {
		return BatchResult{Failed: len(moduleIDs)}
	}

	applied, failed := mutate.Batch(len(moduleIDs), func(i int) error {
		return s.mutator.DeleteActivity(ctx, sesskey, moduleIDs[i])
	})

	if failed == 0 {
		gone := make(map[int]struct{}, len(moduleIDs))
		for _, id := range moduleIDs {
			gone[id] = struct{}{}
		}
		s.patchTopics(ctx, courseID, func(topics []models.Topic) []models.Topic {
			for i := range topics {
				kept := topics[i].Activities[:0]
				for _, a := range topics[i].Activities {
					if _, deleted := gone[a.ModuleID]; !deleted {
						kept = append(kept, a)
					}
				}
				topics[i].Activities = kept
			}
			return topics
		})
	} else {
		s.state.drop(courseID)
	}

	s.refresh.Enqueue(courseID)
	return BatchResult{Applied: applied, Failed: failed}
}

func (s *topicService) Restriction(ctx context.Context, sectionID int) (models.Restriction, error) {
	return s.mutator.GetRestriction(ctx, sectionID)
}

func (s *topicService) UpdateRestriction(ctx context.Context, courseID, sectionID int, patch mutate.RestrictionPatch) MutationResult {
	result := s.applyRestriction(ctx, sectionID, patch)
	if result.Applied {
		s.refresh.Enqueue(courseID)
	}
	return result
}

// BatchRestrictions applies one patch to many sections. Every section is
// attempted; a failing one never stops the rest.
func (s *topicService) BatchRestrictions(ctx context.Context, courseID int, sectionIDs []int, patch mutate.RestrictionPatch) BatchResult {
	applied, failed := mutate.Batch(len(sectionIDs), func(i int) error {
		result := s.applyRestriction(ctx, sectionIDs[i], patch)
		if !result.Applied {
			return fmt.Errorf("section %d: %s", sectionIDs[i], result.Reason)
		}
		return nil
	})
	if applied > 0 {
		s.refresh.Enqueue(courseID)
	}
	return BatchResult{Applied: applied, Failed: failed}
}

func (s *topicService) applyRestriction(ctx context.Context, sectionID int, patch mutate.RestrictionPatch) MutationResult {
	existing, err := s.mutator.GetRestriction(ctx, sectionID)
	if err != nil {
		return mutationOutcome(fmt.Errorf("read current restriction: %w", err))
	}
	rebuilt, err := mutate.RebuildRestriction(existing, patch)
	if err != nil {
		return mutationOutcome(err)
	}
	return mutationOutcome(s.mutator.UpdateRestriction(ctx, sectionID, rebuilt))
}

func (s *topicService) RestrictionTargets(ctx context.Context, courseID int) (RestrictionTargets, error) {
	view, err := s.Topics(ctx, courseID, false)
	if err != nil {
		return RestrictionTargets{}, err
	}

	targets := RestrictionTargets{CompletionItems: completionTargets(view.Topics)}

	if _, ok := s.cache.Load(ctx, store.KeyGroups(courseID), &targets.Groups); !ok {
		groups, err := s.scraper.FetchCourseGroups(ctx, courseID)
		if err != nil {
			s.logger.Warn().Err(err).Int("course_id", courseID).Msg("course groups unavailable")
		} else {
			targets.Groups = groups
			if err := s.cache.Save(ctx, store.KeyGroups(courseID), groups); err != nil {
				s.logger.Warn().Err(err).Msg("group cache write failed")
			}
		}
	}

	if _, ok := s.cache.Load(ctx, store.KeyGradeItems(courseID), &targets.GradeItems); !ok {
		items, _, err := s.scraper.FetchGradeItems(ctx, courseID, view.Topics)
		if err != nil {
			s.logger.Warn().Err(err).Int("course_id", courseID).Msg("grade items unavailable")
		} else {
			targets.GradeItems = items
			if err := s.cache.Save(ctx, store.KeyGradeItems(courseID), items); err != nil {
				s.logger.Warn().Err(err).Msg("grade item cache write failed")
			}
		}
	}

	return targets, nil
}

func (s *topicService) AddPage(ctx context.Context, courseID, sectionNumber int, name, embedHTML string, visible bool) MutationResult {
	cleaned := strings.TrimSpace(s.embed.Sanitize(embedHTML))
	if embedHTML != "" && cleaned == "" {
		return MutationResult{Applied: false, Reason: "embed markup was rejected"}
	}
	if err := s.mutator.AddPageWithEmbed(ctx, courseID, sectionNumber, name, cleaned, visible); err != nil {
		return mutationOutcome(err)
	}
	s.state.drop(courseID)
	s.refresh.Enqueue(courseID)
	return MutationResult{Applied: true}
}

// PlanVideoImport maps recorded-session files onto course topics by the
// session number in each filename. Entries that match no topic keep
// section zero and are skipped at import time.
func (s *topicService) PlanVideoImport(ctx context.Context, courseID int, videos []models.VideoFile) ([]models.VideoImportPlan, error) {
	view, err := s.Topics(ctx, courseID, false)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(view.Topics))
	for i, topic := range view.Topics {
		names[i] = topic.Name
	}

	plans := make([]models.VideoImportPlan, 0, len(videos))
	for _, video := range videos {
		video.Session, video.Title = parser.ParseVideoFilename(video.Name)
		plan := models.VideoImportPlan{Video: video, PageName: video.Title}
		if idx := parser.MatchSessionTopic(names, video.Session); idx >= 0 {
			plan.SectionNumber = view.Topics[idx].SectionNumber
			plan.SectionID = view.Topics[idx].SectionID
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (s *topicService) ImportVideos(ctx context.Context, courseID int, plans []models.VideoImportPlan, opts VideoImportOptions) VideoImportResult {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}

	result := VideoImportResult{}
	for _, plan := range plans {
		if plan.SectionNumber <= 0 {
			result.Skipped++
			continue
		}
		embed := parser.EmbedHTML(plan.Video.ID, opts.Width, opts.Height)
		if err := s.mutator.AddPageWithEmbed(ctx, courseID, plan.SectionNumber, plan.PageName, embed, opts.Visible); err != nil {
			s.logger.Warn().Err(err).Str("page", plan.PageName).Msg("video page creation failed")
			result.Failed++
			continue
		}
		result.Applied++
	}

	if result.Applied > 0 {
		s.state.drop(courseID)
		s.refresh.Enqueue(courseID)
	}
	return result
}

// heldTopics returns the freshest of the in-memory and cached snapshots,
// seeding the memory copy from the cache when the cache is newer.
func (s *topicService) heldTopics(ctx context.Context, courseID int) ([]models.Topic, time.Time, bool) {
	held, heldAt, heldOK := s.state.get(courseID)

	var cached []models.Topic
	cachedAt, cachedOK := s.cache.Load(ctx, store.KeyTopics(courseID), &cached)

	switch {
	case heldOK && (!cachedOK || heldAt.After(cachedAt)):
		return held, heldAt, true
	case cachedOK:
		s.state.set(courseID, cached, cachedAt)
		return cached, cachedAt, true
	default:
		return nil, time.Time{}, false
	}
}

func (s *topicService) storeTopics(ctx context.Context, courseID int, topics []models.Topic, at time.Time) {
	s.state.set(courseID, topics, at)
	if err := s.cache.Save(ctx, store.KeyTopics(courseID), topics); err != nil {
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("topic cache write failed")
	}
}

// patchTopics applies an optimistic edit to the held snapshot and writes
// it through to the cache; the next refresh replaces it with the truth.
func (s *topicService) patchTopics(ctx context.Context, courseID int, fn func([]models.Topic) []models.Topic) {
	now := time.Now().UTC()
	patched, ok := s.state.update(courseID, now, fn)
	if !ok {
		var cached []models.Topic
		if _, hit := s.cache.Load(ctx, store.KeyTopics(courseID), &cached); !hit {
			return
		}
		patched = fn(cloneTopics(cached))
		s.state.set(courseID, patched, now)
	}
	if err := s.cache.Save(ctx, store.KeyTopics(courseID), patched); err != nil {
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("topic cache write failed")
	}
}

// sectionNumbers maps section database ids to their current ordinals.
func (s *topicService) sectionNumbers(ctx context.Context, courseID int) map[int]int {
	numberOf := make(map[int]int)
	topics, _, ok := s.heldTopics(ctx, courseID)
	if !ok {
		return numberOf
	}
	for _, topic := range topics {
		if topic.HasSectionID() {
			numberOf[topic.SectionID] = topic.SectionNumber
		}
	}
	return numberOf
}

// present clones and sanitizes a snapshot for the API response; the held
// copies keep the raw LMS values.
func (s *topicService) present(topics []models.Topic) []models.Topic {
	out := cloneTopics(topics)
	for i := range out {
		out[i].Name = s.names.Sanitize(out[i].Name)
		out[i].Summary = s.summary.Sanitize(out[i].Summary)
		for j := range out[i].Activities {
			out[i].Activities[j].Name = s.names.Sanitize(out[i].Activities[j].Name)
		}
	}
	return out
}

func renameSectionPatch(sectionID int, name string) func([]models.Topic) []models.Topic {
	return func(topics []models.Topic) []models.Topic {
		for i := range topics {
			if topics[i].SectionID == sectionID {
				topics[i].Name = name
			}
		}
		return topics
	}
}

func completionTargets(topics []models.Topic) []models.CompletionItem {
	var items []models.CompletionItem
	for _, topic := range topics {
		for _, activity := range topic.Activities {
			if activity.Name == "" {
				continue
			}
			items = append(items, models.CompletionItem{ModuleID: activity.ModuleID, Name: activity.Name})
		}
	}
	return items
}
