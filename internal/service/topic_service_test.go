package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/mutate"
	"github.com/noah-isme/paatshala-go-api/internal/parser"
	"github.com/noah-isme/paatshala-go-api/internal/session"
	"github.com/noah-isme/paatshala-go-api/internal/store"
)

type topicScraperStub struct {
	mu         sync.Mutex
	queue      [][]models.Topic
	fetchErr   error
	groups     []models.Group
	groupErr   error
	gradeItems []models.GradeItem
	gradeErr   error
	fetches    int
	groupCalls int
}

func (s *topicScraperStub) FetchTopics(ctx context.Context, courseID int) ([]models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if len(s.queue) == 0 {
		return nil, errors.New("no scripted topics")
	}
	topics := s.queue[0]
	if len(s.queue) > 1 {
		s.queue = s.queue[1:]
	}
	return cloneTopics(topics), nil
}

func (s *topicScraperStub) FetchCourseGroups(ctx context.Context, courseID int) ([]models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupCalls++
	return s.groups, s.groupErr
}

func (s *topicScraperStub) FetchGradeItems(ctx context.Context, courseID int, topics []models.Topic) ([]models.GradeItem, []models.CompletionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gradeItems, nil, s.gradeErr
}

func (s *topicScraperStub) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// mutatorFake records every mutation in call order and fails the ones the
// test arms.
type mutatorFake struct {
	mu    sync.Mutex
	calls []string

	sesskeyErr error
	sesskeys   int

	addErr     error
	renameErr  error
	moveErr    error
	toggleErr  error
	deleteErrs map[int]error

	delActErrs map[int]error

	restrictions map[int]models.Restriction
	getErrs      map[int]error
	updated      map[int]models.Restriction
	updateErr    error

	pages    []string
	pageErrs map[string]error
}

func newMutatorFake() *mutatorFake {
	return &mutatorFake{
		deleteErrs:   make(map[int]error),
		delActErrs:   make(map[int]error),
		restrictions: make(map[int]models.Restriction),
		getErrs:      make(map[int]error),
		updated:      make(map[int]models.Restriction),
		pageErrs:     make(map[string]error),
	}
}

func (m *mutatorFake) record(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mutatorFake) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mutatorFake) FreshSesskey(ctx context.Context, courseID int) (string, error) {
	if m.sesskeyErr != nil {
		return "", m.sesskeyErr
	}
	m.mu.Lock()
	m.sesskeys++
	key := fmt.Sprintf("sk-%d", m.sesskeys)
	m.mu.Unlock()
	return key, nil
}

func (m *mutatorFake) EnableEditMode(ctx context.Context, sesskey string, courseID int) error {
	m.record("edit_mode course=%d", courseID)
	return nil
}

func (m *mutatorFake) AddTopics(ctx context.Context, sesskey string, courseID, count int) error {
	m.record("add_topics count=%d", count)
	return m.addErr
}

func (m *mutatorFake) MoveTopic(ctx context.Context, sesskey string, courseID, fromSection, toSection int) error {
	m.record("move_topic from=%d to=%d", fromSection, toSection)
	return m.moveErr
}

func (m *mutatorFake) RenameTopic(ctx context.Context, sesskey string, sectionDBID int, name string) error {
	m.record("rename_topic id=%d name=%s", sectionDBID, name)
	return m.renameErr
}

func (m *mutatorFake) ToggleTopicVisibility(ctx context.Context, sesskey string, courseID, sectionNumber int, hide bool) error {
	m.record("toggle_topic section=%d hide=%t", sectionNumber, hide)
	return m.toggleErr
}

func (m *mutatorFake) DeleteTopic(ctx context.Context, sesskey string, sectionDBID int) error {
	m.record("delete_topic id=%d", sectionDBID)
	return m.deleteErrs[sectionDBID]
}

func (m *mutatorFake) MoveActivityToSection(ctx context.Context, sesskey string, courseID, moduleID, sectionDBID int) error {
	m.record("move_activity module=%d section=%d", moduleID, sectionDBID)
	return nil
}

func (m *mutatorFake) ReorderActivity(ctx context.Context, sesskey string, courseID, moduleID, sectionDBID, beforeModuleID int) error {
	m.record("reorder_activity module=%d before=%d", moduleID, beforeModuleID)
	return nil
}

func (m *mutatorFake) DuplicateActivity(ctx context.Context, sesskey string, moduleID int) error {
	m.record("duplicate_activity module=%d", moduleID)
	return nil
}

func (m *mutatorFake) DeleteActivity(ctx context.Context, sesskey string, moduleID int) error {
	m.record("delete_activity module=%d", moduleID)
	return m.delActErrs[moduleID]
}

func (m *mutatorFake) RenameActivity(ctx context.Context, sesskey string, moduleID int, name string) error {
	m.record("rename_activity module=%d name=%s", moduleID, name)
	return m.renameErr
}

func (m *mutatorFake) ToggleActivityVisibility(ctx context.Context, sesskey string, moduleID int, hide bool) error {
	m.record("toggle_activity module=%d hide=%t", moduleID, hide)
	return m.toggleErr
}

func (m *mutatorFake) GetRestriction(ctx context.Context, sectionDBID int) (models.Restriction, error) {
	if err := m.getErrs[sectionDBID]; err != nil {
		return models.Restriction{}, err
	}
	restriction, ok := m.restrictions[sectionDBID]
	if !ok {
		restriction = models.EmptyRestriction()
	}
	return restriction, nil
}

func (m *mutatorFake) UpdateRestriction(ctx context.Context, sectionDBID int, restriction models.Restriction) error {
	m.mu.Lock()
	m.updated[sectionDBID] = restriction
	m.mu.Unlock()
	return m.updateErr
}

func (m *mutatorFake) AddPageWithEmbed(ctx context.Context, courseID, sectionNumber int, name, embedHTML string, visible bool) error {
	if err := m.pageErrs[name]; err != nil {
		return err
	}
	m.mu.Lock()
	m.pages = append(m.pages, embedHTML)
	m.mu.Unlock()
	m.record("add_page section=%d name=%s visible=%t", sectionNumber, name, visible)
	return nil
}

func sampleTopics() []models.Topic {
	return []models.Topic{
		{Name: "General", Visible: true, SectionNumber: 0, SectionID: 100},
		{
			Name: "Session 1 - Intro", Visible: true, SectionNumber: 1, SectionID: 101,
			Activities: []models.Activity{{ModuleID: 1001, Name: "Syllabus", Type: models.ActivityPage, Visible: true}},
		},
		{
			Name: "Session 2 - Recon", Visible: false, SectionNumber: 2, SectionID: 102,
			Activities: []models.Activity{{ModuleID: 1002, Name: "Scan Lab", Type: models.ActivityAssignment, Visible: true}},
		},
	}
}

func newTopicFixture(t *testing.T) (*topicScraperStub, *mutatorFake, TopicService, *store.TieredStore, *refreshQueueStub) {
	t.Helper()
	scraper := &topicScraperStub{}
	mutator := newMutatorFake()
	cache := newTestStore(t)
	queue := &refreshQueueStub{}
	svc := NewTopicService(scraper, mutator, cache, queue, testLogger())
	return scraper, mutator, svc, cache, queue
}

func TestTopicServiceTopicsLiveWhenCold(t *testing.T) {
	scraper, _, svc, cache, queue := newTopicFixture(t)
	scraper.queue = [][]models.Topic{sampleTopics()}

	view, err := svc.Topics(context.Background(), 7, false)
	require.NoError(t, err)
	require.False(t, view.Stale)
	require.Len(t, view.Topics, 3)
	require.Equal(t, 1, scraper.fetchCount())
	require.Empty(t, queue.enqueued())

	var cached []models.Topic
	_, ok := cache.Load(context.Background(), store.KeyTopics(7), &cached)
	require.True(t, ok)
	require.Len(t, cached, 3)
}

func TestTopicServiceTopicsServesCacheAndEnqueues(t *testing.T) {
	scraper, _, svc, cache, queue := newTopicFixture(t)
	require.NoError(t, cache.Save(context.Background(), store.KeyTopics(7), sampleTopics()))

	view, err := svc.Topics(context.Background(), 7, false)
	require.NoError(t, err)
	require.True(t, view.Stale)
	require.NotEmpty(t, view.RefreshJobID)
	require.Equal(t, 0, scraper.fetchCount())
	require.Equal(t, []int{7}, queue.enqueued())
}

func TestTopicServiceTopicsForceBypassesCache(t *testing.T) {
	scraper, _, svc, cache, _ := newTopicFixture(t)
	require.NoError(t, cache.Save(context.Background(), store.KeyTopics(7), sampleTopics()))
	scraper.queue = [][]models.Topic{{{Name: "Rebuilt", SectionNumber: 0, SectionID: 100}}}

	view, err := svc.Topics(context.Background(), 7, true)
	require.NoError(t, err)
	require.False(t, view.Stale)
	require.Len(t, view.Topics, 1)
	require.Equal(t, "Rebuilt", view.Topics[0].Name)
}

func TestTopicServiceTopicsSanitizesPresentation(t *testing.T) {
	_, _, svc, cache, _ := newTopicFixture(t)
	dirty := sampleTopics()
	dirty[1].Name = "<script>alert(1)</script>Week 5"
	dirty[1].Summary = `<p>Reading list</p><script>steal()</script>`
	dirty[1].Activities[0].Name = "<b>Syllabus</b>"
	require.NoError(t, cache.Save(context.Background(), store.KeyTopics(7), dirty))

	view, err := svc.Topics(context.Background(), 7, false)
	require.NoError(t, err)
	require.Equal(t, "Week 5", view.Topics[1].Name)
	require.Equal(t, "<p>Reading list</p>", view.Topics[1].Summary)
	require.Equal(t, "Syllabus", view.Topics[1].Activities[0].Name)
}

func TestTopicServiceAddTopicsNamesAndPlacesNewSection(t *testing.T) {
	scraper, mutator, svc, _, queue := newTopicFixture(t)
	after := append(sampleTopics(), models.Topic{Name: "Topic 4", Visible: true, SectionNumber: 3, SectionID: 103})
	scraper.queue = [][]models.Topic{after}

	result := svc.AddTopics(context.Background(), 7, 1, "Week 3", 2)
	require.True(t, result.Applied)
	require.Empty(t, result.Reason)

	calls := mutator.recorded()
	require.Contains(t, calls, "add_topics count=1")
	require.Contains(t, calls, "rename_topic id=103 name=Week 3")
	require.Contains(t, calls, "move_topic from=3 to=2")
	require.Contains(t, queue.enqueued(), 7)
}

func TestTopicServiceAddTopicsReportsRenameFailure(t *testing.T) {
	scraper, mutator, svc, _, _ := newTopicFixture(t)
	after := append(sampleTopics(), models.Topic{Name: "Topic 4", SectionNumber: 3, SectionID: 103})
	scraper.queue = [][]models.Topic{after}
	mutator.renameErr = mutate.ErrRejected

	result := svc.AddTopics(context.Background(), 7, 1, "Week 3", 0)
	require.True(t, result.Applied)
	require.Contains(t, result.Reason, "renaming the new section failed")
}

func TestTopicServiceAddTopicsWithoutSession(t *testing.T) {
	_, mutator, svc, _, _ := newTopicFixture(t)
	mutator.sesskeyErr = session.ErrNotAuthenticated

	result := svc.AddTopics(context.Background(), 7, 1, "", 0)
	require.False(t, result.Applied)
	require.Equal(t, "no authenticated LMS session", result.Reason)
	require.Empty(t, mutator.recorded())
}

func TestTopicServiceAddTopicsSurvivesRereadFailure(t *testing.T) {
	scraper, _, svc, _, queue := newTopicFixture(t)
	scraper.fetchErr = errors.New("page moved")

	result := svc.AddTopics(context.Background(), 7, 2, "Week 9", 0)
	require.True(t, result.Applied)
	require.Contains(t, result.Reason, "could not be re-read")
	require.Contains(t, queue.enqueued(), 7)
}

func TestTopicServiceRenameTopicPatchesHeldSnapshot(t *testing.T) {
	scraper, mutator, svc, cache, _ := newTopicFixture(t)
	scraper.queue = [][]models.Topic{sampleTopics()}
	_, err := svc.Topics(context.Background(), 7, true)
	require.NoError(t, err)

	result := svc.RenameTopic(context.Background(), 7, 102, "Defense")
	require.True(t, result.Applied)
	require.Contains(t, mutator.recorded(), "rename_topic id=102 name=Defense")

	view, err := svc.Topics(context.Background(), 7, false)
	require.NoError(t, err)
	require.Equal(t, "Defense", view.Topics[2].Name)

	var cached []models.Topic
	_, ok := cache.Load(context.Background(), store.KeyTopics(7), &cached)
	require.True(t, ok)
	require.Equal(t, "Defense", cached[2].Name)
}

func TestTopicServiceVisibilityPatchesHeldSnapshot(t *testing.T) {
	scraper, mutator, svc, _, _ := newTopicFixture(t)
	scraper.queue = [][]models.Topic{sampleTopics()}
	_, err := svc.Topics(context.Background(), 7, true)
	require.NoError(t, err)

	result := svc.SetTopicVisibility(context.Background(), 7, 2, true)
	require.True(t, result.Applied)
	require.Contains(t, mutator.recorded(), "toggle_topic section=2 hide=false")

	view, err := svc.Topics(context.Background(), 7, false)
	require.NoError(t, err)
	require.True(t, view.Topics[2].Visible)
}

func TestTopicServiceMoveTopicDropsSnapshot(t *testing.T) {
	scraper, mutator, svc, _, queue := newTopicFixture(t)
	scraper.queue = [][]models.Topic{sampleTopics()}
	_, err := svc.Topics(context.Background(), 7, true)
	require.NoError(t, err)

	result := svc.MoveTopic(context.Background(), 7, 2, 1)
	require.True(t, result.Applied)
	require.Contains(t, mutator.recorded(), "move_topic from=2 to=1")
	require.Contains(t, queue.enqueued(), 7)
}

func TestTopicServiceDeleteTopicsRunsBottomUp(t *testing.T) {
	scraper, mutator, svc, _, queue := newTopicFixture(t)
	scraper.queue = [][]models.Topic{sampleTopics()}
	_, err := svc.Topics(context.Background(), 7, true)
	require.NoError(t, err)

	result := svc.DeleteTopics(context.Background(), 7, []int{101, 102, 100})
	require.Equal(t, BatchResult{Applied: 3}, result)

	var deletions []string
	for _, call := range mutator.recorded() {
		if strings.HasPrefix(call, "delete_topic") {
			deletions = append(deletions, call)
		}
	}
	require.Equal(t, []string{"delete_topic id=102", "delete_topic id=101", "delete_topic id=100"}, deletions)

	view, err := svc.Topics(context.Background(), 7, false)
	require.NoError(t, err)
	require.Empty(t, view.Topics)
	require.Contains(t, queue.enqueued(), 7)
}

func TestTopicServiceDeleteTopicsCountsFailures(t *testing.T) {
	scraper, mutator, svc, _, _ := newTopicFixture(t)
	scraper.queue = [][]models.Topic{sampleTopics()}
	_, err := svc.Topics(context.Background(), 7, true)
	require.NoError(t, err)
	mutator.deleteErrs[101] = mutate.ErrRejected

	result := svc.DeleteTopics(context.Background(), 7, []int{100, 101, 102})
	require.Equal(t, BatchResult{Applied: 2, Failed: 1}, result)

	// The held snapshot is dropped on partial failure; the stale cache copy
	// still serves until the refresh lands.
	view, err := svc.Topics(context.Background(), 7, false)
	require.NoError(t, err)
	require.Len(t, view.Topics, 3)
}

func TestTopicServiceDeleteTopicsWithoutSession(t *testing.T) {
	_, mutator, svc, _, _ := newTopicFixture(t)
	mutator.sesskeyErr = session.ErrNotAuthenticated

	result := svc.DeleteTopics(context.Background(), 7, []int{100, 101})
	require.Equal(t, BatchResult{Failed: 2}, result)
}

func TestTopicServiceMoveActivityChoosesEndpoint(t *testing.T) {
	_, mutator, svc, _, _ := newTopicFixture(t)

	result := svc.MoveActivity(context.Background(), 7, 1001, 102, 0)
	require.True(t, result.Applied)
	require.Contains(t, mutator.recorded(), "move_activity module=1001 section=102")

	result = svc.MoveActivity(context.Background(), 7, 1001, 102, 1002)
	require.True(t, result.Applied)
	require.Contains(t, mutator.recorded(), "reorder_activity module=1001 before=1002")
}

func TestTopicServiceDeleteActivitiesFiltersSnapshot(t *testing.T) {
	scraper, _, svc, _, _ := newTopicFixture(t)
	scraper.queue = [][]models.Topic{sampleTopics()}
	_, err := svc.Topics(context.Background(), 7, true)
	require.NoError(t, err)

	result := svc.DeleteActivities(context.Background(), 7, []int{1002})
	require.Equal(t, BatchResult{Applied: 1}, result)

	view, err := svc.Topics(context.Background(), 7, false)
	require.NoError(t, err)
	require.Empty(t, view.Topics[2].Activities)
	require.Len(t, view.Topics[1].Activities, 1)
}

func TestTopicServiceRenameActivityPatchesSnapshot(t *testing.T) {
	scraper, _, svc, _, _ := newTopicFixture(t)
	scraper.queue = [][]models.Topic{sampleTopics()}
	_, err := svc.Topics(context.Background(), 7, true)
	require.NoError(t, err)

	result := svc.RenameActivity(context.Background(), 7, 1002, "Recon Lab")
	require.True(t, result.Applied)

	view, err := svc.Topics(context.Background(), 7, false)
	require.NoError(t, err)
	require.Equal(t, "Recon Lab", view.Topics[2].Activities[0].Name)
}

func TestTopicServiceUpdateRestrictionRebuildsTree(t *testing.T) {
	_, mutator, svc, _, queue := newTopicFixture(t)
	existing := models.EmptyRestriction()
	existing.Append(models.DateCondition{Direction: ">=", Unix: 1700000000}, true)
	mutator.restrictions[102] = existing

	hide := true
	result := svc.UpdateRestriction(context.Background(), 7, 102, mutate.RestrictionPatch{
		Groups:        &mutate.GroupsPatch{GroupIDs: []int{5}},
		HideWhenUnmet: &hide,
	})
	require.True(t, result.Applied)
	require.Equal(t, []int{7}, queue.enqueued())

	updated := mutator.updated[102]
	require.Len(t, updated.Conditions, 2)
	require.Len(t, updated.OfKind(models.CondGroup), 1)
	require.Len(t, updated.OfKind(models.CondDate), 1)
}

func TestTopicServiceUpdateRestrictionReadFailure(t *testing.T) {
	_, mutator, svc, _, queue := newTopicFixture(t)
	mutator.getErrs[102] = errors.New("form not found")

	result := svc.UpdateRestriction(context.Background(), 7, 102, mutate.RestrictionPatch{})
	require.False(t, result.Applied)
	require.Contains(t, result.Reason, "read current restriction")
	require.Empty(t, queue.enqueued())
}

func TestTopicServiceBatchRestrictionsCountsFailures(t *testing.T) {
	_, mutator, svc, _, queue := newTopicFixture(t)
	mutator.getErrs[102] = errors.New("form not found")

	result := svc.BatchRestrictions(context.Background(), 7, []int{101, 102, 103}, mutate.RestrictionPatch{
		Groups: &mutate.GroupsPatch{GroupIDs: []int{9}},
	})
	require.Equal(t, BatchResult{Applied: 2, Failed: 1}, result)
	require.Equal(t, []int{7}, queue.enqueued())
	require.Len(t, mutator.updated[101].OfKind(models.CondGroup), 1)
	require.Len(t, mutator.updated[103].OfKind(models.CondGroup), 1)
}

func TestTopicServiceRestrictionTargetsCacheGroups(t *testing.T) {
	scraper, _, svc, cache, _ := newTopicFixture(t)
	require.NoError(t, cache.Save(context.Background(), store.KeyTopics(7), sampleTopics()))
	scraper.groups = []models.Group{{ID: 31, Name: "Batch A"}}
	scraper.gradeItems = []models.GradeItem{{ID: 61, Name: "Quiz 1"}}

	targets, err := svc.RestrictionTargets(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, scraper.groups, targets.Groups)
	require.Equal(t, scraper.gradeItems, targets.GradeItems)
	require.Len(t, targets.CompletionItems, 2)

	again, err := svc.RestrictionTargets(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, targets.Groups, again.Groups)
	require.Equal(t, 1, scraper.groupCalls)
}

func TestTopicServiceAddPageSanitizesEmbed(t *testing.T) {
	_, mutator, svc, _, _ := newTopicFixture(t)
	iframe := parser.EmbedHTML("abc123", 640, 480)

	result := svc.AddPage(context.Background(), 7, 2, "Session 2 Video", iframe+"<script>steal()</script>", true)
	require.True(t, result.Applied)
	require.Len(t, mutator.pages, 1)
	require.Equal(t, iframe, mutator.pages[0])
}

func TestTopicServiceAddPageRejectsHostileEmbed(t *testing.T) {
	_, mutator, svc, _, _ := newTopicFixture(t)

	result := svc.AddPage(context.Background(), 7, 2, "Bad", "<script>only()</script>", true)
	require.False(t, result.Applied)
	require.Equal(t, "embed markup was rejected", result.Reason)
	require.Empty(t, mutator.pages)
}

func TestTopicServicePlanVideoImportMatchesSessions(t *testing.T) {
	_, _, svc, cache, _ := newTopicFixture(t)
	require.NoError(t, cache.Save(context.Background(), store.KeyTopics(7), sampleTopics()))

	videos := []models.VideoFile{
		{ID: "f1", Name: "#1_intro_v2 (720p).mp4"},
		{ID: "f2", Name: "random_clip.mp4"},
	}
	plans, err := svc.PlanVideoImport(context.Background(), 7, videos)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	require.Equal(t, 1, plans[0].SectionNumber)
	require.Equal(t, 101, plans[0].SectionID)
	require.Equal(t, "Intro", plans[0].PageName)

	require.Zero(t, plans[1].SectionNumber)
	require.Equal(t, "Random Clip", plans[1].PageName)
}

func TestTopicServiceImportVideosCountsOutcomes(t *testing.T) {
	_, mutator, svc, _, queue := newTopicFixture(t)
	mutator.pageErrs["Broken"] = mutate.ErrRejected

	plans := []models.VideoImportPlan{
		{Video: models.VideoFile{ID: "f0"}, SectionNumber: 0, PageName: "Unmatched"},
		{Video: models.VideoFile{ID: "f1"}, SectionNumber: 1, PageName: "Intro"},
		{Video: models.VideoFile{ID: "f2"}, SectionNumber: 2, PageName: "Broken"},
	}
	result := svc.ImportVideos(context.Background(), 7, plans, VideoImportOptions{})
	require.Equal(t, VideoImportResult{Applied: 1, Failed: 1, Skipped: 1}, result)

	require.Len(t, mutator.pages, 1)
	require.Equal(t, parser.EmbedHTML("f1", 640, 480), mutator.pages[0])
	require.Contains(t, queue.enqueued(), 7)
}

func TestMutationReasonTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		reason string
	}{
		{"rejected", mutate.ErrRejected, "the LMS rejected the change"},
		{"no session", session.ErrNotAuthenticated, "no authenticated LMS session"},
		{"login refused", session.ErrAuthFailed, "LMS login was rejected"},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := mutationOutcome(tc.err)
			require.False(t, result.Applied)
			require.Equal(t, tc.reason, result.Reason)
		})
	}

	ok := mutationOutcome(nil)
	require.True(t, ok.Applied)
	require.Empty(t, ok.Reason)
}
