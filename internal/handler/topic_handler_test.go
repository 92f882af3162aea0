package handler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paatshala-go-api/internal/config"
	"github.com/noah-isme/paatshala-go-api/internal/dto"
	"github.com/noah-isme/paatshala-go-api/internal/handler"
	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/mutate"
	"github.com/noah-isme/paatshala-go-api/internal/router"
	"github.com/noah-isme/paatshala-go-api/internal/service"
)

// stubTopicService records every call and answers with canned results. It
// backs the topic, activity and content handler tests.
type stubTopicService struct {
	calls []string

	topics      service.TopicsView
	topicsErr   error
	mutation    service.MutationResult
	batch       service.BatchResult
	restriction models.Restriction
	restErr     error
	targets     service.RestrictionTargets
	targetsErr  error
	plans       []models.VideoImportPlan
	plansErr    error
	importRes   service.VideoImportResult

	gotPatch mutate.RestrictionPatch
	gotOpts  service.VideoImportOptions
}

func (s *stubTopicService) record(format string, args ...interface{}) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *stubTopicService) Topics(_ context.Context, courseID int, force bool) (service.TopicsView, error) {
	s.record("Topics(%d,%t)", courseID, force)
	return s.topics, s.topicsErr
}

func (s *stubTopicService) AddTopics(_ context.Context, courseID, count int, name string, position int) service.MutationResult {
	s.record("AddTopics(%d,%d,%q,%d)", courseID, count, name, position)
	return s.mutation
}

func (s *stubTopicService) MoveTopic(_ context.Context, courseID, fromSection, toSection int) service.MutationResult {
	s.record("MoveTopic(%d,%d,%d)", courseID, fromSection, toSection)
	return s.mutation
}

func (s *stubTopicService) RenameTopic(_ context.Context, courseID, sectionID int, name string) service.MutationResult {
	s.record("RenameTopic(%d,%d,%q)", courseID, sectionID, name)
	return s.mutation
}

func (s *stubTopicService) SetTopicVisibility(_ context.Context, courseID, sectionNumber int, visible bool) service.MutationResult {
	s.record("SetTopicVisibility(%d,%d,%t)", courseID, sectionNumber, visible)
	return s.mutation
}

func (s *stubTopicService) DeleteTopics(_ context.Context, courseID int, sectionIDs []int) service.BatchResult {
	s.record("DeleteTopics(%d,%v)", courseID, sectionIDs)
	return s.batch
}

func (s *stubTopicService) MoveActivity(_ context.Context, courseID, moduleID, sectionID, beforeModuleID int) service.MutationResult {
	s.record("MoveActivity(%d,%d,%d,%d)", courseID, moduleID, sectionID, beforeModuleID)
	return s.mutation
}

func (s *stubTopicService) DuplicateActivity(_ context.Context, courseID, moduleID int) service.MutationResult {
	s.record("DuplicateActivity(%d,%d)", courseID, moduleID)
	return s.mutation
}

func (s *stubTopicService) RenameActivity(_ context.Context, courseID, moduleID int, name string) service.MutationResult {
	s.record("RenameActivity(%d,%d,%q)", courseID, moduleID, name)
	return s.mutation
}

func (s *stubTopicService) SetActivityVisibility(_ context.Context, courseID, moduleID int, visible bool) service.MutationResult {
	s.record("SetActivityVisibility(%d,%d,%t)", courseID, moduleID, visible)
	return s.mutation
}

func (s *stubTopicService) DeleteActivities(_ context.Context, courseID int, moduleIDs []int) service.BatchResult {
	s.record("DeleteActivities(%d,%v)", courseID, moduleIDs)
	return s.batch
}

func (s *stubTopicService) Restriction(_ context.Context, sectionID int) (models.Restriction, error) {
	s.record("Restriction(%d)", sectionID)
	return s.restriction, s.restErr
}

func (s *stubTopicService) UpdateRestriction(_ context.Context, courseID, sectionID int, patch mutate.RestrictionPatch) service.MutationResult {
	s.record("UpdateRestriction(%d,%d)", courseID, sectionID)
	s.gotPatch = patch
	return s.mutation
}

func (s *stubTopicService) BatchRestrictions(_ context.Context, courseID int, sectionIDs []int, patch mutate.RestrictionPatch) service.BatchResult {
	s.record("BatchRestrictions(%d,%v)", courseID, sectionIDs)
	s.gotPatch = patch
	return s.batch
}

func (s *stubTopicService) RestrictionTargets(_ context.Context, courseID int) (service.RestrictionTargets, error) {
	s.record("RestrictionTargets(%d)", courseID)
	return s.targets, s.targetsErr
}

func (s *stubTopicService) AddPage(_ context.Context, courseID, sectionNumber int, name, embedHTML string, visible bool) service.MutationResult {
	s.record("AddPage(%d,%d,%q,%t)", courseID, sectionNumber, name, visible)
	return s.mutation
}

func (s *stubTopicService) PlanVideoImport(_ context.Context, courseID int, videos []models.VideoFile) ([]models.VideoImportPlan, error) {
	s.record("PlanVideoImport(%d,%d)", courseID, len(videos))
	return s.plans, s.plansErr
}

func (s *stubTopicService) ImportVideos(_ context.Context, courseID int, plans []models.VideoImportPlan, opts service.VideoImportOptions) service.VideoImportResult {
	s.record("ImportVideos(%d,%d)", courseID, len(plans))
	s.gotOpts = opts
	return s.importRes
}

func setupTopicApp(t *testing.T, stub *stubTopicService) *fiber.App {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		TopicHandler:  handler.NewTopicHandler(stub, validate, logger),
		JWTMiddleware: instructorJWT(),
	})

	return app
}

func TestTopicHandlerList(t *testing.T) {
	stub := &stubTopicService{
		topics: service.TopicsView{
			Topics: []models.Topic{
				{Name: "General", SectionNumber: 0, SectionID: 900, Visible: true},
				{Name: "Week 1", SectionNumber: 1, SectionID: 901, Visible: true},
			},
			CachedAt:     time.Now(),
			Stale:        true,
			RefreshJobID: "job-7",
		},
	}
	app := setupTopicApp(t, stub)

	req := httptest.NewRequest("GET", "/api/v2/courses/55/topics?force=true", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data    service.TopicsView `json:"data"`
		Message string             `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "topics retrieved", body.Message)
	require.Len(t, body.Data.Topics, 2)
	require.Equal(t, "job-7", body.Data.RefreshJobID)
	require.Equal(t, []string{"Topics(55,true)"}, stub.calls)
}

func TestTopicHandlerListUpstreamFailure(t *testing.T) {
	stub := &stubTopicService{topicsErr: errors.New("session expired")}
	app := setupTopicApp(t, stub)

	req := httptest.NewRequest("GET", "/api/v2/courses/55/topics", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestTopicHandlerAdd(t *testing.T) {
	stub := &stubTopicService{mutation: service.MutationResult{Applied: true}}
	app := setupTopicApp(t, stub)

	resp := postJSON(t, app, "/api/v2/courses/55/topics", fiber.Map{"count": 2, "name": "Unit", "position": 3})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data    dto.MutationResponse `json:"data"`
		Message string               `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "change applied", body.Message)
	require.True(t, body.Data.Applied)
	require.Equal(t, []string{`AddTopics(55,2,"Unit",3)`}, stub.calls)
}

func TestTopicHandlerAddValidatesCount(t *testing.T) {
	app := setupTopicApp(t, &stubTopicService{})

	resp := postJSON(t, app, "/api/v2/courses/55/topics", fiber.Map{"count": 0})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTopicHandlerMoveNotApplied(t *testing.T) {
	stub := &stubTopicService{mutation: service.MutationResult{Applied: false, Reason: "section out of range"}}
	app := setupTopicApp(t, stub)

	resp := postJSON(t, app, "/api/v2/courses/55/topics/move", fiber.Map{"from": 3, "to": 5})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                 `json:"success"`
		Data    dto.MutationResponse `json:"data"`
		Message string               `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "change not applied", body.Message)
	require.False(t, body.Data.Applied)
	require.Equal(t, "section out of range", body.Data.Reason)
	require.Equal(t, []string{"MoveTopic(55,3,5)"}, stub.calls)
}

func TestTopicHandlerVisibility(t *testing.T) {
	stub := &stubTopicService{mutation: service.MutationResult{Applied: true}}
	app := setupTopicApp(t, stub)

	resp := doJSON(t, app, "PATCH", "/api/v2/courses/55/topics/4/visibility", fiber.Map{"visible": false})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"SetTopicVisibility(55,4,false)"}, stub.calls)
}

func TestTopicHandlerDeleteMany(t *testing.T) {
	stub := &stubTopicService{batch: service.BatchResult{Applied: 2, Failed: 1}}
	app := setupTopicApp(t, stub)

	resp := postJSON(t, app, "/api/v2/courses/55/topics/delete", fiber.Map{"section_ids": []int{901, 902, 903}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data    dto.BatchResponse `json:"data"`
		Message string            `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "topics deleted", body.Message)
	require.Equal(t, 2, body.Data.Applied)
	require.Equal(t, 1, body.Data.Failed)
	require.Equal(t, []string{"DeleteTopics(55,[901 902 903])"}, stub.calls)
}

func TestTopicHandlerRename(t *testing.T) {
	stub := &stubTopicService{mutation: service.MutationResult{Applied: true}}
	app := setupTopicApp(t, stub)

	resp := doJSON(t, app, "PATCH", "/api/v2/topics/901?course_id=55", fiber.Map{"name": "Revision Week"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{`RenameTopic(55,901,"Revision Week")`}, stub.calls)
}

func TestTopicHandlerRenameRequiresCourseID(t *testing.T) {
	app := setupTopicApp(t, &stubTopicService{})

	resp := doJSON(t, app, "PATCH", "/api/v2/topics/901", fiber.Map{"name": "Revision Week"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTopicHandlerDeleteOne(t *testing.T) {
	stub := &stubTopicService{batch: service.BatchResult{Applied: 1}}
	app := setupTopicApp(t, stub)

	req := httptest.NewRequest("DELETE", "/api/v2/topics/901?course_id=55", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"DeleteTopics(55,[901])"}, stub.calls)
}

func TestTopicHandlerRestriction(t *testing.T) {
	stub := &stubTopicService{
		restriction: models.Restriction{Op: "&", Conditions: []models.Condition{}, ShowWhenUnmet: []bool{}},
	}
	app := setupTopicApp(t, stub)

	req := httptest.NewRequest("GET", "/api/v2/topics/901/restriction", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"Restriction(901)"}, stub.calls)
}

func TestTopicHandlerUpdateRestriction(t *testing.T) {
	stub := &stubTopicService{mutation: service.MutationResult{Applied: true}}
	app := setupTopicApp(t, stub)

	payload := fiber.Map{
		"course_id": 55,
		"groups":    fiber.Map{"group_ids": []int{12, 13}},
		"op":        "|",
	}
	resp := doJSON(t, app, "PUT", "/api/v2/topics/901/restriction", payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, []string{"UpdateRestriction(55,901)"}, stub.calls)
	require.NotNil(t, stub.gotPatch.Groups)
	require.Equal(t, []int{12, 13}, stub.gotPatch.Groups.GroupIDs)
	require.Equal(t, "|", stub.gotPatch.Op)
}

func TestTopicHandlerBatchRestrictions(t *testing.T) {
	stub := &stubTopicService{batch: service.BatchResult{Applied: 3}}
	app := setupTopicApp(t, stub)

	payload := fiber.Map{
		"section_ids": []int{901, 902, 903},
		"patch": fiber.Map{
			"date": fiber.Map{"direction": ">=", "at": time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	resp := postJSON(t, app, "/api/v2/courses/55/restrictions/batch", payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data    dto.BatchResponse `json:"data"`
		Message string            `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "restrictions updated", body.Message)
	require.Equal(t, 3, body.Data.Applied)
	require.Equal(t, []string{"BatchRestrictions(55,[901 902 903])"}, stub.calls)
	require.NotNil(t, stub.gotPatch.Date)
	require.Equal(t, ">=", stub.gotPatch.Date.Direction)
}

func TestTopicHandlerRestrictionTargets(t *testing.T) {
	stub := &stubTopicService{
		targets: service.RestrictionTargets{
			Groups:          []models.Group{{ID: 12, Name: "Lab A"}},
			GradeItems:      []models.GradeItem{{ID: 77, Name: "Midterm"}},
			CompletionItems: []models.CompletionItem{{ModuleID: 301, Name: "Intro quiz"}},
		},
	}
	app := setupTopicApp(t, stub)

	req := httptest.NewRequest("GET", "/api/v2/courses/55/restriction-targets", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data service.RestrictionTargets `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data.Groups, 1)
	require.Len(t, body.Data.GradeItems, 1)
	require.Len(t, body.Data.CompletionItems, 1)
}
