package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paatshala-go-api/internal/config"
	"github.com/noah-isme/paatshala-go-api/internal/handler"
	"github.com/noah-isme/paatshala-go-api/internal/models"
	"github.com/noah-isme/paatshala-go-api/internal/router"
	"github.com/noah-isme/paatshala-go-api/internal/service"
)

type stubTaskService struct {
	view      service.TasksView
	viewErr   error
	detail    models.AssignmentDetail
	detailErr error
	lastForce bool
}

func (s *stubTaskService) Tasks(_ context.Context, _ int, force bool) (service.TasksView, error) {
	s.lastForce = force
	return s.view, s.viewErr
}

func (s *stubTaskService) AssignmentDetail(context.Context, int) (models.AssignmentDetail, error) {
	return s.detail, s.detailErr
}

func setupTaskApp(t *testing.T, stub *stubTaskService) *fiber.App {
	t.Helper()

	logger := zerolog.New(io.Discard)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		TaskHandler:   handler.NewTaskHandler(stub, logger),
		JWTMiddleware: instructorJWT(),
	})

	return app
}

func TestTaskHandlerList(t *testing.T) {
	stub := &stubTaskService{
		view: service.TasksView{
			Tasks: []models.TaskRow{
				{Name: "Graded Task 3", ModuleID: 301, DueDate: "Friday, 4 September 2026", Submitted: "24", NeedsGrading: "10"},
			},
			CachedAt: time.Now(),
			CSVPath:  "output/55/tasks.csv",
		},
	}
	app := setupTaskApp(t, stub)

	req := httptest.NewRequest("GET", "/api/v2/courses/55/tasks?force=true", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data    service.TasksView `json:"data"`
		Message string            `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "tasks retrieved", body.Message)
	require.Len(t, body.Data.Tasks, 1)
	require.Equal(t, 301, body.Data.Tasks[0].ModuleID)
	require.True(t, stub.lastForce)
}

func TestTaskHandlerListUpstreamFailure(t *testing.T) {
	stub := &stubTaskService{viewErr: errors.New("course page unreachable")}
	app := setupTaskApp(t, stub)

	req := httptest.NewRequest("GET", "/api/v2/courses/55/tasks", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestTaskHandlerAssignmentDetail(t *testing.T) {
	stub := &stubTaskService{
		detail: models.AssignmentDetail{
			Participants: "42",
			Submitted:    "24",
			NeedsGrading: "10",
			DueDate:      "Friday, 4 September 2026, 11:59 PM",
			MaxGrade:     "100.00",
		},
	}
	app := setupTaskApp(t, stub)

	req := httptest.NewRequest("GET", "/api/v2/modules/301/assignment", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data    models.AssignmentDetail `json:"data"`
		Message string                  `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "assignment retrieved", body.Message)
	require.Equal(t, "24", body.Data.Submitted)
}

func TestTaskHandlerAssignmentDetailBadID(t *testing.T) {
	app := setupTaskApp(t, &stubTaskService{})

	req := httptest.NewRequest("GET", "/api/v2/modules/-3/assignment", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
