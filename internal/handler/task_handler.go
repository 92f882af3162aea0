package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/service"
	"github.com/noah-isme/paatshala-go-api/internal/utils"
)

// TaskHandler wires the assignment listing endpoints.
type TaskHandler struct {
	service service.TaskService
	logger  zerolog.Logger
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(service service.TaskService, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger.With().Str("component", "task_handler").Logger(),
	}
}

// RegisterCourseRoutes attaches the course-scoped task endpoints.
func (h *TaskHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Get("/:id/tasks", h.list)
}

// RegisterModuleRoutes attaches the per-assignment endpoints.
func (h *TaskHandler) RegisterModuleRoutes(router fiber.Router) {
	router.Get("/:id/assignment", h.detail)
}

func (h *TaskHandler) list(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.Tasks(c.Context(), courseID, c.QueryBool("force"))
	if err != nil {
		h.logger.Error().Err(err).Int("course_id", courseID).Msg("task listing failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not fetch assignments from the LMS")
	}

	return utils.SendSuccess(c, "tasks retrieved", view)
}

func (h *TaskHandler) detail(c *fiber.Ctx) error {
	moduleID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.service.AssignmentDetail(c.Context(), moduleID)
	if err != nil {
		h.logger.Error().Err(err).Int("module_id", moduleID).Msg("assignment detail fetch failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not fetch the assignment page")
	}

	return utils.SendSuccess(c, "assignment retrieved", detail)
}
