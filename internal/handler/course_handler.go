package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/dto"
	"github.com/noah-isme/paatshala-go-api/internal/service"
	"github.com/noah-isme/paatshala-go-api/internal/utils"
)

// CourseHandler wires the course listing and refresh endpoints.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches the course endpoints to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/:id/refresh", h.refresh)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	force := c.QueryBool("force")

	courses, err := h.service.Courses(c.Context(), force)
	if err != nil {
		h.logger.Error().Err(err).Msg("course listing failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not fetch courses from the LMS")
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

// refresh remembers the course selection and queues a background
// re-fetch of everything cached for it.
func (h *CourseHandler) refresh(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	jobID, err := h.service.Select(c.Context(), courseID)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	return utils.SendSuccess(c, "refresh queued", dto.RefreshResponse{CourseID: courseID, JobID: jobID})
}
