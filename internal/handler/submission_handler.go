package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/dto"
	"github.com/noah-isme/paatshala-go-api/internal/service"
	"github.com/noah-isme/paatshala-go-api/internal/utils"
)

// SubmissionHandler wires grading tables, link evaluation and submission
// file downloads.
type SubmissionHandler struct {
	service   service.SubmissionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, validator *validator.Validate, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterModuleRoutes attaches the per-assignment grading endpoints.
func (h *SubmissionHandler) RegisterModuleRoutes(router fiber.Router) {
	router.Get("/:id/submissions", h.list)
	router.Get("/:id/groups", h.groups)
}

// RegisterCourseRoutes attaches the course-scoped link and download
// endpoints.
func (h *SubmissionHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Get("/:id/links", h.linkStatuses)
	router.Post("/:id/links/check", h.checkLinks)
	router.Post("/:id/submissions/download", h.download)
}

// list always reads the grading table live; grading state changes under
// the instructor's feet while they work.
func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	moduleID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	courseID, err := requireQueryInt(c, "course_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	groupID, err := parseQueryInt(c, "group_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid group_id")
	}

	view, err := h.service.Submissions(c.Context(), courseID, moduleID, groupID)
	if err != nil {
		h.logger.Error().Err(err).Int("module_id", moduleID).Msg("grading table fetch failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not fetch the grading table")
	}

	return utils.SendSuccess(c, "submissions retrieved", view)
}

func (h *SubmissionHandler) groups(c *fiber.Ctx) error {
	moduleID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	groups, err := h.service.Groups(c.Context(), moduleID, c.QueryBool("quiz"))
	if err != nil {
		h.logger.Error().Err(err).Int("module_id", moduleID).Msg("group listing failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not list groups")
	}

	return utils.SendSuccess(c, "groups retrieved", groups)
}

func (h *SubmissionHandler) linkStatuses(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	statuses := h.service.LinkStatuses(c.Context(), courseID)
	return utils.SendSuccess(c, "link statuses retrieved", dto.NewLinkStatusResponses(statuses))
}

func (h *SubmissionHandler) checkLinks(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.LinkCheckRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluations, err := h.service.EvaluateLinks(c.Context(), courseID, payload.URLs)
	if err != nil {
		h.logger.Error().Err(err).Int("course_id", courseID).Msg("link evaluation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "link evaluation failed")
	}

	return utils.SendSuccess(c, "links evaluated", evaluations)
}

func (h *SubmissionHandler) download(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DownloadRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := h.service.Download(c.Context(), courseID, payload.Student, payload.FileURL)
	if err != nil {
		h.logger.Error().Err(err).Str("student", payload.Student).Msg("submission download failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not download the submission file")
	}

	return utils.SendSuccess(c, "submission downloaded", file)
}
