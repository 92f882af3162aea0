package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/dto"
	"github.com/noah-isme/paatshala-go-api/internal/service"
	"github.com/noah-isme/paatshala-go-api/internal/utils"
)

// ContentHandler wires page creation and the bulk video import.
type ContentHandler struct {
	service   service.TopicService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewContentHandler constructs the handler.
func NewContentHandler(service service.TopicService, validator *validator.Validate, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "content_handler").Logger(),
	}
}

// Register attaches the content endpoints to the course router group.
func (h *ContentHandler) Register(router fiber.Router) {
	router.Post("/:id/pages", h.addPage)
	router.Post("/:id/videos/import", h.importVideos)
}

func (h *ContentHandler) addPage(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PageCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	visible := true
	if payload.Visible != nil {
		visible = *payload.Visible
	}

	result := h.service.AddPage(c.Context(), courseID, payload.SectionNumber, payload.Name, payload.EmbedHTML, visible)
	return utils.SendSuccess(c, mutationMessage(result), dto.NewMutationResponse(result))
}

// importVideos plans page placements for a batch of session recordings and,
// unless the request was a dry run, creates the pages.
func (h *ContentHandler) importVideos(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.VideoImportRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	plans, err := h.service.PlanVideoImport(c.Context(), courseID, payload.ToVideoFiles())
	if err != nil {
		h.logger.Error().Err(err).Int("course_id", courseID).Msg("video import planning failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not map videos onto course topics")
	}

	response := dto.VideoImportResponse{Plans: plans}
	if payload.DryRun {
		return utils.SendSuccess(c, "import planned", response)
	}

	visible := true
	if payload.Visible != nil {
		visible = *payload.Visible
	}
	opts := service.VideoImportOptions{
		Width:   payload.Width,
		Height:  payload.Height,
		Visible: visible,
	}

	result := h.service.ImportVideos(c.Context(), courseID, plans, opts)
	response.Result = &result
	return utils.SendSuccess(c, "import finished", response)
}
