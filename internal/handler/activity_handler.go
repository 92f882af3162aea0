package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/dto"
	"github.com/noah-isme/paatshala-go-api/internal/service"
	"github.com/noah-isme/paatshala-go-api/internal/utils"
)

// ActivityHandler wires the activity mutation surface. Activities are
// addressed by module id within their owning course.
type ActivityHandler struct {
	service   service.TopicService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.TopicService, validator *validator.Validate, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the activity endpoints to the course router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("/:id/activities/delete", h.deleteMany)
	router.Post("/:id/activities/:mid/move", h.move)
	router.Post("/:id/activities/:mid/duplicate", h.duplicate)
	router.Patch("/:id/activities/:mid", h.rename)
	router.Patch("/:id/activities/:mid/visibility", h.visibility)
	router.Delete("/:id/activities/:mid", h.deleteOne)
}

func (h *ActivityHandler) move(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityMoveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.MoveActivity(c.Context(), courseID, moduleID, payload.SectionID, payload.BeforeModuleID)
	return utils.SendSuccess(c, mutationMessage(result), dto.NewMutationResponse(result))
}

func (h *ActivityHandler) duplicate(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.DuplicateActivity(c.Context(), courseID, moduleID)
	return utils.SendSuccess(c, mutationMessage(result), dto.NewMutationResponse(result))
}

func (h *ActivityHandler) rename(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RenameRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.RenameActivity(c.Context(), courseID, moduleID, payload.Name)
	return utils.SendSuccess(c, mutationMessage(result), dto.NewMutationResponse(result))
}

func (h *ActivityHandler) visibility(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.VisibilityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.SetActivityVisibility(c.Context(), courseID, moduleID, *payload.Visible)
	return utils.SendSuccess(c, mutationMessage(result), dto.NewMutationResponse(result))
}

func (h *ActivityHandler) deleteOne(c *fiber.Ctx) error {
	courseID, moduleID, err := courseModuleParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.DeleteActivities(c.Context(), courseID, []int{moduleID})
	return utils.SendSuccess(c, "activity deleted", dto.NewBatchResponse(result))
}

func (h *ActivityHandler) deleteMany(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DeleteActivitiesRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.DeleteActivities(c.Context(), courseID, payload.ModuleIDs)
	return utils.SendSuccess(c, "activities deleted", dto.NewBatchResponse(result))
}

func courseModuleParams(c *fiber.Ctx) (int, int, error) {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return 0, 0, err
	}
	moduleID, err := parseIntParam(c, "mid")
	if err != nil {
		return 0, 0, err
	}
	return courseID, moduleID, nil
}
