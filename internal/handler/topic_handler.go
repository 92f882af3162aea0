package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/dto"
	"github.com/noah-isme/paatshala-go-api/internal/service"
	"github.com/noah-isme/paatshala-go-api/internal/utils"
)

// TopicHandler wires section reads and the section mutation surface.
// Mutations answer 200 with an applied flag; a rejected change is a normal
// answer from the LMS, not an API error.
type TopicHandler struct {
	service   service.TopicService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTopicHandler constructs the handler.
func NewTopicHandler(service service.TopicService, validator *validator.Validate, logger zerolog.Logger) *TopicHandler {
	return &TopicHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "topic_handler").Logger(),
	}
}

// RegisterCourseRoutes attaches the course-scoped section endpoints. These
// address sections by ordinal position within the course.
func (h *TopicHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Get("/:id/topics", h.list)
	router.Post("/:id/topics", h.add)
	router.Post("/:id/topics/move", h.move)
	router.Post("/:id/topics/delete", h.deleteMany)
	router.Patch("/:id/topics/:num/visibility", h.visibility)
	router.Get("/:id/restriction-targets", h.restrictionTargets)
	router.Post("/:id/restrictions/batch", h.batchRestrictions)
}

// RegisterSectionRoutes attaches the endpoints that address one section by
// its persistent DB id. Writes still need the owning course for a session
// key, passed as course_id.
func (h *TopicHandler) RegisterSectionRoutes(router fiber.Router) {
	router.Patch("/:dbid", h.rename)
	router.Delete("/:dbid", h.deleteOne)
	router.Get("/:dbid/restriction", h.restriction)
	router.Put("/:dbid/restriction", h.updateRestriction)
}

func (h *TopicHandler) list(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.Topics(c.Context(), courseID, c.QueryBool("force"))
	if err != nil {
		h.logger.Error().Err(err).Int("course_id", courseID).Msg("topic listing failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not fetch topics from the LMS")
	}

	return utils.SendSuccess(c, "topics retrieved", view)
}

func (h *TopicHandler) add(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TopicAddRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.AddTopics(c.Context(), courseID, payload.Count, payload.Name, payload.Position)
	return utils.SendSuccess(c, mutationMessage(result), dto.NewMutationResponse(result))
}

func (h *TopicHandler) move(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TopicMoveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.MoveTopic(c.Context(), courseID, payload.From, payload.To)
	return utils.SendSuccess(c, mutationMessage(result), dto.NewMutationResponse(result))
}

func (h *TopicHandler) deleteMany(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DeleteTopicsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.DeleteTopics(c.Context(), courseID, payload.SectionIDs)
	return utils.SendSuccess(c, "topics deleted", dto.NewBatchResponse(result))
}

func (h *TopicHandler) visibility(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	sectionNumber, err := parseIntParam(c, "num")
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

	result := h.service.SetTopicVisibility(c.Context(), courseID, sectionNumber, *payload.Visible)
	return utils.SendSuccess(c, mutationMessage(result), dto.NewMutationResponse(result))
}

func (h *TopicHandler) rename(c *fiber.Ctx) error {
	sectionID, err := parseIntParam(c, "dbid")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	courseID, err := requireQueryInt(c, "course_id")
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

	result := h.service.RenameTopic(c.Context(), courseID, sectionID, payload.Name)
	return utils.SendSuccess(c, mutationMessage(result), dto.NewMutationResponse(result))
}

func (h *TopicHandler) deleteOne(c *fiber.Ctx) error {
	sectionID, err := parseIntParam(c, "dbid")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	courseID, err := requireQueryInt(c, "course_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.DeleteTopics(c.Context(), courseID, []int{sectionID})
	return utils.SendSuccess(c, "topic deleted", dto.NewBatchResponse(result))
}

func (h *TopicHandler) restriction(c *fiber.Ctx) error {
	sectionID, err := parseIntParam(c, "dbid")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	restriction, err := h.service.Restriction(c.Context(), sectionID)
	if err != nil {
		h.logger.Error().Err(err).Int("section_id", sectionID).Msg("restriction read failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not read the section restriction")
	}

	return utils.SendSuccess(c, "restriction retrieved", restriction)
}

func (h *TopicHandler) updateRestriction(c *fiber.Ctx) error {
	sectionID, err := parseIntParam(c, "dbid")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RestrictionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.UpdateRestriction(c.Context(), payload.CourseID, sectionID, payload.ToPatch())
	return utils.SendSuccess(c, mutationMessage(result), dto.NewMutationResponse(result))
}

func (h *TopicHandler) batchRestrictions(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.BatchRestrictionsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.service.BatchRestrictions(c.Context(), courseID, payload.SectionIDs, payload.Patch.ToPatch())
	return utils.SendSuccess(c, "restrictions updated", dto.NewBatchResponse(result))
}

func (h *TopicHandler) restrictionTargets(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	targets, err := h.service.RestrictionTargets(c.Context(), courseID)
	if err != nil {
		h.logger.Error().Err(err).Int("course_id", courseID).Msg("restriction target listing failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not list restriction targets")
	}

	return utils.SendSuccess(c, "restriction targets retrieved", targets)
}
