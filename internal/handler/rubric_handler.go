package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/dto"
	"github.com/noah-isme/paatshala-go-api/internal/service"
	"github.com/noah-isme/paatshala-go-api/internal/utils"
)

// RubricHandler wires rubric generation, refinement and submission scoring.
type RubricHandler struct {
	service   service.RubricService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRubricHandler constructs the handler.
func NewRubricHandler(service service.RubricService, validator *validator.Validate, logger zerolog.Logger) *RubricHandler {
	return &RubricHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "rubric_handler").Logger(),
	}
}

// Register attaches the AI endpoints to the router group.
func (h *RubricHandler) Register(router fiber.Router) {
	router.Post("/rubrics", h.generate)
	router.Post("/rubrics/refine", h.refine)
	router.Get("/rubrics", h.rubric)
	router.Delete("/rubrics", h.deleteRubric)
	router.Post("/evaluations", h.score)
	router.Get("/evaluations", h.evaluations)
	router.Delete("/evaluations", h.deleteEvaluations)
}

func (h *RubricHandler) generate(c *fiber.Ctx) error {
	var payload dto.RubricGenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	doc, err := h.service.Generate(c.Context(), payload.CourseID, payload.ModuleID, payload.GroupID, payload.TaskDescription)
	if err != nil {
		h.logger.Error().Err(err).Int("module_id", payload.ModuleID).Msg("rubric generation failed")
		return utils.SendError(c, fiber.StatusBadGateway, "rubric generation failed")
	}

	return utils.SendSuccess(c, "rubric generated", doc)
}

func (h *RubricHandler) refine(c *fiber.Ctx) error {
	var payload dto.RubricRefineRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	doc, err := h.service.Refine(c.Context(), payload.CourseID, payload.ModuleID, payload.GroupID, payload.Instruction)
	if err != nil {
		if errors.Is(err, service.ErrNoRubric) {
			return utils.SendError(c, fiber.StatusNotFound, "no rubric saved for this assignment")
		}
		h.logger.Error().Err(err).Int("module_id", payload.ModuleID).Msg("rubric refinement failed")
		return utils.SendError(c, fiber.StatusBadGateway, "rubric refinement failed")
	}

	return utils.SendSuccess(c, "rubric refined", doc)
}

func (h *RubricHandler) rubric(c *fiber.Ctx) error {
	query, err := h.rubricQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	doc, err := h.service.Rubric(query.CourseID, query.ModuleID, query.GroupID)
	if err != nil {
		if errors.Is(err, service.ErrNoRubric) {
			return utils.SendError(c, fiber.StatusNotFound, "no rubric saved for this assignment")
		}
		h.logger.Error().Err(err).Int("module_id", query.ModuleID).Msg("rubric read failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "rubric retrieved", doc)
}

func (h *RubricHandler) deleteRubric(c *fiber.Ctx) error {
	query, err := h.rubricQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteRubric(query.CourseID, query.ModuleID, query.GroupID); err != nil {
		h.logger.Error().Err(err).Int("module_id", query.ModuleID).Msg("rubric delete failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "rubric deleted", fiber.Map{"module_id": query.ModuleID})
}

func (h *RubricHandler) score(c *fiber.Ctx) error {
	var payload dto.ScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluation, err := h.service.Score(c.Context(), payload.CourseID, payload.ModuleID, payload.GroupID,
		payload.Student, payload.Submission.ToContent(), payload.TaskDescription)
	if err != nil {
		if errors.Is(err, service.ErrNoRubric) {
			return utils.SendError(c, fiber.StatusConflict, "generate a rubric before scoring submissions")
		}
		h.logger.Error().Err(err).Str("student", payload.Student).Msg("submission scoring failed")
		return utils.SendError(c, fiber.StatusBadGateway, "submission scoring failed")
	}

	return utils.SendSuccess(c, "submission scored", evaluation)
}

func (h *RubricHandler) evaluations(c *fiber.Ctx) error {
	query, err := h.rubricQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluations, err := h.service.Evaluations(query.CourseID, query.ModuleID, query.GroupID)
	if err != nil {
		h.logger.Error().Err(err).Int("module_id", query.ModuleID).Msg("evaluation listing failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "evaluations retrieved", evaluations)
}

func (h *RubricHandler) deleteEvaluations(c *fiber.Ctx) error {
	query, err := h.rubricQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteEvaluations(query.CourseID, query.ModuleID, query.GroupID); err != nil {
		h.logger.Error().Err(err).Int("module_id", query.ModuleID).Msg("evaluation delete failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "evaluations deleted", fiber.Map{"module_id": query.ModuleID})
}

func (h *RubricHandler) rubricQuery(c *fiber.Ctx) (dto.RubricQuery, error) {
	var query dto.RubricQuery
	if err := c.QueryParser(&query); err != nil {
		return dto.RubricQuery{}, errors.New("invalid query parameters")
	}
	if err := h.validator.Struct(query); err != nil {
		return dto.RubricQuery{}, err
	}
	return query, nil
}
