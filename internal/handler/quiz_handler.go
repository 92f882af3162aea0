package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/service"
	"github.com/noah-isme/paatshala-go-api/internal/utils"
)

// QuizHandler wires the practice-quiz score matrix endpoint.
type QuizHandler struct {
	service service.QuizService
	logger  zerolog.Logger
}

// NewQuizHandler constructs the handler.
func NewQuizHandler(service service.QuizService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Register attaches the quiz endpoints to the course router group.
func (h *QuizHandler) Register(router fiber.Router) {
	router.Get("/:id/quiz-scores", h.scores)
}

func (h *QuizHandler) scores(c *fiber.Ctx) error {
	courseID, err := parseIntParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	groupID, err := parseQueryInt(c, "group_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid group_id")
	}

	view, err := h.service.Scores(c.Context(), courseID, groupID, c.QueryBool("force"))
	if err != nil {
		h.logger.Error().Err(err).Int("course_id", courseID).Msg("quiz score fetch failed")
		return utils.SendError(c, fiber.StatusBadGateway, "could not fetch quiz scores from the LMS")
	}

	return utils.SendSuccess(c, "quiz scores retrieved", view)
}
