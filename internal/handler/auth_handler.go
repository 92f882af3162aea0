package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/dto"
	"github.com/noah-isme/paatshala-go-api/internal/service"
	"github.com/noah-isme/paatshala-go-api/internal/session"
	"github.com/noah-isme/paatshala-go-api/internal/utils"
)

// AuthHandler exchanges LMS credentials for API bearer tokens.
type AuthHandler struct {
	service   service.AuthService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, validator *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches the auth endpoints to the router group. The login
// routes carry the rate limiter; session polling stays unthrottled.
func (h *AuthHandler) Register(router fiber.Router, loginLimit fiber.Handler) {
	if loginLimit == nil {
		loginLimit = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Post("/login", loginLimit, h.login)
	router.Post("/login/cookie", loginLimit, h.cookie)
	router.Post("/login/auto", loginLimit, h.auto)
	router.Get("/session", h.session)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Login(c.Context(), payload.Username, payload.Password)
	if err != nil {
		return h.authError(c, err)
	}

	return utils.SendSuccess(c, "login successful", dto.NewLoginResponse(result))
}

func (h *AuthHandler) cookie(c *fiber.Ctx) error {
	var payload dto.CookieLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.AdoptCookie(c.Context(), payload.Cookie)
	if err != nil {
		return h.authError(c, err)
	}

	return utils.SendSuccess(c, "session adopted", dto.NewLoginResponse(result))
}

func (h *AuthHandler) auto(c *fiber.Ctx) error {
	result, err := h.service.AutoLogin(c.Context())
	if err != nil {
		return h.authError(c, err)
	}

	return utils.SendSuccess(c, "session resumed", dto.NewLoginResponse(result))
}

func (h *AuthHandler) session(c *fiber.Ctx) error {
	info := h.service.Session(c.Context())
	return utils.SendSuccess(c, "session state", dto.NewSessionResponse(info))
}

func (h *AuthHandler) authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, session.ErrAuthFailed):
		return utils.SendError(c, fiber.StatusUnauthorized, "the LMS rejected the credentials")
	case errors.Is(err, service.ErrInvalidCookie):
		return utils.SendError(c, fiber.StatusUnauthorized, "the cookie is not an authenticated LMS session")
	case errors.Is(err, session.ErrNotAuthenticated):
		return utils.SendError(c, fiber.StatusUnauthorized, "no usable LMS session")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
