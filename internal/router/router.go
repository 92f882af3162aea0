package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/paatshala-go-api/internal/config"
	"github.com/noah-isme/paatshala-go-api/internal/handler"
	"github.com/noah-isme/paatshala-go-api/internal/middleware"
	"github.com/noah-isme/paatshala-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	CourseHandler     *handler.CourseHandler
	TopicHandler      *handler.TopicHandler
	ActivityHandler   *handler.ActivityHandler
	ContentHandler    *handler.ContentHandler
	TaskHandler       *handler.TaskHandler
	QuizHandler       *handler.QuizHandler
	SubmissionHandler *handler.SubmissionHandler
	RubricHandler     *handler.RubricHandler
	EventsHandler     *handler.EventsHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	instructorOnly := middleware.RequireRole("instructor")

	if deps.AuthHandler != nil {
		loginLimit := middleware.RateLimit("auth", 5, time.Minute)
		deps.AuthHandler.Register(api.Group("/auth"), loginLimit)
	}

	// Everything under /api/v2 reads or rewrites LMS state and is
	// instructor-only.
	courses := app.Group("/api/v2/courses", jwtMiddleware, instructorOnly)
	modules := app.Group("/api/v2/modules", jwtMiddleware, instructorOnly)

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(courses)
	}
	if deps.TopicHandler != nil {
		deps.TopicHandler.RegisterCourseRoutes(courses)
		topics := app.Group("/api/v2/topics", jwtMiddleware, instructorOnly)
		deps.TopicHandler.RegisterSectionRoutes(topics)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(courses)
	}
	if deps.ContentHandler != nil {
		deps.ContentHandler.Register(courses)
	}
	if deps.TaskHandler != nil {
		deps.TaskHandler.RegisterCourseRoutes(courses)
		deps.TaskHandler.RegisterModuleRoutes(modules)
	}
	if deps.QuizHandler != nil {
		deps.QuizHandler.Register(courses)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterModuleRoutes(modules)
		deps.SubmissionHandler.RegisterCourseRoutes(courses)
	}
	if deps.RubricHandler != nil {
		ai := app.Group("/api/v2/ai", jwtMiddleware, instructorOnly)
		deps.RubricHandler.Register(ai)
	}
	if deps.EventsHandler != nil {
		events := app.Group("/api/v2/events", jwtMiddleware, instructorOnly)
		deps.EventsHandler.Register(events)
	}
}
