package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/config"
	"github.com/noah-isme/paatshala-go-api/internal/database"
	"github.com/noah-isme/paatshala-go-api/internal/handler"
	"github.com/noah-isme/paatshala-go-api/internal/middleware"
	"github.com/noah-isme/paatshala-go-api/internal/mutate"
	"github.com/noah-isme/paatshala-go-api/internal/reconcile"
	"github.com/noah-isme/paatshala-go-api/internal/router"
	"github.com/noah-isme/paatshala-go-api/internal/scrape"
	"github.com/noah-isme/paatshala-go-api/internal/service"
	"github.com/noah-isme/paatshala-go-api/internal/session"
	"github.com/noah-isme/paatshala-go-api/internal/store"
	"github.com/noah-isme/paatshala-go-api/pkg/ai"
	"github.com/noah-isme/paatshala-go-api/pkg/github"
	"github.com/noah-isme/paatshala-go-api/pkg/linkcheck"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, caching falls back to disk only")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, refresh events stay process-local")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	creds := store.NewCredentialsFile(cfg.CredentialsFile)
	lastSession := store.NewLastSession(filepath.Join(cfg.OutputRoot, "last_session.json"))
	disk := store.NewDiskCache(filepath.Join(cfg.OutputRoot, "cache"), logger)
	var hot *store.RedisStore
	if redisClient != nil {
		hot = store.NewRedisStore(redisClient, cfg.CacheTTL, logger)
	}
	cache := store.NewTieredStore(hot, disk, logger)
	snapshots := store.NewCSVSnapshots(cfg.OutputRoot, logger)

	auth := session.NewAuthenticator(cfg.LMSBaseURL, logger)
	sessions := session.NewManager(auth, creds, logger)

	scraper := scrape.New(sessions, cfg.ScrapeWorkers, logger)
	mutator := mutate.New(sessions, logger)

	broker := reconcile.NewBroker(redisClient, cfg.EventChannel, natsConn, logger)
	broker.Start(ctx)
	refresher := reconcile.NewRefresher(scraper, cache, broker, cfg.RefreshQueueSize, logger)
	refresher.Start(ctx)

	githubClient := github.New(github.Config{Token: cfg.GitHubToken}, logger)
	linkChecker := linkcheck.New(nil, cfg.LinkCheckWorkers, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	authService := service.NewAuthService(auth, sessions, creds, cfg.JWTSecret, cfg.TokenTTL, logger)
	courseService := service.NewCourseService(scraper, cache, lastSession, refresher, logger)
	topicService := service.NewTopicService(scraper, mutator, cache, refresher, logger)
	taskService := service.NewTaskService(scraper, cache, snapshots, logger)
	quizService := service.NewQuizService(scraper, cache, snapshots, logger)
	submissionService := service.NewSubmissionService(scraper, linkChecker, githubClient, cache, snapshots, cfg.OutputRoot, logger)

	deps := router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, validate, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		TopicHandler:      handler.NewTopicHandler(topicService, validate, logger),
		ActivityHandler:   handler.NewActivityHandler(topicService, validate, logger),
		ContentHandler:    handler.NewContentHandler(topicService, validate, logger),
		TaskHandler:       handler.NewTaskHandler(taskService, logger),
		QuizHandler:       handler.NewQuizHandler(quizService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, validate, logger),
		EventsHandler:     handler.NewEventsHandler(broker, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	}

	if cfg.OpenAIAPIKey != "" {
		evaluator, err := ai.NewOpenAIEvaluator(ai.OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.AIModel,
			MaxTokens: cfg.AIMaxTokens,
			Logger:    logger,
		})
		if err != nil {
			log.Fatalf("failed to create ai evaluator: %v", err)
		}
		rubricService := service.NewRubricService(evaluator, taskService, githubClient, cfg.OutputRoot, logger)
		deps.RubricHandler = handler.NewRubricHandler(rubricService, validate, logger)
	} else {
		logger.Warn().Msg("openai api key not set, rubric endpoints disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
	})
	router.Register(app, cfg, deps)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().
		Str("addr", cfg.HTTPAddress()).
		Str("env", cfg.AppEnv).
		Str("lms", cfg.LMSBaseURL).
		Msg("api listening")

	waitForShutdown(ctx, app)
}

func waitForShutdown(ctx context.Context, app *fiber.App) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
