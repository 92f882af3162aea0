package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName      string
	AppEnv       string
	AppPort      string
	AllowOrigins string

	LMSBaseURL      string
	OutputRoot      string
	CredentialsFile string

	RedisURL     string
	NATSURL      string
	EventChannel string
	CacheTTL     time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	ScrapeWorkers    int
	LinkCheckWorkers int
	RefreshQueueSize int

	OpenAIAPIKey string
	AIModel      string
	AIMaxTokens  int

	GitHubToken string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an
// optional .env file. Only the LMS base URL and the JWT secret are
// mandatory; redis, NATS and the AI key are optional wiring.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PAATSHALA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Paatshala API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("output.root", "output")
	v.SetDefault("credentials.file", "credentials.json")
	v.SetDefault("event.channel", "paatshala")
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("token.ttl", "12h")
	v.SetDefault("scrape.workers", 4)
	v.SetDefault("linkcheck.workers", 5)
	v.SetDefault("refresh.queue_size", 32)

	cacheTTL, err := time.ParseDuration(v.GetString("cache.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}
	tokenTTL, err := time.ParseDuration(v.GetString("token.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		AllowOrigins:     v.GetString("cors.origins"),
		LMSBaseURL:       v.GetString("lms.base_url"),
		OutputRoot:       v.GetString("output.root"),
		CredentialsFile:  v.GetString("credentials.file"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		EventChannel:     v.GetString("event.channel"),
		CacheTTL:         cacheTTL,
		JWTSecret:        v.GetString("jwt.secret"),
		TokenTTL:         tokenTTL,
		ScrapeWorkers:    v.GetInt("scrape.workers"),
		LinkCheckWorkers: v.GetInt("linkcheck.workers"),
		RefreshQueueSize: v.GetInt("refresh.queue_size"),
		OpenAIAPIKey:     v.GetString("openai_api_key"),
		AIModel:          v.GetString("ai.model"),
		AIMaxTokens:      v.GetInt("ai.max_tokens"),
		GitHubToken:      v.GetString("github.token"),
	}

	if cfg.LMSBaseURL == "" {
		return Config{}, fmt.Errorf("lms base url must be provided")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ScrapeWorkers <= 0 {
		cfg.ScrapeWorkers = 4
	}
	if cfg.LinkCheckWorkers <= 0 {
		cfg.LinkCheckWorkers = 5
	}

	return cfg, nil
}
