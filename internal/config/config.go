package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading API.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseURL         string
	RedisURL            string
	JWTSecret           string
	OpenAIAPIKey        string
	OpenAIModel         string
	AIMaxTokens         int
	AITemperature       float32
	AITimeout           time.Duration
	ExaminerConcurrency int
	GradeCacheTTL       time.Duration
	RateLimitMax        int
	RateLimitWindow     time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// GradingEnabled reports whether the upstream AI credential is configured.
// Without it the service still boots, but grading requests are rejected
// with a service-unavailable error.
func (c Config) GradingEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// Load reads configuration values from environment variables and an
// optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "AceGrade Examiner API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("ai.max_tokens", 900)
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.timeout", "45s")
	v.SetDefault("examiner.concurrency", 4)
	v.SetDefault("grade.cache_ttl", "10m")
	v.SetDefault("rate.limit_max", 5)
	v.SetDefault("rate.limit_window", "1m")

	aiTimeout, err := parseDuration(v.GetString("ai.timeout"), 45*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	cacheTTL, err := parseDuration(v.GetString("grade.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid grade cache ttl: %w", err)
	}

	rateWindow, err := parseDuration(v.GetString("rate.limit_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		OpenAIAPIKey:        v.GetString("openai_api_key"),
		OpenAIModel:         v.GetString("openai.model"),
		AIMaxTokens:         v.GetInt("ai.max_tokens"),
		AITemperature:       float32(v.GetFloat64("ai.temperature")),
		AITimeout:           aiTimeout,
		ExaminerConcurrency: v.GetInt("examiner.concurrency"),
		GradeCacheTTL:       cacheTTL,
		RateLimitMax:        v.GetInt("rate.limit_max"),
		RateLimitWindow:     rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ExaminerConcurrency <= 0 {
		cfg.ExaminerConcurrency = 4
	}

	if cfg.AIMaxTokens <= 0 {
		cfg.AIMaxTokens = 900
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 5
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}

	return time.ParseDuration(value)
}
